package activity

import (
	"context"
	"errors"
	"fmt"

	"github.com/fieldplan/fieldplan/pkg/schedule"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

var ErrActivityNotFound = errors.New("activity not found")

type Repository interface {
	WithTransaction(ctx context.Context, fn func(repo Repository) error) error
	Create(ctx context.Context, activity Activity) (Activity, error)
	Get(ctx context.Context, id int) (Activity, error)
	// List returns the activities of a project ordered by phase and position.
	List(ctx context.Context, projectId int) ([]Activity, error)
	ListChildren(ctx context.Context, parentId int) ([]Activity, error)
	Update(ctx context.Context, activity Activity) (Activity, error)
	// Delete removes the activity together with its sub-activities.
	Delete(ctx context.Context, id int) (bool, error)
	MaxPosition(ctx context.Context, projectId int, phase string) (int, error)
}

type queryer interface {
	Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, query string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, query string, args ...any) pgx.Row
}

type RepositoryImpl struct {
	db *pgxpool.Pool
	tx pgx.Tx
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) q() queryer {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

func (r *RepositoryImpl) WithTransaction(ctx context.Context, fn func(repo Repository) error) error {
	if r.tx != nil {
		return fn(r)
	}
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			log.Errorf("rollback error: %v", rbErr)
		}
	}()

	if err := fn(&RepositoryImpl{db: r.db, tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

const activityColumns = `
	a.id,
	a.project_id,
	COALESCE(a.parent_id, 0),
	a.phase,
	a.name,
	a.start_date,
	a.end_date,
	a.working_days_kind,
	a.include_saturday,
	a.include_sunday,
	a.duration_days,
	a.unit,
	a.total_units,
	a.forecast_method,
	a.crew_size,
	a.equipment_count,
	a.position`

func scanActivity(row pgx.Row) (Activity, error) {
	var a Activity
	var kind, method string
	err := row.Scan(
		&a.Id,
		&a.ProjectId,
		&a.ParentId,
		&a.Phase,
		&a.Name,
		&a.StartDate,
		&a.EndDate,
		&kind,
		&a.WorkingDays.IncludeSaturday,
		&a.WorkingDays.IncludeSunday,
		&a.DurationDays,
		&a.Production.Unit,
		&a.Production.TotalUnits,
		&method,
		&a.Production.CrewSize,
		&a.Production.EquipmentCount,
		&a.Position,
	)
	if err != nil {
		return Activity{}, err
	}
	a.WorkingDays.Kind, _ = schedule.ParseWorkingDaysKind(kind)
	a.Production.Method = schedule.ForecastMethod(method)
	return a, nil
}

func nullableParent(parentId int) *int {
	if parentId == 0 {
		return nil
	}
	return &parentId
}

func (r *RepositoryImpl) Create(ctx context.Context, a Activity) (Activity, error) {
	query := `INSERT INTO activity AS a (
				project_id,
				parent_id,
				phase,
				name,
				start_date,
				end_date,
				working_days_kind,
				include_saturday,
				include_sunday,
				duration_days,
				unit,
				total_units,
				forecast_method,
				crew_size,
				equipment_count,
				position
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
			RETURNING` + activityColumns

	created, err := scanActivity(r.q().QueryRow(ctx, query,
		a.ProjectId,
		nullableParent(a.ParentId),
		a.Phase,
		a.Name,
		a.StartDate,
		a.EndDate,
		string(a.WorkingDays.Kind),
		a.WorkingDays.IncludeSaturday,
		a.WorkingDays.IncludeSunday,
		a.DurationDays,
		a.Production.Unit,
		a.Production.TotalUnits,
		string(a.Production.Method),
		a.Production.CrewSize,
		a.Production.EquipmentCount,
		a.Position,
	))
	if err != nil {
		err = fmt.Errorf("could not create activity: %w", err)
		log.Error(err)
		return Activity{}, err
	}
	return created, nil
}

func (r *RepositoryImpl) Get(ctx context.Context, id int) (Activity, error) {
	query := `SELECT` + activityColumns + ` FROM activity a WHERE a.id = $1`
	a, err := scanActivity(r.q().QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Activity{}, ErrActivityNotFound
		}
		return Activity{}, fmt.Errorf("could not get activity: %w", err)
	}
	return a, nil
}

func (r *RepositoryImpl) List(ctx context.Context, projectId int) ([]Activity, error) {
	query := `SELECT` + activityColumns + ` FROM activity a WHERE a.project_id = $1 ORDER BY a.phase, a.position, a.id`
	return r.list(ctx, query, projectId)
}

func (r *RepositoryImpl) ListChildren(ctx context.Context, parentId int) ([]Activity, error) {
	query := `SELECT` + activityColumns + ` FROM activity a WHERE a.parent_id = $1 ORDER BY a.position, a.id`
	return r.list(ctx, query, parentId)
}

func (r *RepositoryImpl) list(ctx context.Context, query string, arg int) ([]Activity, error) {
	rows, err := r.q().Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("could not query activities: %w", err)
	}
	defer rows.Close()

	var activities []Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return activities, nil
}

func (r *RepositoryImpl) Update(ctx context.Context, a Activity) (Activity, error) {
	query := `UPDATE activity AS a SET
				parent_id = $1,
				phase = $2,
				name = $3,
				start_date = $4,
				end_date = $5,
				working_days_kind = $6,
				include_saturday = $7,
				include_sunday = $8,
				duration_days = $9,
				unit = $10,
				total_units = $11,
				forecast_method = $12,
				crew_size = $13,
				equipment_count = $14,
				position = $15
			WHERE a.id = $16
			RETURNING` + activityColumns

	updated, err := scanActivity(r.q().QueryRow(ctx, query,
		nullableParent(a.ParentId),
		a.Phase,
		a.Name,
		a.StartDate,
		a.EndDate,
		string(a.WorkingDays.Kind),
		a.WorkingDays.IncludeSaturday,
		a.WorkingDays.IncludeSunday,
		a.DurationDays,
		a.Production.Unit,
		a.Production.TotalUnits,
		string(a.Production.Method),
		a.Production.CrewSize,
		a.Production.EquipmentCount,
		a.Position,
		a.Id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Activity{}, ErrActivityNotFound
		}
		return Activity{}, fmt.Errorf("could not update activity: %w", err)
	}
	return updated, nil
}

func (r *RepositoryImpl) Delete(ctx context.Context, id int) (bool, error) {
	result, err := r.q().Exec(ctx, `DELETE FROM activity WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("could not delete activity: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

func (r *RepositoryImpl) MaxPosition(ctx context.Context, projectId int, phase string) (int, error) {
	var position int
	err := r.q().QueryRow(ctx,
		`SELECT COALESCE(MAX(position), 0) FROM activity WHERE project_id = $1 AND phase = $2`,
		projectId, phase,
	).Scan(&position)
	if err != nil {
		return 0, fmt.Errorf("could not find max position: %w", err)
	}
	return position, nil
}
