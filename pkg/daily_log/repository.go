package daily_log

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

var ErrEntryNotFound = errors.New("daily log entry not found")
var ErrEntryAlreadyExists = errors.New("daily log entry already exists for this activity and date")

const uniqueViolation = "23505"

type Repository interface {
	Create(ctx context.Context, entry Entry) (Entry, error)
	Get(ctx context.Context, uid uuid.UUID) (Entry, error)
	// List returns entries of an activity ordered by date. A zero from or to leaves that side open.
	List(ctx context.Context, activityId int, from, to time.Time) ([]Entry, error)
	Update(ctx context.Context, entry Entry) (Entry, error)
	Delete(ctx context.Context, uid uuid.UUID) (bool, error)
	DeleteByActivity(ctx context.Context, activityId int) (int, error)
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

const entryColumns = `
	uid,
	activity_id,
	log_date,
	units_completed,
	labour,
	equipment,
	weather_condition,
	temperature_c,
	precipitation_mm,
	wind_kph,
	latitude,
	longitude,
	location_description,
	notes`

func scanEntry(row pgx.Row) (Entry, error) {
	var e Entry
	err := row.Scan(
		&e.Uid,
		&e.ActivityId,
		&e.Date,
		&e.UnitsCompleted,
		&e.Labour,
		&e.Equipment,
		&e.Weather.Condition,
		&e.Weather.TemperatureC,
		&e.Weather.PrecipitationMm,
		&e.Weather.WindKph,
		&e.Location.Latitude,
		&e.Location.Longitude,
		&e.Location.Description,
		&e.Notes,
	)
	if err != nil {
		return Entry{}, err
	}
	return e, nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func (r *RepositoryImpl) Create(ctx context.Context, e Entry) (Entry, error) {
	if e.Uid == uuid.Nil {
		e.Uid = uuid.New()
	}
	query := `INSERT INTO daily_log_entry (` + entryColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			RETURNING` + entryColumns

	created, err := scanEntry(r.db.QueryRow(ctx, query,
		e.Uid,
		e.ActivityId,
		e.Date,
		e.UnitsCompleted,
		nonNil(e.Labour),
		nonNil(e.Equipment),
		e.Weather.Condition,
		e.Weather.TemperatureC,
		e.Weather.PrecipitationMm,
		e.Weather.WindKph,
		e.Location.Latitude,
		e.Location.Longitude,
		e.Location.Description,
		e.Notes,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return Entry{}, ErrEntryAlreadyExists
		}
		err = fmt.Errorf("could not create daily log entry: %w", err)
		log.Error(err)
		return Entry{}, err
	}
	return created, nil
}

func (r *RepositoryImpl) Get(ctx context.Context, uid uuid.UUID) (Entry, error) {
	query := `SELECT` + entryColumns + ` FROM daily_log_entry WHERE uid = $1`
	e, err := scanEntry(r.db.QueryRow(ctx, query, uid))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, ErrEntryNotFound
		}
		return Entry{}, fmt.Errorf("could not get daily log entry: %w", err)
	}
	return e, nil
}

func optionalDate(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func (r *RepositoryImpl) List(ctx context.Context, activityId int, from, to time.Time) ([]Entry, error) {
	query := `SELECT` + entryColumns + `
			FROM daily_log_entry
			WHERE activity_id = $1
			  AND ($2::date IS NULL OR log_date >= $2::date)
			  AND ($3::date IS NULL OR log_date <= $3::date)
			ORDER BY log_date`

	rows, err := r.db.Query(ctx, query, activityId, optionalDate(from), optionalDate(to))
	if err != nil {
		return nil, fmt.Errorf("could not query daily log entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *RepositoryImpl) Update(ctx context.Context, e Entry) (Entry, error) {
	query := `UPDATE daily_log_entry SET
				log_date = $1,
				units_completed = $2,
				labour = $3,
				equipment = $4,
				weather_condition = $5,
				temperature_c = $6,
				precipitation_mm = $7,
				wind_kph = $8,
				latitude = $9,
				longitude = $10,
				location_description = $11,
				notes = $12
			WHERE uid = $13
			RETURNING` + entryColumns

	updated, err := scanEntry(r.db.QueryRow(ctx, query,
		e.Date,
		e.UnitsCompleted,
		nonNil(e.Labour),
		nonNil(e.Equipment),
		e.Weather.Condition,
		e.Weather.TemperatureC,
		e.Weather.PrecipitationMm,
		e.Weather.WindKph,
		e.Location.Latitude,
		e.Location.Longitude,
		e.Location.Description,
		e.Notes,
		e.Uid,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, ErrEntryNotFound
		}
		if isUniqueViolation(err) {
			return Entry{}, ErrEntryAlreadyExists
		}
		return Entry{}, fmt.Errorf("could not update daily log entry: %w", err)
	}
	return updated, nil
}

func (r *RepositoryImpl) Delete(ctx context.Context, uid uuid.UUID) (bool, error) {
	result, err := r.db.Exec(ctx, `DELETE FROM daily_log_entry WHERE uid = $1`, uid)
	if err != nil {
		return false, fmt.Errorf("could not delete daily log entry: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

func (r *RepositoryImpl) DeleteByActivity(ctx context.Context, activityId int) (int, error) {
	result, err := r.db.Exec(ctx, `DELETE FROM daily_log_entry WHERE activity_id = $1`, activityId)
	if err != nil {
		return 0, fmt.Errorf("could not delete daily log entries of activity %d: %w", activityId, err)
	}
	return int(result.RowsAffected()), nil
}
