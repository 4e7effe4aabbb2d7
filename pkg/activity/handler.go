package activity

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/fieldplan/fieldplan/internal/rest"
	"github.com/fieldplan/fieldplan/pkg/schedule"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type ActivityDTO struct {
	Id           int                     `json:"id"`
	ProjectId    int                     `json:"projectId"`
	ParentId     int                     `json:"parentId,omitempty" validate:"gte=0"`
	Phase        string                  `json:"phase" validate:"max=100"`
	Name         string                  `json:"name" validate:"required,max=200"`
	StartDate    string                  `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate      string                  `json:"endDate" validate:"required,datetime=2006-01-02"`
	WorkingDays  schedule.WorkingDaysDTO `json:"workingDays"`
	DurationDays int                     `json:"durationDays"`
	Production   ProductionDTO           `json:"production"`
	Position     int                     `json:"position"`
}

type ProductionDTO struct {
	Unit           string  `json:"unit" validate:"max=20"`
	TotalUnits     float64 `json:"totalUnits" validate:"gte=0"`
	Method         string  `json:"method" validate:"omitempty,oneof=constant ramp_up ramp_down s_curve"`
	CrewSize       int     `json:"crewSize" validate:"gte=0"`
	EquipmentCount int     `json:"equipmentCount" validate:"gte=0"`
}

type PhaseSummaryDTO struct {
	Phase         string  `json:"phase"`
	ActivityCount int     `json:"activityCount"`
	StartDate     string  `json:"startDate"`
	EndDate       string  `json:"endDate"`
	DurationDays  int     `json:"durationDays"`
	TotalUnits    float64 `json:"totalUnits"`
}

type ForecastDTO struct {
	ActivityId           int                         `json:"activityId"`
	Method               string                      `json:"method"`
	Unit                 string                      `json:"unit"`
	TotalUnits           float64                     `json:"totalUnits"`
	DurationDays         int                         `json:"durationDays"`
	UnitsPerDay          float64                     `json:"unitsPerDay"`
	UnitsPerCrewDay      float64                     `json:"unitsPerCrewDay"`
	UnitsPerEquipmentDay float64                     `json:"unitsPerEquipmentDay"`
	Points               []schedule.ForecastPointDTO `json:"points"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// ListActivities godoc
// @Summary List project activities
// @Description Get all activities and sub-activities of a project ordered by phase and position
// @Tags Activity
// @Produce json
// @Param projectId path int true "Project ID"
// @Success 200 {array} ActivityDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid projectId"
// @Router /api/project/{projectId}/activity [get]
func (h *Handler) ListActivities(w http.ResponseWriter, r *http.Request) {
	projectId, ok := pathInt(w, r, "projectId")
	if !ok {
		return
	}
	activities, err := h.service.List(r.Context(), projectId)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	dto := make([]ActivityDTO, 0, len(activities))
	for _, a := range activities {
		dto = append(dto, ToDTO(a))
	}
	rest.WriteJSON(w, http.StatusOK, dto)
}

// CreateActivity godoc
// @Summary Create an activity
// @Description Create an activity or sub-activity. The working-days duration is computed by the server.
// @Tags Activity
// @Accept json
// @Produce json
// @Param projectId path int true "Project ID"
// @Param activity body ActivityDTO true "Activity"
// @Success 201 {object} ActivityDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid activity"
// @Router /api/project/{projectId}/activity [post]
func (h *Handler) CreateActivity(w http.ResponseWriter, r *http.Request) {
	projectId, ok := pathInt(w, r, "projectId")
	if !ok {
		return
	}
	var dto ActivityDTO
	if !rest.DecodeAndValidate(w, r, &dto) {
		return
	}
	activity, ok := fromDTO(w, dto)
	if !ok {
		return
	}
	activity.ProjectId = projectId

	created, err := h.service.Create(r.Context(), activity)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusCreated, ToDTO(created))
}

// ListPhases godoc
// @Summary List project phases
// @Description Summarise the activities of a project by phase
// @Tags Activity
// @Produce json
// @Param projectId path int true "Project ID"
// @Success 200 {array} PhaseSummaryDTO
// @Router /api/project/{projectId}/phase [get]
func (h *Handler) ListPhases(w http.ResponseWriter, r *http.Request) {
	projectId, ok := pathInt(w, r, "projectId")
	if !ok {
		return
	}
	phases, err := h.service.ListPhases(r.Context(), projectId)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	dto := make([]PhaseSummaryDTO, 0, len(phases))
	for _, p := range phases {
		dto = append(dto, PhaseSummaryDTO{
			Phase:         p.Phase,
			ActivityCount: p.ActivityCount,
			StartDate:     p.StartDate.Format(schedule.DateLayout),
			EndDate:       p.EndDate.Format(schedule.DateLayout),
			DurationDays:  p.DurationDays,
			TotalUnits:    p.TotalUnits,
		})
	}
	rest.WriteJSON(w, http.StatusOK, dto)
}

// GetActivity godoc
// @Summary Get an activity
// @Tags Activity
// @Produce json
// @Param activityId path int true "Activity ID"
// @Success 200 {object} ActivityDTO
// @Failure 404 {object} rest.ErrorResponse "Activity not found"
// @Router /api/activity/{activityId} [get]
func (h *Handler) GetActivity(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "activityId")
	if !ok {
		return
	}
	activity, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, ToDTO(activity))
}

// UpdateActivity godoc
// @Summary Update an activity
// @Description Update dates, working days or the production plan. The duration is recomputed.
// @Tags Activity
// @Accept json
// @Produce json
// @Param activityId path int true "Activity ID"
// @Param activity body ActivityDTO true "Activity"
// @Success 200 {object} ActivityDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid activity"
// @Failure 404 {object} rest.ErrorResponse "Activity not found"
// @Router /api/activity/{activityId} [put]
func (h *Handler) UpdateActivity(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "activityId")
	if !ok {
		return
	}
	var dto ActivityDTO
	if !rest.DecodeAndValidate(w, r, &dto) {
		return
	}
	if dto.Id != 0 && dto.Id != id {
		rest.WriteError(w, http.StatusBadRequest, rest.ErrorResponse{Error: "Invalid activity id in request body"})
		return
	}
	activity, ok := fromDTO(w, dto)
	if !ok {
		return
	}
	activity.Id = id

	updated, err := h.service.Update(r.Context(), activity)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, ToDTO(updated))
}

// DeleteActivity godoc
// @Summary Delete an activity
// @Description Delete an activity together with its sub-activities
// @Tags Activity
// @Param activityId path int true "Activity ID"
// @Success 204 "No Content"
// @Failure 404 {object} rest.ErrorResponse "Activity not found"
// @Router /api/activity/{activityId} [delete]
func (h *Handler) DeleteActivity(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "activityId")
	if !ok {
		return
	}
	deleted, err := h.service.Delete(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !deleted {
		rest.WriteError(w, http.StatusNotFound, rest.ErrorResponse{Error: ErrActivityNotFound.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetForecast godoc
// @Summary Get the production forecast of an activity
// @Description Daily production targets over the activity duration plus crew and equipment rates
// @Tags Activity
// @Produce json
// @Param activityId path int true "Activity ID"
// @Success 200 {object} ForecastDTO
// @Failure 404 {object} rest.ErrorResponse "Activity not found"
// @Router /api/activity/{activityId}/forecast [get]
func (h *Handler) GetForecast(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "activityId")
	if !ok {
		return
	}
	activity, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	points, err := h.service.Forecast(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rate, err := h.service.CrewRate(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, ForecastDTO{
		ActivityId:           activity.Id,
		Method:               string(activity.Production.Method),
		Unit:                 activity.Production.Unit,
		TotalUnits:           activity.Production.TotalUnits,
		DurationDays:         activity.DurationDays,
		UnitsPerDay:          rate.UnitsPerDay,
		UnitsPerCrewDay:      rate.UnitsPerCrewDay,
		UnitsPerEquipmentDay: rate.UnitsPerEquipmentDay,
		Points:               schedule.PointsToDTO(points),
	})
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrActivityNotFound):
		rest.WriteError(w, http.StatusNotFound, rest.ErrorResponse{Error: err.Error()})
	case errors.Is(err, ErrInvalidActivity),
		errors.Is(err, ErrInvalidDateRange),
		errors.Is(err, ErrParentNotFound),
		errors.Is(err, ErrNestingTooDeep),
		errors.Is(err, schedule.ErrInvalidArgument):
		rest.WriteError(w, http.StatusBadRequest, rest.ErrorResponse{Error: "Invalid activity", Details: err.Error()})
	default:
		log.Errorf("activity request failed: %v", err)
		rest.WriteError(w, http.StatusInternalServerError, rest.ErrorResponse{Error: err.Error()})
	}
}

func pathInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	value, err := strconv.Atoi(mux.Vars(r)[name])
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, rest.ErrorResponse{
			Error:   "Invalid " + name + " format",
			Details: "Parameter " + name + " must be a number",
		})
		return 0, false
	}
	return value, true
}

func fromDTO(w http.ResponseWriter, dto ActivityDTO) (Activity, bool) {
	start, err := time.Parse(schedule.DateLayout, dto.StartDate)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, rest.ErrorResponse{Error: "Incorrect date format", Details: "startDate must be YYYY-MM-DD"})
		return Activity{}, false
	}
	end, err := time.Parse(schedule.DateLayout, dto.EndDate)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, rest.ErrorResponse{Error: "Incorrect date format", Details: "endDate must be YYYY-MM-DD"})
		return Activity{}, false
	}
	var policy schedule.WorkingDaysPolicy
	if dto.WorkingDays.Kind != "" {
		kind, _ := schedule.ParseWorkingDaysKind(dto.WorkingDays.Kind)
		policy = schedule.WorkingDaysPolicy{
			Kind:            kind,
			IncludeSaturday: dto.WorkingDays.IncludeSaturday,
			IncludeSunday:   dto.WorkingDays.IncludeSunday,
		}
	}
	return Activity{
		Id:          dto.Id,
		ParentId:    dto.ParentId,
		Phase:       dto.Phase,
		Name:        dto.Name,
		StartDate:   start,
		EndDate:     end,
		WorkingDays: policy,
		Production: Production{
			Unit:           dto.Production.Unit,
			TotalUnits:     dto.Production.TotalUnits,
			Method:         schedule.ForecastMethod(dto.Production.Method),
			CrewSize:       dto.Production.CrewSize,
			EquipmentCount: dto.Production.EquipmentCount,
		},
	}, true
}

func ToDTO(a Activity) ActivityDTO {
	return ActivityDTO{
		Id:           a.Id,
		ProjectId:    a.ProjectId,
		ParentId:     a.ParentId,
		Phase:        a.Phase,
		Name:         a.Name,
		StartDate:    a.StartDate.Format(schedule.DateLayout),
		EndDate:      a.EndDate.Format(schedule.DateLayout),
		WorkingDays:  schedule.PolicyToDTO(a.WorkingDays),
		DurationDays: a.DurationDays,
		Production: ProductionDTO{
			Unit:           a.Production.Unit,
			TotalUnits:     a.Production.TotalUnits,
			Method:         string(a.Production.Method),
			CrewSize:       a.Production.CrewSize,
			EquipmentCount: a.Production.EquipmentCount,
		},
		Position: a.Position,
	}
}
