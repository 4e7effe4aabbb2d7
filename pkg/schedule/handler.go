package schedule

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fieldplan/fieldplan/internal/metrics"
	"github.com/fieldplan/fieldplan/internal/rest"
	log "github.com/sirupsen/logrus"
)

const DateLayout = "2006-01-02"

// DefaultMaxSpanDays bounds the calendar span a single calculation may cover.
const DefaultMaxSpanDays = 3660

type WorkingDaysDTO struct {
	Kind            string `json:"kind" validate:"omitempty,oneof=weekdays_only all_days custom"`
	IncludeSaturday bool   `json:"includeSaturday"`
	IncludeSunday   bool   `json:"includeSunday"`
}

type DurationRequestDTO struct {
	Start       string         `json:"start" validate:"required,datetime=2006-01-02"`
	End         string         `json:"end" validate:"required,datetime=2006-01-02"`
	WorkingDays WorkingDaysDTO `json:"workingDays"`
}

type DurationResponseDTO struct {
	DurationDays int `json:"durationDays"`
	CalendarDays int `json:"calendarDays"`
}

type ForecastRequestDTO struct {
	Method       string         `json:"method" default:"constant" validate:"oneof=constant ramp_up ramp_down s_curve"`
	TotalUnits   float64        `json:"totalUnits" validate:"gte=0"`
	DurationDays int            `json:"durationDays" validate:"gte=0,lte=3660"`
	Start        string         `json:"start" validate:"required,datetime=2006-01-02"`
	End          string         `json:"end" validate:"omitempty,datetime=2006-01-02"`
	UnitsPerDay  float64        `json:"unitsPerDay" validate:"gte=0"`
	WorkingDays  WorkingDaysDTO `json:"workingDays"`
}

type ForecastPointDTO struct {
	DayIndex    int     `json:"dayIndex"`
	Date        string  `json:"date"`
	TargetUnits float64 `json:"targetUnits"`
}

type ForecastResponseDTO struct {
	Method       string             `json:"method"`
	TotalUnits   float64            `json:"totalUnits"`
	DurationDays int                `json:"durationDays"`
	Points       []ForecastPointDTO `json:"points"`
}

type VarianceRequestDTO struct {
	Forecasted float64 `json:"forecasted"`
	Actual     float64 `json:"actual"`
}

type VarianceDTO struct {
	Forecasted      float64 `json:"forecasted"`
	Actual          float64 `json:"actual"`
	Variance        float64 `json:"variance"`
	PercentVariance float64 `json:"percentVariance"`
}

// Handler exposes the duration and forecast calculations without any persistence.
type Handler struct {
	defaultPolicy WorkingDaysPolicy
	maxSpanDays   int
}

// NewHandler creates a calculator handler. A maxSpanDays of 0 or less uses DefaultMaxSpanDays.
func NewHandler(defaultPolicy WorkingDaysPolicy, maxSpanDays int) *Handler {
	if maxSpanDays <= 0 {
		maxSpanDays = DefaultMaxSpanDays
	}
	return &Handler{defaultPolicy: defaultPolicy, maxSpanDays: maxSpanDays}
}

// CalculateDuration godoc
// @Summary Count working days
// @Description Count working days between two dates (inclusive) under a working-days policy
// @Tags Schedule
// @Accept json
// @Produce json
// @Param request body DurationRequestDTO true "Date range and policy"
// @Success 200 {object} DurationResponseDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid request"
// @Router /api/schedule/duration [post]
func (h *Handler) CalculateDuration(w http.ResponseWriter, r *http.Request) {
	var req DurationRequestDTO
	if !rest.DecodeAndValidate(w, r, &req) {
		return
	}
	start, end, ok := parseRange(w, req.Start, req.End)
	if !ok {
		return
	}
	if !h.checkSpan(w, CalendarDays(start, end)) {
		return
	}
	policy := h.PolicyFromDTO(req.WorkingDays)
	rest.WriteJSON(w, http.StatusOK, DurationResponseDTO{
		DurationDays: CalculateDuration(start, end, policy),
		CalendarDays: CalendarDays(start, end),
	})
}

// GenerateForecast godoc
// @Summary Generate a daily production forecast
// @Description Distribute total units over the duration using the selected forecast method.
// @Description When durationDays is omitted it is computed from start, end and the working-days policy.
// @Tags Schedule
// @Accept json
// @Produce json
// @Param request body ForecastRequestDTO true "Forecast parameters"
// @Success 200 {object} ForecastResponseDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid request"
// @Router /api/schedule/forecast [post]
func (h *Handler) GenerateForecast(w http.ResponseWriter, r *http.Request) {
	var req ForecastRequestDTO
	if !rest.DecodeAndValidate(w, r, &req) {
		return
	}
	start, err := time.Parse(DateLayout, req.Start)
	if err != nil {
		writeDateError(w)
		return
	}

	duration := req.DurationDays
	if duration == 0 && req.End != "" {
		end, err := time.Parse(DateLayout, req.End)
		if err != nil {
			writeDateError(w)
			return
		}
		if !h.checkSpan(w, CalendarDays(start, end)) {
			return
		}
		duration = CalculateDuration(start, end, h.PolicyFromDTO(req.WorkingDays))
	}
	if !h.checkSpan(w, duration) {
		return
	}

	method, err := ParseForecastMethod(req.Method)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, rest.ErrorResponse{Error: "Invalid forecast method", Details: err.Error()})
		return
	}

	points, err := GenerateForecast(method, req.TotalUnits, duration, start, ForecastConfig{UnitsPerDay: req.UnitsPerDay})
	if err != nil {
		if errors.Is(err, ErrInvalidArgument) {
			rest.WriteError(w, http.StatusBadRequest, rest.ErrorResponse{Error: "Cannot generate forecast", Details: err.Error()})
			return
		}
		log.Errorf("failed to generate forecast: %v", err)
		rest.WriteError(w, http.StatusInternalServerError, rest.ErrorResponse{Error: err.Error()})
		return
	}
	metrics.ForecastGenerated(string(method))

	rest.WriteJSON(w, http.StatusOK, ForecastResponseDTO{
		Method:       string(method),
		TotalUnits:   TotalUnits(points),
		DurationDays: duration,
		Points:       PointsToDTO(points),
	})
}

// CalculateVariance godoc
// @Summary Forecast versus actual variance
// @Tags Schedule
// @Accept json
// @Produce json
// @Param request body VarianceRequestDTO true "Forecasted and actual values"
// @Success 200 {object} VarianceDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid request"
// @Router /api/schedule/variance [post]
func (h *Handler) CalculateVariance(w http.ResponseWriter, r *http.Request) {
	var req VarianceRequestDTO
	if !rest.DecodeAndValidate(w, r, &req) {
		return
	}
	rest.WriteJSON(w, http.StatusOK, VarianceToDTO(CalculateVariance(req.Forecasted, req.Actual)))
}

// PolicyFromDTO converts a request policy, using the configured default when no kind is given.
func (h *Handler) PolicyFromDTO(dto WorkingDaysDTO) WorkingDaysPolicy {
	if dto.Kind == "" {
		return h.defaultPolicy
	}
	kind, _ := ParseWorkingDaysKind(dto.Kind)
	return WorkingDaysPolicy{
		Kind:            kind,
		IncludeSaturday: dto.IncludeSaturday,
		IncludeSunday:   dto.IncludeSunday,
	}
}

func PolicyToDTO(policy WorkingDaysPolicy) WorkingDaysDTO {
	return WorkingDaysDTO{
		Kind:            string(policy.Kind),
		IncludeSaturday: policy.IncludeSaturday,
		IncludeSunday:   policy.IncludeSunday,
	}
}

func PointsToDTO(points []DailyForecastPoint) []ForecastPointDTO {
	dto := make([]ForecastPointDTO, 0, len(points))
	for _, p := range points {
		dto = append(dto, ForecastPointDTO{
			DayIndex:    p.DayIndex,
			Date:        p.Date.Format(DateLayout),
			TargetUnits: p.TargetUnits,
		})
	}
	return dto
}

func VarianceToDTO(v Variance) VarianceDTO {
	return VarianceDTO{
		Forecasted:      v.Forecasted,
		Actual:          v.Actual,
		Variance:        v.Variance,
		PercentVariance: v.PercentVariance,
	}
}

func parseRange(w http.ResponseWriter, startString, endString string) (time.Time, time.Time, bool) {
	start, err := time.Parse(DateLayout, startString)
	if err != nil {
		writeDateError(w)
		return time.Time{}, time.Time{}, false
	}
	end, err := time.Parse(DateLayout, endString)
	if err != nil {
		writeDateError(w)
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

func (h *Handler) checkSpan(w http.ResponseWriter, days int) bool {
	if days <= h.maxSpanDays {
		return true
	}
	rest.WriteError(w, http.StatusBadRequest, rest.ErrorResponse{
		Error:   "Date range too long",
		Details: fmt.Sprintf("at most %d days can be calculated, got %d", h.maxSpanDays, days),
	})
	return false
}

func writeDateError(w http.ResponseWriter) {
	rest.WriteError(w, http.StatusBadRequest, rest.ErrorResponse{
		Error:   "Incorrect date format",
		Details: "Date must be in YYYY-MM-DD format",
	})
}
