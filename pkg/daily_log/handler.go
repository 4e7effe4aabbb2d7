package daily_log

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/fieldplan/fieldplan/internal/rest"
	"github.com/fieldplan/fieldplan/pkg/activity"
	"github.com/fieldplan/fieldplan/pkg/schedule"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type EntryDTO struct {
	Uid            string         `json:"uid"`
	ActivityId     int            `json:"activityId"`
	Date           string         `json:"date" validate:"required,datetime=2006-01-02"`
	UnitsCompleted float64        `json:"unitsCompleted" validate:"gte=0"`
	Labour         []LabourDTO    `json:"labour" validate:"dive"`
	Equipment      []EquipmentDTO `json:"equipment" validate:"dive"`
	Weather        WeatherDTO     `json:"weather"`
	Location       LocationDTO    `json:"location"`
	Notes          string         `json:"notes" validate:"max=2000"`
}

type LabourDTO struct {
	Trade   string  `json:"trade" validate:"required,max=100"`
	Workers int     `json:"workers" validate:"gte=0"`
	Hours   float64 `json:"hours" validate:"gte=0,lte=24"`
}

type EquipmentDTO struct {
	Name  string  `json:"name" validate:"required,max=100"`
	Count int     `json:"count" validate:"gte=0"`
	Hours float64 `json:"hours" validate:"gte=0,lte=24"`
}

type WeatherDTO struct {
	Condition       string   `json:"condition" validate:"max=50"`
	TemperatureC    *float64 `json:"temperatureC,omitempty"`
	PrecipitationMm *float64 `json:"precipitationMm,omitempty" validate:"omitempty,gte=0"`
	WindKph         *float64 `json:"windKph,omitempty" validate:"omitempty,gte=0"`
}

type LocationDTO struct {
	Latitude    *float64 `json:"latitude,omitempty" validate:"omitempty,gte=-90,lte=90"`
	Longitude   *float64 `json:"longitude,omitempty" validate:"omitempty,gte=-180,lte=180"`
	Description string   `json:"description" validate:"max=200"`
}

type TotalsDTO struct {
	Entries        int     `json:"entries"`
	UnitsCompleted float64 `json:"unitsCompleted"`
	LabourHours    float64 `json:"labourHours"`
	EquipmentHours float64 `json:"equipmentHours"`
}

type ReportDayDTO struct {
	DayIndex int    `json:"dayIndex"`
	Date     string `json:"date"`
	schedule.VarianceDTO
	CumulativeForecasted float64 `json:"cumulativeForecasted"`
	CumulativeActual     float64 `json:"cumulativeActual"`
	CumulativeVariance   float64 `json:"cumulativeVariance"`
}

type WeekReportDTO struct {
	Week string `json:"week"`
	schedule.VarianceDTO
}

type ReportSummaryDTO struct {
	AsOf string `json:"asOf"`
	schedule.VarianceDTO
	TotalUnits     float64 `json:"totalUnits"`
	PercentPlanned float64 `json:"percentPlanned"`
	PercentActual  float64 `json:"percentActual"`
	UnplannedUnits float64 `json:"unplannedUnits"`
}

type ReportDTO struct {
	ActivityId   int              `json:"activityId"`
	ActivityName string           `json:"activityName"`
	Unit         string           `json:"unit"`
	Method       string           `json:"method"`
	Days         []ReportDayDTO   `json:"days"`
	Weeks        []WeekReportDTO  `json:"weeks"`
	Summary      ReportSummaryDTO `json:"summary"`
}

type ReportRenderer interface {
	RenderReport(report Report) (string, error)
}

type Handler struct {
	service     Service
	csvRenderer ReportRenderer
}

func NewHandler(service Service, csvRenderer ReportRenderer) *Handler {
	return &Handler{service: service, csvRenderer: csvRenderer}
}

// ListEntries godoc
// @Summary List daily log entries
// @Description Get the daily log entries of an activity, optionally limited to a date range
// @Tags DailyLog
// @Produce json
// @Param activityId path int true "Activity ID"
// @Param from query string false "First date (YYYY-MM-DD)"
// @Param to query string false "Last date (YYYY-MM-DD)"
// @Success 200 {array} EntryDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid parameters"
// @Failure 404 {object} rest.ErrorResponse "Activity not found"
// @Router /api/activity/{activityId}/log [get]
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	activityId, from, to, ok := listParams(w, r)
	if !ok {
		return
	}
	entries, err := h.service.List(r.Context(), activityId, from, to)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	dto := make([]EntryDTO, 0, len(entries))
	for _, e := range entries {
		dto = append(dto, ToDTO(e))
	}
	rest.WriteJSON(w, http.StatusOK, dto)
}

// GetTotals godoc
// @Summary Sum daily log entries
// @Description Units, labour hours and equipment hours logged against an activity
// @Tags DailyLog
// @Produce json
// @Param activityId path int true "Activity ID"
// @Param from query string false "First date (YYYY-MM-DD)"
// @Param to query string false "Last date (YYYY-MM-DD)"
// @Success 200 {object} TotalsDTO
// @Failure 404 {object} rest.ErrorResponse "Activity not found"
// @Router /api/activity/{activityId}/log/totals [get]
func (h *Handler) GetTotals(w http.ResponseWriter, r *http.Request) {
	activityId, from, to, ok := listParams(w, r)
	if !ok {
		return
	}
	totals, err := h.service.Totals(r.Context(), activityId, from, to)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, TotalsDTO{
		Entries:        totals.Entries,
		UnitsCompleted: totals.UnitsCompleted,
		LabourHours:    totals.LabourHours,
		EquipmentHours: totals.EquipmentHours,
	})
}

// RecordEntry godoc
// @Summary Record a daily log entry
// @Description Record the production, crew, plant and weather of one day. One entry per activity and date.
// @Tags DailyLog
// @Accept json
// @Produce json
// @Param activityId path int true "Activity ID"
// @Param entry body EntryDTO true "Daily log entry"
// @Success 201 {object} EntryDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid entry"
// @Failure 404 {object} rest.ErrorResponse "Activity not found"
// @Failure 409 {object} rest.ErrorResponse "Entry already exists for the date"
// @Router /api/activity/{activityId}/log [post]
func (h *Handler) RecordEntry(w http.ResponseWriter, r *http.Request) {
	activityId, ok := pathInt(w, r, "activityId")
	if !ok {
		return
	}
	var dto EntryDTO
	if !rest.DecodeAndValidate(w, r, &dto) {
		return
	}
	entry, ok := fromDTO(w, dto)
	if !ok {
		return
	}
	entry.ActivityId = activityId

	created, err := h.service.Record(r.Context(), entry)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusCreated, ToDTO(created))
}

// GetEntry godoc
// @Summary Get a daily log entry
// @Tags DailyLog
// @Produce json
// @Param uid path string true "Entry UID"
// @Success 200 {object} EntryDTO
// @Failure 404 {object} rest.ErrorResponse "Entry not found"
// @Router /api/log/{uid} [get]
func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	uid, ok := pathUid(w, r)
	if !ok {
		return
	}
	entry, err := h.service.Get(r.Context(), uid)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, ToDTO(entry))
}

// UpdateEntry godoc
// @Summary Update a daily log entry
// @Tags DailyLog
// @Accept json
// @Produce json
// @Param uid path string true "Entry UID"
// @Param entry body EntryDTO true "Daily log entry"
// @Success 200 {object} EntryDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid entry"
// @Failure 404 {object} rest.ErrorResponse "Entry not found"
// @Failure 409 {object} rest.ErrorResponse "Entry already exists for the date"
// @Router /api/log/{uid} [put]
func (h *Handler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	uid, ok := pathUid(w, r)
	if !ok {
		return
	}
	var dto EntryDTO
	if !rest.DecodeAndValidate(w, r, &dto) {
		return
	}
	entry, ok := fromDTO(w, dto)
	if !ok {
		return
	}
	entry.Uid = uid

	updated, err := h.service.Update(r.Context(), entry)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, ToDTO(updated))
}

// DeleteEntry godoc
// @Summary Delete a daily log entry
// @Tags DailyLog
// @Param uid path string true "Entry UID"
// @Success 204 "No Content"
// @Failure 404 {object} rest.ErrorResponse "Entry not found"
// @Router /api/log/{uid} [delete]
func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	uid, ok := pathUid(w, r)
	if !ok {
		return
	}
	deleted, err := h.service.Delete(r.Context(), uid)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !deleted {
		rest.WriteError(w, http.StatusNotFound, rest.ErrorResponse{Error: ErrEntryNotFound.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetReport godoc
// @Summary Forecast versus actual report
// @Description Per day and per week comparison of forecast and logged production. Send Accept: text/csv or format=csv for CSV.
// @Tags DailyLog
// @Produce json
// @Produce text/csv
// @Param activityId path int true "Activity ID"
// @Param format query string false "csv for a CSV export"
// @Success 200 {object} ReportDTO
// @Failure 404 {object} rest.ErrorResponse "Activity not found"
// @Router /api/activity/{activityId}/report [get]
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	activityId, ok := pathInt(w, r, "activityId")
	if !ok {
		return
	}
	report, err := h.service.Report(r.Context(), activityId)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if r.URL.Query().Get("format") == "csv" || r.Header.Get("Accept") == "text/csv" {
		csv, err := h.csvRenderer.RenderReport(report)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", "attachment; filename=\"activity-"+strconv.Itoa(activityId)+"-report.csv\"")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(csv)); err != nil {
			log.Errorf("failed to write csv report: %v", err)
		}
		return
	}
	rest.WriteJSON(w, http.StatusOK, ReportToDTO(report))
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, activity.ErrActivityNotFound), errors.Is(err, ErrEntryNotFound):
		rest.WriteError(w, http.StatusNotFound, rest.ErrorResponse{Error: err.Error()})
	case errors.Is(err, ErrEntryAlreadyExists):
		rest.WriteError(w, http.StatusConflict, rest.ErrorResponse{Error: err.Error()})
	case errors.Is(err, ErrInvalidEntry), errors.Is(err, ErrFutureDate):
		rest.WriteError(w, http.StatusBadRequest, rest.ErrorResponse{Error: "Invalid daily log entry", Details: err.Error()})
	default:
		log.Errorf("daily log request failed: %v", err)
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

func pathUid(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	uid, err := uuid.Parse(mux.Vars(r)["uid"])
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, rest.ErrorResponse{
			Error:   "Invalid uid format",
			Details: "Parameter uid must be a UUID",
		})
		return uuid.Nil, false
	}
	return uid, true
}

func listParams(w http.ResponseWriter, r *http.Request) (int, time.Time, time.Time, bool) {
	activityId, ok := pathInt(w, r, "activityId")
	if !ok {
		return 0, time.Time{}, time.Time{}, false
	}
	from, ok := queryDate(w, r, "from")
	if !ok {
		return 0, time.Time{}, time.Time{}, false
	}
	to, ok := queryDate(w, r, "to")
	if !ok {
		return 0, time.Time{}, time.Time{}, false
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		rest.WriteError(w, http.StatusBadRequest, rest.ErrorResponse{Error: "Invalid date range", Details: "to must not be before from"})
		return 0, time.Time{}, time.Time{}, false
	}
	return activityId, from, to, true
}

func queryDate(w http.ResponseWriter, r *http.Request, name string) (time.Time, bool) {
	value := r.URL.Query().Get(name)
	if value == "" {
		return time.Time{}, true
	}
	date, err := time.Parse(schedule.DateLayout, value)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, rest.ErrorResponse{
			Error:   "Invalid " + name + " (date) format",
			Details: name + " must be YYYY-MM-DD",
		})
		return time.Time{}, false
	}
	return date, true
}

func fromDTO(w http.ResponseWriter, dto EntryDTO) (Entry, bool) {
	date, err := time.Parse(schedule.DateLayout, dto.Date)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, rest.ErrorResponse{Error: "Incorrect date format", Details: "date must be YYYY-MM-DD"})
		return Entry{}, false
	}
	labour := make([]Labour, 0, len(dto.Labour))
	for _, l := range dto.Labour {
		labour = append(labour, Labour{Trade: l.Trade, Workers: l.Workers, Hours: l.Hours})
	}
	equipment := make([]Equipment, 0, len(dto.Equipment))
	for _, eq := range dto.Equipment {
		equipment = append(equipment, Equipment{Name: eq.Name, Count: eq.Count, Hours: eq.Hours})
	}
	return Entry{
		Date:           date,
		UnitsCompleted: dto.UnitsCompleted,
		Labour:         labour,
		Equipment:      equipment,
		Weather: Weather{
			Condition:       dto.Weather.Condition,
			TemperatureC:    dto.Weather.TemperatureC,
			PrecipitationMm: dto.Weather.PrecipitationMm,
			WindKph:         dto.Weather.WindKph,
		},
		Location: Location{
			Latitude:    dto.Location.Latitude,
			Longitude:   dto.Location.Longitude,
			Description: dto.Location.Description,
		},
		Notes: dto.Notes,
	}, true
}

func ToDTO(e Entry) EntryDTO {
	labour := make([]LabourDTO, 0, len(e.Labour))
	for _, l := range e.Labour {
		labour = append(labour, LabourDTO{Trade: l.Trade, Workers: l.Workers, Hours: l.Hours})
	}
	equipment := make([]EquipmentDTO, 0, len(e.Equipment))
	for _, eq := range e.Equipment {
		equipment = append(equipment, EquipmentDTO{Name: eq.Name, Count: eq.Count, Hours: eq.Hours})
	}
	return EntryDTO{
		Uid:            e.Uid.String(),
		ActivityId:     e.ActivityId,
		Date:           e.Date.Format(schedule.DateLayout),
		UnitsCompleted: e.UnitsCompleted,
		Labour:         labour,
		Equipment:      equipment,
		Weather: WeatherDTO{
			Condition:       e.Weather.Condition,
			TemperatureC:    e.Weather.TemperatureC,
			PrecipitationMm: e.Weather.PrecipitationMm,
			WindKph:         e.Weather.WindKph,
		},
		Location: LocationDTO{
			Latitude:    e.Location.Latitude,
			Longitude:   e.Location.Longitude,
			Description: e.Location.Description,
		},
		Notes: e.Notes,
	}
}

func ReportToDTO(report Report) ReportDTO {
	days := make([]ReportDayDTO, 0, len(report.Days))
	for _, d := range report.Days {
		days = append(days, ReportDayDTO{
			DayIndex:             d.DayIndex,
			Date:                 d.Date.Format(schedule.DateLayout),
			VarianceDTO:          schedule.VarianceToDTO(d.Variance),
			CumulativeForecasted: d.CumulativeForecasted,
			CumulativeActual:     d.CumulativeActual,
			CumulativeVariance:   d.CumulativeVariance,
		})
	}
	weeks := make([]WeekReportDTO, 0, len(report.Weeks))
	for _, wk := range report.Weeks {
		weeks = append(weeks, WeekReportDTO{
			Week:        wk.Week.String(),
			VarianceDTO: schedule.VarianceToDTO(wk.Variance),
		})
	}
	return ReportDTO{
		ActivityId:   report.ActivityId,
		ActivityName: report.ActivityName,
		Unit:         report.Unit,
		Method:       string(report.Method),
		Days:         days,
		Weeks:        weeks,
		Summary: ReportSummaryDTO{
			AsOf:           report.Summary.AsOf.Format(schedule.DateLayout),
			VarianceDTO:    schedule.VarianceToDTO(report.Summary.Variance),
			TotalUnits:     report.Summary.TotalUnits,
			PercentPlanned: report.Summary.PercentPlanned,
			PercentActual:  report.Summary.PercentActual,
			UnplannedUnits: report.Summary.UnplannedUnits,
		},
	}
}
