package activity

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/fieldplan/fieldplan/internal/event_bus"
	"github.com/fieldplan/fieldplan/internal/rest"
	"github.com/fieldplan/fieldplan/pkg/schedule"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupHandlerTest(t *testing.T) *mux.Router {
	t.Helper()
	service := NewService(NewRepositoryStub(), event_bus.NewEventBus(), Defaults{})
	handler := NewHandler(service)

	r := mux.NewRouter()
	r.HandleFunc("/api/project/{projectId}/activity", handler.ListActivities).Methods("GET")
	r.HandleFunc("/api/project/{projectId}/activity", handler.CreateActivity).Methods("POST")
	r.HandleFunc("/api/project/{projectId}/phase", handler.ListPhases).Methods("GET")
	r.HandleFunc("/api/activity/{activityId}", handler.GetActivity).Methods("GET")
	r.HandleFunc("/api/activity/{activityId}", handler.UpdateActivity).Methods("PUT")
	r.HandleFunc("/api/activity/{activityId}", handler.DeleteActivity).Methods("DELETE")
	r.HandleFunc("/api/activity/{activityId}/forecast", handler.GetForecast).Methods("GET")
	return r
}

func do(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&v))
	return v
}

func excavationDTO() ActivityDTO {
	return ActivityDTO{
		Phase:     "Earthworks",
		Name:      "Bulk excavation",
		StartDate: "2024-03-01",
		EndDate:   "2024-03-31",
		Production: ProductionDTO{
			Unit:       "m3",
			TotalUnits: 2100,
			Method:     "ramp_up",
			CrewSize:   3,
		},
	}
}

func createActivity(t *testing.T, r http.Handler, dto ActivityDTO) ActivityDTO {
	t.Helper()
	rr := do(t, r, http.MethodPost, "/api/project/7/activity", dto)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return decode[ActivityDTO](t, rr)
}

func TestHandler_CreateActivity(t *testing.T) {
	t.Run("should create and compute duration", func(t *testing.T) {
		r := setupHandlerTest(t)

		created := createActivity(t, r, excavationDTO())

		assert.NotZero(t, created.Id)
		assert.Equal(t, 7, created.ProjectId)
		assert.Equal(t, 21, created.DurationDays)
		assert.Equal(t, "weekdays_only", created.WorkingDays.Kind)
		assert.Equal(t, "ramp_up", created.Production.Method)
	})

	t.Run("should reject missing name", func(t *testing.T) {
		r := setupHandlerTest(t)
		dto := excavationDTO()
		dto.Name = ""

		rr := do(t, r, http.MethodPost, "/api/project/7/activity", dto)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		resp := decode[rest.ErrorResponse](t, rr)
		require.NotEmpty(t, resp.Fields)
		assert.Equal(t, "name", resp.Fields[0].Field)
	})

	t.Run("should reject bad date format", func(t *testing.T) {
		r := setupHandlerTest(t)
		dto := excavationDTO()
		dto.StartDate = "01/03/2024"

		rr := do(t, r, http.MethodPost, "/api/project/7/activity", dto)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("should reject end before start", func(t *testing.T) {
		r := setupHandlerTest(t)
		dto := excavationDTO()
		dto.EndDate = "2024-02-01"

		rr := do(t, r, http.MethodPost, "/api/project/7/activity", dto)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		resp := decode[rest.ErrorResponse](t, rr)
		assert.Contains(t, resp.Details, ErrInvalidDateRange.Error())
	})

	t.Run("should reject non numeric project", func(t *testing.T) {
		r := setupHandlerTest(t)

		rr := do(t, r, http.MethodPost, "/api/project/abc/activity", excavationDTO())

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestHandler_GetUpdateDelete(t *testing.T) {
	r := setupHandlerTest(t)
	created := createActivity(t, r, excavationDTO())
	path := "/api/activity/" + strconv.Itoa(created.Id)

	t.Run("get", func(t *testing.T) {
		rr := do(t, r, http.MethodGet, path, nil)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, created, decode[ActivityDTO](t, rr))
	})

	t.Run("update with all days policy", func(t *testing.T) {
		dto := created
		dto.WorkingDays = schedule.WorkingDaysDTO{Kind: "all_days"}

		rr := do(t, r, http.MethodPut, path, dto)

		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		assert.Equal(t, 31, decode[ActivityDTO](t, rr).DurationDays)
	})

	t.Run("update with mismatched id", func(t *testing.T) {
		dto := created
		dto.Id = created.Id + 1

		rr := do(t, r, http.MethodPut, path, dto)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("delete", func(t *testing.T) {
		rr := do(t, r, http.MethodDelete, path, nil)
		assert.Equal(t, http.StatusNoContent, rr.Code)

		rr = do(t, r, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)

		rr = do(t, r, http.MethodDelete, path, nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestHandler_ListActivitiesAndPhases(t *testing.T) {
	r := setupHandlerTest(t)
	createActivity(t, r, excavationDTO())
	concrete := excavationDTO()
	concrete.Phase = "Concrete"
	concrete.Name = "Footings"
	concrete.Production.TotalUnits = 40
	createActivity(t, r, concrete)

	rr := do(t, r, http.MethodGet, "/api/project/7/activity", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	activities := decode[[]ActivityDTO](t, rr)
	require.Len(t, activities, 2)
	assert.Equal(t, "Footings", activities[0].Name)

	rr = do(t, r, http.MethodGet, "/api/project/7/phase", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	phases := decode[[]PhaseSummaryDTO](t, rr)
	require.Len(t, phases, 2)
	assert.Equal(t, "Concrete", phases[0].Phase)
	assert.Equal(t, 40.0, phases[0].TotalUnits)
	assert.Equal(t, "2024-03-01", phases[0].StartDate)

	rr = do(t, r, http.MethodGet, "/api/project/8/activity", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, decode[[]ActivityDTO](t, rr))
}

func TestHandler_GetForecast(t *testing.T) {
	r := setupHandlerTest(t)
	created := createActivity(t, r, excavationDTO())

	rr := do(t, r, http.MethodGet, "/api/activity/"+strconv.Itoa(created.Id)+"/forecast", nil)

	require.Equal(t, http.StatusOK, rr.Code)
	forecast := decode[ForecastDTO](t, rr)
	assert.Equal(t, "ramp_up", forecast.Method)
	assert.Equal(t, 21, forecast.DurationDays)
	assert.InDelta(t, 100.0, forecast.UnitsPerDay, 1e-9)
	assert.InDelta(t, 100.0/3, forecast.UnitsPerCrewDay, 1e-9)
	assert.Zero(t, forecast.UnitsPerEquipmentDay)
	require.Len(t, forecast.Points, 21)
	assert.Equal(t, "2024-03-01", forecast.Points[0].Date)
	assert.Equal(t, "2024-03-29", forecast.Points[20].Date)
	assert.Less(t, forecast.Points[0].TargetUnits, forecast.Points[20].TargetUnits)

	var sum float64
	for _, p := range forecast.Points {
		sum += p.TargetUnits
	}
	assert.InDelta(t, 2100.0, sum, 1e-6)

	rr = do(t, r, http.MethodGet, "/api/activity/999/forecast", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
