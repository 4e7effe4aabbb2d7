package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"
)

type ErrorResponse struct {
	Error   string       `json:"error"`
	Details string       `json:"details,omitempty"`
	Fields  []FieldError `json:"fields,omitempty"`
}

type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON names instead of Go field names
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})
	return v
}

// DecodeAndValidate reads a JSON body into req, applies `default` tags and runs `validate` tags.
// On failure it writes a 400 response and returns false.
func DecodeAndValidate(w http.ResponseWriter, r *http.Request, req any) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil && !errors.Is(err, io.EOF) {
		WriteError(w, http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request body format",
			Details: err.Error(),
		})
		return false
	}
	if err := defaults.Set(req); err != nil {
		log.Errorf("failed to apply request defaults: %v", err)
		WriteError(w, http.StatusInternalServerError, ErrorResponse{Error: "Could not process request"})
		return false
	}
	if err := validate.StructCtx(r.Context(), req); err != nil {
		WriteError(w, http.StatusBadRequest, validationErrorResponse(err))
		return false
	}
	return true
}

func validationErrorResponse(err error) ErrorResponse {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return ErrorResponse{Error: "Invalid request", Details: err.Error()}
	}
	fields := make([]FieldError, 0, len(validationErrors))
	for _, fe := range validationErrors {
		fields = append(fields, FieldError{
			Field:   fe.Field(),
			Code:    "ERR_" + strings.ToUpper(fe.Tag()),
			Message: fieldErrorMessage(fe),
		})
	}
	return ErrorResponse{Error: "Invalid request", Fields: fields}
}

func fieldErrorMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte", "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte", "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gtefield":
		return fmt.Sprintf("%s must not be before %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
	}
}

func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Errorf("failed to encode response: %v", err)
	}
}

func WriteError(w http.ResponseWriter, status int, body ErrorResponse) {
	WriteJSON(w, status, body)
}
