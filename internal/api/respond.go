package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	apperrors "parkingslots/internal/errors"
	"parkingslots/internal/logging"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError answers with the error envelope. Service errors are logged here with the
// request id; their cause never reaches the client.
func writeError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	ee := apperrors.As(err)
	if ee.Kind == apperrors.KindServiceError {
		logger.Error("request failed", logging.RequestID(RequestIDFromContext(r.Context())),
			zap.String("path", r.URL.Path), zap.Error(err))
	}
	writeJSON(w, ee.HTTPStatus(), ErrorResponse{Error: ErrorDetail{Kind: string(ee.Kind), Message: ee.Message}})
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperrors.ErrInvalidRequest("invalid request body")
	}
	return nil
}

// newValidator reports fields by their json names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func validationError(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperrors.ErrInvalidRequest(err.Error())
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %s", fe.Field(), fe.Tag()))
	}
	return apperrors.ErrInvalidRequest("validation failed: " + strings.Join(msgs, "; "))
}

var localLayouts = []string{"2006-01-02T15:04:05", "2006-01-02T15:04"}

// parseTimestamp accepts RFC3339, or a zone-less local time as sent by datetime-local
// inputs, interpreted in loc.
func parseTimestamp(field, value string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, apperrors.ErrInvalidRequest(fmt.Sprintf("%s must be RFC3339 or YYYY-MM-DDTHH:MM", field))
}
