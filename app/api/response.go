// Package api shapes JSON responses and error payloads shared by all handlers.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/mytheresa/product-catalog/app/validation"
)

// ErrorResponse is the body of every non-validation error.
type ErrorResponse struct {
	Message string `json:"message"`
}

// ValidationErrorResponse is the 422 body.
type ValidationErrorResponse struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

const (
	msgUnauthenticated = "Unauthenticated."
	msgServerError     = "Server Error."
	msgMalformedJSON   = "Malformed JSON body."
	msgTooLarge        = "Payload Too Large."
)

// JSON writes payload with the given status.
func JSON(w http.ResponseWriter, status int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"` + msgServerError + `"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorResponse{Message: message})
}

// ValidationFailed writes the 422 payload listing every violation.
func ValidationFailed(w http.ResponseWriter, errs *validation.Errors) {
	JSON(w, http.StatusUnprocessableEntity, ValidationErrorResponse{
		Message: errs.Message(),
		Errors:  errs.Fields(),
	})
}

// Unauthenticated writes the same generic 401 whatever the cause.
func Unauthenticated(w http.ResponseWriter) {
	Error(w, http.StatusUnauthorized, msgUnauthenticated)
}

// NotFound names the entity type and the id that did not resolve.
func NotFound(w http.ResponseWriter, entity string, id any) {
	Error(w, http.StatusNotFound, fmt.Sprintf("%s %v not found", entity, id))
}

func MalformedJSON(w http.ResponseWriter) {
	Error(w, http.StatusBadRequest, msgMalformedJSON)
}

// ServerError logs the cause and answers with a generic 500.
func ServerError(w http.ResponseWriter, r *http.Request, log *zap.Logger, msg string, err error) {
	log.Error(msg,
		zap.Error(err),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	)
	Error(w, http.StatusInternalServerError, msgServerError)
}

// MaxBodyBytes caps request bodies read by DecodeJSON.
const MaxBodyBytes = 1 << 20

// ErrTrailingData is returned when the body holds more than one JSON value.
var ErrTrailingData = errors.New("unexpected data after JSON body")

// DecodeJSON decodes the request body into dst. An empty body leaves dst untouched.
// Bodies over MaxBodyBytes fail with *http.MaxBytesError.
func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, MaxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		if err == nil {
			return ErrTrailingData
		}
		return err
	}
	return nil
}

// RejectBody answers a DecodeJSON failure: 413 for oversized bodies, 400 otherwise.
func RejectBody(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		Error(w, http.StatusRequestEntityTooLarge, msgTooLarge)
		return
	}
	MalformedJSON(w)
}
