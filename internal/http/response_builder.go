// Package http exposes the services as a JSON API.
//
// This file holds the fluent JSON response builder and the mapping from
// domain errors to HTTP statuses.
package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"tietkiem/internal/core"
	applog "tietkiem/internal/log"
)

// JSONResponseBuilder builds a JSON response with a fluent API.
type JSONResponseBuilder struct {
	statusCode int
	body       any
	headers    map[string]string
}

func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{statusCode: http.StatusOK, headers: make(map[string]string)}
}

func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Body sets the value encoded as the response body. A nil body writes no content.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.body == nil {
		w.WriteHeader(b.statusCode)
		return
	}

	payload, err := json.Marshal(b.body)
	if err != nil {
		http.Error(w, `{"error":"internal","message":"encode response"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_, _ = w.Write(payload)
}

// ErrorBody is the shape of every error response.
type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func ErrorResponse(statusCode int, kind, message string) *JSONResponseBuilder {
	return NewJSONResponse().Status(statusCode).Body(ErrorBody{Error: kind, Message: message})
}

func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, "not_found", message)
}

// errorStatus maps the domain error taxonomy onto HTTP.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, core.ErrValidation):
		return http.StatusBadRequest, "validation"
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, core.ErrExternalService):
		return http.StatusBadGateway, "external_service"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// writeError answers with the user facing message for err and logs server faults.
func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, kind := errorStatus(err)
	body := ErrorBody{Error: kind, Message: core.UserMessage(err)}
	var ve *core.ValidationError
	if errors.As(err, &ve) {
		body.Field = ve.Field
	}

	logger := applog.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		applog.NewStructuredLogger(logger).LogError(r.Context(), "Request failed", err, op,
			applog.NewFields().WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "", ""))
	} else {
		logger.WarnContext(r.Context(), "Request rejected",
			applog.FieldOperation, op, applog.FieldError, err, applog.FieldStatusCode, status)
	}

	NewJSONResponse().Status(status).Body(body).Write(w)
}
