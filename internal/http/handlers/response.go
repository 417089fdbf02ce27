// Package handlers provides HTTP handler implementations for the scheduler API.
//
// This file defines the response helpers shared by all endpoints: the error
// envelope, the mapping from service errors to status codes, and small
// success writers.
//
// Example error response:
//
//	HTTP/1.1 404 Not Found
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "not_found",
//	  "message": "survey not found"
//	}
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/survey-scheduler/internal/http/middleware"
	"github.com/tbourn/survey-scheduler/internal/services"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Human-readable message
	Message string `json:"message" example:"survey not found"`
}

// fail aborts the request with a structured error. Server errors are logged
// with the request-scoped logger.
func fail(c *gin.Context, status int, code, msg string) {
	resp := ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
	}

	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail for router-level fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// failErr maps a service error to its status and code. fallback is the
// code used for unclassified 500s.
func failErr(c *gin.Context, err error, fallback string) {
	status, code := classify(err, fallback)
	msg := err.Error()
	if status == http.StatusInternalServerError && code == fallback {
		// Store errors can carry SQL; keep them in the logs only.
		middleware.LoggerFrom(c).Error().Err(err).Msg("unclassified service error")
		msg = "internal server error"
	}
	fail(c, status, code, msg)
}

func classify(err error, fallback string) (int, string) {
	switch {
	case errors.Is(err, services.ErrBadWeeklyCount):
		return http.StatusUnprocessableEntity, ErrCodeBadWeeklyCount
	case errors.Is(err, services.ErrInvalidTiming):
		return http.StatusUnprocessableEntity, ErrCodeInvalidTiming
	case errors.Is(err, services.ErrInterventionNotFound):
		return http.StatusUnprocessableEntity, ErrCodeUnknownIntervention
	case errors.Is(err, services.ErrUnknownStatus):
		return http.StatusBadRequest, ErrCodeUnknownStatus
	case errors.Is(err, services.ErrInvalidReceipt):
		return http.StatusBadRequest, ErrCodeInvalidReceipt
	case errors.Is(err, services.ErrParticipantMismatch):
		return http.StatusConflict, ErrCodeParticipantMismatch
	case errors.Is(err, services.ErrNoSchedules):
		return http.StatusNotFound, ErrCodeNoSchedules
	case errors.Is(err, services.ErrSurveyNotFound),
		errors.Is(err, services.ErrStudyNotFound),
		errors.Is(err, services.ErrEventNotFound),
		errors.Is(err, services.ErrParticipantNotFound),
		errors.Is(err, services.ErrScheduleNotFound):
		return http.StatusNotFound, ErrCodeNotFound
	case errors.Is(err, services.ErrScheduleIntegrity):
		return http.StatusInternalServerError, ErrCodeScheduleIntegrity
	case errors.Is(err, services.ErrInvalidTimezone):
		return http.StatusInternalServerError, ErrCodeInvalidTimezone
	case errors.Is(err, services.ErrUpsertExhausted):
		return http.StatusServiceUnavailable, ErrCodeUpsertExhausted
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, ErrCodeTimeout
	}
	return http.StatusInternalServerError, fallback
}

// ok writes a success JSON response.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}
