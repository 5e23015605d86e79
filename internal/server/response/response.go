// Package response provides the JSON envelope used by every fieldmatch API
// endpoint: a data field on success and an error field on failure.
package response

import (
	"encoding/json"
	"net/http"

	"github.com/agentstation/fieldmatch/pkg/errors"
)

// Response is the envelope written by every endpoint.
type Response struct {
	Data  any    `json:"data"`
	Error *Error `json:"error"`
}

// Error is an API error with a stable code.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Success wraps data.
func Success(data any) Response {
	return Response{Data: data}
}

// Fail builds an error response.
func Fail(code, message, details string) Response {
	return Response{Error: &Error{Code: code, Message: message, Details: details}}
}

// JSON writes resp with the given status code.
func JSON(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// headers are already sent, so an encoding error cannot be reported
	_ = json.NewEncoder(w).Encode(resp)
}

// OK writes data with 200.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, Success(data))
}

// Created writes data with 201.
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, Success(data))
}

// BadRequest writes a 400.
func BadRequest(w http.ResponseWriter, message, details string) {
	JSON(w, http.StatusBadRequest, Fail("BAD_REQUEST", message, details))
}

// Unauthorized writes a 401.
func Unauthorized(w http.ResponseWriter, message, details string) {
	JSON(w, http.StatusUnauthorized, Fail("UNAUTHORIZED", message, details))
}

// NotFound writes a 404.
func NotFound(w http.ResponseWriter, message, details string) {
	JSON(w, http.StatusNotFound, Fail("NOT_FOUND", message, details))
}

// MethodNotAllowed writes a 405.
func MethodNotAllowed(w http.ResponseWriter, method string) {
	JSON(w, http.StatusMethodNotAllowed, Fail(
		"METHOD_NOT_ALLOWED",
		"Method not allowed",
		"Method "+method+" is not supported for this endpoint",
	))
}

// Unprocessable writes a 422 for a well-formed request that cannot be matched.
func Unprocessable(w http.ResponseWriter, message string) {
	JSON(w, http.StatusUnprocessableEntity, Fail("NO_CANDIDATES", message, ""))
}

// RateLimited writes a 429.
func RateLimited(w http.ResponseWriter, message string) {
	JSON(w, http.StatusTooManyRequests, Fail("RATE_LIMITED", "Rate limit exceeded", message))
}

// InternalError writes a 500 without exposing err.
func InternalError(w http.ResponseWriter, _ error) {
	JSON(w, http.StatusInternalServerError, Fail(
		"INTERNAL_ERROR",
		"Internal server error",
		"An unexpected error occurred",
	))
}

// BadGateway writes a 502 for an unusable taxonomy source.
func BadGateway(w http.ResponseWriter, code, message string) {
	JSON(w, http.StatusBadGateway, Fail(code, "Taxonomy unavailable", message))
}

// ServiceUnavailable writes a 503.
func ServiceUnavailable(w http.ResponseWriter, message string) {
	JSON(w, http.StatusServiceUnavailable, Fail("SERVICE_UNAVAILABLE", "Service unavailable", message))
}

// GatewayTimeout writes a 504.
func GatewayTimeout(w http.ResponseWriter, message string) {
	JSON(w, http.StatusGatewayTimeout, Fail("TIMEOUT", "Operation timed out", message))
}

// ErrorFromType maps typed errors to HTTP responses. Timeouts are checked
// before fetch failures because a timed-out fetch is both.
func ErrorFromType(w http.ResponseWriter, err error) {
	switch {
	case errors.IsNotFound(err):
		NotFound(w, err.Error(), "")
	case errors.IsValidationError(err):
		BadRequest(w, err.Error(), "")
	case errors.IsNoCandidates(err):
		Unprocessable(w, err.Error())
	case errors.IsTimeout(err):
		GatewayTimeout(w, err.Error())
	case errors.IsFetch(err):
		BadGateway(w, "FETCH_FAILED", err.Error())
	case errors.IsDecode(err):
		BadGateway(w, "DECODE_FAILED", err.Error())
	case errors.IsCanceled(err):
		JSON(w, 499, Fail("CANCELED", "Request canceled", err.Error()))
	default:
		InternalError(w, err)
	}
}
