package api

import (
	"encoding/json"
	"net/http"

	"tde/internal/errors"
)

// ErrorResponse is the JSON error envelope
type ErrorResponse struct {
	Error   string      `json:"error"`
	Code    string      `json:"code"`
	Details interface{} `json:"details,omitempty"`
}

// WriteError writes an error response with automatic status mapping
func WriteError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")

	resp := ErrorResponse{Error: err.Error()}
	if engineErr, ok := err.(*errors.EngineError); ok {
		resp.Code = string(engineErr.Code)
		resp.Details = engineErr.Details
	} else {
		resp.Code = string(errors.InternalError)
	}

	w.WriteHeader(StatusOf(errors.CodeOf(err)))
	json.NewEncoder(w).Encode(resp)
}

// StatusOf maps engine error codes to HTTP status codes
func StatusOf(code errors.ErrorCode) int {
	switch code {
	case errors.ModuleNotFound, errors.OpportunityNotFound:
		return http.StatusNotFound // 404
	case errors.InvalidInput, errors.ManifestInvalid:
		return http.StatusBadRequest // 400
	case errors.Unauthorized:
		return http.StatusUnauthorized // 401
	case errors.NotAutoApplicable:
		return http.StatusConflict // 409
	case errors.UnsupportedRefactoring:
		return http.StatusUnprocessableEntity // 422
	case errors.ToolFailed:
		return http.StatusBadGateway // 502
	case errors.TestsFailed:
		return http.StatusConflict // 409
	case errors.UnsafeState, errors.InternalError:
		return http.StatusInternalServerError // 500
	default:
		return http.StatusInternalServerError // 500
	}
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// BadRequest writes a 400 Bad Request error
func BadRequest(w http.ResponseWriter, message string) {
	WriteError(w, errors.New(errors.InvalidInput, message))
}

// MethodNotAllowed writes a 405 response
func MethodNotAllowed(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusMethodNotAllowed)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error: "method not allowed",
		Code:  string(errors.InvalidInput),
	})
}
