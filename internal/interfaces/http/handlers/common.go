// Package handlers implements the HTTP handlers of the serve mode.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/turtacn/OntoGround/pkg/errors"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// ErrorResponse is the standard error response body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// writeAppError maps an error to its HTTP status. Anything that is not a
// client error is masked.
func writeAppError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{
			Code:    errors.ErrCodeBadRequest.String(),
			Message: "request body too large",
		})
		return
	}

	code := errors.GetCode(err)
	status := code.HTTPStatus()
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		writeJSON(w, status, ErrorResponse{
			Code:    errors.ErrCodeInternal.String(),
			Message: "internal server error",
		})
		return
	}

	resp := ErrorResponse{Code: code.String(), Message: err.Error(), Field: errors.FieldOf(err)}
	var appErr *errors.AppError
	if errors.As(err, &appErr) {
		resp.Message = appErr.Message
		if appErr.Detail != "" {
			resp.Message += ": " + appErr.Detail
		}
	}
	writeJSON(w, status, resp)
}

//Personal.AI order the ending
