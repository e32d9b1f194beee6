package net

import (
	"net/http"

	perr "transitplan/internal/platform/errors"
)

// Wire is the envelope every JSON response of the planner travels in
type Wire struct {
	StatusCode int            `json:"status_code"`
	Status     string         `json:"status"`
	Code       perr.ErrorCode `json:"code,omitempty"`
	Error      string         `json:"error,omitempty"`
	Field      string         `json:"field,omitempty"`
	RequestID  string         `json:"request_id,omitempty"`
	Data       any            `json:"data,omitempty"`
}

// Success builds a success envelope for status
func Success(status int, data any, reqID string) Wire {
	return Wire{
		StatusCode: status,
		Status:     http.StatusText(status),
		RequestID:  reqID,
		Data:       data,
	}
}

// Error maps err to its status and error envelope
func Error(err error, reqID string) (int, Wire) {
	if err == nil {
		return http.StatusOK, Success(http.StatusOK, nil, reqID)
	}
	status := perr.HTTPStatus(err)
	w := perr.WireFrom(err)
	return status, Wire{
		StatusCode: status,
		Status:     http.StatusText(status),
		Code:       w.Code,
		Error:      w.Message,
		Field:      w.Field,
		RequestID:  reqID,
	}
}
