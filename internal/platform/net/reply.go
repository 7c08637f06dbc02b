package net

import (
	"net/http"

	perr "harborlist/internal/platform/errors"
)

// Wire is the JSON envelope every HTTP response carries
type Wire struct {
	StatusCode int            `json:"status_code"`
	Status     string         `json:"status"`
	Code       perr.ErrorCode `json:"code,omitempty"`
	Error      string         `json:"error,omitempty"`
	Field      string         `json:"field,omitempty"`
	State      string         `json:"state,omitempty"`
	RequestID  string         `json:"request_id,omitempty"`
	Data       any            `json:"data,omitempty"`
}

// Reply builds the envelope for data, or for err when it is non-nil. err
// picks its own status; a zero status means 200
func Reply(status int, data any, err error, reqID string) (int, Wire) {
	if err != nil {
		status = perr.HTTPStatus(err)
		pw := perr.PublicWire(err)
		return status, Wire{
			StatusCode: status,
			Status:     http.StatusText(status),
			Code:       pw.Code,
			Error:      pw.Message,
			Field:      pw.Field,
			State:      pw.State,
			RequestID:  reqID,
		}
	}
	if status == 0 {
		status = http.StatusOK
	}
	return status, Wire{
		StatusCode: status,
		Status:     http.StatusText(status),
		RequestID:  reqID,
		Data:       data,
	}
}

// Error is Reply for a failure
func Error(err error, reqID string) (int, Wire) { return Reply(0, nil, err, reqID) }
