package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// StatusError is returned for any non-2xx response.
type StatusError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *StatusError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api status %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("api status %d: %s", e.StatusCode, e.Message)
}

func newStatusError(status int, payload []byte) *StatusError {
	se := &StatusError{StatusCode: status, Message: http.StatusText(status)}

	var env envelope
	if err := json.Unmarshal(payload, &env); err == nil && env.Error != nil {
		se.Code = env.Error.Code
		if env.Error.Message != "" {
			se.Message = env.Error.Message
		}
		return se
	}

	var plain struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(payload, &plain); err == nil {
		switch {
		case plain.Message != "":
			se.Message = plain.Message
		case plain.Error != "":
			se.Message = plain.Error
		}
	}
	return se
}

// StatusCode extracts the HTTP status from err, or 0 when err is not a StatusError.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}
