package store

import (
	"errors"
	"fmt"
)

// ErrMissingEntity is wrapped when a successful response lacks the expected
// entity or its id.
var ErrMissingEntity = errors.New("response is missing the expected entity")

// ErrRejected is wrapped when the store answers {"success": false}.
var ErrRejected = errors.New("request rejected by store")

// PersistError reports a failed store operation.
type PersistError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *PersistError) Error() string {
	msg := fmt.Sprintf("persist %s failed", e.Op)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

func (e *PersistError) Unwrap() error {
	return e.Err
}
