package core

import "fmt"

// RefreshError reports which stage of a refresh failed for an address.
type RefreshError struct {
	AddressID string
	Stage     string // "fetch" or "publish"
	Err       error
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("refresh %s: %s: %v", e.AddressID, e.Stage, e.Err)
}

func (e *RefreshError) Unwrap() error {
	return e.Err
}

// NewRefreshError creates a new RefreshError
func NewRefreshError(addressID, stage string, err error) *RefreshError {
	return &RefreshError{AddressID: addressID, Stage: stage, Err: err}
}

// ScheduleError represents an unparseable refresh schedule
type ScheduleError struct {
	Spec string
	Err  error
}

func (e *ScheduleError) Error() string {
	return fmt.Sprintf("invalid refresh schedule %q: %v", e.Spec, e.Err)
}

func (e *ScheduleError) Unwrap() error {
	return e.Err
}

// NewScheduleError creates a new ScheduleError
func NewScheduleError(spec string, err error) *ScheduleError {
	return &ScheduleError{Spec: spec, Err: err}
}
