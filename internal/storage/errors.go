package storage

import "errors"

// ErrNoneAction is returned when a NONE-action recommendation reaches the
// store; callers must discard those before persistence.
var ErrNoneAction = errors.New("storage: NONE-action recommendation must not be stored")

// ErrAlertNotFound is returned when acknowledging an unknown alert id.
var ErrAlertNotFound = errors.New("storage: alert not found")
