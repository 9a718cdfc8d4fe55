package progression

import "errors"

// Errors returned by the engine. Handlers translate them with errors.Is.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrLocked     = errors.New("challenge is locked")
	ErrConflict   = errors.New("already exists")
)
