package domain

import "errors"

// Exported error variables allow callers to use errors.Is() for error checking.
var (
	// ErrNotFound indicates a profile or custom variable does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a profile with the same name already exists.
	ErrAlreadyExists = errors.New("already exists")
	// ErrConflict indicates a rename target exists and overwrite was not confirmed.
	ErrConflict = errors.New("name conflict")
	// ErrInvalidName indicates a profile or custom variable name failed validation.
	ErrInvalidName = errors.New("invalid name")
	// ErrValidation indicates a required profile field is empty or malformed.
	ErrValidation = errors.New("validation failed")
	// ErrMarkerInconsistent indicates the active marker points at a profile
	// that no longer exists. Soft error: other operations keep working.
	ErrMarkerInconsistent = errors.New("active provider config not found")
	// ErrCustomSectionMalformed indicates a profile file contains only one of
	// the two custom section markers.
	ErrCustomSectionMalformed = errors.New("custom variable section is malformed")
)
