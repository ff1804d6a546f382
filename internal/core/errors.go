package core

import "errors"

var (
	// ErrEmptyParentPool is returned for a secondary table whose foreign key
	// targets a primary that produced no keys.
	ErrEmptyParentPool = errors.New("empty parent key pool")

	// ErrInvalidVersioningState marks overlapping or non-monotonic SCD2
	// intervals. It indicates a bug and is never corrected.
	ErrInvalidVersioningState = errors.New("invalid versioning state")

	ErrUnknownErrorProfile = errors.New("unknown error profile")
	ErrInvalidRequest      = errors.New("invalid generation request")
)
