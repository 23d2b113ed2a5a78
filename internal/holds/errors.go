package holds

import "errors"

var (
	ErrHoldNotFound           = errors.New("hold not found")
	ErrInvalidStateTransition = errors.New("hold is no longer active")
	ErrInvalidArgument        = errors.New("invalid argument")
	ErrStoreUnavailable       = errors.New("hold store unavailable")

	// ErrTransitionConflict is returned by a Repository when the hold's
	// current status is not the expected one.
	ErrTransitionConflict = errors.New("hold status changed concurrently")

	// ErrDuplicateHold is returned by a Repository when the id already exists.
	ErrDuplicateHold = errors.New("hold already exists")
)

// isPermanentStoreError marks repository outcomes that retrying cannot change
func isPermanentStoreError(err error) bool {
	return errors.Is(err, ErrHoldNotFound) ||
		errors.Is(err, ErrTransitionConflict) ||
		errors.Is(err, ErrDuplicateHold) ||
		errors.Is(err, ErrInvalidArgument)
}
