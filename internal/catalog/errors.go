package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrEditInProgress is returned for operations suppressed while an edit session is active.
	ErrEditInProgress = errors.New("edit in progress")
	// ErrNoEdit is returned by Save when no edit session is active.
	ErrNoEdit = errors.New("no active edit")
	// ErrUnknownEntity is returned when an id is not part of any group of the current view.
	ErrUnknownEntity = errors.New("entity not in current view")
	// ErrConfirmationDeclined means the user cancelled a destructive action. It is not a failure.
	ErrConfirmationDeclined = errors.New("confirmation declined")
)

// NetworkError wraps a fetch, persist or delete failure reported by the Fetcher.
type NetworkError struct {
	Op     string
	NodeID int64
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %d: %v", e.Op, e.NodeID, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// DataIntegrityError reports an entity that references a layout missing from the payload.
type DataIntegrityError struct {
	EntityID   int64
	LayoutName string
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("entity %d references unknown layout %q", e.EntityID, e.LayoutName)
}

// ReconciliationMiss is the warning raised when a save succeeded but the saved entity is
// no longer part of the rendered group.
type ReconciliationMiss struct {
	EntityID   int64
	LayoutName string
}

func (e *ReconciliationMiss) Error() string {
	return fmt.Sprintf("saved entity %d not found in group %q", e.EntityID, e.LayoutName)
}
