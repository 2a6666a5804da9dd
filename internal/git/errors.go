package git

import (
	"errors"
	"fmt"
)

var (
	// ErrHistoryUnavailable is returned when the base history cannot be read.
	ErrHistoryUnavailable = errors.New("history unavailable")
	// ErrBranchUnresolvable is returned when a branch ref cannot be resolved or walked.
	ErrBranchUnresolvable = errors.New("branch unresolvable")
)

// BranchError reports a failure tied to a single branch ref.
type BranchError struct {
	Ref string
	Err error
}

func (e *BranchError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %q", ErrBranchUnresolvable, e.Ref)
	}
	return fmt.Sprintf("%s: %q: %v", ErrBranchUnresolvable, e.Ref, e.Err)
}

func (e *BranchError) Unwrap() []error {
	return []error{ErrBranchUnresolvable, e.Err}
}

func branchError(ref string, err error) error {
	return &BranchError{Ref: ref, Err: err}
}

func historyError(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrHistoryUnavailable, op, err)
}
