package driver

import (
	"errors"
	"fmt"
	"time"
)

// NotFoundError is raised when a selector matches no element on the page.
// The message keeps the "not found" phrasing the failure classifier keys on.
type NotFoundError struct {
	Selector string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("element not found: %s", e.Selector)
}

// TimeoutError is raised when a driver operation exceeds its deadline
type TimeoutError struct {
	Op       string
	Selector string
	Timeout  time.Duration
}

func (e *TimeoutError) Error() string {
	if e.Selector != "" {
		return fmt.Sprintf("timeout after %s on %s %q", e.Timeout, e.Op, e.Selector)
	}
	return fmt.Sprintf("timeout after %s on %s", e.Timeout, e.Op)
}

// IsNotFound reports whether err is a NotFoundError
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsTimeout reports whether err is a TimeoutError
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}
