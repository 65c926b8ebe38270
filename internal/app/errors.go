package app

import (
	"errors"
	"fmt"
)

// ErrorKind distinguishes the failures of an update cycle
type ErrorKind int

const (
	// KindConfig is a malformed attribute or source definition
	KindConfig ErrorKind = iota + 1
	// KindFetch is a failed source fetch, retried on the next tick
	KindFetch
	// KindLookupMiss is a waste type without location entry
	KindLookupMiss
)

func (k ErrorKind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindFetch:
		return "fetch"
	case KindLookupMiss:
		return "lookup miss"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error wraps a failure with its kind
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s error", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether the next scheduled tick may succeed without a
// configuration change
func (e *Error) Retryable() bool {
	return e.Kind == KindFetch
}

// IsKind reports whether err carries kind
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

var errFetchRunning = errors.New("fetch already running")
