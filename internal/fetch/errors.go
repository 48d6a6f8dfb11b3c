package fetch

import (
	"fmt"
)

type Kind string

const (
	// KindExhausted means every attempt failed with a retryable condition.
	KindExhausted Kind = "exhausted"
	// KindStatus means the server answered with a non-retryable status.
	KindStatus Kind = "status"
	// KindCanceled means the context ended before a document was obtained.
	KindCanceled Kind = "canceled"
)

// FetchError is returned once a page cannot be obtained.
type FetchError struct {
	Kind     Kind
	URL      string
	Attempts int
	Status   int   // last HTTP status seen, 0 if none
	Err      error // last transport error, if any
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("fetch %s: %s after %d attempt(s)", e.URL, e.Kind, e.Attempts)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() error { return e.Err }
