package models

import "fmt"

// FetchError marks a fetch unit as unreachable or its response as unusable.
// Any FetchError aborts the whole run; there is no partial-success mode.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError marks a raw content block the parser could not make sense of.
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ConversionError marks a field that could not be coerced to its typed
// invariant (non-positive price, unmapped category, malformed numeric).
// Defaulting such a field to zero is never permitted.
type ConversionError struct {
	Field string
	Value string
	Err   error
}

func (e *ConversionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("convert %s %q: %v", e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("convert %s %q", e.Field, e.Value)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// StoreError marks a failed persistence call.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
