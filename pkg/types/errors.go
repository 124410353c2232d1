package types

import "fmt"

// TransportError is returned when the feed of a year cannot be fetched,
// decompressed or decoded.
type TransportError struct {
	Year int
	URL  string
	Err  error
}

func (e *TransportError) Error() string {
	if e.URL == "" {
		return fmt.Sprintf("transport error (year %d): %v", e.Year, e.Err)
	}
	return fmt.Sprintf("transport error (year %d, %s): %v", e.Year, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// MalformedIndexError is returned when a persisted index is not a sequence of records.
type MalformedIndexError struct {
	Path string
	Err  error
}

func (e *MalformedIndexError) Error() string {
	return fmt.Sprintf("malformed index %s: %v", e.Path, e.Err)
}

func (e *MalformedIndexError) Unwrap() error { return e.Err }
