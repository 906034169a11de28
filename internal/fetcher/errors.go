package fetcher

import "fmt"

// FetchError reports a request that could not complete: transport failure,
// unreadable body, or a non-2xx status.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ParseError reports a response body that is not well formed or lacks the price field.
type ParseError struct {
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("parse price field %q: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("parse price response: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
