package enrich

import "fmt"

// ValidationError reports a malformed or disallowed URL. It is raised
// before any network I/O and surfaced directly to the caller.
type ValidationError struct {
	URL    string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid url %q: %s", e.URL, e.Reason)
}

// FetchError reports a network failure, timeout, or non-success HTTP
// status. It is non-fatal to batch and discovery runs: the orchestrator
// records it and moves on without creating a lead.
type FetchError struct {
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: http %d", e.URL, e.Status)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError reports a page that fetched fine but yielded nothing usable.
// The lead still proceeds as low-confidence; the quality gate decides.
type ParseError struct {
	URL string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: no usable signals extracted", e.URL)
}
