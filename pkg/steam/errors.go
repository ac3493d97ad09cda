package steam

import "fmt"

// RequestError reports a leaderboard page request that failed on the wire or
// came back with a non-success status.
type RequestError struct {
	// URL of the failed request.
	URL string

	// StatusCode of the response, or zero when the transport failed
	// before any response arrived.
	StatusCode int

	// Err is the underlying transport error, if any.
	Err error
}

func (e *RequestError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("leaderboard request %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("leaderboard request %s: %v", e.URL, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// ParseError reports a leaderboard page document that could not be decoded,
// either because the XML itself is broken or because a required field is
// absent or malformed.
type ParseError struct {
	// Field names the offending field, or "document" when the whole body
	// failed to decode.
	Field string

	// Err describes what was wrong with it.
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse leaderboard page: %s: %v", e.Field, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
