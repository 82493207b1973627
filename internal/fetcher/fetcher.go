// Package fetcher retrieves the raw text of reference documents that list
// processor models.
package fetcher

import (
	"context"
	"errors"
	"fmt"
)

// ErrBodyTooLarge is wrapped by a FetchError whose response exceeded the
// configured body cap.
var ErrBodyTooLarge = errors.New("response body exceeds size cap")

// Fetcher retrieves the text body of a remote document.
type Fetcher interface {
	// FetchText downloads url and returns its readable text. HTML documents
	// are reduced to their visible text.
	FetchText(ctx context.Context, url string) (string, error)
}

// FetchError reports a source that could not be retrieved, either because
// the server answered with a non-2xx status or because the request failed.
type FetchError struct {
	URL        string
	StatusCode int
	Status     string
	Block      BlockKind
	Err        error
}

func (e *FetchError) Error() string {
	if e.Block != BlockNone {
		return fmt.Sprintf("fetch %s: %v (%s)", e.URL, e.Err, e.Block)
	}
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetch %s: unexpected status %s", e.URL, e.Status)
}

func (e *FetchError) Unwrap() error { return e.Err }
