package crawler

import (
	"errors"
	"fmt"
)

// ErrBadStatusCode is matched by every *BadStatusCodeError.
var ErrBadStatusCode = errors.New("bad status code")

// BadStatusCodeError reports a fetch that did not return HTTP 200.
type BadStatusCodeError struct {
	URL        string
	StatusCode int
}

func (e *BadStatusCodeError) Error() string {
	return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
}

// Is lets errors.Is(err, ErrBadStatusCode) match.
func (e *BadStatusCodeError) Is(target error) bool {
	return target == ErrBadStatusCode
}
