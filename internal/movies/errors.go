package movies

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/vadimtrunov/marquee/internal/metadata/tmdb"
)

// ErrorKind groups fetch failures into the categories shown to the user.
type ErrorKind int

// Error kinds, most specific first.
const (
	KindNone ErrorKind = iota
	KindConnectivity
	KindTimeout
	KindNotFound
	KindOther
)

// Message returns the user-facing text for the kind.
func (k ErrorKind) Message() string {
	switch k {
	case KindNone:
		return ""
	case KindConnectivity:
		return "No internet connection."
	case KindTimeout:
		return "Request timed out."
	case KindNotFound:
		return "Content not found."
	default:
		return "Something went wrong. Please try again."
	}
}

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindConnectivity:
		return "connectivity"
	case KindTimeout:
		return "timeout"
	case KindNotFound:
		return "not_found"
	default:
		return "other"
	}
}

// Classify maps a fetch error to an ErrorKind. Typed errors are checked
// first; message matching covers transports that flatten their errors and
// only looks at the innermost cause, never at the wrapping context, which
// can hold user input such as the search query.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindNone
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && !dnsErr.IsTimeout {
		return KindConnectivity
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	var apiErr *tmdb.APIError
	if errors.As(err, &apiErr) {
		if tmdb.IsNotFound(apiErr) {
			return KindNotFound
		}
		return KindOther
	}

	msg := strings.ToLower(rootCause(err).Error())
	switch {
	case strings.Contains(msg, "no such host"),
		strings.Contains(msg, "unable to resolve host"):
		return KindConnectivity
	case strings.Contains(msg, "timeout"),
		strings.Contains(msg, "timed out"):
		return KindTimeout
	case strings.Contains(msg, "404"):
		return KindNotFound
	}
	return KindOther
}

// rootCause follows the single-error Unwrap chain to its end.
func rootCause(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}
