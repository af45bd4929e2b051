package upstream

import (
	"context"
	"errors"
	"net"
	"strings"
)

var (
	// ErrQuotaExceeded marks a source that refused service because the
	// account ran out of requests.
	ErrQuotaExceeded = errors.New("upstream quota exceeded")

	// ErrUnsupportedLocation is returned when a source cannot express the
	// parsed location in its query shape.
	ErrUnsupportedLocation = errors.New("location not supported by source")

	ErrNotConfigured = errors.New("upstream source not configured")
)

var quotaMarkers = []string{"quota", "rate limit", "too many requests", "exceeded the"}

// IsQuotaExceeded reports whether err signals an exhausted quota, either via
// ErrQuotaExceeded or by the provider's wording in the error text.
func IsQuotaExceeded(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrQuotaExceeded) {
		return true
	}
	return mentionsQuota(err.Error())
}

// IsRetryable reports whether another source should be tried. Timeouts are
// treated the same as an exhausted quota; a cancelled caller never is.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if IsQuotaExceeded(err) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func mentionsQuota(text string) bool {
	text = strings.ToLower(text)
	for _, marker := range quotaMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}
