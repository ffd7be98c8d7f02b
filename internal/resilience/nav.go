package resilience

import (
	"context"
	"errors"
	"net"
	"strings"
)

// Navigation failure reasons journaled on website_visited_message.
const (
	NavReasonInvalidURL   = "invalid URL"
	NavReasonDNS          = "domain not found"
	NavReasonRefused      = "connection refused"
	NavReasonSSL          = "SSL error"
	NavReasonTimeout      = "page load timeout"
	NavReasonNotFound     = "page not found (404)"
	NavReasonGeneric      = "failed to load website"
)

// ClassifyNavigationError maps a page-load failure onto one of the journaled
// reason strings.
func ClassifyNavigationError(err error) string {
	if err == nil {
		return ""
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return NavReasonTimeout
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return NavReasonDNS
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "name_not_resolved") ||
		strings.Contains(msg, "no such host") ||
		strings.Contains(msg, "dns"):
		return NavReasonDNS
	case strings.Contains(msg, "connection_refused") ||
		strings.Contains(msg, "connection refused"):
		return NavReasonRefused
	case strings.Contains(msg, "cert") ||
		strings.Contains(msg, "ssl") ||
		strings.Contains(msg, "tls"):
		return NavReasonSSL
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "timed out"):
		return NavReasonTimeout
	case strings.Contains(msg, "invalid url") ||
		strings.Contains(msg, "unsupported protocol") ||
		strings.Contains(msg, "missing protocol scheme"):
		return NavReasonInvalidURL
	}
	return NavReasonGeneric
}
