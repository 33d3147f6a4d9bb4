package httpclient

import (
	"net/http"
	"strconv"
	"time"
)

// ParseRetryAfter extracts a SmartRetry delay from the standard HTTP
// Retry-After response header (RFC 9110 §10.2.3), which arrives either as a
// number of seconds or an HTTP-date. It has no notion of any one API's quota
// headers — that's deliberate; the retry client backs off politely on
// whatever a server asks for, it doesn't model per-provider rate-limit
// accounting.
func ParseRetryAfter(headers http.Header) RateLimitInfo {
	info := RateLimitInfo{}

	raw := headers.Get("Retry-After")
	if raw == "" {
		return info
	}

	if seconds, err := strconv.Atoi(raw); err == nil {
		info.RetryAfter = time.Duration(seconds) * time.Second
		return info
	}

	if when, err := http.ParseTime(raw); err == nil {
		info.ResetTime = when.Unix()
	}

	return info
}
