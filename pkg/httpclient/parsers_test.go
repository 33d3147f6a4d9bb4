package httpclient

import (
	"net/http"
	"testing"
	"time"
)

func TestParseRetryAfterSeconds(t *testing.T) {
	headers := http.Header{}
	headers.Set("Retry-After", "30")

	info := ParseRetryAfter(headers)
	if info.RetryAfter != 30*time.Second {
		t.Errorf("RetryAfter = %v, want 30s", info.RetryAfter)
	}
	if info.ResetTime != 0 {
		t.Errorf("ResetTime = %d, want 0", info.ResetTime)
	}
}

func TestParseRetryAfterHTTPDate(t *testing.T) {
	when := time.Now().Add(45 * time.Second).UTC().Truncate(time.Second)
	headers := http.Header{}
	headers.Set("Retry-After", when.Format(http.TimeFormat))

	info := ParseRetryAfter(headers)
	if info.RetryAfter != 0 {
		t.Errorf("RetryAfter = %v, want 0 for a date-form header", info.RetryAfter)
	}
	if info.ResetTime != when.Unix() {
		t.Errorf("ResetTime = %d, want %d", info.ResetTime, when.Unix())
	}
}

func TestParseRetryAfterMissing(t *testing.T) {
	info := ParseRetryAfter(http.Header{})
	if info != (RateLimitInfo{}) {
		t.Errorf("expected zero RateLimitInfo, got %+v", info)
	}
}

func TestParseRetryAfterUnparseable(t *testing.T) {
	headers := http.Header{}
	headers.Set("Retry-After", "not-a-number-or-date")

	info := ParseRetryAfter(headers)
	if info != (RateLimitInfo{}) {
		t.Errorf("expected zero RateLimitInfo for garbage header, got %+v", info)
	}
}
