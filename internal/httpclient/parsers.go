package httpclient

import (
	"net/http"
	"strconv"
	"time"
)

// ParseStandardHeaders extracts a Retry-After hint from a standard HTTP
// response, honoring both the delay-seconds and HTTP-date forms.
func ParseStandardHeaders(headers http.Header) RateLimitInfo {
	info := RateLimitInfo{}
	retryAfter := headers.Get("Retry-After")
	if retryAfter == "" {
		return info
	}
	if seconds, err := strconv.Atoi(retryAfter); err == nil {
		info.RetryAfter = time.Duration(seconds) * time.Second
		return info
	}
	if when, err := http.ParseTime(retryAfter); err == nil {
		info.ResetTime = when.Unix()
	}
	return info
}
