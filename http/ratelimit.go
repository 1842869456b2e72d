package http

import (
	"encoding/json"
	"math"
	nethttp "net/http"
	"strconv"
	"strings"
	"time"
)

// maxRetryAfterSeconds keeps the computed wait inside time.Duration.
const maxRetryAfterSeconds = float64(math.MaxInt64 / int64(time.Second))

// RateLimitSignal is the body the gateway sends with a 429.
type RateLimitSignal struct {
	Message    string   `json:"message"`
	RetryAfter *float64 `json:"retry_after"`
	Global     bool     `json:"global"`
}

// rateLimitWait returns how long to wait before re-sending after a 429.
// The body's retry_after wins; the Retry-After header is the fallback; otherwise
// the retry is immediate.
func rateLimitWait(body []byte, header nethttp.Header) (time.Duration, RateLimitSignal) {
	var signal RateLimitSignal
	if err := json.Unmarshal(body, &signal); err == nil && signal.RetryAfter != nil {
		return secondsToDuration(*signal.RetryAfter), signal
	}

	if v := strings.TrimSpace(header.Get("Retry-After")); v != "" {
		if secs, err := strconv.ParseFloat(v, 64); err == nil {
			return secondsToDuration(secs), signal
		}
	}
	return 0, signal
}

func secondsToDuration(secs float64) time.Duration {
	switch {
	case math.IsNaN(secs) || secs <= 0:
		return 0
	case secs >= maxRetryAfterSeconds:
		return time.Duration(math.MaxInt64)
	default:
		return time.Duration(secs * float64(time.Second))
	}
}
