package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// RateLimitError is a 429 from the provider. RetryAfter is zero when the
// provider gave no hint.
type RateLimitError struct {
	RetryAfter time.Duration
	Err        error
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited, retry in %s: %v", e.RetryAfter, e.Err)
	}
	return fmt.Sprintf("rate limited: %v", e.Err)
}

func (e *RateLimitError) Unwrap() error { return e.Err }

// UnavailableError means the provider could not be reached or failed on
// its side.
type UnavailableError struct {
	Err error
}

func (e *UnavailableError) Error() string {
	if e.Err == nil {
		return "llm provider unavailable"
	}
	return "llm provider unavailable: " + e.Err.Error()
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// InvalidResponseError carries output that is not valid JSON for the
// requested schema, or no usable output at all.
type InvalidResponseError struct {
	Content json.RawMessage
	Err     error
}

func (e *InvalidResponseError) Error() string {
	return "invalid llm response: " + e.Err.Error()
}

func (e *InvalidResponseError) Unwrap() error { return e.Err }

// TruncatedError is structured output cut off by MaxTokens. Asking again
// with the same budget gives the same result.
type TruncatedError struct {
	Content json.RawMessage
}

func (e *TruncatedError) Error() string {
	return fmt.Sprintf("llm response truncated at max tokens after %d bytes", len(e.Content))
}

// ErrSpeechUnsupported is the cause of a SpeechError when the provider has
// no text-to-speech endpoint.
var ErrSpeechUnsupported = errors.New("speech synthesis not supported")

// SpeechError is a failed text-to-speech call.
type SpeechError struct {
	Provider string
	Model    string
	Err      error
}

func (e *SpeechError) Error() string {
	who := e.Provider
	if e.Model != "" {
		who += "/" + e.Model
	}
	return fmt.Sprintf("speech (%s): %v", who, e.Err)
}

func (e *SpeechError) Unwrap() error { return e.Err }

// speechFailure wraps a TTS error with the backend that produced it.
func speechFailure(provider, model string, err error) error {
	if err == nil {
		return nil
	}
	return &SpeechError{Provider: provider, Model: model, Err: err}
}

// retryable reports whether the same request may succeed on another try.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var truncated *TruncatedError
	return !errors.As(err, &truncated)
}

// retryAfter returns the wait a rate-limited provider asked for.
func retryAfter(err error) (time.Duration, bool) {
	var rl *RateLimitError
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		return rl.RetryAfter, true
	}
	return 0, false
}

// retryAfterHeader reads a Retry-After header given in seconds or as an
// HTTP date. It returns zero when there is no usable hint.
func retryAfterHeader(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}
	v := strings.TrimSpace(resp.Header.Get("Retry-After"))
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return max(time.Duration(secs)*time.Second, 0)
	}
	if at, err := http.ParseTime(v); err == nil {
		return max(time.Until(at), 0)
	}
	return 0
}
