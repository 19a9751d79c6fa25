// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared by the external service clients.
package httputil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxErrorBody caps how much of a failed response body is kept for the error.
const maxErrorBody = 4 << 10

// StatusError reports an HTTP response outside the 2xx range.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s returned %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

// CheckStatus returns a *StatusError for non-2xx responses, reading a bounded
// prefix of the body. The caller still owns and closes resp.Body.
func CheckStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	se := &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	if resp.Request != nil {
		se.Method = resp.Request.Method
		se.URL = resp.Request.URL.Redacted()
	}
	return se
}

// ErrPollLimit is returned when Poll exhausts its attempts.
var ErrPollLimit = errors.New("poll limit reached before completion")

// Poll calls check until it reports done, returns an error, or maxPolls
// attempts are used (maxPolls <= 0 means no limit). It waits interval between
// attempts and returns ctx.Err() if the context ends while waiting. Poll
// waits for an asynchronous job; it never repeats a failed request.
func Poll(ctx context.Context, interval time.Duration, maxPolls int, check func(context.Context) (bool, error)) error {
	for attempt := 1; ; attempt++ {
		done, err := check(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		if maxPolls > 0 && attempt >= maxPolls {
			return ErrPollLimit
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}
