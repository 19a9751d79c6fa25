// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			w.WriteHeader(http.StatusCreated)
		case "/quota":
			w.WriteHeader(http.StatusTooManyRequests)
			fmt.Fprint(w, `{"error":{"code":"QUOTA_EXCEEDED"}}`)
		default:
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, strings.Repeat("x", 2*maxErrorBody))
		}
	}))
	defer ts.Close()

	get := func(path string) *http.Response {
		resp, err := ts.Client().Get(ts.URL + path)
		require.NoError(t, err)
		t.Cleanup(func() { resp.Body.Close() })
		return resp
	}

	assert.NoError(t, CheckStatus(get("/ok")))

	err := CheckStatus(get("/quota"))
	require.Error(t, err)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusTooManyRequests, se.StatusCode)
	assert.Equal(t, http.MethodGet, se.Method)
	assert.Contains(t, se.Body, "QUOTA_EXCEEDED")

	err = CheckStatus(get("/boom"))
	require.True(t, errors.As(err, &se))
	assert.Len(t, se.Body, maxErrorBody)
}

func TestPoll(t *testing.T) {
	tests := []struct {
		name      string
		doneAt    int
		failAt    int
		maxPolls  int
		wantErr   error
		wantCalls int
	}{
		{name: "done immediately", doneAt: 1, wantCalls: 1},
		{name: "done after waiting", doneAt: 3, wantCalls: 3},
		{name: "check error stops polling", failAt: 2, wantCalls: 2},
		{name: "limit reached", doneAt: 10, maxPolls: 4, wantErr: ErrPollLimit, wantCalls: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			checkErr := errors.New("job failed")
			err := Poll(context.Background(), time.Millisecond, tt.maxPolls, func(context.Context) (bool, error) {
				calls++
				if tt.failAt > 0 && calls == tt.failAt {
					return false, checkErr
				}
				return calls >= tt.doneAt && tt.doneAt > 0, nil
			})

			switch {
			case tt.failAt > 0:
				assert.ErrorIs(t, err, checkErr)
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			default:
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantCalls, calls)
		})
	}
}

func TestPoll_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Poll(ctx, time.Hour, 0, func(context.Context) (bool, error) {
		calls++
		cancel()
		return false, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
