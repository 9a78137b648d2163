package core

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_MessageFormat(t *testing.T) {
	err := NewError(KindPermanent, "invalid api key").WithProvider("openai").WithHTTPStatus(401)
	assert.Equal(t, "[openai permanent] invalid api key", err.Error())
	assert.Equal(t, 401, err.HTTPStatus)

	wrapped := NewError(KindTransient, "request failed").WithCause(errors.New("connection refused"))
	assert.Equal(t, "[transient] request failed: connection refused", wrapped.Error())
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := NewError(KindTransient, "upstream").WithCause(cause)
	assert.ErrorIs(t, err, cause)
}

func TestClassifyHTTPStatus(t *testing.T) {
	assert.Equal(t, KindRateLimited, ClassifyHTTPStatus(http.StatusTooManyRequests))
	assert.Equal(t, KindPermanent, ClassifyHTTPStatus(http.StatusUnauthorized))
	assert.Equal(t, KindPermanent, ClassifyHTTPStatus(http.StatusNotFound))
	assert.Equal(t, KindPermanent, ClassifyHTTPStatus(http.StatusBadRequest))
	assert.Equal(t, KindTransient, ClassifyHTTPStatus(http.StatusInternalServerError))
	assert.Equal(t, KindTransient, ClassifyHTTPStatus(http.StatusBadGateway))
	assert.Equal(t, KindTransient, ClassifyHTTPStatus(http.StatusServiceUnavailable))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindRateLimited, KindOf(NewError(KindRateLimited, "slow down")))
	assert.Equal(t, KindCancelled, KindOf(context.Canceled))
	assert.Equal(t, KindTransient, KindOf(errors.New("anything else")))

	// Classification survives wrapping.
	wrapped := fmt.Errorf("call failed: %w", NewError(KindPermanent, "bad request"))
	assert.Equal(t, KindPermanent, KindOf(wrapped))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(NewError(KindTransient, "x")))
	assert.True(t, IsRetryable(NewError(KindRateLimited, "x")))
	assert.False(t, IsRetryable(NewError(KindPermanent, "x")))
	assert.False(t, IsRetryable(NewError(KindConfiguration, "x")))
	assert.False(t, IsRetryable(NewError(KindCancelled, "x")))
}

func TestRetryAfterOf(t *testing.T) {
	hinted := NewError(KindRateLimited, "x").WithRetryAfter(7 * time.Second)
	assert.Equal(t, 7*time.Second, RetryAfterOf(hinted))
	assert.Zero(t, RetryAfterOf(errors.New("plain")))
}

func TestCallLimiter(t *testing.T) {
	cl := NewCallLimiter(2)
	require.NoError(t, cl.Increment())
	require.NoError(t, cl.Increment())
	assert.Equal(t, 0, cl.Remaining())

	err := cl.Increment()
	require.Error(t, err)
	assert.Equal(t, KindPermanent, KindOf(err))
	assert.Equal(t, 3, cl.Count())
}

func TestCallLimiter_Unlimited(t *testing.T) {
	cl := NewCallLimiter(0)
	for i := 0; i < 100; i++ {
		require.NoError(t, cl.Increment())
	}
	assert.Equal(t, -1, cl.Remaining())
}
