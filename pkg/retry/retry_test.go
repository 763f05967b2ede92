package retry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

func retryableErr() error {
	return &openai.APIError{HTTPStatusCode: 503, Message: "service unavailable"}
}

func TestDoRetryableExhaustsAttempts(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), func(ctx context.Context) (string, error) {
		calls++
		return "", retryableErr()
	}, Options{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoNonRetryableFailsFast(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), func(ctx context.Context) (string, error) {
		calls++
		return "", &openai.APIError{HTTPStatusCode: 400, Message: "bad request"}
	}, Options{MaxAttempts: 5, InitialDelay: time.Millisecond})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoSucceedsAfterRetry(t *testing.T) {
	calls := 0
	result, err := Do(context.Background(), func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", retryableErr()
		}
		return "ok", nil
	}, Options{MaxAttempts: 5, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, calls)
}

func TestDoBackoffGrowth(t *testing.T) {
	var delays []time.Duration
	_, err := Do(context.Background(), func(ctx context.Context) (string, error) {
		return "", retryableErr()
	}, Options{
		MaxAttempts:       5,
		InitialDelay:      time.Millisecond,
		MaxDelay:          4 * time.Millisecond,
		BackoffMultiplier: 2,
		OnRetry: func(err error, attempt int, delay time.Duration) {
			delays = append(delays, delay)
		},
	})

	require.Error(t, err)
	require.Len(t, delays, 4)
	assert.Equal(t, time.Millisecond, delays[0])
	assert.Equal(t, 2*time.Millisecond, delays[1])
	assert.Equal(t, 4*time.Millisecond, delays[2])
	// capped at MaxDelay
	assert.Equal(t, 4*time.Millisecond, delays[3])
}

func TestDoContextCancelledDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := Do(ctx, func(ctx context.Context) (string, error) {
		calls++
		return "", retryableErr()
	}, Options{MaxAttempts: 10, InitialDelay: time.Hour})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Category
	}{
		{"nil", nil, CategoryUnknown},
		{"openai 401", &openai.APIError{HTTPStatusCode: 401}, CategoryAuthentication},
		{"openai 429", &openai.APIError{HTTPStatusCode: 429}, CategoryRateLimit},
		{"openai 500", &openai.APIError{HTTPStatusCode: 500}, CategoryServer},
		{"openai 404", &openai.APIError{HTTPStatusCode: 404}, CategoryClient},
		{"googleapi 503", &googleapi.Error{Code: 503}, CategoryServer},
		{"http error 429", &HTTPError{StatusCode: 429, Message: "slow down"}, CategoryRateLimit},
		{"net op error", &net.OpError{Op: "dial", Err: errors.New("connection refused")}, CategoryNetwork},
		{"deadline", context.DeadlineExceeded, CategoryNetwork},
		{"refused by message", fmt.Errorf("dial tcp: connection refused"), CategoryNetwork},
		{"rate limit by message", errors.New("rate limit exceeded"), CategoryRateLimit},
		{"plain", errors.New("something odd"), CategoryUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Categorize(tt.err))
		})
	}
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(&openai.APIError{HTTPStatusCode: 429}))
	assert.True(t, IsRetryable(&openai.APIError{HTTPStatusCode: 502}))
	assert.True(t, IsRetryable(context.DeadlineExceeded))
	assert.False(t, IsRetryable(&openai.APIError{HTTPStatusCode: 401}))
	assert.False(t, IsRetryable(&openai.APIError{HTTPStatusCode: 422}))
	assert.False(t, IsRetryable(errors.New("something odd")))
}
