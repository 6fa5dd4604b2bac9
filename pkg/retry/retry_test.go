package retry

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "socialscraper/pkg/errors"
)

func fastConfig(maxAttempts int) *Config {
	return &Config{
		MaxAttempts: maxAttempts,
		Backoff:     &ConstantBackoff{Delay: time.Millisecond},
		RetryIf:     DefaultRetryIf,
		Context:     context.Background(),
	}
}

func TestDoSucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := Do(func() error {
		calls++
		return nil
	}, fastConfig(3))

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoRetriesRetryableErrors(t *testing.T) {
	calls := 0
	err := Do(func() error {
		calls++
		if calls < 3 {
			return errs.New(errs.ErrorTypeNetwork, "connection reset")
		}
		return nil
	}, fastConfig(5))

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoStopsOnPermanentError(t *testing.T) {
	calls := 0
	permanent := errs.New(errs.ErrorTypeDownload, "not found")
	err := Do(func() error {
		calls++
		return permanent
	}, fastConfig(5))

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, permanent, err)
}

func TestDoExhaustsAttempts(t *testing.T) {
	calls := 0
	err := Do(func() error {
		calls++
		return errs.New(errs.ErrorTypeServerError, "still down")
	}, fastConfig(3))

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Contains(t, err.Error(), "max retry attempts")
}

func TestDoDoesNotRetryContextErrors(t *testing.T) {
	calls := 0
	err := Do(func() error {
		calls++
		return context.Canceled
	}, fastConfig(5))

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := &Config{
		MaxAttempts: 10,
		Backoff:     &ConstantBackoff{Delay: time.Hour},
		RetryIf:     DefaultRetryIf,
		Context:     ctx,
	}

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := Do(func() error {
		return errs.New(errs.ErrorTypeNetwork, "flaky")
	}, cfg)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDefaultRetryIf(t *testing.T) {
	assert.False(t, DefaultRetryIf(nil))
	assert.True(t, DefaultRetryIf(errs.New(errs.ErrorTypeNetwork, "net")))
	assert.False(t, DefaultRetryIf(errs.New(errs.ErrorTypeExtraction, "parse")))
	assert.False(t, DefaultRetryIf(context.DeadlineExceeded))
	assert.True(t, DefaultRetryIf(fmt.Errorf("untyped failure")))
}

func TestExponentialBackoffGrowth(t *testing.T) {
	eb := &ExponentialBackoff{
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   time.Second,
		Multiplier: 2.0,
	}

	assert.Equal(t, 100*time.Millisecond, eb.NextDelay(1))
	assert.Equal(t, 200*time.Millisecond, eb.NextDelay(2))
	assert.Equal(t, 400*time.Millisecond, eb.NextDelay(3))
	// Capped at MaxDelay
	assert.Equal(t, time.Second, eb.NextDelay(10))
	assert.Equal(t, time.Duration(0), eb.NextDelay(0))
}

func TestConstantBackoff(t *testing.T) {
	cb := &ConstantBackoff{Delay: 50 * time.Millisecond}
	assert.Equal(t, 50*time.Millisecond, cb.NextDelay(1))
	assert.Equal(t, 50*time.Millisecond, cb.NextDelay(7))
}
