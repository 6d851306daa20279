package storage

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonotonicityErrorMessage(t *testing.T) {
	err := &MonotonicityError{
		Value:    decimal.RequireFromString("1200"),
		Baseline: decimal.RequireFromString("1500.5"),
	}
	assert.Contains(t, err.Error(), "1200")
	assert.Contains(t, err.Error(), "1500.5")
}

func TestMonotonicityErrorUnwrapsThroughWrapping(t *testing.T) {
	inner := &MonotonicityError{
		Value:    decimal.RequireFromString("10"),
		Baseline: decimal.RequireFromString("20"),
	}
	wrapped := fmt.Errorf("create reading: %w", inner)

	var mono *MonotonicityError
	require.True(t, errors.As(wrapped, &mono))
	assert.True(t, mono.Baseline.Equal(inner.Baseline))
}

func TestCreatePayoutRejectsNonPositiveAmount(t *testing.T) {
	// The positivity check runs before any database access, so a nil
	// handle is sufficient here.
	s := New(nil)
	for _, raw := range []string{"0", "-1", "-0.01"} {
		amount := decimal.RequireFromString(raw)
		_, err := s.CreatePayout(context.Background(), 1, 2, amount,
			time.Now(), "test", 42)
		assert.ErrorIs(t, err, ErrNonPositiveAmount, "amount %s", raw)
	}
}
