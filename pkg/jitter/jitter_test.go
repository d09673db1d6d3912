package jitter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDuration(t *testing.T) {
	t.Parallel()

	base := 2 * time.Second
	for i := 0; i < 100; i++ {
		d := Duration(base, DefaultJitter)
		assert.GreaterOrEqual(t, d, base)
		assert.LessOrEqual(t, d, base+time.Second)
	}
}

func TestDuration_ZeroFactor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, time.Second, Duration(time.Second, 0))
}

func TestBackoff(t *testing.T) {
	t.Parallel()

	base := time.Second
	max := 10 * time.Second

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 10 * time.Second},
		{10, 10 * time.Second},
	}

	for _, tt := range tests {
		got := Backoff(base, max, tt.attempt, 0)
		assert.Equal(t, tt.want, got, "attempt %d", tt.attempt)
	}
}

func TestBackoff_WithJitterStaysBounded(t *testing.T) {
	t.Parallel()

	for attempt := 0; attempt < 8; attempt++ {
		d := Backoff(time.Second, 10*time.Second, attempt, DefaultJitter)
		assert.GreaterOrEqual(t, d, time.Second)
		assert.LessOrEqual(t, d, 15*time.Second)
	}
}
