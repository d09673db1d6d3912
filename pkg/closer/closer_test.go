package closer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClose_LIFOOrder(t *testing.T) {
	t.Parallel()

	c := NewCloser(0)

	var order []int
	for i := 1; i <= 3; i++ {
		c.Add(func(ctx context.Context) error {
			order = append(order, i)
			return nil
		})
	}

	require.NoError(t, c.Close(context.Background()))
	assert.Equal(t, []int{3, 2, 1}, order)
}

func TestClose_CollectsErrors(t *testing.T) {
	t.Parallel()

	c := NewCloser(0)
	c.Add(func(ctx context.Context) error { return errors.New("redis: close failed") })
	c.Add(func(ctx context.Context) error { return nil })

	err := c.Close(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis: close failed")
}

func TestClose_SecondCallIsNoop(t *testing.T) {
	t.Parallel()

	c := NewCloser(0)

	calls := 0
	c.Add(func(ctx context.Context) error {
		calls++
		return nil
	})

	require.NoError(t, c.Close(context.Background()))
	require.NoError(t, c.Close(context.Background()))
	assert.Equal(t, 1, calls)
}

func TestClose_ForcesSlowFuncsOnDeadline(t *testing.T) {
	t.Parallel()

	c := NewCloser(50 * time.Millisecond)

	// Буфер на оба запуска: обычный и принудительный
	forced := make(chan struct{}, 2)
	c.Add(func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			forced <- struct{}{}
			return ctx.Err()
		case <-time.After(5 * time.Second):
			return nil
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := c.Close(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shutdown interrupted")

	select {
	case <-forced:
	case <-time.After(time.Second):
		t.Fatal("slow func was not forced to stop")
	}
}
