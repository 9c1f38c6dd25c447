package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestLimiter wires a fake clock so window math is deterministic.
func newTestLimiter(quota int, window time.Duration) (*Limiter, *time.Time) {
	l := New(quota, window)
	now := time.Unix(1_700_000_000, 0)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestTryAdmitEnforcesQuota(t *testing.T) {
	l, _ := newTestLimiter(3, time.Minute)
	assert.True(t, l.TryAdmit())
	assert.True(t, l.TryAdmit())
	assert.True(t, l.TryAdmit())
	assert.False(t, l.TryAdmit())
	assert.Equal(t, 3, l.Pending())
}

func TestWindowSlidesOpen(t *testing.T) {
	l, now := newTestLimiter(2, time.Minute)
	require.True(t, l.TryAdmit())
	require.True(t, l.TryAdmit())
	require.False(t, l.TryAdmit())

	// 59s 后窗口仍满，61s 后最老的时间戳滑出
	*now = now.Add(59 * time.Second)
	assert.False(t, l.TryAdmit())

	*now = now.Add(2 * time.Second)
	assert.True(t, l.TryAdmit())
	assert.False(t, l.TryAdmit())
}

func TestReleaseReturnsSlot(t *testing.T) {
	l, _ := newTestLimiter(1, time.Minute)
	require.True(t, l.TryAdmit())
	require.False(t, l.TryAdmit())

	l.Release()
	assert.True(t, l.TryAdmit())
}

func TestReleaseOnEmptyIsNoop(t *testing.T) {
	l, _ := newTestLimiter(1, time.Minute)
	l.Release()
	assert.Equal(t, 0, l.Pending())
	assert.True(t, l.TryAdmit())
}

func TestPendingPrunesExpired(t *testing.T) {
	l, now := newTestLimiter(5, time.Minute)
	require.True(t, l.TryAdmit())
	require.True(t, l.TryAdmit())
	assert.Equal(t, 2, l.Pending())

	*now = now.Add(2 * time.Minute)
	assert.Equal(t, 0, l.Pending())
}

func TestWaitAdmitsImmediatelyUnderQuota(t *testing.T) {
	l := New(2, time.Minute)
	require.NoError(t, l.Wait(context.Background()))
	assert.Equal(t, 1, l.Pending())
}

func TestWaitBlocksUntilWindowOpens(t *testing.T) {
	l := New(1, 50*time.Millisecond)
	require.True(t, l.TryAdmit())

	start := time.Now()
	require.NoError(t, l.Wait(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestWaitHonorsContextCancel(t *testing.T) {
	l := New(1, time.Hour)
	require.True(t, l.TryAdmit())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	err := l.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	// 未放行，不占用窗口
	assert.Equal(t, 1, l.Pending())
}

func TestNewAppliesDefaults(t *testing.T) {
	l := New(0, 0)
	for i := 0; i < 5; i++ {
		assert.True(t, l.TryAdmit())
	}
	assert.False(t, l.TryAdmit())
}
