package ratelimiter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		perSecond uint
		burst     uint
		wantBurst int
	}{
		{name: "ExplicitBurst", perSecond: 10, burst: 20, wantBurst: 20},
		{name: "BurstDefaultsToRate", perSecond: 5, burst: 0, wantBurst: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New(tt.perSecond, tt.burst)
			require.NotNil(t, l)
			assert.Equal(t, float64(tt.perSecond), l.Limit())
			assert.Equal(t, tt.wantBurst, l.Burst())
		})
	}
}

func TestNilLimiterIsUnlimited(t *testing.T) {
	l := New(0, 100)
	assert.Nil(t, l)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	for i := 0; i < 1000; i++ {
		require.NoError(t, l.Wait(ctx))
	}
	assert.Zero(t, l.Limit())
	assert.Zero(t, l.Burst())
}

func TestWait_Burst(t *testing.T) {
	l := New(1, 3)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	for i := 0; i < 3; i++ {
		assert.NoError(t, l.Wait(ctx), "request %d is within the burst", i)
	}
	assert.Error(t, l.Wait(ctx), "bucket should be empty")
}

func TestWait(t *testing.T) {
	l := New(50, 1)
	require.NoError(t, l.Wait(context.Background()))

	start := time.Now()
	require.NoError(t, l.Wait(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
}

func TestWait_ContextCancelled(t *testing.T) {
	l := New(1, 1)
	require.NoError(t, l.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	assert.Error(t, l.Wait(ctx))
}
