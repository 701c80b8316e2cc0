package sweep

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/heatplate/internal/monitoring"
	"github.com/banshee-data/heatplate/internal/relax"
	"github.com/banshee-data/heatplate/internal/timeutil"
)

func TestMain(m *testing.M) {
	monitoring.SetLogger(nil)
	os.Exit(m.Run())
}

// tickingClock advances by step on every reading.
type tickingClock struct {
	*timeutil.MockClock
	step time.Duration
}

func (c tickingClock) Now() time.Time {
	c.Advance(c.step)
	return c.MockClock.Now()
}

func (c tickingClock) Since(t time.Time) time.Duration {
	return c.Now().Sub(t)
}

func newTickingClock(step time.Duration) tickingClock {
	return tickingClock{
		MockClock: timeutil.NewMockClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		step:      step,
	}
}

func TestCases(t *testing.T) {
	got := Cases([]int{10, 20}, []float64{1e-3, 1e-6})
	want := []Case{
		{10, 10, 1e-3}, {10, 10, 1e-6},
		{20, 20, 1e-3}, {20, 20, 1e-6},
	}
	assert.Equal(t, want, got)
	assert.Empty(t, Cases(nil, []float64{1e-6}))
}

func TestRunner_Run(t *testing.T) {
	r := &Runner{
		Base:    relax.Config{Workers: 2},
		Clock:   newTickingClock(10 * time.Millisecond),
		Repeats: 3,
	}

	var buf bytes.Buffer
	results, err := r.Run(context.Background(), Cases([]int{3, 10}, []float64{1e-6}), NewCSVWriter(&buf))
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, 2, results[0].Iterations)
	assert.True(t, results[0].Converged)
	assert.InDelta(t, 0.01, results[0].ElapsedMean, 1e-9)
	assert.InDelta(t, 0, results[0].ElapsedStddev, 1e-9)
	assert.True(t, results[1].Converged)
	assert.Greater(t, results[1].Iterations, results[0].Iterations)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "rows,cols,epsilon,iterations,converged,max_diff,elapsed_mean_s,elapsed_stddev_s", lines[0])
	assert.Equal(t, "3,3,1e-06,2,true,0,0.010000,0.000000", lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "10,10,1e-06,"), lines[2])
}

func TestRunner_CapIsNotFatal(t *testing.T) {
	r := &Runner{Base: relax.Config{MaxIterations: 1, Workers: 1}}
	results, err := r.Run(context.Background(), Cases([]int{5}, []float64{1e-6}), nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].Converged)
	assert.Equal(t, 1, results[0].Iterations)
	assert.Equal(t, 25.0, results[0].MaxDiff)
}

func TestRunner_Errors(t *testing.T) {
	t.Run("invalid epsilon", func(t *testing.T) {
		r := &Runner{}
		_, err := r.Run(context.Background(), []Case{{Rows: 5, Cols: 5, Epsilon: 0}}, nil)
		assert.True(t, errors.Is(err, relax.ErrInvalidConfig), "got %v", err)
	})

	t.Run("canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		r := &Runner{Base: relax.Config{Workers: 1}}
		_, err := r.Run(ctx, Cases([]int{5}, []float64{1e-6}), nil)
		assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
	})
}
