package internal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFold(t *testing.T) {
	tests := []struct {
		name    string
		results map[string]bool
		want    bool
	}{
		{"all passing", map[string]bool{"jobA": true, "jobB": true}, true},
		{"one failing", map[string]bool{"jobA": true, "jobB": false}, false},
		{"all failing", map[string]bool{"jobA": false}, false},
		{"empty is vacuously passing", map[string]bool{}, true},
		{"nil is vacuously passing", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Fold(tt.results))
		})
	}
}

func TestBuildResult_SortedJobs(t *testing.T) {
	result := BuildResult{Results: map[string]bool{
		"zeta":  true,
		"alpha": false,
		"mid":   true,
	}}

	jobs := result.SortedJobs()

	require.Len(t, jobs, 3)
	assert.Equal(t, "alpha", jobs[0].Name)
	assert.Equal(t, "mid", jobs[1].Name)
	assert.Equal(t, "zeta", jobs[2].Name)
	assert.False(t, jobs[0].Passing)
}

func TestBuildTracker_FirstObservationSeedsOnly(t *testing.T) {
	ctx := context.Background()
	tracker := NewBuildTracker(NewMemoryCache())

	// A cache miss is Unknown, not failing: no transition on first sight.
	transition, err := tracker.Observe(ctx, false, time.Now())
	require.NoError(t, err)
	assert.Nil(t, transition)
}

func TestBuildTracker_DetectsFlipExactlyOnce(t *testing.T) {
	ctx := context.Background()
	tracker := NewBuildTracker(NewMemoryCache())
	when := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	_, err := tracker.Observe(ctx, true, when)
	require.NoError(t, err)

	// Same status again: no event.
	transition, err := tracker.Observe(ctx, true, when)
	require.NoError(t, err)
	assert.Nil(t, transition)

	// Flip: exactly one event.
	transition, err = tracker.Observe(ctx, false, when)
	require.NoError(t, err)
	require.NotNil(t, transition)
	assert.Equal(t, StatePassing, transition.From)
	assert.Equal(t, StateFailing, transition.To)
	assert.Equal(t, when, transition.When)

	// Steady failing: quiet again.
	transition, err = tracker.Observe(ctx, false, when)
	require.NoError(t, err)
	assert.Nil(t, transition)

	// Recovery flips back.
	transition, err = tracker.Observe(ctx, true, when)
	require.NoError(t, err)
	require.NotNil(t, transition)
	assert.Equal(t, StateFailing, transition.From)
	assert.Equal(t, StatePassing, transition.To)
}

func TestBuildState_String(t *testing.T) {
	assert.Equal(t, "passing", StatePassing.String())
	assert.Equal(t, "failing", StateFailing.String())
	assert.Equal(t, "unknown", StateUnknown.String())
}
