package internal

import (
	"context"
	"log/slog"
	"sort"
	"time"
)

// BuildState is the tri-state overall build status. Unknown exists so a
// fresh deployment (or an expired cache) is distinguishable from an explicit
// failing state and never fakes a transition.
type BuildState int

const (
	StateUnknown BuildState = iota
	StatePassing
	StateFailing
)

func (s BuildState) String() string {
	switch s {
	case StatePassing:
		return "passing"
	case StateFailing:
		return "failing"
	default:
		return "unknown"
	}
}

func stateOf(passing bool) BuildState {
	if passing {
		return StatePassing
	}
	return StateFailing
}

// Fold collapses per-job results into the overall status: logical AND across
// all jobs. An empty poll is vacuously passing; callers log that case.
func Fold(results map[string]bool) bool {
	for _, ok := range results {
		if !ok {
			return false
		}
	}
	return true
}

// SortedJobs returns the per-job outcomes ordered by name for display.
func (r BuildResult) SortedJobs() []JobStatus {
	jobs := make([]JobStatus, 0, len(r.Results))
	for name, passing := range r.Results {
		jobs = append(jobs, JobStatus{Name: name, Passing: passing})
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].Name < jobs[j].Name })
	return jobs
}

// Transition is one observed overall-status flip.
type Transition struct {
	From BuildState `json:"from"`
	To   BuildState `json:"to"`
	When time.Time  `json:"when"`
}

const lastBuildKey = "last-build"

// BuildTracker persists the last known overall status and detects flips.
// Detection is decoupled from any notification side-effect: Observe reports
// the transition, what to do with it is the caller's business.
type BuildTracker struct {
	cache Cache
}

func NewBuildTracker(cache Cache) *BuildTracker {
	return &BuildTracker{cache: cache}
}

// Observe records the newly folded status and returns a Transition when the
// status changed against the previously persisted one. The first observation
// after an Unknown state only seeds the tracker.
func (t *BuildTracker) Observe(ctx context.Context, passing bool, when time.Time) (*Transition, error) {
	last, err := t.last(ctx)
	if err != nil {
		return nil, err
	}

	next := stateOf(passing)
	if err := t.cache.Set(ctx, lastBuildKey, []byte(next.String()), 0); err != nil {
		return nil, err
	}

	if last == StateUnknown || last == next {
		return nil, nil
	}
	return &Transition{From: last, To: next, When: when}, nil
}

func (t *BuildTracker) last(ctx context.Context) (BuildState, error) {
	raw, ok, err := t.cache.Get(ctx, lastBuildKey)
	if err != nil {
		return StateUnknown, err
	}
	if !ok {
		return StateUnknown, nil
	}

	switch string(raw) {
	case StatePassing.String():
		return StatePassing, nil
	case StateFailing.String():
		return StateFailing, nil
	default:
		return StateUnknown, nil
	}
}

// Notifier receives build transitions. The production implementation posts
// to the notify service; tests and quiet deployments use LogNotifier.
type Notifier interface {
	Notify(ctx context.Context, t Transition) error
}

// LogNotifier only logs transitions.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, t Transition) error {
	slog.Info("build status changed", "from", t.From.String(), "to", t.To.String())
	return nil
}
