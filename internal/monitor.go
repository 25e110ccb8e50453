package internal

import (
	"context"
	"log/slog"
	"time"
)

// BuildMonitor runs the CI check on a ticker so build transitions are
// detected and recorded even when nobody has the dashboard open.
type BuildMonitor struct {
	ci       *CIAdapter
	interval time.Duration
}

func NewBuildMonitor(ci *CIAdapter, interval time.Duration) *BuildMonitor {
	return &BuildMonitor{ci: ci, interval: interval}
}

// Run blocks until ctx is cancelled. A failed poll is logged and retried on
// the next tick; the monitor never dies because a provider flaked.
func (m *BuildMonitor) Run(ctx context.Context) {
	m.check(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.check(ctx)
		}
	}
}

func (m *BuildMonitor) check(ctx context.Context) {
	result, passing, err := m.ci.Check(ctx)
	if err != nil {
		slog.Error("build poll failed", "err", err)
		return
	}
	slog.Info("build poll complete", "passing", passing, "jobs", len(result.Results))
}
