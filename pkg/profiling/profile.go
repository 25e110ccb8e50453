package profiling

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime/pprof"
	"runtime/trace"
)

// Start begins CPU and execution trace profiling under dir and returns a stop
// function that flushes everything. A heap profile is written on stop.
func Start(dir string) (func(), error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create profiling directory: %w", err)
	}

	cf, err := os.Create(filepath.Join(dir, "cpu.prof"))
	if err != nil {
		return nil, fmt.Errorf("create cpu profile: %w", err)
	}
	if err := pprof.StartCPUProfile(cf); err != nil {
		cf.Close()
		return nil, fmt.Errorf("start cpu profile: %w", err)
	}

	tc, err := os.Create(filepath.Join(dir, "trace.prof"))
	if err != nil {
		pprof.StopCPUProfile()
		cf.Close()
		return nil, fmt.Errorf("create trace file: %w", err)
	}
	if err := trace.Start(tc); err != nil {
		pprof.StopCPUProfile()
		cf.Close()
		tc.Close()
		return nil, fmt.Errorf("start trace: %w", err)
	}

	stop := func() {
		pprof.StopCPUProfile()
		trace.Stop()
		cf.Close()
		tc.Close()

		if mf, err := os.Create(filepath.Join(dir, "memory.prof")); err == nil {
			_ = pprof.WriteHeapProfile(mf)
			mf.Close()
		}
	}
	return stop, nil
}
