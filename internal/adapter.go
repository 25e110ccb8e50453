package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"golang.org/x/sync/errgroup"
	"resty.dev/v3"
)

// ErrSourceUnavailable marks an upstream failure (CI API, tiers API or log
// storage) that must surface as a request error, never as an empty result.
var ErrSourceUnavailable = errors.New("upstream source unavailable")

const (
	buildCacheKey = "build"
	buildCacheTTL = 5 * time.Minute
)

// CIConfig names the CI jobs the dashboard watches.
type CIConfig struct {
	JenkinsURL  string
	TravisURL   string
	JenkinsJobs []string
	TravisRepos []string
}

// TransitionRecorder persists observed build flips.
type TransitionRecorder interface {
	Record(ctx context.Context, t Transition) error
}

// CIAdapter polls the CI providers and folds the per-job outcomes into the
// overall build status. Poll results are cached so page reloads do not
// hammer the providers.
type CIAdapter struct {
	client   *resty.Client
	conf     CIConfig
	cache    Cache
	tracker  *BuildTracker
	notifier Notifier
	events   TransitionRecorder
	now      func() time.Time
}

func NewCIAdapter(client *resty.Client, conf CIConfig, cache Cache, tracker *BuildTracker, notifier Notifier, events TransitionRecorder) *CIAdapter {
	return &CIAdapter{
		client:   client,
		conf:     conf,
		cache:    cache,
		tracker:  tracker,
		notifier: notifier,
		events:   events,
		now:      time.Now,
	}
}

type jenkinsBuild struct {
	Result string `json:"result"`
}

type travisRepo struct {
	LastBuildResult int `json:"last_build_result"`
}

// Poll returns the current per-job results, from cache when fresh. A poll is
// all-or-nothing: if any job request fails the whole poll fails and the
// caller retries later, a dead provider is never folded in as a red build.
func (a *CIAdapter) Poll(ctx context.Context) (BuildResult, error) {
	if raw, ok, err := a.cache.Get(ctx, buildCacheKey); err != nil {
		slog.Warn("build cache read failed", "err", err)
	} else if ok {
		var cached BuildResult
		if err := sonic.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
		slog.Warn("discarding undecodable cached build result")
	}

	result, err := a.fanOut(ctx)
	if err != nil {
		return BuildResult{}, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}

	if raw, err := sonic.Marshal(result); err == nil {
		if err := a.cache.Set(ctx, buildCacheKey, raw, buildCacheTTL); err != nil {
			slog.Warn("build cache write failed", "err", err)
		}
	}

	return result, nil
}

// fanOut issues every job request concurrently and waits for all of them.
func (a *CIAdapter) fanOut(ctx context.Context) (BuildResult, error) {
	result := BuildResult{
		When:    a.now().UTC(),
		Results: make(map[string]bool, len(a.conf.JenkinsJobs)+len(a.conf.TravisRepos)),
	}

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)

	record := func(name string, passing bool) {
		mu.Lock()
		result.Results[name] = passing
		mu.Unlock()
	}

	for _, job := range a.conf.JenkinsJobs {
		g.Go(func() error {
			url := fmt.Sprintf("%s/job/%s/lastCompletedBuild/api/json", a.conf.JenkinsURL, job)
			var build jenkinsBuild
			if err := a.getJSON(ctx, url, &build); err != nil {
				return fmt.Errorf("jenkins %s: %w", job, err)
			}
			record(job, build.Result == "SUCCESS")
			return nil
		})
	}

	for _, repo := range a.conf.TravisRepos {
		g.Go(func() error {
			url := fmt.Sprintf("%s/repositories/%s.json", a.conf.TravisURL, repo)
			var last travisRepo
			if err := a.getJSON(ctx, url, &last); err != nil {
				return fmt.Errorf("travis %s: %w", repo, err)
			}
			record(repo, last.LastBuildResult == 0)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return BuildResult{}, err
	}
	return result, nil
}

func (a *CIAdapter) getJSON(ctx context.Context, url string, out any) error {
	res, err := a.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetResult(out).
		Get(url)
	if err != nil {
		return err
	}
	if res.IsError() {
		return fmt.Errorf("unexpected status %d", res.StatusCode())
	}
	return nil
}

// Check polls, folds and runs transition detection. The returned bool is the
// overall status. Recording and notifying are best-effort: a broken event
// store never hides the build status from the page.
func (a *CIAdapter) Check(ctx context.Context) (BuildResult, bool, error) {
	result, err := a.Poll(ctx)
	if err != nil {
		return BuildResult{}, false, err
	}

	if len(result.Results) == 0 {
		slog.Warn("no CI jobs configured, reporting vacuously passing")
	}
	passing := Fold(result.Results)

	transition, err := a.tracker.Observe(ctx, passing, result.When)
	if err != nil {
		slog.Warn("build transition tracking failed", "err", err)
		return result, passing, nil
	}
	if transition == nil {
		return result, passing, nil
	}

	if a.events != nil {
		if err := a.events.Record(ctx, *transition); err != nil {
			slog.Error("failed to record build transition", "err", err)
		}
	}
	if a.notifier != nil {
		if err := a.notifier.Notify(ctx, *transition); err != nil {
			slog.Error("failed to notify build transition", "err", err)
		}
	}

	return result, passing, nil
}
