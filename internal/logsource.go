package internal

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"cloud.google.com/go/storage"
)

// LogSource supplies a day's raw transaction log for an environment.
type LogSource interface {
	Fetch(ctx context.Context, env, date string) ([]byte, error)
}

// GCSLogSource reads daily logs from per-environment buckets, keeping a
// local copy keyed by date and environment so a day's log is only pulled
// once. Two concurrent fetches of the same day may both download; the second
// write just replaces an identical file.
type GCSLogSource struct {
	client   *storage.Client
	buckets  map[string]string
	cacheDir string
}

func NewGCSLogSource(client *storage.Client, buckets map[string]string, cacheDir string) *GCSLogSource {
	return &GCSLogSource{client: client, buckets: buckets, cacheDir: cacheDir}
}

func (s *GCSLogSource) Fetch(ctx context.Context, env, date string) ([]byte, error) {
	bucket, ok := s.buckets[env]
	if !ok {
		return nil, fmt.Errorf("%w: unknown environment %q", ErrSourceUnavailable, env)
	}

	cached := filepath.Join(s.cacheDir, fmt.Sprintf("%s.%s.log", date, env))
	if data, err := os.ReadFile(cached); err == nil {
		return data, nil
	}

	data, err := s.download(ctx, bucket, date+".log")
	if err != nil {
		return nil, fmt.Errorf("%w: %s/%s: %w", ErrSourceUnavailable, env, date, err)
	}

	if err := os.WriteFile(cached, data, 0o644); err != nil {
		slog.Warn("could not cache log file", "path", cached, "err", err)
	}
	return data, nil
}

func (s *GCSLogSource) download(ctx context.Context, bucket, object string) ([]byte, error) {
	r, err := s.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("open object reader: %w", err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read object: %w", err)
	}
	return data, nil
}
