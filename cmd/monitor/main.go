package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kumar303/metaplace/internal"
	"github.com/kumar303/metaplace/pkg/utils"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"resty.dev/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.SetLogLoggerLevel(slog.LevelInfo)

	client := resty.New().
		SetTimeout(10 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		AddRetryConditions(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= 500
		})
	defer client.Close()

	redisAddr := utils.GetEnvOrSetDefault("REDIS_ADDR", "localhost:6379")
	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		panic(fmt.Errorf("failed to connect to redis: %w", err))
	}
	cache := internal.NewRedisCache(rdb)

	mongoEndpoint := utils.GetEnvOrSetDefault("MONGO_ENDPOINT", "mongodb://localhost:27017")
	opts := options.Client().
		ApplyURI(mongoEndpoint).
		SetServerSelectionTimeout(time.Second * 5)
	mdbClient, err := mongo.Connect(ctx, opts)
	if err != nil {
		panic(fmt.Errorf("failed to connect to mongodb: %w", err))
	}
	if err := mdbClient.Ping(ctx, nil); err != nil {
		panic(fmt.Errorf("failed to ping mongodb: %w", err))
	}
	mdb := mdbClient.Database(utils.GetEnvOrSetDefault("MONGO_DATABASE", "metaplace"))
	events := internal.NewTransitionRepository(mdb)

	ciConf := internal.CIConfig{
		JenkinsURL:  utils.GetEnvOrSetDefault("JENKINS_URL", "https://ci.mozilla.org"),
		TravisURL:   utils.GetEnvOrSetDefault("TRAVIS_URL", "https://api.travis-ci.org"),
		JenkinsJobs: utils.GetEnvList("JENKINS_JOBS", "solitude,marketplace,marketplace-api,marketplace-webpay,amo-master"),
		TravisRepos: utils.GetEnvList("TRAVIS_REPOS", "mozilla/fireplace,andymckay/receipts,andymckay/curling"),
	}

	var notifier internal.Notifier = internal.LogNotifier{}
	if auth := os.Getenv("NOTIFY_AUTH"); auth != "" {
		notifyURL := utils.GetEnvOrSetDefault("NOTIFY_URL", "https://notify.paas.allizom.org")
		notifier = internal.NewHTTPNotifier(client, notifyURL, auth)
	}

	tracker := internal.NewBuildTracker(cache)
	ci := internal.NewCIAdapter(client, ciConf, cache, tracker, notifier, events)

	intervalStr := utils.GetEnvOrSetDefault("POLL_INTERVAL", "5m")
	interval, err := time.ParseDuration(intervalStr)
	if err != nil {
		panic(fmt.Errorf("bad POLL_INTERVAL %q: %w", intervalStr, err))
	}

	monitor := internal.NewBuildMonitor(ci, interval)
	monitor.Run(ctx)

	slog.Info("shutting down monitor")
}
