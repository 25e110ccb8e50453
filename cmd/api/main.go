package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/kumar303/metaplace/internal"
	"github.com/kumar303/metaplace/pkg/profiling"
	"github.com/kumar303/metaplace/pkg/utils"

	"cloud.google.com/go/storage"
	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"resty.dev/v3"
)

func main() {
	slog.SetLogLoggerLevel(slog.LevelInfo)
	ctx := context.Background()

	if utils.GetEnvOrSetDefault("ENABLE_PROFILING", "false") == "true" {
		stop, err := profiling.Start("prof")
		if err != nil {
			slog.Error("profiling disabled", "err", err)
		} else {
			defer stop()
		}
	}

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

	gcs, err := storage.NewClient(ctx)
	if err != nil {
		panic(fmt.Errorf("failed to create storage client: %w", err))
	}
	cacheDir := utils.GetEnvOrSetDefault("LOG_CACHE_DIR", "cache")
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		panic(fmt.Errorf("failed to create log cache dir: %w", err))
	}
	buckets := map[string]string{
		"dev":   utils.GetEnvOrSetDefault("LOG_BUCKET_DEV", "metaplace-logs-dev"),
		"stage": utils.GetEnvOrSetDefault("LOG_BUCKET_STAGE", "metaplace-logs-stage"),
		"prod":  utils.GetEnvOrSetDefault("LOG_BUCKET_PROD", "metaplace-logs-prod"),
	}
	logs := internal.NewGCSLogSource(gcs, buckets, cacheDir)

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

	servers := map[string]string{
		"dev":   utils.GetEnvOrSetDefault("MARKETPLACE_URL_DEV", "https://marketplace-dev.allizom.org"),
		"stage": utils.GetEnvOrSetDefault("MARKETPLACE_URL_STAGE", "https://marketplace.allizom.org"),
		"prod":  utils.GetEnvOrSetDefault("MARKETPLACE_URL_PROD", "https://marketplace.firefox.com"),
	}
	tiers := internal.NewTierAdapter(client, servers)

	verifier := internal.NewVerifier(
		client,
		utils.GetEnvOrSetDefault("VERIFIER_URL", "https://verifier.login.persona.org/verify"),
		utils.GetEnvOrSetDefault("AUDIENCE", "https://metaplace.paas.allizom.org/"),
		utils.GetEnvList("ALLOWED_EMAILS", ""),
	)

	sessions := session.New(session.Config{
		KeyLookup:      "cookie:metaplace_session",
		CookieHTTPOnly: true,
	})

	handler := internal.NewDashboardHandler(ci, tiers, logs, verifier, sessions, events)
	app := fiber.New(fiber.Config{
		JSONEncoder:  sonicMarshal,
		JSONDecoder:  sonicUnmarshal,
		ErrorHandler: internal.ErrorHandler,
		AppName:      "Metaplace",
	})
	app.Use(internal.STSMiddleware)
	handler.RegisterRoutes(app)

	port := utils.GetEnvOrSetDefault("PORT", "5000")
	if err := app.Listen(":" + port); err != nil {
		panic(fmt.Errorf("failed to listen on port %s: %w", port, err))
	}
}

func sonicMarshal(v any) ([]byte, error) {
	return sonic.Marshal(v)
}

func sonicUnmarshal(data []byte, v any) error {
	return sonic.Unmarshal(data, v)
}
