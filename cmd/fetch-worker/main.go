package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/steambuddy/steambuddy/internal/adapters/cache"
	"github.com/steambuddy/steambuddy/internal/adapters/fetchqueue"
	"github.com/steambuddy/steambuddy/internal/adapters/playerprovider"
	"github.com/steambuddy/steambuddy/internal/adapters/playerrepository"
	"github.com/steambuddy/steambuddy/internal/app"
	"github.com/steambuddy/steambuddy/internal/config"
	"github.com/steambuddy/steambuddy/internal/domain"
	"github.com/steambuddy/steambuddy/internal/logging"
	"github.com/steambuddy/steambuddy/internal/telemetry"
	_ "golang.org/x/crypto/x509roots/fallback"
)

const SERVICE_NAME = "steambuddy-fetch-worker"

// Consumes fetch jobs from Kafka, fetching each player from Steam and storing it
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	instanceID := uuid.New().String()
	logger := slog.New(logging.NewTracingLogHandler(slog.NewJSONHandler(os.Stdout, nil))).With("instanceID", instanceID)

	fail := func(msg string, args ...any) {
		logger.Error(msg, args...)
		os.Exit(1)
	}

	conf, err := config.ConfigFromEnv()
	if err != nil {
		fail("Failed to load config", "error", err.Error())
	}
	logger.Info("Loaded config", "config", conf.NonSensitiveString())

	brokers := conf.KafkaBrokers()
	if len(brokers) == 0 {
		fail("Missing KAFKA_BROKERS")
	}

	if conf.OTelEnabled() {
		shutdownOTel, err := telemetry.SetupOTelSDK(ctx, SERVICE_NAME)
		if err != nil {
			fail("Failed to set up OpenTelemetry", "error", err.Error())
		}
		defer shutdownOTel(context.Background())
	}

	playerRepo, closeRepo, err := playerrepository.NewPlayerRepositoryFromConfig(ctx, conf, logger.With("component", "playerrepository"))
	if err != nil {
		fail("Failed to initialize PlayerRepository", "error", err.Error())
	}
	defer closeRepo()

	steamAPI, err := playerprovider.NewSteamAPIOrMock(conf, &http.Client{Timeout: 10 * time.Second})
	if err != nil {
		fail("Failed to initialize Steam API", "error", err.Error())
	}
	playerProvider, err := playerprovider.NewSteamPlayerProvider(steamAPI)
	if err != nil {
		fail("Failed to initialize PlayerProvider", "error", err.Error())
	}

	fetchCache, stopFetchCache := cache.NewTTLCache[*domain.Player](1 * time.Minute)
	defer stopFetchCache()

	jobHandler := fetchqueue.WithRetries(
		app.BuildFetchJobHandler(app.BuildFetchAndStorePlayer(fetchCache, playerProvider, playerRepo)),
		fetchqueue.DefaultRetryPolicy(),
	)

	consumer := fetchqueue.NewKafkaConsumer(brokers, conf.FetchTopic(), jobHandler, logger.With("component", "fetchqueue"))
	defer consumer.Close()

	logger.Info("Init complete", "brokers", brokers, "topic", conf.FetchTopic())
	err = consumer.Run(ctx)
	if err != nil {
		fail("Consumer error", "error", err.Error())
	}
	logger.Info("Consumer shutdown")
}
