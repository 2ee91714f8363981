package main

import (
	"context"
	"errors"
	"fmt"
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
	"github.com/steambuddy/steambuddy/internal/ports"
	"github.com/steambuddy/steambuddy/internal/reporting"
	"github.com/steambuddy/steambuddy/internal/telemetry"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	_ "golang.org/x/crypto/x509roots/fallback"
)

const SERVICE_NAME = "steambuddy"

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

	if conf.OTelEnabled() {
		shutdownOTel, err := telemetry.SetupOTelSDK(ctx, SERVICE_NAME)
		if err != nil {
			fail("Failed to set up OpenTelemetry", "error", err.Error())
		}
		defer func() {
			err := shutdownOTel(context.Background())
			if err != nil {
				logger.Error("Failed to shut down OpenTelemetry", "error", err.Error())
			}
		}()
		logger.Info("Initialized OpenTelemetry")
	}

	sentryMiddleware, flush, err := reporting.NewSentryMiddlewareOrMock(conf)
	if err != nil {
		fail("Failed to initialize Sentry", "error", err.Error())
	}
	defer flush()
	logger.Info("Initialized Sentry middleware")

	playerRepo, closeRepo, err := playerrepository.NewPlayerRepositoryFromConfig(ctx, conf, logger.With("component", "playerrepository"))
	if err != nil {
		fail("Failed to initialize PlayerRepository", "error", err.Error())
	}
	defer closeRepo()
	logger.Info("Initialized PlayerRepository")

	httpClient := &http.Client{
		Timeout: 10 * time.Second,
	}
	steamAPI, err := playerprovider.NewSteamAPIOrMock(conf, httpClient)
	if err != nil {
		fail("Failed to initialize Steam API", "error", err.Error())
	}
	playerProvider, err := playerprovider.NewSteamPlayerProvider(steamAPI)
	if err != nil {
		fail("Failed to initialize PlayerProvider", "error", err.Error())
	}
	logger.Info("Initialized Steam API")

	fetchCache, stopFetchCache := cache.NewTTLCache[*domain.Player](1 * time.Minute)
	defer stopFetchCache()

	fetchAndStorePlayer := app.BuildFetchAndStorePlayer(fetchCache, playerProvider, playerRepo)

	var dispatcher fetchqueue.Dispatcher
	if brokers := conf.KafkaBrokers(); len(brokers) > 0 {
		// Jobs are handled by cmd/fetch-worker
		kafkaDispatcher := fetchqueue.NewKafkaDispatcher(brokers, conf.FetchTopic())
		defer kafkaDispatcher.Close()
		dispatcher = kafkaDispatcher
		logger.Info("Initialized Kafka dispatcher", "brokers", brokers, "topic", conf.FetchTopic())
	} else {
		jobHandler := fetchqueue.WithRetries(app.BuildFetchJobHandler(fetchAndStorePlayer), fetchqueue.DefaultRetryPolicy())
		localDispatcher := fetchqueue.NewLocalDispatcher(
			jobHandler,
			fetchqueue.LOCAL_QUEUE_SIZE,
			conf.FetchWorkers(),
			logger.With("component", "fetchqueue"),
		)
		// Jobs outlive the requests that scheduled them
		localDispatcher.Start(context.WithoutCancel(ctx))
		defer localDispatcher.Stop()
		dispatcher = localDispatcher
		logger.Info("Initialized local dispatcher", "workers", conf.FetchWorkers())
	}

	allowedOrigins, err := ports.NewDomainSuffixes(conf.CORSAllowedOrigins()...)
	if err != nil {
		fail("Failed to initialize allowed origins", "error", err.Error())
	}

	ingestPlayer := app.BuildIngestPlayer(playerRepo, dispatcher, time.Now)
	listPlayers := app.BuildListPlayers(playerRepo)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /", ports.MakeRootHandler(conf.Environment()))

	ingestPlayerHandler := ports.MakeIngestPlayerHandler(
		ingestPlayer,
		allowedOrigins,
		logger.With("port", "ingestplayer"),
		sentryMiddleware,
	)
	mux.HandleFunc("OPTIONS /api/v1/players/{remote_id}", ports.BuildCORSHandler(allowedOrigins))
	mux.HandleFunc("GET /api/v1/players/{remote_id}", ingestPlayerHandler)
	mux.HandleFunc("POST /api/v1/players/{remote_id}", ingestPlayerHandler)

	mux.HandleFunc("OPTIONS /api/v1/players", ports.BuildCORSHandler(allowedOrigins))
	mux.HandleFunc(
		"GET /api/v1/players",
		ports.MakeListPlayersHandler(
			listPlayers,
			allowedOrigins,
			logger.With("port", "listplayers"),
			sentryMiddleware,
		),
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", conf.Port()),
		Handler:           otelhttp.NewHandler(mux, SERVICE_NAME),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := server.Shutdown(shutdownCtx)
		if err != nil {
			logger.Error("Failed to shut down server", "error", err.Error())
		}
	}()

	logger.Info("Init complete", "port", conf.Port())
	err = server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		logger.Info("Server shutdown")
	} else {
		fail("Server error", "error", err.Error())
	}
}
