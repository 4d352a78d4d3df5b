package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"task-management-app/tasks-service/config"
	"task-management-app/tasks-service/handlers"
	"task-management-app/tasks-service/repositories"
	"task-management-app/tasks-service/services"

	gorillaHandlers "github.com/gorilla/handlers"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const serviceName = "tasks-service"

func main() {
	cfg, err := config.GetConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	logger := newLogger(cfg)
	log.Logger = logger

	ctx := context.Background()
	tp, shutdownTracing := newTracerProvider(cfg.JaegerAddress, logger)
	defer shutdownTracing()
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	tracer := tp.Tracer(serviceName)

	timeoutContext, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	st, err := openStores(timeoutContext, cfg.Store, logger.With().Str("component", "store").Logger(), tracer)
	handleErr(err, "open store")
	defer st.close()

	// Redis backs both the list cache and the event channel.
	var (
		cache     services.Cache = repositories.NopCache{}
		publisher services.EventPublisher
		redisCli  *redis.Client
	)
	if cfg.Redis.Enabled() {
		redisCli = repositories.NewRedisClient(cfg.Redis.Addr(), cfg.Redis.Password)
		defer redisCli.Close()
		cache = repositories.NewRedisCache(redisCli, logger.With().Str("component", "cache").Logger(), tracer)
		publisher = repositories.NewRedisPublisher(redisCli, repositories.EventsChannel, tracer)
		logger.Info().Str("addr", cfg.Redis.Addr()).Msg("redis cache enabled")
	} else {
		logger.Warn().Msg("REDIS_HOST not set, task cache disabled")
	}

	var notificationStore services.NotificationStore
	if hosts := cfg.Cassandra.HostList(); len(hosts) > 0 {
		cassandra, err := repositories.NewCassandraRepository(hosts, logger.With().Str("component", "cassandra").Logger())
		if err != nil {
			logger.Error().Err(err).Msg("cassandra unavailable, in-app notifications disabled")
		} else {
			defer cassandra.Close()
			notificationStore = cassandra
		}
	}

	notifications := services.NewNotificationService(publisher, notificationStore,
		logger.With().Str("component", "notifications").Logger(), tracer)
	defer notifications.Wait()

	mailer := services.NewMailService(
		services.NewSmtpSender(cfg.Smtp.Host, cfg.Smtp.Port, cfg.Smtp.User, cfg.Smtp.Password, cfg.Smtp.From),
		logger.With().Str("component", "mail").Logger(),
		services.WithMailWorkers(cfg.Smtp.Workers),
	)
	mailer.Start()
	defer mailer.Close()

	authService := services.NewAuthService(st.users, cfg.Auth.Secret, cfg.Auth.TokenTTL, tracer)
	taskService := services.NewTaskService(st.tasks, st.users, st.comments, st.files, tracer,
		services.WithCache(cache, cfg.Redis.CacheTTL),
		services.WithNotifier(notifications),
		services.WithMailer(mailer),
		services.WithLogger(logger.With().Str("component", "tasks").Logger()),
	)

	router := handlers.NewRouter(handlers.Handlers{
		Auth:          handlers.NewAuthHandler(authService, tracer),
		Tasks:         handlers.NewTaskHandler(taskService, services.NewExportService(st.tasks, tracer), tracer),
		Comments:      handlers.NewCommentHandler(services.NewCommentService(st.comments, st.tasks, st.users, tracer), tracer),
		Files:         handlers.NewFileHandler(services.NewFileService(st.files, st.tasks, tracer), tracer),
		Analytics:     handlers.NewAnalyticsHandler(services.NewAnalyticsService(st.tasks, tracer, nil), tracer),
		Notifications: handlers.NewNotificationHandler(notifications, tracer),
	}, authService)

	cors := gorillaHandlers.CORS(
		gorillaHandlers.AllowedOrigins(cfg.Origins()),
		gorillaHandlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions}),
		gorillaHandlers.AllowedHeaders([]string{"Authorization", "Content-Type", "X-Request-Id"}),
	)
	httpLogger := logger.With().Str("component", "http").Logger()
	recovery := gorillaHandlers.RecoveryHandler(gorillaHandlers.RecoveryLogger(recoveryLogger{httpLogger}))

	server := &http.Server{
		Addr:         cfg.Address,
		Handler:      gorillaHandlers.CombinedLoggingHandler(httpLogger, recovery(cors(router))),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.Address).Str("store", cfg.Store.Driver).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info().Str("signal", sig.String()).Msg("received terminate, graceful shutdown")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("cannot gracefully shutdown")
	}
	logger.Info().Msg("server stopped")
}

type storeSet struct {
	tasks    services.TaskStore
	users    services.UserStore
	comments services.CommentStore
	files    services.FileStore
	close    func()
}

func openStores(ctx context.Context, cfg config.StoreConfig, logger zerolog.Logger, tracer trace.Tracer) (storeSet, error) {
	switch cfg.Driver {
	case "mongo":
		cli, err := repositories.NewMongoClient(ctx, cfg.MongoURI, cfg.Timeout, logger)
		if err != nil {
			return storeSet{}, err
		}
		tasks := repositories.NewTaskMongoRepo(cli, cfg.MongoDB, logger, tracer)
		users := repositories.NewUserMongoRepo(cli, cfg.MongoDB, logger, tracer)
		comments := repositories.NewCommentMongoRepo(cli, cfg.MongoDB, logger, tracer)
		files := repositories.NewFileMongoRepo(cli, cfg.MongoDB, logger, tracer)
		for _, ensure := range []func(context.Context) error{
			tasks.EnsureIndexes, users.EnsureIndexes, comments.EnsureIndexes, files.EnsureIndexes,
		} {
			if err := ensure(ctx); err != nil {
				_ = cli.Disconnect(context.Background())
				return storeSet{}, fmt.Errorf("ensure indexes: %w", err)
			}
		}
		return storeSet{
			tasks:    tasks,
			users:    users,
			comments: comments,
			files:    files,
			close:    func() { _ = cli.Disconnect(context.Background()) },
		}, nil

	case repositories.DriverSqlite, repositories.DriverPostgres:
		openCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
		db, err := repositories.OpenSQL(openCtx, cfg.Driver, cfg.SqlDSN)
		if err != nil {
			return storeSet{}, err
		}
		logger.Info().Str("driver", cfg.Driver).Msg("connected to sql store")
		return storeSet{
			tasks:    repositories.NewTaskSqlRepo(db, logger, tracer),
			users:    repositories.NewUserSqlRepo(db, logger, tracer),
			comments: repositories.NewCommentSqlRepo(db, logger, tracer),
			files:    repositories.NewFileSqlRepo(db, logger, tracer),
			close:    func() { _ = db.Close() },
		}, nil
	}
	return storeSet{}, fmt.Errorf("unknown STORE_DRIVER %q", cfg.Driver)
}

func newLogger(cfg config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	var logger zerolog.Logger
	if cfg.LogPretty {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(os.Stdout)
	}
	return logger.Level(level).With().Timestamp().Str("service", serviceName).Logger()
}

// newTracerProvider exports to jaeger when an address is configured.
func newTracerProvider(address string, logger zerolog.Logger) (trace.TracerProvider, func()) {
	if address == "" {
		return noop.NewTracerProvider(), func() {}
	}
	exp, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(address)))
	if err != nil {
		logger.Error().Err(err).Msg("failed to initialize exporter, tracing disabled")
		return noop.NewTracerProvider(), func() {}
	}

	r, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(serviceName),
		),
	)
	if err != nil {
		r = resource.Default()
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(r),
	)
	return tp, func() { _ = tp.Shutdown(context.Background()) }
}

type recoveryLogger struct {
	logger zerolog.Logger
}

func (l recoveryLogger) Println(v ...interface{}) {
	l.logger.Error().Msg(fmt.Sprint(v...))
}

func handleErr(err error, msg string) {
	if err != nil {
		log.Fatal().Err(err).Msg(msg)
	}
}
