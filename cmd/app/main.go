package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/bookingadmin/api"
	"github.com/Domenick1991/bookingadmin/config"
	"github.com/Domenick1991/bookingadmin/internal/backend"
	"github.com/Domenick1991/bookingadmin/internal/bootstrap"
	"github.com/Domenick1991/bookingadmin/internal/cache"
	"github.com/Domenick1991/bookingadmin/internal/dashboard"
	"github.com/Domenick1991/bookingadmin/internal/kafka"
	"github.com/Domenick1991/bookingadmin/internal/logger"
	"github.com/Domenick1991/bookingadmin/internal/metrics"
	"github.com/Domenick1991/bookingadmin/internal/repository"
	"github.com/Domenick1991/bookingadmin/internal/service/auth"
	"github.com/Domenick1991/bookingadmin/internal/service/bookings"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

const sessionSweepInterval = time.Minute

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}

	log := logger.New(cfg.Log, "admin-console", os.Stdout)
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.Register(prometheus.DefaultRegisterer)

	client := backend.NewClient(cfg.Backend)
	descriptive := cfg.Dashboard.FieldSet == config.FieldSetCompact

	var bookingRepo repository.BookingRepository
	switch cfg.Backend.Driver {
	case config.DriverPostgres:
		pool, err := pgxpool.New(ctx, cfg.Database.DSN())
		if err != nil {
			log.Fatalf("connect postgres: %v", err)
		}
		defer pool.Close()
		bookingRepo = repository.NewBookingRepository(pool, cfg.Backend.Table, descriptive)
	default:
		bookingRepo = repository.NewRESTBookingRepository(client, cfg.Backend.Table, descriptive)
	}

	var sessions cache.SessionStore
	if cfg.Redis.Addr != "" {
		redisStore := cache.NewRedisSessionStore(cfg.Redis)
		if err := redisStore.Ping(ctx); err != nil {
			log.WithError(err).Warn("redis is not reachable yet, sessions will fail until it is")
		}
		defer redisStore.Close()
		sessions = redisStore
	} else {
		memoryStore := cache.NewMemorySessionStore()
		defer memoryStore.OnExpire(func(id string) {
			log.WithField("session_id", id).Debug("expired session swept")
		})()
		go memoryStore.RunSweeper(ctx, sessionSweepInterval)
		sessions = memoryStore
	}

	authOpts := []auth.AuthServiceOption{auth.WithLogger(log.WithField("component", "auth"))}
	if len(cfg.Kafka.Brokers) > 0 {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, log.WithField("component", "kafka"))
		if err := producer.CheckConnection(ctx); err != nil {
			log.WithError(err).Warn("kafka is not reachable, audit events may be lost")
		}
		defer producer.Close()
		authOpts = append(authOpts, auth.WithAuditProducer(producer, cfg.Kafka.AuditTopic))
	}
	if cfg.Session.VerifyWithBackend {
		authOpts = append(authOpts, auth.WithBackendVerification())
	}

	authService := auth.NewAuthService(client, sessions, cfg.Session.TTL(), authOpts...)
	bookingService := bookings.NewBookingService(bookingRepo)

	fields, err := dashboard.ParseFieldSet(cfg.Dashboard.FieldSet)
	if err != nil {
		log.Fatalf("dashboard field set: %v", err)
	}
	views := dashboard.NewRegistry(bookingService, cfg.Dashboard.PageSize, fields, log.WithField("component", "dashboard"))
	go views.RunSweeper(ctx, sessionSweepInterval)

	router := api.NewRouter(api.RouterDeps{
		Auth:  authService,
		Views: views,
		Cookie: api.CookieSettings{
			Name:   cfg.Session.CookieName,
			MaxAge: cfg.Session.TTL(),
			Secure: cfg.Session.SecureCookie,
		},
		Docs: cfg.HTTP.DocsEnabled,
		Log:  log.WithField("component", "http"),
	})

	if err := bootstrap.Run(ctx, cfg, router, log); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
