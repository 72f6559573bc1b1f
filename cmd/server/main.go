package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"lifebridge/internal/allocation"
	allocationhandler "lifebridge/internal/allocation/handler"
	"lifebridge/internal/consent"
	"lifebridge/internal/doctor"
	doctorhandler "lifebridge/internal/doctor/handler"
	"lifebridge/internal/donor"
	donorhandler "lifebridge/internal/donor/handler"
	"lifebridge/internal/geo"
	"lifebridge/internal/hospital"
	"lifebridge/internal/matching"
	"lifebridge/internal/notification"
	notificationhandler "lifebridge/internal/notification/handler"
	"lifebridge/internal/organ"
	"lifebridge/internal/platform/config"
	"lifebridge/internal/platform/httpserver"
	"lifebridge/internal/platform/logger"
	"lifebridge/internal/platform/metrics"
	platformredis "lifebridge/internal/platform/redis"
	"lifebridge/internal/request"
	"lifebridge/internal/token"
	httptransport "lifebridge/internal/transport/http"
	"lifebridge/internal/user"
	userhandler "lifebridge/internal/user/handler"
	"lifebridge/internal/witness"
	"lifebridge/pkg/uow"
)

type stores struct {
	allocations   allocation.Store
	organs        organ.Store
	requests      request.Store
	consents      consent.Store
	users         user.Store
	hospitals     hospital.Store
	notifications notification.Store
	runner        uow.Runner
}

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	var (
		st stores
		db *sql.DB
	)
	if cfg.DatabaseURL != "" {
		var err error
		db, err = sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.Error("open database", "error", err)
			os.Exit(1)
		}
		if err := db.Ping(); err != nil {
			log.Error("database unreachable", "error", err)
			os.Exit(1)
		}
		st = stores{
			allocations:   allocation.NewPostgres(db),
			organs:        organ.NewPostgres(db),
			requests:      request.NewPostgres(db),
			consents:      consent.NewPostgres(db),
			users:         user.NewPostgres(db),
			hospitals:     hospital.NewPostgres(db),
			notifications: notification.NewPostgres(db),
			runner:        uow.SQLRunner{DB: db},
		}
		log.Info("using postgres stores")
	} else {
		st = stores{
			allocations:   allocation.NewInMemoryStore(),
			organs:        organ.NewInMemoryStore(),
			requests:      request.NewInMemoryStore(),
			consents:      consent.NewInMemoryStore(),
			users:         user.NewInMemoryStore(),
			hospitals:     hospital.NewInMemoryStore(),
			notifications: notification.NewInMemoryStore(),
			runner:        uow.MemoryRunner{},
		}
		log.Warn("DATABASE_URL not set, using in-memory stores")
		if err := hospital.SeedDevelopment(context.Background(), st.hospitals); err != nil {
			log.Error("seed hospitals", "error", err)
			os.Exit(1)
		}
	}

	var distances geo.DistanceClient = geo.NewOpenRouteClient(cfg.ORSAPIKey, log)
	rdb, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		log.Error("connect redis", "error", err)
		os.Exit(1)
	}
	if rdb != nil {
		distances = geo.NewCachedDistanceClient(distances, rdb.Client, log)
		log.Info("distance cache enabled")
	}
	geocoder := geo.NewOpenCageGeocoder(cfg.OpenCageAPIKey)

	var w witness.Witness = witness.Noop{}
	if cfg.WitnessEndpoint != "" {
		w = witness.NewHTTP(cfg.WitnessEndpoint, cfg.WitnessAPIKey, cfg.WitnessTimeout, log)
		log.Info("external witness enabled", "endpoint", cfg.WitnessEndpoint)
	} else {
		log.Warn("no witness endpoint configured, running in degraded-audit mode")
	}

	var publisher notification.Publisher
	var kafkaPublisher *notification.KafkaPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher, err = notification.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaNotificationTopic)
		if err != nil {
			log.Error("connect kafka", "error", err)
			os.Exit(1)
		}
		publisher = kafkaPublisher
		log.Info("notification events enabled", "topic", cfg.KafkaNotificationTopic)
	}
	dispatcher := notification.NewDispatcher(st.notifications, publisher, log, m)

	tokens := token.NewService(cfg.JWTSigningKey, cfg.TokenTTL)

	allocationSvc := allocation.NewService(
		st.allocations, w, st.organs, st.requests, st.users, st.hospitals, log, m)
	matchingSvc := matching.NewService(st.organs, st.users, distances, log, m)
	userSvc := user.NewService(st.users, st.hospitals, geocoder, tokens, log)
	donorSvc := donor.NewService(
		allocationSvc, st.allocations, st.organs, st.requests, st.consents,
		st.users, dispatcher, st.runner, log)
	doctorSvc := doctor.NewService(
		allocationSvc, matchingSvc, st.organs, st.requests, st.consents,
		st.users, distances, dispatcher, st.runner, log)

	router := httptransport.NewRouter(httptransport.Deps{
		Users:         userhandler.New(userSvc, log),
		Donors:        donorhandler.New(donorSvc, log),
		Doctors:       doctorhandler.New(doctorSvc, log),
		Allocations:   allocationhandler.New(allocationSvc, log),
		Notifications: notificationhandler.New(st.notifications, log),
		Tokens:        tokens,
		Logger:        log,
	})
	server := httpserver.New(cfg.Addr, router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("server listening", "addr", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", "error", err)
	}

	dispatcher.Close()
	if kafkaPublisher != nil {
		kafkaPublisher.Close()
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	if db != nil {
		_ = db.Close()
	}
	log.Info("server stopped")
}
