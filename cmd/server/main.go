package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/Skotchmaster/complaint_desk/internal/auth"
	"github.com/Skotchmaster/complaint_desk/internal/config"
	"github.com/Skotchmaster/complaint_desk/internal/es"
	"github.com/Skotchmaster/complaint_desk/internal/events"
	"github.com/Skotchmaster/complaint_desk/internal/handlers"
	"github.com/Skotchmaster/complaint_desk/internal/hash"
	"github.com/Skotchmaster/complaint_desk/internal/middleware/ratelimit"
	"github.com/Skotchmaster/complaint_desk/internal/models"
	"github.com/Skotchmaster/complaint_desk/internal/policy"
	"github.com/Skotchmaster/complaint_desk/internal/repo"
	"github.com/Skotchmaster/complaint_desk/internal/roles"
	httpserver "github.com/Skotchmaster/complaint_desk/internal/transport/http"
	pkgdb "github.com/Skotchmaster/complaint_desk/pkg/db"
	"github.com/Skotchmaster/complaint_desk/pkg/logging"
	loggingmw "github.com/Skotchmaster/complaint_desk/pkg/middleware/logging"
	"github.com/Skotchmaster/complaint_desk/pkg/tokens"
)

func main() {
	cfg := config.Load()

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	initCtx, cancel := context.WithTimeout(logging.IntoContext(context.Background(), logger), 15*time.Second)
	db, err := pkgdb.Open(initCtx, cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		cancel()
		log.Fatalf("db open: %v", err)
	}
	if err := pkgdb.Migrate(initCtx, db, models.All()...); err != nil {
		cancel()
		log.Fatalf("db migrate: %v", err)
	}

	signer, err := tokens.NewSigner(cfg.JWTSecret, config.MinSecretBytes)
	if err != nil {
		cancel()
		log.Fatalf("signer: %v", err)
	}

	publishers := events.Multi{}
	var kafkaPub *events.KafkaPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPub, err = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		if err != nil {
			cancel()
			log.Fatalf("kafka: %v", err)
		}
		publishers = append(publishers, kafkaPub)
	}

	auditHandler := &handlers.AuditHandler{}
	if cfg.ESURL != "" {
		esClient, err := es.NewClient(initCtx, cfg.ESURL, cfg.ESUser, cfg.ESPassword)
		if err != nil {
			logger.Warn("elasticsearch unavailable, audit index disabled", "error", err)
		} else {
			idx := &es.AuditIndex{Client: esClient, Index: cfg.ESAuditIndex}
			publishers = append(publishers, idx)
			auditHandler.Index = idx
		}
	}

	rdb := ratelimit.NewRedisClient(initCtx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisTLS)

	users := &repo.UserRepo{DB: db}
	tokenRepo := &repo.TokenRepo{DB: db}
	hasher := hash.Bcrypt{}
	revoker := &auth.Revoker{Tokens: tokenRepo}

	svc := &auth.Service{
		Verifier: &auth.Verifier{Users: users, Hasher: hasher},
		Issuer:   &auth.Issuer{Tokens: tokenRepo, Signer: signer, Lifetime: cfg.TokenTTL},
		Revoker:  revoker,
		Accounts: users,
		Hasher:   hasher,
		Events:   publishers,
	}

	if err := bootstrapAdmin(initCtx, svc, cfg.BootstrapAdmin); err != nil {
		cancel()
		log.Fatalf("bootstrap admin: %v", err)
	}
	cancel()

	e := echo.New()
	e.HideBanner = true
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	httpserver.Register(e, &httpserver.Deps{
		Validator: &auth.Validator{Tokens: tokenRepo, Users: users, Signer: signer},
		Policy:    policy.Default(),

		AuthHandler: &handlers.AuthHandler{Svc: svc},
		UserHandler: &handlers.UserHandler{
			Users:           users,
			Sessions:        tokenRepo,
			Revoker:         revoker,
			Hasher:          hasher,
			Events:          publishers,
			RevokeOnDisable: cfg.RevokeOnDisable,
		},
		AuditHandler:  auditHandler,
		HealthHandler: &handlers.HealthHandler{Ping: func(ctx context.Context) error { return pkgdb.Ping(ctx, db) }},

		RateLimit: cfg.RateLimit,
		Redis:     rdb,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	closeAll(logger, db, kafkaPub, rdb)
	logger.Info("shutdown complete")
}

func bootstrapAdmin(ctx context.Context, svc *auth.Service, b config.BootstrapAdmin) error {
	if !b.Enabled() {
		return nil
	}
	email := b.Email
	if email == "" {
		email = b.Username + "@localhost.localdomain"
	}
	u, err := svc.EnsureUser(ctx, auth.RegisterInput{
		Username:   b.Username,
		Password:   b.Password,
		NationalID: b.NationalID,
		Email:      email,
		FirstName:  "System",
		LastName:   "Administrator",
	}, roles.Admin)
	if err != nil {
		return err
	}
	if u != nil {
		logging.FromContext(ctx).Info("bootstrap administrator created", "user_id", u.ID)
	}
	return nil
}

func closeAll(logger *slog.Logger, db *gorm.DB, kafkaPub *events.KafkaPublisher, rdb *redis.Client) {
	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("db close", "error", err)
		}
	}
	if kafkaPub != nil {
		if err := kafkaPub.Close(); err != nil {
			logger.Error("kafka close", "error", err)
		}
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			logger.Error("redis close", "error", err)
		}
	}
}
