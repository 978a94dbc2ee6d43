// Command portal serves the vehicle portal front-end.
//
// @title        Vehicle Portal API
// @version      1.0
// @description  Session, menu and screen endpoints of the vehicle portal front-end.
// @BasePath     /
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/diosesguerreros/vehicle-portal/internal/api"
	"github.com/diosesguerreros/vehicle-portal/internal/api/handler"
	"github.com/diosesguerreros/vehicle-portal/internal/api/middleware"
	"github.com/diosesguerreros/vehicle-portal/internal/core/ports"
	"github.com/diosesguerreros/vehicle-portal/internal/core/service"
	"github.com/diosesguerreros/vehicle-portal/internal/infrastructure/backend"
	"github.com/diosesguerreros/vehicle-portal/internal/infrastructure/config"
	mongodb "github.com/diosesguerreros/vehicle-portal/internal/infrastructure/db/mongo"
	redisdb "github.com/diosesguerreros/vehicle-portal/internal/infrastructure/db/redis"
	"github.com/diosesguerreros/vehicle-portal/internal/infrastructure/queue"
	"github.com/diosesguerreros/vehicle-portal/internal/infrastructure/tokenstore"
	"github.com/diosesguerreros/vehicle-portal/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		bootLog := logger.Init(logger.Options{Level: "info"})
		bootLog.Fatal().Err(err).Msg("config")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "vehicle-portal",
	})

	rest, err := backend.New(backend.Config{BaseURL: cfg.Backend.BaseURL, Timeout: cfg.Backend.Timeout}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("backend client")
	}

	// --- Token store: redis when configured, process memory otherwise ---
	var (
		rdb    *goredis.Client
		tokens service.TokenStoreFactory
	)
	if cfg.Redis.Addr != "" {
		rdb, err = redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			log.Fatal().Err(err).Msg("redis")
		}
		defer rdb.Close()
		tokens = redisdb.Factory(rdb, cfg.Redis.TokenTTL)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("tokens stored in redis")
	} else {
		tokens = tokenstore.NewMemory().For
		log.Warn().Msg("REDIS_ADDR not set, tokens are kept in memory and lost on restart")
	}

	// --- Session audit trail: mongo when configured ---
	// Workers outlive the HTTP server so requests finishing during shutdown
	// are still recorded.
	auditCtx, stopAudit := context.WithCancel(context.Background())
	defer stopAudit()
	var (
		db         *mongo.Database
		audit      ports.SessionAuditor
		dispatcher *queue.Dispatcher
	)
	if cfg.Mongo.URI != "" {
		client, database, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			log.Fatal().Err(err).Msg("mongo")
		}
		defer func() {
			dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(dctx)
		}()
		db = database

		repo := mongodb.NewSessionEventRepository(db, cfg.Mongo.Retention)
		if err := repo.EnsureIndexes(ctx); err != nil {
			log.Warn().Err(err).Msg("ensure audit indexes")
		}
		dispatcher = queue.NewDispatcher(cfg.Audit.Workers, repo, logger.Component("audit"))
		dispatcher.Start(auditCtx)
		audit = dispatcher
	} else {
		log.Info().Msg("MONGO_URI not set, session audit trail disabled")
	}

	// --- Core ---
	validator := handler.NewValidator()
	screens := service.DefaultScreens(rest, validator, cfg.Backend.PoliciesPath, logger.Component("screens"))
	clients := service.NewClientRegistry(tokens, rest, audit, screens, logger.Component("session"))

	secret := cfg.Client.CookieSecret
	if secret == "" {
		secret = uuid.NewString()
		log.Warn().Msg("COOKIE_SECRET not set, using a random secret; browsers get new ids on restart")
	}

	e, err := api.NewRouter(api.Deps{
		Clients:   clients,
		Screens:   screens,
		Validator: validator,
		Cookie:    middleware.CookieOptions{Secret: secret, Secure: cfg.Client.CookieSecure},
		Backend:   rest,
		Mongo:     db,
		Redis:     rdb,
		Log:       logger.Component("http"),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("router")
	}

	go sweepIdleClients(ctx, clients, cfg.Client.IdleTTL)

	srv := &http.Server{
		Addr:         net.JoinHostPort("", cfg.Port),
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("backend", rest.BaseURL()).Msg("http starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http listen")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info().Msg("http shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	stopAudit()
	if dispatcher != nil {
		dispatcher.Wait()
	}
	log.Info().Msg("http stopped")
}

// sweepIdleClients drops in-memory client states untouched for idle.
func sweepIdleClients(ctx context.Context, clients *service.ClientRegistry, idle time.Duration) {
	ticker := time.NewTicker(idle / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			clients.Sweep(idle)
		}
	}
}
