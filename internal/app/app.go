package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/sync/errgroup"

	"github.com/kirinyoku/wedgo/internal/auth"
	"github.com/kirinyoku/wedgo/internal/config"
	"github.com/kirinyoku/wedgo/internal/media"
	"github.com/kirinyoku/wedgo/internal/payment"
	"github.com/kirinyoku/wedgo/internal/payment/midtrans"
	"github.com/kirinyoku/wedgo/internal/postgres"
	"github.com/kirinyoku/wedgo/internal/redis"
	"github.com/kirinyoku/wedgo/internal/repository"
	"github.com/kirinyoku/wedgo/internal/repository/memory"
	postgresrepo "github.com/kirinyoku/wedgo/internal/repository/postgres"
	redisrepo "github.com/kirinyoku/wedgo/internal/repository/redis"
	"github.com/kirinyoku/wedgo/internal/schema"
	"github.com/kirinyoku/wedgo/internal/service"
	"github.com/kirinyoku/wedgo/internal/service/asset"
	"github.com/kirinyoku/wedgo/internal/service/checkout"
	"github.com/kirinyoku/wedgo/internal/service/guest"
	"github.com/kirinyoku/wedgo/internal/service/invitation"
	"github.com/kirinyoku/wedgo/internal/telemetry"
	httpgin "github.com/kirinyoku/wedgo/internal/transport/http/gin"
)

type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	httpServer *http.Server
	pubsub     *redisrepo.InvitationsPubSub
	cache      *redisrepo.Cache
	closers    []func(context.Context) error
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{cfg: cfg, logger: logger}

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Config{
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		ServiceName: cfg.Telemetry.ServiceName,
		Environment: cfg.App.Env,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	a.closers = append(a.closers, shutdownTracing)

	v := schema.New()

	store, err := a.openStore(ctx, v)
	if err != nil {
		a.close(ctx)
		return nil, err
	}

	rdb, err := redis.New(ctx, redis.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		a.close(ctx)
		return nil, fmt.Errorf("failed to initialize redis: %w", err)
	}
	a.closers = append(a.closers, func(context.Context) error { return rdb.Close() })

	a.cache = redisrepo.New(rdb)
	a.pubsub = redisrepo.NewInvitationsPubSub(rdb)
	limiter := redisrepo.NewSlidingWindowLimiter(rdb, "comment", cfg.Limits.CommentRate, cfg.Limits.CommentWindow)
	idem := redisrepo.NewIdempotencyStore(rdb, cfg.Limits.IdempotencyTTL, time.Minute)

	deps := service.Deps{
		Store:   store,
		Schema:  v,
		Share:   auth.NewShareSigner(cfg.Auth.ShareSecret, cfg.Auth.ShareTTL),
		Cache:   a.cache,
		PubSub:  a.pubsub,
		Limiter: limiter,
		Catalog: payment.DefaultCatalog(),
		Logger:  logger,
	}

	if cfg.Media.Bucket != "" && cfg.Media.Endpoint != "" {
		s3, err := media.NewS3(ctx, media.Config{
			Bucket:    cfg.Media.Bucket,
			Endpoint:  cfg.Media.Endpoint,
			Region:    cfg.Media.Region,
			AccessKey: cfg.Media.AccessKey,
			SecretKey: cfg.Media.SecretKey,
			PublicURL: cfg.Media.PublicURL,
			PathStyle: true,
		})
		if err != nil {
			a.close(ctx)
			return nil, fmt.Errorf("failed to initialize media: %w", err)
		}
		deps.Media = s3
	} else {
		logger.Warn("media storage is not configured, uploads are disabled")
	}

	if cfg.Midtrans.ServerKey != "" {
		deps.Gateway = midtrans.New(midtrans.Config{
			ServerKey: cfg.Midtrans.ServerKey,
			BaseURL:   cfg.Midtrans.BaseURL,
			Timeout:   cfg.Midtrans.Timeout,
			Retries:   2,
		})
	} else {
		logger.Warn("payment gateway is not configured, checkout is disabled")
	}

	services := service.NewServices(deps, service.Config{
		Invitation: invitation.Config{
			Env:             cfg.App.Env,
			EventMaxHorizon: cfg.Limits.EventMaxHorizon,
			CacheTTL:        cfg.Limits.CacheTTL,
		},
		Guest:    guest.Config{GuestBase: cfg.Limits.GuestBase},
		Checkout: checkout.Config{GuestBase: cfg.Limits.GuestBase},
		Asset:    asset.Config{Env: cfg.App.Env},
	})

	sessions := auth.NewSessions(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer)

	router := httpgin.NewRouter(services, sessions, idem, logger, httpgin.Config{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		BodyLimit:      cfg.Limits.RequestBodyLimit,
		SecureCookies:  cfg.App.Env != "development",
	}, otelgin.Middleware(cfg.Telemetry.ServiceName))

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

func (a *App) openStore(ctx context.Context, v *schema.Validator) (repository.Store, error) {
	if a.cfg.Store.Driver == config.DriverMemory {
		a.logger.Warn("using the in-memory store, data is lost on restart")
		return memory.NewStore(v), nil
	}

	pool, err := postgres.New(ctx, postgres.Config{DSN: a.cfg.Postgres.DSN(), MaxConns: a.cfg.Postgres.MaxConns})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize postgres: %w", err)
	}
	a.closers = append(a.closers, func(context.Context) error { pool.Close(); return nil })

	store, err := postgresrepo.NewStore(pool, a.cfg.App.Env, v)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}
	return store, nil
}

func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)

	// Start HTTP server
	g.Go(func() error {
		a.logger.Info("HTTP server listening", "host", a.cfg.Server.Host, "port", a.cfg.Server.Port)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		return nil
	})

	// Drop cached pages changed by other instances
	g.Go(func() error {
		err := a.pubsub.Subscribe(gCtx, func(ctx context.Context, id, name string) {
			if err := a.cache.InvalidateInvitation(ctx, id, name); err != nil {
				a.logger.Warn("cache invalidation failed", "invitation_id", id, "error", err)
			}
		})
		if err != nil && gCtx.Err() == nil && err != goredis.ErrClosed {
			a.logger.Error("invitation change subscription stopped", "error", err)
		}
		return nil
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("shutting down HTTP server")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return a.httpServer.Shutdown(ctx)
	})

	err := g.Wait()

	ctxClose, cancelClose := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelClose()
	a.close(ctxClose)

	return err
}

func (a *App) close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.logger.Warn("shutdown step failed", "error", err)
		}
	}
	a.closers = nil
}
