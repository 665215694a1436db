package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/dtroode/community-board-server/internal/api/grpc/health"
	"github.com/dtroode/community-board-server/internal/api/grpc/router"
	grpcServer "github.com/dtroode/community-board-server/internal/api/grpc/server"
	httpctx "github.com/dtroode/community-board-server/internal/api/http/context"
	"github.com/dtroode/community-board-server/internal/api/http/middleware"
	httpRouter "github.com/dtroode/community-board-server/internal/api/http/router"
	httpServer "github.com/dtroode/community-board-server/internal/api/http/server"
	"github.com/dtroode/community-board-server/internal/config"
	"github.com/dtroode/community-board-server/internal/identity/google"
	"github.com/dtroode/community-board-server/internal/logger"
	"github.com/dtroode/community-board-server/internal/model"
	"github.com/dtroode/community-board-server/internal/notify"
	"github.com/dtroode/community-board-server/internal/repository/postgres"
	"github.com/dtroode/community-board-server/internal/server"
	"github.com/dtroode/community-board-server/internal/service"
	storage "github.com/dtroode/community-board-server/internal/storage/minio"
	"github.com/dtroode/community-board-server/internal/token"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)

	db, err := postgres.NewConnection(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("failed to initialize database", "error", err)
	}
	defer db.Close()

	userRepo := postgres.NewUserRepository(db)

	if cfg.UsesDefaultSecret() {
		logger.Warn("SECRET_KEY is not set, tokens are signed with the built-in default secret")
	}
	tokenManager := token.NewJWT(cfg.SecretKey)

	notifier, err := newNotifier(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize mailer", "error", err)
	}

	var federated model.FederatedVerifier
	if cfg.FederatedEnabled() {
		verifier, err := google.NewVerifier(ctx, cfg.Google.ClientID, cfg.Google.JWKSURL, logger)
		if err != nil {
			logger.Fatal("failed to initialize google verifier", "error", err)
		}
		defer verifier.Close()
		federated = verifier
	} else {
		logger.Info("GOOGLE_CLIENT_ID is not set, google sign-in disabled")
	}

	minioClient, err := minio.New(cfg.Storage.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Storage.AccessKey, cfg.Storage.SecretKey, ""),
		Secure: cfg.Storage.UseSSL,
	})
	if err != nil {
		logger.Fatal("failed to create minio client", "error", err)
	}
	storageClient, err := storage.NewClient(ctx, minioClient, cfg.Storage.Bucket)
	if err != nil {
		logger.Fatal("failed to initialize storage client", "error", err)
	}

	guard := service.NewGuard(userRepo, tokenManager, logger)
	authService := service.NewAuth(userRepo, tokenManager, notifier, federated, logger, service.AuthConfig{
		FrontendURL: cfg.FrontendURL,
		TokenTTL:    cfg.Auth.TokenTTL,
		DebugLinks:  cfg.DebugLinks(),
	})
	usersService := service.NewUsers(userRepo, storageClient, guard, logger, cfg.HTTP.MaxAvatarBytes)

	if err := service.EnsureAdmin(ctx, userRepo, cfg.Bootstrap.AdminEmail, cfg.Bootstrap.AdminName, logger); err != nil {
		logger.Fatal("failed to bootstrap admin", "error", err)
	}

	limiter, err := newRateLimiter(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize rate limiter", "error", err)
	}
	defer limiter.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := middleware.NewMetrics(registry)
	if err != nil {
		logger.Fatal("failed to register metrics", "error", err)
	}

	app := httpRouter.New(authService, usersService, guard, httpctx.NewManager(), logger, httpRouter.Options{
		CORSOrigins:    cfg.HTTP.CORSOrigins,
		BodyLimit:      cfg.HTTP.MaxAvatarBytes + 1<<20,
		LoginPerMinute: cfg.RateLimit.LoginPerMinute,
		Limiter:        limiter,
		Metrics:        metrics,
		Gatherer:       registry,
	}).Register()
	apiServer := httpServer.NewHTTPServer(app, fmt.Sprintf(":%s", cfg.HTTP.Port))

	monitor := health.NewMonitor(db, cfg.GRPC.HealthInterval, logger)
	opsServer := grpcServer.NewGRPCServer(router.New(monitor.Server(), logger).Register(), fmt.Sprintf(":%s", cfg.GRPC.Port))

	var sl model.SecurityLayer
	if cfg.HTTP.EnableHTTPS {
		sl = server.NewTLSListener(cfg.HTTP.CertFileName, cfg.HTTP.PrivateKeyFileName)
	} else {
		sl = server.NewPlainListener()
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		monitor.Run(ctx)
	}()

	servers := []model.Server{apiServer, opsServer}
	for _, s := range servers {
		wg.Add(1)
		go func(s model.Server) {
			defer wg.Done()
			logger.Info("Starting server on", "address", s.Address())
			if err := s.Start(sl); err != nil {
				logger.Error("failed to start server", "error", err, "address", s.Address())
				stop()
			}
		}(s)
	}

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	for _, s := range servers {
		if err := s.Stop(shutdownCtx); err != nil {
			logger.Error("error during server shutdown", "error", err, "address", s.Address())
		}
	}

	wg.Wait()
	logger.Info("shutdown complete")
}

func newNotifier(cfg *config.Config, logger *logger.Logger) (model.Notifier, error) {
	if cfg.Mail.SuppressSend {
		logger.Info("MAIL_SUPPRESS_SEND is set, login emails are not sent")
		return notify.NewLogNotifier(logger), nil
	}
	mailer, err := notify.NewMailer(cfg.Mail, notify.DescribeTTL(cfg.Auth.TokenTTL), logger)
	if err != nil {
		return nil, err
	}
	return mailer, nil
}

func newRateLimiter(ctx context.Context, cfg *config.Config, logger *logger.Logger) (middleware.RateLimiter, error) {
	if cfg.RateLimit.RedisAddr == "" {
		logger.Info("RATE_LIMIT_REDIS_ADDR is not set, using in-process rate limiter")
		return middleware.NewMemoryRateLimiter(), nil
	}
	return middleware.NewRedisRateLimiter(ctx, cfg.RateLimit.RedisAddr, cfg.RateLimit.RedisPassword, cfg.RateLimit.RedisDB, logger)
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}
