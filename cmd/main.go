package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"igoserver/internal/adapters"
	"igoserver/internal/archive"
	"igoserver/internal/bootstrap"
	"igoserver/internal/keys"
	ownMiddleware "igoserver/internal/middleware"
	"igoserver/internal/session"
	"igoserver/internal/store"
	"igoserver/internal/transport"
)

func main() {
	logger := NewLogger()
	cfg, err := bootstrap.Setup(".env")
	if err != nil {
		logger.Error("Failed to setup configuration", zap.Error(err))
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go handleShutdown(cancel, logger)

	gateway, err := store.New(ctx, cfg.DatabaseUrl, logger)
	if err != nil {
		logger.Fatal("Failed to connect to the store", zap.Error(err))
	}

	listener, err := store.NewListener(ctx, cfg.DatabaseUrl, logger)
	if err != nil {
		logger.Fatal("Failed to start the notification listener", zap.Error(err))
	}

	managerID := keys.ManagerID()
	if err := gateway.Cleanup(ctx, managerID); err != nil {
		logger.Error("Startup cleanup failed", zap.Error(err))
	}

	redisAdapter := adapters.NewAdapterRedis(cfg, logger)
	if err := redisAdapter.Init(ctx); err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisAdapter.Close(ctx)

	var cache session.Cache = store.NewDirectCache(gateway)
	if redisClient := redisAdapter.GetClient(); redisClient != nil {
		cache = store.NewCache(gateway, redisClient, logger)
	}

	mongoAdapter := adapters.NewAdapterMongo(cfg, logger)
	if err := mongoAdapter.Init(ctx); err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer mongoAdapter.Close(ctx)

	var gameArchive session.Archive
	if mongoAdapter.Database != nil {
		gameArchive = archive.New(mongoAdapter.Database)
	}

	handler := transport.NewHandler(gateway, cache, listener, gameArchive, managerID, logger)

	r := chi.NewRouter()
	if cfg.IsLocalCors {
		r.Use(ownMiddleware.CORS)
	}
	r.Use(middleware.Logger)
	r.Get("/ws", handler.ServeHTTP)
	r.Get("/healthz", transport.Healthz)

	port := cfg.Port
	if port == "" {
		port = "8080"
	}
	logger.Infof("Server is running on port %s", port)
	srv := &http.Server{Addr: ":" + port, Handler: r}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
}

func NewLogger() *zap.SugaredLogger {
	logger, err := zap.NewProduction()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	return logger.Sugar()
}

func handleShutdown(cancelFunc context.CancelFunc, log *zap.SugaredLogger) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	log.Info("Received shutdown signal")
	cancelFunc()
}
