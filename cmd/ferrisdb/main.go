package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RezDev94/ferris-db/internal/command"
	"github.com/RezDev94/ferris-db/internal/config"
	"github.com/RezDev94/ferris-db/internal/logger"
	"github.com/RezDev94/ferris-db/internal/persistence"
	"github.com/RezDev94/ferris-db/internal/server"
	"github.com/RezDev94/ferris-db/internal/store"
)

func main() {
	if err := logger.InitFromEnv(); err != nil {
		panic(err)
	}
	defer logger.Close()

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		logger.Errorf("config: %v", err)
		os.Exit(1)
	}

	gw, closeGateway, err := openGateway(cfg)
	if err != nil {
		logger.Errorf("persistence: %v", err)
		os.Exit(1)
	}
	defer closeGateway()
	logger.Infof("using %s persistence", cfg.Backend)

	exec := command.NewExecutor(store.New(gw))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var httpSrv *http.Server
	if cfg.HTTPAddr != "" {
		httpSrv = &http.Server{
			Addr:    cfg.HTTPAddr,
			Handler: server.NewHTTPRouter(exec),
		}
		go func() {
			logger.Infof("HTTP API listening on %s", cfg.HTTPAddr)
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Errorf("http server error: %v", err)
			}
		}()
	}

	srv := server.New(cfg.Addr(), exec)
	if err := srv.Start(ctx); err != nil {
		logger.Errorf("server error: %v", err)
		os.Exit(1)
	}

	logger.Infof("shutting down")
	if httpSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	}
	logger.Infof("shutdown complete")
}

// openGateway builds the configured store.Gateway and a func releasing it.
func openGateway(cfg config.Config) (store.Gateway, func(), error) {
	switch cfg.Backend {
	case "bolt":
		g, err := persistence.OpenBolt(cfg.DataPath, persistence.BoltOptions{Bucket: cfg.Bucket})
		if err != nil {
			return nil, nil, err
		}
		return g, closer(g), nil
	case "redis":
		g, err := persistence.DialRedis(persistence.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Key:      cfg.RedisKey,
		})
		if err != nil {
			return nil, nil, err
		}
		return g, closer(g), nil
	}
	return persistence.NewFileGateway(cfg.DataPath), func() {}, nil
}

func closer(c io.Closer) func() {
	return func() {
		if err := c.Close(); err != nil {
			logger.Warnf("close persistence: %v", err)
		}
	}
}
