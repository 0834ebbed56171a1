package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Joke-rk/line-cloud-bot/internal/classifier"
	"github.com/Joke-rk/line-cloud-bot/internal/config"
	"github.com/Joke-rk/line-cloud-bot/internal/handlers"
	"github.com/Joke-rk/line-cloud-bot/internal/line"
	"github.com/Joke-rk/line-cloud-bot/internal/logging"
	"github.com/Joke-rk/line-cloud-bot/internal/usecase"
)

func main() {
	logger, err := logging.NewLogger()
	if err != nil {
		panic(err)
	}
	defer logger.Sync() //nolint:errcheck

	cfg, err := config.Load(getEnv("CONFIG_FILE", "config.yaml"))
	if err != nil {
		logger.Fatal("config load failed", zap.Error(err))
	}
	if cfg.Line.AccessToken == "" || cfg.Line.ChannelSecret == "" {
		logger.Fatal("LINE credentials missing: set LINE_CHANNEL_ACCESS_TOKEN and LINE_CHANNEL_SECRET")
	}

	client := line.NewClient(cfg.Line.AccessToken, cfg.Line.APIEndpoint, cfg.Line.ContentEndpoint, logger)

	loader := classifier.NewLoader(cfg.Model.Path, cfg.Model.LabelsPath, logger)
	defer loader.Close()

	// The server accepts connections before loading completes; until the
	// loader flips readiness, image events get the loading reply.
	go func() {
		if err := loader.Load(); err != nil {
			logger.Error("model load failed, classification stays unavailable", zap.Error(err))
		}
	}()

	dispatcher := usecase.NewDispatcher(client, client, loader, logger)

	r := gin.Default()
	handlers.RegisterRoutes(r, dispatcher, loader, line.SignatureMiddleware(cfg.Line.ChannelSecret), logger)

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	logger.Info("webhook server listening", zap.String("addr", server.Addr))
	if err := serveHTTPServer(server, 15*time.Second, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func serveHTTPServer(server *http.Server, shutdownTimeout time.Duration, logger *zap.Logger) error {
	return serveHTTPServerWithOptions(server, shutdownTimeout, logger, nil, nil)
}

func serveHTTPServerWithOptions(server *http.Server, shutdownTimeout time.Duration, logger *zap.Logger, listener net.Listener, signalCh <-chan os.Signal) error {
	errCh := make(chan error, 1)
	go func() {
		var err error
		if listener != nil {
			err = server.Serve(listener)
		} else {
			err = server.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	var (
		sigCh       <-chan os.Signal
		stopSignals func()
	)

	if signalCh != nil {
		sigCh = signalCh
		stopSignals = func() {}
	} else {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
		sigCh = ch
		stopSignals = func() {
			signal.Stop(ch)
		}
	}
	defer stopSignals()

	select {
	case err := <-errCh:
		return err
	case sig, ok := <-sigCh:
		if !ok {
			return <-errCh
		}
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return <-errCh
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
