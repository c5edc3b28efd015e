package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yungbote/traitforge-backend/internal/app"
)

func main() {
	a, err := app.New()
	if err != nil {
		fmt.Printf("Failed to init app: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	if err := a.Start(); err != nil {
		a.Log.Error("Failed to start background services", "error", err)
		os.Exit(1)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- a.Run(":" + a.Cfg.Port) }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Log.Error("Server failed", "error", err)
		}
	case sig := <-sigCh:
		a.Log.Info("Shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		if err := a.Shutdown(ctx); err != nil {
			a.Log.Warn("Graceful shutdown failed", "error", err)
		}
		cancel()
	}
}
