// Command bloomup-tasks serves the standalone to-do list API.
package main

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/julianstephens/bloomup/internal/cli"
	"github.com/julianstephens/bloomup/internal/constants"
	apperrors "github.com/julianstephens/bloomup/internal/errors"
	"github.com/julianstephens/bloomup/internal/logger"
	"github.com/julianstephens/bloomup/internal/todos"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		apperrors.Fatal(err)
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}
	configDir = filepath.Join(configDir, constants.AppName)
	if err := logger.Init(logger.Config{
		ConfigDir: configDir,
		FileName:  constants.AppName + "-tasks.log",
		Stderr:    true,
		Debug:     os.Getenv(constants.EnvDebug) != "",
	}); err != nil {
		apperrors.Fatal(err)
	}
	gin.SetMode(gin.ReleaseMode)

	dbSpec := os.Getenv(constants.EnvTasksDB)
	if dbSpec == "" {
		dbSpec = filepath.Join(configDir, "tasks.db")
	}
	store, err := cli.OpenStore(dbSpec, configDir)
	if err != nil {
		apperrors.Fatal(err)
	}
	if err := store.Init(); err != nil {
		apperrors.Fatal(err)
	}
	defer store.Close()

	addr := os.Getenv(constants.EnvTasksListen)
	if addr == "" {
		addr = constants.DefaultTasksListen
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           todos.New(store).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Tasks API listening", "addr", addr, "db", store.GetConfigPath())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Tasks API stopped", "error", err)
			store.Close()
			apperrors.Fatal(err)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logger.Info("Shutting down tasks API")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Shutdown failed", "error", err)
		}
	}
}
