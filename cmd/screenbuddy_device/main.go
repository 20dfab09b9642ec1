package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ScreenBuddy/screenbuddy_backend/internal/device/bridge"
	"github.com/ScreenBuddy/screenbuddy_backend/internal/device/timer"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "screenbuddy-device",
	Short: "ScreenBuddy device daemon",
	Long: `The device daemon enforces app blocks locally. It keeps managed apps
blocked by default, lifts blocks for the exact duration an unlock session
granted, and re-blocks when the timer elapses, surviving restarts via a
local database.`,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the device daemon",
	RunE:  runDaemon,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().String("db", defaultDBPath(), "Path to the device database")
	runCmd.Flags().String("listen", "127.0.0.1:8990", "Local API listen address")
	runCmd.Flags().Bool("debug", false, "Verbose request logging")
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "screenbuddy-device.db"
	}
	return filepath.Join(home, ".screenbuddy", "device.db")
}

func runDaemon(cmd *cobra.Command, args []string) error {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	dbPath, _ := cmd.Flags().GetString("db")
	listen, _ := cmd.Flags().GetString("listen")
	debug, _ := cmd.Flags().GetBool("debug")

	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return err
	}

	store, err := timer.OpenSQLiteStore(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	controller := timer.NewController(store, logger)
	defer controller.Close()

	// Re-block anything that expired while the daemon was down and pick up
	// grants that are still live.
	if err := controller.Restore(); err != nil {
		return err
	}

	b := bridge.New(controller, logger)
	srv := &http.Server{
		Addr:    listen,
		Handler: b.Router(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("Device daemon listening", slog.String("addr", listen))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Device daemon failed", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Device daemon shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
