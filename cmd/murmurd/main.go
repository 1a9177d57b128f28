// Murmur daemon - the voice journaling backend service
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/murmur-hq/murmur/internal/api"
	"github.com/murmur-hq/murmur/internal/config"
	"github.com/murmur-hq/murmur/internal/logging"
	"github.com/murmur-hq/murmur/internal/notifications"
	"github.com/murmur-hq/murmur/internal/reflection"
	"github.com/murmur-hq/murmur/internal/scheduler"
	"github.com/murmur-hq/murmur/internal/storage"
	"github.com/murmur-hq/murmur/internal/streak"
)

var (
	configPath string
	dataDir    string
	port       int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "murmurd",
		Short: "Murmur daemon - your voice journal's backend",
		RunE:  runDaemon,
	}

	home, _ := os.UserHomeDir()
	defaultDataDir := filepath.Join(home, ".murmur")

	rootCmd.Flags().StringVar(&configPath, "config", "", "Config file (default <data-dir>/config.json)")
	rootCmd.Flags().StringVar(&dataDir, "data-dir", defaultDataDir, "Data directory")
	rootCmd.Flags().IntVar(&port, "port", 0, "HTTP server port (overrides config)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runDaemon(cmd *cobra.Command, args []string) error {
	fmt.Println("🎙️  Starting Murmur daemon...")

	if configPath == "" {
		configPath = filepath.Join(dataDir, "config.json")
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cmd.Flags().Changed("data-dir") {
		cfg.DataDir = dataDir
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = port
	}

	logging.SetLevel(logging.ParseLevel(cfg.LogLevel))
	log := logging.WithField("component", "main")

	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	// Open database
	db, err := storage.Open(storage.Config{Path: cfg.DatabasePath()})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	// Run migrations
	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	fmt.Println("✅ Database ready")

	// Shared services. The API server and the scheduler must use the same
	// notification service so live pushes reach subscribed WebSocket clients.
	users := storage.NewUserStore(db)
	entries := storage.NewEntryStore(db)
	summaries := storage.NewSummaryStore(db)

	reflections := reflection.NewService(entries, summaries)
	tracker := streak.NewTracker(users)
	notifier := notifications.NewService(db)

	server := api.New(api.Config{
		Host:          cfg.Server.Host,
		Port:          cfg.Server.Port,
		DB:            db,
		Reflections:   reflections,
		Tracker:       tracker,
		Notifications: notifier,
		Logger:        logging.WithField("component", "api"),
	})

	// Weekly reflection pass plus daily notification cleanup
	var sched *scheduler.Scheduler
	if cfg.Digest.Enabled {
		sched = scheduler.New(scheduler.Config{
			Schedule:      cfg.Digest.Schedule,
			Retention:     time.Duration(cfg.Notifications.RetentionDays) * 24 * time.Hour,
			Users:         users,
			Reflections:   reflections,
			Notifications: notifier,
			Broadcaster:   server,
			Logger:        logging.WithField("component", "scheduler"),
		})
		if err := sched.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		fmt.Println("📅 Weekly reflection pass scheduled")
	}

	// Handle shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh

		fmt.Println("\n🛑 Shutting down...")
		if sched != nil {
			sched.Stop()
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Stop(shutdownCtx); err != nil {
			log.Error("shutdown: %v", err)
		}
	}()

	// Start server (blocks)
	fmt.Printf("🌐 API listening on http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
