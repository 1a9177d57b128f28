// Murmur CLI - the command-line interface for managing a Murmur instance.
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/murmur-hq/murmur/internal/config"
	"github.com/murmur-hq/murmur/internal/core"
	"github.com/murmur-hq/murmur/internal/storage"
)

var (
	// Config
	dataDir string

	// Version
	version = "0.1.0"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "murmur",
		Short: "Murmur - voice journaling, reflected weekly",
		Long: `Murmur is a voice journaling backend.

Speak a quick note whenever something happens. Every Monday, Murmur
rolls the past week's murmurs into a reflection: what you did, how it
felt, and which phase you were in. Daily logging builds a streak.

This CLI manages a local Murmur instance. The daemon is 'murmurd'.`,
	}

	// Global flags
	home, _ := os.UserHomeDir()
	defaultDataDir := filepath.Join(home, ".murmur")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", defaultDataDir, "data directory")

	// Commands
	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(userCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// initCmd bootstraps the data directory, database, and config file
func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize the Murmur data directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Check if already initialized
			dbPath := filepath.Join(dataDir, "murmur.db")
			if _, err := os.Stat(dbPath); err == nil {
				fmt.Println("⚠️  Murmur is already initialized!")
				fmt.Printf("   Data directory: %s\n", dataDir)
				fmt.Println("\nUse 'murmur status' to have a look around.")
				return nil
			}

			fmt.Println("🎙️  Welcome to Murmur!")

			// Initialize database
			fmt.Println("⏳ Creating database...")
			db, err := storage.Open(storage.Config{Path: dbPath})
			if err != nil {
				return fmt.Errorf("failed to create database: %w", err)
			}
			defer db.Close()

			// Run migrations
			fmt.Println("⏳ Setting up schema...")
			if err := db.Migrate(); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			// Write a default config next to the database
			cfg := config.Default()
			cfg.DataDir = dataDir
			if err := cfg.Save(filepath.Join(dataDir, "config.json")); err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}

			fmt.Println("\n✅ Murmur initialized!")
			fmt.Println()
			fmt.Printf("   Data directory: %s\n", dataDir)
			fmt.Println()
			fmt.Println("Next steps:")
			fmt.Println("   murmur user create <name>  - Create a user and API token")
			fmt.Println("   murmurd                    - Start the daemon")

			return nil
		},
	}
}

// statusCmd shows the current instance status
func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show Murmur status",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			var userCount, entryCount, summaryCount, notifCount int
			db.Conn().QueryRow("SELECT COUNT(*) FROM users").Scan(&userCount)
			db.Conn().QueryRow("SELECT COUNT(*) FROM entries").Scan(&entryCount)
			db.Conn().QueryRow("SELECT COUNT(*) FROM summaries").Scan(&summaryCount)
			db.Conn().QueryRow("SELECT COUNT(*) FROM notifications").Scan(&notifCount)

			fmt.Println("📊 Murmur Status")
			fmt.Println()
			fmt.Printf("   Data: %s\n", dataDir)
			fmt.Println()
			fmt.Printf("   👥 Users: %d\n", userCount)
			fmt.Printf("   🎙️  Entries: %d\n", entryCount)
			fmt.Printf("   📅 Reflections: %d\n", summaryCount)
			fmt.Printf("   🔔 Notifications: %d\n", notifCount)

			return nil
		},
	}
}

// versionCmd shows version
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show Murmur version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Murmur %s\n", version)
			fmt.Println("Speak now, reflect later.")
		},
	}
}

// userCmd handles user management
func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "User management",
	}

	// user create
	createCmd := &cobra.Command{
		Use:   "create [name]",
		Short: "Create a user and print their API token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			id, _ := cmd.Flags().GetString("id")
			if id == "" {
				id = uuid.New().String()
			}
			// Tokens are "<id>.<secret>", split on the first dot
			if strings.Contains(id, ".") {
				return fmt.Errorf("user id must not contain '.'")
			}

			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			store := storage.NewUserStore(db)
			ctx := context.Background()

			if _, err := store.GetByID(ctx, core.UserID(id)); err == nil {
				return core.ErrUserExists
			} else if !errors.Is(err, core.ErrUserNotFound) {
				return err
			}

			secret, err := readSecret()
			if err != nil {
				return err
			}

			user := &core.User{ID: core.UserID(id), Name: name}
			if err := store.Create(ctx, user, secret); err != nil {
				return fmt.Errorf("failed to create user: %w", err)
			}

			fmt.Println("\n✅ User created!")
			fmt.Println()
			fmt.Printf("   ID: %s\n", user.ID)
			fmt.Printf("   Name: %s\n", user.Name)
			fmt.Println()
			fmt.Printf("   API token: %s.%s\n", user.ID, secret)
			fmt.Println()
			fmt.Println("🔐 Save this token now. The secret is stored hashed")
			fmt.Println("   and cannot be shown again.")

			return nil
		},
	}
	createCmd.Flags().String("id", "", "User ID (default: random UUID)")

	// user list
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			store := storage.NewUserStore(db)
			users, err := store.GetAll(context.Background())
			if err != nil {
				return err
			}

			if len(users) == 0 {
				fmt.Println("No users yet. Run 'murmur user create' to add one.")
				return nil
			}

			fmt.Printf("👥 Users (%d)\n\n", len(users))
			for _, u := range users {
				fmt.Printf("   %s  %s\n", u.ID, u.Name)
				fmt.Printf("      streak %d (longest %d) | joined %s\n",
					u.Streak.StreakCount, u.Streak.LongestStreak,
					u.CreatedAt.Format("2006-01-02"))
			}

			return nil
		},
	}

	// user delete
	deleteCmd := &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			store := storage.NewUserStore(db)
			if err := store.Delete(context.Background(), core.UserID(args[0])); err != nil {
				return err
			}

			fmt.Println("✅ User deleted.")
			return nil
		},
	}

	cmd.AddCommand(createCmd, listCmd, deleteCmd)
	return cmd
}

// openDB opens the instance database, refusing if 'murmur init' has not run
func openDB() (*storage.DB, error) {
	dbPath := filepath.Join(dataDir, "murmur.db")
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("murmur is not initialized. Run 'murmur init' first")
	}
	return storage.Open(storage.Config{Path: dbPath})
}

// readSecret prompts for an API secret, auto-generating one when stdin is
// not a terminal or the prompt is left blank.
func readSecret() (string, error) {
	if !isatty.IsTerminal(os.Stdin.Fd()) {
		return generateSecret()
	}

	fmt.Print("Create an API secret (blank to auto-generate): ")
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read secret: %w", err)
	}

	secret := strings.TrimSpace(string(raw))
	if secret == "" {
		return generateSecret()
	}
	if len(secret) < 8 {
		return "", fmt.Errorf("secret must be at least 8 characters")
	}
	return secret, nil
}

func generateSecret() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
