package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/pathwise/internal/auth"
	"github.com/abhisek/pathwise/internal/config"
	"github.com/abhisek/pathwise/internal/logging"
	"github.com/abhisek/pathwise/internal/store"
	"github.com/abhisek/pathwise/internal/store/gcsrepo"
	"github.com/abhisek/pathwise/internal/store/redisrepo"
)

var rootCmd = &cobra.Command{
	Use:   "pathwise",
	Short: "AI course builder for the terminal",
	Long: "Pathwise turns any subject into 30 learning pillars, 10 paths per pillar\n" +
		"and a full curriculum with a spoken overview and a tutor to talk to.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides PATHWISE_DB env var)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file (default: $XDG_CONFIG_HOME/pathwise/config.yaml)")
	rootCmd.Flags().Bool("no-splash", false, "Skip the welcome animation")

	rootCmd.AddCommand(libraryCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the config file named by --config (or the default one)
// and applies --db on top.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		cfg.Store.DBPath = p
	}
	if err := store.EnsureDir(cfg.Store.DBPath); err != nil {
		return nil, fmt.Errorf("resolve DB path: %w", err)
	}
	return cfg, nil
}

// cliLogger logs to the configured file and to stderr.
func cliLogger(cfg *config.Config) *zap.Logger {
	log, err := logging.New(cfg.LoggingOptions(true))
	if err != nil {
		return zap.NewNop()
	}
	return log
}

// openCourseRepo returns the course document store for the configured
// backend. The SQLite store backs it unless redis or gcs is selected.
func openCourseRepo(ctx context.Context, cfg *config.Config, st *store.Store, log *zap.Logger) (store.CourseRepo, func() error, error) {
	switch cfg.Store.Backend {
	case config.BackendRedis:
		r, err := redisrepo.New(ctx, cfg.RedisOptions(), log)
		if err != nil {
			return nil, nil, fmt.Errorf("open redis store: %w", err)
		}
		return r, r.Close, nil
	case config.BackendGCS:
		r, err := gcsrepo.New(ctx, cfg.GCSOptions(), log)
		if err != nil {
			return nil, nil, fmt.Errorf("open gcs store: %w", err)
		}
		return r, r.Close, nil
	}
	return st.CourseRepo(), func() error { return nil }, nil
}

// newAuthProvider builds the configured sign-in backend.
func newAuthProvider(cfg *config.Config, log *zap.Logger) (auth.Provider, error) {
	if cfg.Auth.Mode == "local" {
		p, err := auth.NewLocalProvider(cfg.LocalAuth(), log)
		if err != nil {
			return nil, fmt.Errorf("local auth: %w", err)
		}
		return p, nil
	}
	return auth.NewMockProvider(cfg.Auth.MockDelay), nil
}

// libraryUser is the user whose library the CLI commands operate on: the
// configured profile, or the guest.
func libraryUser(cfg *config.Config) string {
	if cfg.Auth.Mode == "local" {
		return auth.UserID(cfg.LocalAuth().Profile)
	}
	return auth.GuestID
}
