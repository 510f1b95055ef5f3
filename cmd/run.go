package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/pathwise/internal/app"
	"github.com/abhisek/pathwise/internal/audio"
	"github.com/abhisek/pathwise/internal/config"
	"github.com/abhisek/pathwise/internal/content"
	"github.com/abhisek/pathwise/internal/imagery"
	"github.com/abhisek/pathwise/internal/library"
	"github.com/abhisek/pathwise/internal/llm"
	"github.com/abhisek/pathwise/internal/logging"
	"github.com/abhisek/pathwise/internal/session"
	"github.com/abhisek/pathwise/internal/store"
)

// closeTimeout bounds flushing queued course writes on exit.
const closeTimeout = 10 * time.Second

// runApp opens the stores, builds dependencies, and launches the TUI.
func runApp(cmd *cobra.Command) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log, err := logging.New(cfg.LoggingOptions(false))
	if err != nil {
		return fmt.Errorf("set up logging: %w", err)
	}
	defer func() { _ = log.Sync() }()
	log.Info("starting pathwise",
		zap.String("version", version),
		zap.String("config", cfg.File),
		zap.String("store", cfg.Store.Backend))

	st, err := store.Open(cfg.Store.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	courses, closeCourses, err := openCourseRepo(ctx, cfg, st, log)
	if err != nil {
		return err
	}
	defer func() { _ = closeCourses() }()

	provider, speech := newLLM(ctx, cfg, st, log)

	authProvider, err := newAuthProvider(cfg, log)
	if err != nil {
		return err
	}

	ctrl := session.NewController(session.Deps{
		Gateway:   content.NewService(provider, speech, content.DefaultConfig()),
		Chat:      provider,
		Auth:      authProvider,
		Library:   library.New(courses, log),
		Snapshots: st.SnapshotRepo(),
		Tutor:     cfg.TutorConfig(),
		Log:       log,
	})

	var player audio.Player
	if cfg.Audio.Output == "file" {
		player = audio.NewFilePlayer(cfg.Audio.Dir, log)
	} else {
		player = audio.NewPlayer(cfg.Audio.Dir, log)
	}

	noSplash, _ := cmd.Flags().GetBool("no-splash")
	runErr := app.Run(app.Options{
		Controller: ctrl,
		Player:     player,
		Images:     imagery.Default,
		Logger:     log,
		SkipSplash: noSplash,
	})

	closeCtx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	if err := ctrl.Close(closeCtx); err != nil {
		log.Warn("flush on exit failed", zap.Error(err))
	}
	return runErr
}

// newLLM builds the chat provider and the speech backend. Without a
// configured provider every generation fails with a readable error; the
// rest of the app keeps working.
func newLLM(ctx context.Context, cfg *config.Config, st *store.Store, log *zap.Logger) (llm.Provider, llm.SpeechSynthesizer) {
	llmCfg, ok := cfg.LLMConfig()
	if !ok {
		fmt.Fprintln(os.Stderr, "LLM provider not configured.")
		fmt.Fprintln(os.Stderr, "Set GEMINI_API_KEY, OPENAI_API_KEY, ANTHROPIC_API_KEY or OPENROUTER_API_KEY to enable course generation.")
		log.Warn("no llm provider configured")
		return llm.NewMockProvider(), nil
	}

	provider, err := llm.NewProvider(ctx, llmCfg, st.EventRepo(), log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "LLM provider not configured:", err)
		log.Error("llm provider setup failed", zap.Error(err))
		return llm.NewMockProvider(), nil
	}

	speech, err := llm.NewSynthesizer(ctx, llmCfg)
	if err != nil {
		if !errors.Is(err, llm.ErrSpeechUnsupported) {
			log.Error("speech setup failed", zap.Error(err))
		}
		return provider, nil
	}
	log.Info("llm ready", zap.String("provider", llmCfg.Provider), zap.String("model", provider.ModelID()))
	return provider, speech
}
