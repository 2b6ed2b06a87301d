package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/lucasnoah/careerpath/internal/agent"
	"github.com/lucasnoah/careerpath/internal/apperr"
	"github.com/lucasnoah/careerpath/internal/config"
	"github.com/lucasnoah/careerpath/internal/db"
	"github.com/lucasnoah/careerpath/internal/evaluation"
	"github.com/lucasnoah/careerpath/internal/llm"
	"github.com/lucasnoah/careerpath/internal/orchestrator"
	"github.com/lucasnoah/careerpath/internal/prompt"
	"github.com/lucasnoah/careerpath/internal/usercontext"
)

// newOrchestrator wires the configured store, event log, and LLM-backed
// agent into an Orchestrator. The returned cleanup closes everything opened.
func newOrchestrator(ctx context.Context) (*orchestrator.Orchestrator, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if errs := config.Validate(cfg); len(errs) > 0 {
		return nil, nil, apperr.Validation("invalid configuration: %s", errs[0])
	}

	log, err := newLogger()
	if err != nil {
		return nil, nil, err
	}
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
		_ = log.Sync()
	}

	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	closers = append(closers, closeStore)

	database, err := db.Open(cfg.EventsDBPath())
	if err != nil {
		cleanup()
		return nil, nil, apperr.IO(err, "open event log")
	}
	closers = append(closers, func() { database.Close() })
	if err := database.Migrate(); err != nil {
		cleanup()
		return nil, nil, apperr.IO(err, "migrate event log")
	}

	client := llm.New(llm.OptionsFromConfig(cfg), log)
	ag := agent.New(client, prompt.NewLibrary(cfg.CareerPath.PromptsDir), log)
	engine := evaluation.NewEngine(ag, ag, evaluation.Options{
		AppendRemedial: cfg.CareerPath.Evaluation.AppendRemedialActions,
	})
	orch := orchestrator.New(store, database, ag, engine, ag, orchestrator.Options{
		MinSteps: cfg.CareerPath.Roadmap.MinSteps,
		MaxSteps: cfg.CareerPath.Roadmap.MaxSteps,
		Logger:   log,
	})
	return orch, cleanup, nil
}

func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (usercontext.Store, func(), error) {
	var (
		store   usercontext.Store
		closeFn = func() {}
	)
	switch cfg.CareerPath.Store.Backend {
	case "postgres":
		pg, err := usercontext.OpenPostgres(ctx, cfg.PostgresDSN())
		if err != nil {
			return nil, nil, apperr.IO(err, "open postgres context store")
		}
		store, closeFn = pg, pg.Close
	default:
		store = usercontext.NewFileStore(cfg.ContextDir())
	}
	if cfg.CareerPath.Store.CacheEnabled() {
		store = usercontext.NewCachedStore(store, log)
	}
	return store, closeFn, nil
}

// newLogger builds a production zap logger writing to stderr; --verbose
// lowers the level to debug.
func newLogger() (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if verbose {
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	zc.OutputPaths = []string{"stderr"}
	log, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return log, nil
}

func jsonOutput() bool {
	return outputFormat == "json"
}

func writeJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

// reportError prints err as a structured failure (json) or a one-line
// message tagged with its kind (text).
func reportError(cmd *cobra.Command, err error) {
	if jsonOutput() {
		_ = writeJSON(cmd, orchestrator.ErrorResult(err))
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "error [%s]: %s\n", apperr.KindOf(err), apperr.MessageOf(err))
}

// run opens an orchestrator for the duration of fn.
func run(cmd *cobra.Command, fn func(ctx context.Context, orch *orchestrator.Orchestrator) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	orch, cleanup, err := newOrchestrator(ctx)
	if err != nil {
		return err
	}
	defer cleanup()
	return fn(ctx, orch)
}
