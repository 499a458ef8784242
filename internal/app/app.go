package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"FeedInsight/internal/config"
	"FeedInsight/internal/domain"
	"FeedInsight/internal/infrastructure/scheduler"
	"FeedInsight/internal/infrastructure/storage"
	"FeedInsight/internal/infrastructure/telegram"
	"FeedInsight/internal/llm"
	"FeedInsight/internal/logging"
	"FeedInsight/internal/ports"
	"FeedInsight/internal/progress"
	"FeedInsight/internal/usecase"
)

// Application wires configs to the pipeline and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	db       *sql.DB
	pipeline *usecase.Pipeline
	tracker  *progress.Tracker
	sink     ports.ProgressSink
}

// New builds a runnable application instance.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	store := storage.NewPostgresStore(db)

	registry := llm.NewRegistry()
	registry.Register("openai", func(_ context.Context, m config.ModelConfig) (ports.StructuredModel, error) {
		return llm.NewOpenAIModel(m), nil
	})
	registry.Register("ollama", func(_ context.Context, m config.ModelConfig) (ports.StructuredModel, error) {
		return llm.NewOllamaModel(m), nil
	})
	registry.Register("gemini", func(ctx context.Context, m config.ModelConfig) (ports.StructuredModel, error) {
		return llm.NewGeminiModel(ctx, m)
	})

	model, err := registry.Resolve(ctx, cfg.Model)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("resolve model provider: %w", err)
	}

	var notifier ports.Notifier
	if cfg.Notifications.Telegram.BotToken != "" && cfg.Notifications.Telegram.ChatID != "" {
		notifier = telegram.NewNotifier(cfg.Notifications.Telegram.BotToken, cfg.Notifications.Telegram.ChatID)
	}

	tracker := progress.NewTracker()
	sink := progress.Fanout{tracker, progress.NewLogSink(baseLogger.With("component", "progress"))}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Posts:    store,
		Reports:  store,
		Model:    model,
		Progress: sink,
		Notifier: notifier,
		Logger:   baseLogger.With("component", "pipeline"),
		Config:   cfg.Report,
	})

	return &Application{
		cfg:      cfg,
		logger:   baseLogger,
		db:       db,
		pipeline: pipeline,
		tracker:  tracker,
		sink:     sink,
	}, nil
}

// Progress exposes the event tracker for embedding consumers (e.g. a
// streaming transport).
func (a *Application) Progress() *progress.Tracker {
	return a.tracker
}

// RunOnce executes a single pipeline run. A nil report means no posts were
// pending; that is surfaced to progress consumers as the no_posts code but
// never as a process failure.
func (a *Application) RunOnce(ctx context.Context) error {
	generated, err := a.pipeline.GenerateReport(ctx)
	if err != nil {
		return fmt.Errorf("generate report: %w", err)
	}

	if generated == nil {
		a.sink.Emit(domain.ProgressUpdate{
			Step:      domain.StepError,
			Message:   "No posts to analyze",
			ErrorCode: domain.CodeNoPosts,
		})
		return nil
	}

	a.logger.Info("report generated", "report_id", generated.ID, "title", generated.Title)
	return nil
}

// Run executes one run, or keeps generating on the configured interval.
func (a *Application) Run(ctx context.Context, once bool) error {
	defer a.db.Close()

	if once {
		return a.RunOnce(ctx)
	}

	driver := scheduler.NewIntervalScheduler(a.cfg.Scheduler.IntervalDuration())
	job := func(trigger time.Time) {
		if err := a.RunOnce(ctx); err != nil {
			a.logger.Error("scheduled run failed", "trigger", trigger, "error", err)
		}
	}
	if err := driver.Start(ctx, job); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	<-ctx.Done()
	return driver.Stop(context.Background())
}
