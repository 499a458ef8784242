package ports

import (
	"context"
	"time"

	"FeedInsight/internal/domain"
	"FeedInsight/internal/schema"
)

// PostStore supplies pending posts and records which ones a report consumed.
type PostStore interface {
	FetchPending(ctx context.Context, window time.Duration, limit int) ([]domain.PostData, error)
	MarkProcessed(ctx context.Context, postIDs []string, reportID string) error
}

// ReportStore persists finished reports. CreateReport is expected to be
// atomic per report.
type ReportStore interface {
	CreateReport(ctx context.Context, title, summary string) (domain.Report, error)
}

// StructuredModel abstracts an LLM backend that enforces a response contract.
// Invoke returns domain.ErrModelTimeout when the configured deadline passes
// and domain.ErrInvalidOutput when the response fails contract validation.
type StructuredModel interface {
	Invoke(ctx context.Context, contract schema.Contract, prompt string) (schema.Response, error)
	ProviderName() string
	ModelName() string
}

// ProgressSink receives ordered pipeline events. Emit must never block.
type ProgressSink interface {
	Emit(update domain.ProgressUpdate)
}

// Notifier delivers the finished report to an outbound channel.
type Notifier interface {
	PublishReport(ctx context.Context, markdown string) error
}

// Scheduler controls when pipeline runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
