package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"FeedInsight/internal/domain"
	"FeedInsight/internal/ports"
)

// PostgresStore backs both post and report persistence with Postgres.
type PostgresStore struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.PostStore = (*PostgresStore)(nil)
var _ ports.ReportStore = (*PostgresStore)(nil)

// NewPostgresStore wires a sql.DB implementation.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// FetchPending returns unprocessed posts newer than the window, most recent
// first, capped at limit.
func (s *PostgresStore) FetchPending(ctx context.Context, window time.Duration, limit int) ([]domain.PostData, error) {
	if s.db == nil {
		return nil, nil
	}

	cutoff := time.Now().Add(-window)
	query, args, err := s.builder.
		Select("p.id", "p.title", "p.content", "p.url", "p.source_id", "s.name").
		From("posts p").
		Join("sources s ON s.id = p.source_id").
		Where(sq.Gt{"p.posted_at": cutoff}).
		Where(sq.Eq{"p.report_id": nil}).
		OrderBy("p.posted_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build pending query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query pending posts: %w", err)
	}
	defer rows.Close()

	var posts []domain.PostData
	for rows.Next() {
		var post domain.PostData
		if err := rows.Scan(&post.ID, &post.Title, &post.Content, &post.URL, &post.SourceID, &post.SourceName); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return posts, nil
}

// MarkProcessed links consumed posts to the report so subsequent runs work on
// a disjoint input set.
func (s *PostgresStore) MarkProcessed(ctx context.Context, postIDs []string, reportID string) error {
	if s.db == nil || len(postIDs) == 0 {
		return nil
	}

	query, args, err := s.builder.
		Update("posts").
		Set("report_id", reportID).
		Set("processed_at", sq.Expr("NOW()")).
		Where(sq.Expr("id = ANY(?)", pq.StringArray(postIDs))).
		ToSql()
	if err != nil {
		return fmt.Errorf("build mark query: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("mark posts processed: %w", err)
	}

	return nil
}

// CreateReport inserts a finished report and returns its generated identity.
func (s *PostgresStore) CreateReport(ctx context.Context, title, summary string) (domain.Report, error) {
	if s.db == nil {
		return domain.Report{}, fmt.Errorf("report store is not configured")
	}

	query, args, err := s.builder.
		Insert("reports").
		Columns("title", "summary").
		Values(title, summary).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return domain.Report{}, fmt.Errorf("build insert query: %w", err)
	}

	report := domain.Report{Title: title, Summary: summary}
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&report.ID, &report.CreatedAt); err != nil {
		return domain.Report{}, fmt.Errorf("insert report: %w", err)
	}

	return report, nil
}
