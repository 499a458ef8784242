// Package progress fans pipeline events out to consumers without ever
// blocking the run that emits them.
package progress

import (
	"log/slog"
	"sync"

	"FeedInsight/internal/domain"
	"FeedInsight/internal/ports"
)

// Tracker distributes events to subscriber channels. Emission is
// fire-and-forget: a subscriber whose buffer is full misses the event rather
// than stalling the pipeline.
type Tracker struct {
	mu          sync.Mutex
	subscribers map[chan domain.ProgressUpdate]struct{}
}

var _ ports.ProgressSink = (*Tracker)(nil)

// NewTracker builds an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{subscribers: make(map[chan domain.ProgressUpdate]struct{})}
}

// Emit delivers the update to every subscriber that can take it immediately.
func (t *Tracker) Emit(update domain.ProgressUpdate) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for subscriber := range t.subscribers {
		select {
		case subscriber <- update:
		default:
		}
	}
}

// Subscribe registers a buffered channel for future events.
func (t *Tracker) Subscribe() chan domain.ProgressUpdate {
	t.mu.Lock()
	defer t.mu.Unlock()

	subscriber := make(chan domain.ProgressUpdate, 16)
	t.subscribers[subscriber] = struct{}{}
	return subscriber
}

// Unsubscribe removes and closes a subscriber channel.
func (t *Tracker) Unsubscribe(subscriber chan domain.ProgressUpdate) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.subscribers[subscriber]; !ok {
		return
	}
	delete(t.subscribers, subscriber)
	close(subscriber)
}

// LogSink mirrors the event stream into the run log, so a headless run still
// shows ordered progress.
type LogSink struct {
	logger *slog.Logger
}

var _ ports.ProgressSink = (*LogSink)(nil)

// NewLogSink wires a logger; nil falls back to slog.Default.
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

// Emit writes one log line per event.
func (s *LogSink) Emit(update domain.ProgressUpdate) {
	args := []any{"step", string(update.Step), "message", update.Message}
	if update.Total > 0 {
		args = append(args, "current", update.Current, "total", update.Total)
	}
	if update.SectionTitle != "" {
		args = append(args, "section", update.SectionTitle)
	}
	if update.ReportID != "" {
		args = append(args, "report_id", update.ReportID)
	}

	if update.Step == domain.StepError {
		args = append(args, "code", update.ErrorCode)
		s.logger.Error("pipeline progress", args...)
		return
	}
	s.logger.Info("pipeline progress", args...)
}

// Fanout forwards each event to every sink in order.
type Fanout []ports.ProgressSink

var _ ports.ProgressSink = (Fanout)(nil)

// Emit implements ports.ProgressSink.
func (f Fanout) Emit(update domain.ProgressUpdate) {
	for _, sink := range f {
		sink.Emit(update)
	}
}
