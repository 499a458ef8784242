// Package llm provides structured-model backends and their registry.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net"

	"FeedInsight/internal/config"
	"FeedInsight/internal/ports"
)

// ErrUnknownProvider is returned when no factory matches the configured name.
var ErrUnknownProvider = errors.New("unknown model provider")

// Factory builds a structured model from configuration.
type Factory func(ctx context.Context, cfg config.ModelConfig) (ports.StructuredModel, error)

// Registry keeps a mapping from provider names to their factories.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: map[string]Factory{}}
}

// Register adds or replaces a provider factory.
func (r *Registry) Register(name string, factory Factory) {
	if r.factories == nil {
		r.factories = map[string]Factory{}
	}
	r.factories[name] = factory
}

// Resolve constructs the configured provider or fails for an unknown name.
func (r *Registry) Resolve(ctx context.Context, cfg config.ModelConfig) (ports.StructuredModel, error) {
	factory, ok := r.factories[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, cfg.Provider)
	}
	return factory(ctx, cfg)
}

// isTimeout reports whether an invocation error was a deadline expiry rather
// than an ordinary transport failure.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
