package domain

import "errors"

// Model invocation error kinds. Wrap with fmt.Errorf("...: %w", ...) and test
// with errors.Is. A timeout aborts the whole run; invalid output degrades the
// affected section only.
var (
	ErrModelTimeout  = errors.New("model invocation timed out")
	ErrInvalidOutput = errors.New("model output failed contract validation")
)

// Stable error codes carried on terminal progress events.
const (
	CodeTimeout          = "timeout"
	CodeNoPosts          = "no_posts"
	CodeGenerationFailed = "generation_failed"
)
