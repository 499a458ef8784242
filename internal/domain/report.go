package domain

import "time"

// PostData is a single ingested feed post. The pipeline only reads it; the
// ingestion side owns creation and mutation.
type PostData struct {
	ID         string
	Title      string
	Content    string
	URL        string
	SourceID   string
	SourceName string
}

// ReportSection configures one extraction task. SourceIDs empty means the
// section considers every post; otherwise only posts from the listed sources.
type ReportSection struct {
	ID          string   `yaml:"id" json:"id"`
	Title       string   `yaml:"title" json:"title"`
	Description string   `yaml:"description" json:"description"`
	Prompt      string   `yaml:"prompt" json:"prompt"`
	SourceIDs   []string `yaml:"sourceIds" json:"sourceIds"`
}

// Restricted reports whether the section limits its input sources.
func (s ReportSection) Restricted() bool {
	return len(s.SourceIDs) > 0
}

// AllowsSource reports whether posts from the given source are in scope.
func (s ReportSection) AllowsSource(sourceID string) bool {
	if len(s.SourceIDs) == 0 {
		return true
	}
	for _, id := range s.SourceIDs {
		if id == sourceID {
			return true
		}
	}
	return false
}

// Instruction is the natural-language task description attached to the
// section's schema field; the contract enforces shape, this enforces intent.
func (s ReportSection) Instruction() string {
	if s.Prompt != "" {
		return s.Prompt
	}
	return s.Description
}

// ExtractedItem is one resolved unit of model output. SourceURL is empty when
// the model's post reference was out of range; a missing link is preferred
// over a fabricated one.
type ExtractedItem struct {
	Title     string
	Summary   string
	SourceURL string
}

// SectionResult holds a section's resolved items plus the exact post set that
// was in scope for the model call, kept for diagnostics.
type SectionResult struct {
	Items       []ExtractedItem
	SourcePosts []PostData
}

// Report is the persisted output of one successful pipeline run.
type Report struct {
	ID        string
	Title     string
	Summary   string
	CreatedAt time.Time
}

// Step identifies a pipeline stage in progress events.
type Step string

const (
	StepFetch     Step = "fetch"
	StepPrepare   Step = "prepare"
	StepExtract   Step = "extract"
	StepTranslate Step = "translate"
	StepFormat    Step = "format"
	StepSave      Step = "save"
	StepDone      Step = "done"
	StepError     Step = "error"
)

// ProgressUpdate is a transient event describing pipeline advancement.
// Current/Total are set during per-section iteration, ReportID on completion,
// ErrorCode on the error step.
type ProgressUpdate struct {
	Step         Step   `json:"step"`
	Message      string `json:"message"`
	Current      int    `json:"current,omitempty"`
	Total        int    `json:"total,omitempty"`
	SectionTitle string `json:"sectionTitle,omitempty"`
	ReportID     string `json:"reportId,omitempty"`
	ErrorCode    string `json:"error,omitempty"`
}
