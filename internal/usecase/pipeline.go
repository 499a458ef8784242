package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"FeedInsight/internal/config"
	"FeedInsight/internal/domain"
	"FeedInsight/internal/ports"
	"FeedInsight/internal/report"
	"FeedInsight/internal/schema"
)

// PipelineDeps wires all driven adapters into the report pipeline.
type PipelineDeps struct {
	Posts    ports.PostStore
	Reports  ports.ReportStore
	Model    ports.StructuredModel
	Progress ports.ProgressSink
	Notifier ports.Notifier
	Logger   *slog.Logger
	Config   config.ReportConfig
}

// Pipeline orchestrates one report generation run: fetch, prepare, extract,
// translate, format, save. Stages run strictly in sequence; sections within a
// stage run one at a time so model calls never overlap within a run.
type Pipeline struct {
	posts    ports.PostStore
	reports  ports.ReportStore
	model    ports.StructuredModel
	progress ports.ProgressSink
	notifier ports.Notifier
	logger   *slog.Logger
	cfg      config.ReportConfig
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		posts:    deps.Posts,
		reports:  deps.Reports,
		model:    deps.Model,
		progress: deps.Progress,
		notifier: deps.Notifier,
		logger:   logger,
		cfg:      deps.Config,
	}
}

// runContext carries state between stages. Stages receive it by value and
// return a fresh copy; nothing is mutated in place.
type runContext struct {
	posts      []domain.PostData
	sections   []domain.ReportSection
	postsText  string
	ordered    []domain.PostData
	extracted  map[string]domain.SectionResult
	translated map[string]domain.SectionResult
	markdown   string
}

// GenerateReport executes one full pipeline run. A nil report with nil error
// means no posts were pending, which is a normal outcome, not a failure.
func (p *Pipeline) GenerateReport(ctx context.Context) (*domain.Report, error) {
	p.emit(domain.ProgressUpdate{Step: domain.StepFetch, Message: "Fetching recent posts..."})

	posts, err := p.posts.FetchPending(ctx, p.cfg.Window(), p.cfg.PostLimit)
	if err != nil {
		p.fail(domain.CodeGenerationFailed, "Failed to load posts")
		return nil, fmt.Errorf("fetch pending posts: %w", err)
	}
	if len(posts) == 0 {
		p.logger.Info("no pending posts in window", "window", p.cfg.Window())
		return nil, nil
	}

	run := runContext{posts: posts, sections: p.cfg.Sections}

	p.emit(domain.ProgressUpdate{
		Step:    domain.StepPrepare,
		Message: fmt.Sprintf("Preparing %d posts for analysis...", len(posts)),
	})
	run = p.prepare(run)

	run, err = p.extract(ctx, run)
	if err != nil {
		if errors.Is(err, domain.ErrModelTimeout) {
			p.fail(domain.CodeTimeout, "Model is responding too slowly, run aborted")
		} else {
			p.fail(domain.CodeGenerationFailed, "Content extraction failed")
		}
		return nil, err
	}

	run = p.translate(ctx, run)

	p.emit(domain.ProgressUpdate{Step: domain.StepFormat, Message: "Formatting report..."})
	run = p.format(run)

	p.emit(domain.ProgressUpdate{Step: domain.StepSave, Message: "Saving report..."})
	saved, err := p.reports.CreateReport(ctx, report.Title(time.Now()), run.markdown)
	if err != nil {
		p.fail(domain.CodeGenerationFailed, "Failed to save report")
		return nil, fmt.Errorf("create report: %w", err)
	}

	// Marking is deliberately best-effort: the saved report is authoritative,
	// and the worst case of a failed mark is re-analysis on the next run.
	if err := p.markProcessed(ctx, run.posts, saved.ID); err != nil {
		p.logger.Warn("mark posts processed failed", "report_id", saved.ID, "error", err)
	}

	p.emit(domain.ProgressUpdate{Step: domain.StepDone, Message: "Report generated!", ReportID: saved.ID})

	if p.notifier != nil {
		if err := p.notifier.PublishReport(ctx, run.markdown); err != nil {
			p.logger.Warn("report notification failed", "report_id", saved.ID, "error", err)
		}
	}

	return &saved, nil
}

// prepare renders the full post list once; unrestricted sections reuse it.
func (p *Pipeline) prepare(run runContext) runContext {
	next := run
	next.postsText, next.ordered = report.FormatPosts(run.posts)
	return next
}

// extract runs the model once per section, in configured order. A timeout is
// fatal for the whole run; any other failure empties the affected section and
// processing continues.
func (p *Pipeline) extract(ctx context.Context, run runContext) (runContext, error) {
	results := make(map[string]domain.SectionResult, len(run.sections))
	total := len(run.sections)

	for i, section := range run.sections {
		p.emit(domain.ProgressUpdate{
			Step:         domain.StepExtract,
			Message:      fmt.Sprintf("Analyzing %q...", section.Title),
			Current:      i + 1,
			Total:        total,
			SectionTitle: section.Title,
		})

		result, err := p.extractSection(ctx, section, run)
		if err != nil {
			if errors.Is(err, domain.ErrModelTimeout) {
				return run, fmt.Errorf("extract section %q: %w", section.ID, err)
			}
			p.logger.Warn("section extraction failed, continuing with empty result",
				"section", section.ID, "error", err)
			result = domain.SectionResult{Items: []domain.ExtractedItem{}}
		}
		results[section.ID] = result
	}

	next := run
	next.extracted = results
	return next, nil
}

func (p *Pipeline) extractSection(ctx context.Context, section domain.ReportSection, run runContext) (domain.SectionResult, error) {
	scopedText, scopedPosts := run.postsText, run.ordered

	if section.Restricted() {
		var filtered []domain.PostData
		for _, post := range run.posts {
			if section.AllowsSource(post.SourceID) {
				filtered = append(filtered, post)
			}
		}
		// Nothing in scope is a normal outcome; the model is not consulted.
		if len(filtered) == 0 {
			return domain.SectionResult{Items: []domain.ExtractedItem{}, SourcePosts: []domain.PostData{}}, nil
		}
		scopedText, scopedPosts = report.FormatPosts(filtered)
	}

	contract, err := schema.BuildContract([]domain.ReportSection{section})
	if err != nil {
		return domain.SectionResult{}, err
	}

	response, err := p.model.Invoke(ctx, contract, report.ExtractionPrompt(section, scopedText))
	if err != nil {
		return domain.SectionResult{}, err
	}

	return domain.SectionResult{
		Items:       report.ResolveItems(response[section.ID], scopedPosts),
		SourcePosts: scopedPosts,
	}, nil
}

// translate re-invokes the model per non-empty section unless the report
// language is the default. Translation can never corrupt links: URLs are
// re-attached from the pre-translation items by position, and any failure or
// item-count mismatch keeps the original section untouched.
func (p *Pipeline) translate(ctx context.Context, run runContext) runContext {
	next := run

	language := p.language()
	if language == config.DefaultLanguage {
		next.translated = run.extracted
		return next
	}

	translated := make(map[string]domain.SectionResult, len(run.sections))
	total := len(run.sections)

	for i, section := range run.sections {
		result := run.extracted[section.ID]
		if len(result.Items) == 0 {
			translated[section.ID] = result
			continue
		}

		p.emit(domain.ProgressUpdate{
			Step:         domain.StepTranslate,
			Message:      fmt.Sprintf("Translating %q to %s...", section.Title, language),
			Current:      i + 1,
			Total:        total,
			SectionTitle: section.Title,
		})

		out, err := p.translateSection(ctx, section, result, language)
		if err != nil {
			p.logger.Warn("section translation failed, keeping original",
				"section", section.ID, "error", err)
			translated[section.ID] = result
			continue
		}
		translated[section.ID] = out
	}

	next.translated = translated
	return next
}

func (p *Pipeline) translateSection(ctx context.Context, section domain.ReportSection, result domain.SectionResult, language string) (domain.SectionResult, error) {
	contract, err := schema.BuildContract([]domain.ReportSection{section})
	if err != nil {
		return domain.SectionResult{}, err
	}
	contract = contract.WithoutIndex()

	// The model only ever sees titles and summaries; indices and URLs stay
	// on this side of the call.
	stripped := make([]schema.Item, len(result.Items))
	for i, item := range result.Items {
		stripped[i] = schema.Item{Title: item.Title, Summary: item.Summary}
	}
	payload, err := json.Marshal(map[string][]schema.Item{section.ID: stripped})
	if err != nil {
		return domain.SectionResult{}, fmt.Errorf("marshal translation payload: %w", err)
	}

	response, err := p.model.Invoke(ctx, contract, report.TranslationPrompt(language, string(payload)))
	if err != nil {
		return domain.SectionResult{}, err
	}

	items := response[section.ID]
	if len(items) != len(result.Items) {
		return domain.SectionResult{}, fmt.Errorf("translated %d items, expected %d", len(items), len(result.Items))
	}

	out := make([]domain.ExtractedItem, len(items))
	for i, item := range items {
		out[i] = domain.ExtractedItem{
			Title:     item.Title,
			Summary:   item.Summary,
			SourceURL: result.Items[i].SourceURL,
		}
	}

	return domain.SectionResult{Items: out, SourcePosts: result.SourcePosts}, nil
}

func (p *Pipeline) format(run runContext) runContext {
	next := run
	next.markdown = report.FormatMarkdown(run.sections, run.translated,
		p.model.ProviderName(), p.model.ModelName(), p.language())
	return next
}

func (p *Pipeline) markProcessed(ctx context.Context, posts []domain.PostData, reportID string) error {
	ids := make([]string, len(posts))
	for i, post := range posts {
		ids[i] = post.ID
	}
	return p.posts.MarkProcessed(ctx, ids, reportID)
}

func (p *Pipeline) language() string {
	if p.cfg.Language == "" {
		return config.DefaultLanguage
	}
	return p.cfg.Language
}

func (p *Pipeline) emit(update domain.ProgressUpdate) {
	if p.progress != nil {
		p.progress.Emit(update)
	}
}

func (p *Pipeline) fail(code, message string) {
	p.emit(domain.ProgressUpdate{Step: domain.StepError, Message: message, ErrorCode: code})
}
