package extractor

import (
	"context"
	"fmt"
	"strings"

	"github.com/pastq-dev/pastq/internal/dedup"
	"github.com/pastq-dev/pastq/internal/providers"
	"github.com/pastq-dev/pastq/internal/records"
	"github.com/pastq-dev/pastq/internal/recovery"
	"github.com/pastq-dev/pastq/internal/source"
)

// pageResult carries one page's outcome back to the run loop, which applies
// it to the job state under the orchestrator lock.
type pageResult struct {
	yield           int
	created         int
	updated         int
	verifiedSkipped int
	skipped         int
	logs            []string
}

// processor executes the per-page pipeline: acquire text, invoke the model,
// recover candidates, validate, deduplicate, mutate the store.
type processor struct {
	src      source.Source
	client   providers.Client
	parser   *recovery.Parser
	engine   *dedup.Engine
	store    records.Store
	prompts  *promptBuilder
	opts     providers.Options
	model    string
	document string
}

// newProcessor resolves the controlled vocabulary and builds the per-run
// parser and prompt builder.
func (o *Orchestrator) newProcessor(ctx context.Context, src source.Source, model string) (*processor, error) {
	topics, err := o.vocab.Topics(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load topic vocabulary: %w", err)
	}
	cohorts, err := o.vocab.Cohorts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load cohort vocabulary: %w", err)
	}

	parser, err := recovery.NewParser(topics, cohorts, o.cfg.YearMin, o.cfg.YearMax, o.logger)
	if err != nil {
		return nil, err
	}

	return &processor{
		src:      src,
		client:   o.client,
		parser:   parser,
		engine:   o.newEngine(),
		store:    o.store,
		prompts:  newPromptBuilder(topics, cohorts, o.cfg.YearMin, o.cfg.YearMax, o.nameHint),
		opts:     o.cfg.ModelOptions,
		model:    model,
		document: src.Name(),
	}, nil
}

// ProcessPage runs one page through the pipeline. Returns the number of
// records created or updated. Page-level failures (model transport, store
// errors) are returned to the caller's failed-page bookkeeping; they never
// abort the job.
func (p *processor) ProcessPage(ctx context.Context, page int, overwrite bool) (*pageResult, error) {
	res := &pageResult{}

	text := p.src.PageText(page)
	if strings.TrimSpace(text) == "" {
		res.logs = append(res.logs, fmt.Sprintf("No text found on page %d, skipping", page))
		return res, nil
	}

	prompt := p.prompts.Build(text, p.document)
	raw, err := p.client.Generate(ctx, prompt, p.opts)
	if err != nil {
		return res, fmt.Errorf("model call for page %d: %w", page, err)
	}

	candidates := p.parser.Parse(raw)
	if len(candidates) == 0 {
		res.logs = append(res.logs, fmt.Sprintf("page %d yielded no valid candidates", page))
		return res, nil
	}

	rejected := 0
	for _, c := range candidates {
		if !validCandidate(c) {
			rejected++
			continue
		}

		decision, err := p.engine.Resolve(ctx, c, overwrite)
		if err != nil {
			return res, fmt.Errorf("dedup for page %d: %w", page, err)
		}

		switch decision.Action {
		case dedup.ActionCreate:
			q := records.FromCandidate(c, p.model, p.document, page)
			if err := p.store.Create(ctx, q); err != nil {
				return res, fmt.Errorf("create for page %d: %w", page, err)
			}
			res.created++
			res.yield++

		case dedup.ActionUpdate:
			q := records.FromCandidate(c, p.model, p.document, page)
			// Empty status tells the store to keep the target's
			// verification status.
			q.Status = ""
			if err := p.store.Update(ctx, decision.Target.ID, q); err != nil {
				return res, fmt.Errorf("update for page %d: %w", page, err)
			}
			res.updated++
			res.yield++

		case dedup.ActionSkip:
			if decision.Reason == dedup.SkipReasonVerified {
				res.verifiedSkipped++
			} else {
				res.skipped++
			}
		}
	}

	if rejected > 0 {
		res.logs = append(res.logs, fmt.Sprintf("page %d: rejected %d degenerate candidates", page, rejected))
	}
	res.logs = append(res.logs, fmt.Sprintf(
		"page %d: %d candidates, %d created, %d updated, %d verified-skipped, %d skipped",
		page, len(candidates), res.created, res.updated, res.verifiedSkipped, res.skipped))
	return res, nil
}

// validCandidate is a pure quality predicate: no side effects, no repairs.
// The schema already enforces structure; this catches degenerate content
// that is syntactically valid.
func validCandidate(c *records.Candidate) bool {
	if len(strings.TrimSpace(c.Stem)) < 10 {
		return false
	}
	options := []string{c.OptionA, c.OptionB, c.OptionC, c.OptionD, c.OptionE}
	seen := make(map[string]struct{}, len(options))
	for _, opt := range options {
		trimmed := strings.ToLower(strings.TrimSpace(opt))
		if trimmed == "" {
			return false
		}
		seen[trimmed] = struct{}{}
	}
	// All five options identical means the model hallucinated a grid.
	if len(seen) == 1 {
		return false
	}
	if len(c.Topics) == 0 {
		return false
	}
	switch c.Correct {
	case "A", "B", "C", "D", "E":
	default:
		return false
	}
	return true
}
