package classify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/bittyscout/bittyscout/internal/model"
)

// triageExcerptLen bounds the description excerpt sent to the cheap stage.
const triageExcerptLen = 500

// unparseableReason is recorded when deep analysis output yields no valid JSON.
const unparseableReason = "LLM output was not valid JSON."

// Scorer is the scoring client contract the engine depends on. It never
// returns an error; total failure surfaces as the failure sentinel.
type Scorer interface {
	Score(ctx context.Context, prompt, systemPrompt, modelHint string) string
}

// RecordStore is the slice of the store the engine needs.
type RecordStore interface {
	FetchUnclassified(ctx context.Context, limit int) ([]model.JobPosting, error)
	RecordClassification(ctx context.Context, jobURL string, decision model.Decision, score float64, tags []string) error
}

// Engine drains unclassified postings through the two-stage pipeline:
// a cheap triage call gates the expensive deep-analysis call, so full
// analysis only runs on the pre-filtered subset.
type Engine struct {
	store         RecordStore
	scorer        Scorer
	sentinel      string
	triageModel   string
	analysisModel string
	logger        *slog.Logger
}

// NewEngine wires a classification engine. sentinel is the scorer's failure
// marker; any response equal to it is routed to the fail-closed branch.
func NewEngine(store RecordStore, scorer Scorer, sentinel, triageModel, analysisModel string, logger *slog.Logger) *Engine {
	return &Engine{
		store:         store,
		scorer:        scorer,
		sentinel:      sentinel,
		triageModel:   triageModel,
		analysisModel: analysisModel,
		logger:        logger,
	}
}

// Summary aggregates one classification run. Diagnostic only.
type Summary struct {
	Processed    int
	TriagePassed int
	Relevant     int
	Failed       int
}

// Run classifies up to limit unclassified postings, oldest first. A failure
// on one posting is logged and never aborts the rest of the batch. The
// returned Summary counts the postings whose decision was recorded.
func (e *Engine) Run(ctx context.Context, limit int) (Summary, error) {
	var sum Summary

	postings, err := e.store.FetchUnclassified(ctx, limit)
	if err != nil {
		return sum, fmt.Errorf("classification run: %w", err)
	}
	if len(postings) == 0 {
		e.logger.Info("no unclassified postings")
		return sum, nil
	}

	runID := uuid.NewString()
	logger := e.logger.With("run_id", runID)
	logger.Info("classification run starting", "postings", len(postings))

	for _, p := range postings {
		if ctx.Err() != nil {
			return sum, ctx.Err()
		}

		outcome := e.classify(ctx, logger, p)

		err := e.store.RecordClassification(ctx, p.JobURL, outcome.decision, outcome.score, outcome.tags)
		switch {
		case errors.Is(err, model.ErrAlreadyClassified):
			// A concurrent run got there first; its decision stands.
			logger.Debug("posting already classified, skipping", "url", p.JobURL)
			continue
		case err != nil:
			logger.Error("recording classification failed", "url", p.JobURL, "error", err)
			sum.Failed++
			continue
		}

		sum.Processed++
		if outcome.passedTriage {
			sum.TriagePassed++
		}
		if outcome.decision == model.DecisionRelevant {
			sum.Relevant++
		}
	}

	logger.Info("classification run complete",
		"processed", sum.Processed,
		"triage_passed", sum.TriagePassed,
		"relevant", sum.Relevant,
		"failed", sum.Failed,
	)
	return sum, nil
}

type outcome struct {
	decision     model.Decision
	score        float64
	tags         []string
	passedTriage bool
}

// classify runs the per-posting state machine. Every path terminates in a
// decision: scoring failures and malformed output fail closed rather than
// leaving the posting unprocessed or guessing relevant.
func (e *Engine) classify(ctx context.Context, logger *slog.Logger, p model.JobPosting) outcome {
	if !e.runTriage(ctx, p) {
		logger.Debug("triage rejected", "url", p.JobURL, "title", p.Title)
		return outcome{decision: model.DecisionNotRelevant, tags: []string{"non-tech"}}
	}

	res := outcome{passedTriage: true}

	analysis, ok := e.runDeepAnalysis(ctx, logger, p)
	if !ok {
		res.decision = model.DecisionNotRelevant
		return res
	}

	if analysis.IsRelevant {
		res.decision = model.DecisionRelevant
	} else {
		res.decision = model.DecisionNotRelevant
	}
	res.score = analysis.RelevanceScore
	res.tags = analysis.Tags

	logger.Info("posting classified",
		"url", p.JobURL,
		"decision", res.decision.String(),
		"score", res.score,
		"reasoning", analysis.Reasoning,
	)
	return res
}

// runTriage sends title plus a bounded excerpt of the best available
// description to the cheap model. Only the exact word "true"
// (case-insensitive, trimmed) passes; the failure sentinel and anything
// else short-circuits to not-relevant.
func (e *Engine) runTriage(ctx context.Context, p model.JobPosting) bool {
	desc := p.APIDescription
	if desc == "" {
		desc = p.FullDescription
	}
	desc = truncateRunes(desc, triageExcerptLen)

	prompt := fmt.Sprintf("Title: %s\n\nDescription Summary: %s", p.Title, desc)
	resp := e.scorer.Score(ctx, prompt, triagePrompt, e.triageModel)

	return strings.EqualFold(strings.TrimSpace(resp), "true")
}

// truncateRunes bounds s to n characters, cutting on a rune boundary so a
// multi-byte rune at the limit never becomes invalid UTF-8 in the prompt.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// analysisResult is the JSON shape the deep-analysis prompt demands.
type analysisResult struct {
	IsRelevant     bool     `json:"is_relevant"`
	RelevanceScore float64  `json:"relevance_score"`
	Tags           []string `json:"tags"`
	Reasoning      string   `json:"reasoning"`
}

// runDeepAnalysis sends the full description to the capable model and parses
// the response as untrusted text. Returns ok=false for every fail-closed
// case: missing description, sentinel, no extractable JSON, or a parse
// failure.
func (e *Engine) runDeepAnalysis(ctx context.Context, logger *slog.Logger, p model.JobPosting) (analysisResult, bool) {
	if p.FullDescription == "" {
		logger.Debug("no full description, failing closed", "url", p.JobURL)
		return analysisResult{}, false
	}

	resp := e.scorer.Score(ctx, p.FullDescription, deepAnalysisPrompt, e.analysisModel)
	if resp == e.sentinel {
		logger.Warn("scoring unavailable for deep analysis, failing closed", "url", p.JobURL)
		return analysisResult{}, false
	}

	raw := extractJSONObject(resp)
	if raw == "" {
		logger.Warn("no JSON object in deep analysis response, failing closed",
			"url", p.JobURL, "response", resp, "reason", unparseableReason)
		return analysisResult{}, false
	}

	var result analysisResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		logger.Warn("deep analysis JSON did not parse, failing closed",
			"url", p.JobURL, "response", resp, "error", err)
		return analysisResult{}, false
	}

	if result.Reasoning == "" {
		result.Reasoning = "No reasoning provided."
	}
	return result, true
}
