package classify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/bittyscout/bittyscout/internal/model"
	"github.com/bittyscout/bittyscout/internal/scoring"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// scriptedScorer answers triage and analysis calls from canned responses,
// keyed by which system prompt it receives.
type scriptedScorer struct {
	triageResponse   string
	analysisResponse string
	triageCalls      int
	analysisCalls    int
	lastTriagePrompt string
}

func (s *scriptedScorer) Score(_ context.Context, prompt, systemPrompt, _ string) string {
	if systemPrompt == triagePrompt {
		s.triageCalls++
		s.lastTriagePrompt = prompt
		return s.triageResponse
	}
	s.analysisCalls++
	return s.analysisResponse
}

// memStore is an in-memory RecordStore with at-most-once semantics.
type memStore struct {
	postings []model.JobPosting
	recorded map[string]recordedDecision
}

type recordedDecision struct {
	decision model.Decision
	score    float64
	tags     []string
}

func newMemStore(postings ...model.JobPosting) *memStore {
	return &memStore{postings: postings, recorded: map[string]recordedDecision{}}
}

func (m *memStore) FetchUnclassified(_ context.Context, limit int) ([]model.JobPosting, error) {
	var out []model.JobPosting
	for _, p := range m.postings {
		if _, done := m.recorded[p.JobURL]; !done {
			out = append(out, p)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *memStore) RecordClassification(_ context.Context, jobURL string, decision model.Decision, score float64, tags []string) error {
	if _, done := m.recorded[jobURL]; done {
		return fmt.Errorf("classifying %s: %w", jobURL, model.ErrAlreadyClassified)
	}
	m.recorded[jobURL] = recordedDecision{decision: decision, score: score, tags: tags}
	return nil
}

func posting(url, title, apiDesc, fullDesc string) model.JobPosting {
	return model.JobPosting{JobURL: url, Title: title, APIDescription: apiDesc, FullDescription: fullDesc}
}

func newTestEngine(store RecordStore, scorer Scorer) *Engine {
	return NewEngine(store, scorer, scoring.FailureSentinel, "triage-model", "analysis-model", discardLogger())
}

func TestTriageRejectShortCircuits(t *testing.T) {
	store := newMemStore(posting("https://x/1", "Office Manager", "run the office", "full text"))
	scorer := &scriptedScorer{triageResponse: "False"}

	sum, err := newTestEngine(store, scorer).Run(context.Background(), 0)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if scorer.analysisCalls != 0 {
		t.Fatalf("deep analysis must never run after triage rejection, got %d calls", scorer.analysisCalls)
	}
	rec := store.recorded["https://x/1"]
	if rec.decision != model.DecisionNotRelevant || rec.score != 0 {
		t.Errorf("expected not-relevant/0, got %v/%v", rec.decision, rec.score)
	}
	if len(rec.tags) != 1 || rec.tags[0] != "non-tech" {
		t.Errorf("expected tags [non-tech], got %v", rec.tags)
	}
	if sum.Processed != 1 || sum.TriagePassed != 0 || sum.Relevant != 0 {
		t.Errorf("unexpected summary %+v", sum)
	}
}

func TestTriageRequiresExactTrue(t *testing.T) {
	for _, resp := range []string{"yes", "TRUE!", "true, it is technical", scoring.FailureSentinel, ""} {
		store := newMemStore(posting("https://x/1", "Engineer", "d", "full"))
		scorer := &scriptedScorer{triageResponse: resp}

		if _, err := newTestEngine(store, scorer).Run(context.Background(), 0); err != nil {
			t.Fatalf("Run(%q): %v", resp, err)
		}
		if scorer.analysisCalls != 0 {
			t.Errorf("triage response %q must not pass", resp)
		}
	}

	// Case-insensitive, surrounding whitespace tolerated.
	for _, resp := range []string{"true", "True", " TRUE \n"} {
		store := newMemStore(posting("https://x/1", "Engineer", "d", "full"))
		scorer := &scriptedScorer{triageResponse: resp, analysisResponse: `{"is_relevant": false, "relevance_score": 0.1, "tags": [], "reasoning": "meh"}`}

		if _, err := newTestEngine(store, scorer).Run(context.Background(), 0); err != nil {
			t.Fatalf("Run(%q): %v", resp, err)
		}
		if scorer.analysisCalls != 1 {
			t.Errorf("triage response %q must pass to deep analysis", resp)
		}
	}
}

func TestTriageExcerptIsBounded(t *testing.T) {
	longDesc := strings.Repeat("x", 2000)
	store := newMemStore(posting("https://x/1", "Engineer", longDesc, "full"))
	scorer := &scriptedScorer{triageResponse: "false"}

	if _, err := newTestEngine(store, scorer).Run(context.Background(), 0); err != nil {
		t.Fatalf("Run: %v", err)
	}
	// Prompt holds title + prefix; the excerpt itself is capped at 500.
	if len(scorer.lastTriagePrompt) > triageExcerptLen+100 {
		t.Errorf("triage prompt too long: %d chars", len(scorer.lastTriagePrompt))
	}
}

func TestTriageExcerptCutsOnRuneBoundary(t *testing.T) {
	// Multi-byte runes around the cap must never be split into invalid UTF-8.
	longDesc := strings.Repeat("é", 600)
	store := newMemStore(posting("https://x/1", "Engineer", longDesc, "full"))
	scorer := &scriptedScorer{triageResponse: "false"}

	if _, err := newTestEngine(store, scorer).Run(context.Background(), 0); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !utf8.ValidString(scorer.lastTriagePrompt) {
		t.Error("triage prompt contains invalid UTF-8")
	}
	if got := utf8.RuneCountInString(scorer.lastTriagePrompt); got > triageExcerptLen+100 {
		t.Errorf("triage excerpt not capped at %d characters: prompt has %d runes", triageExcerptLen, got)
	}
}

func TestTruncateRunes(t *testing.T) {
	if got := truncateRunes("héllo", 3); got != "hél" {
		t.Errorf("truncateRunes = %q, want %q", got, "hél")
	}
	if got := truncateRunes("short", 10); got != "short" {
		t.Errorf("truncateRunes should pass short input through, got %q", got)
	}
}

func TestDeepAnalysisRelevant(t *testing.T) {
	store := newMemStore(posting("https://x/1", "ML Engineer", "short", "full description text"))
	scorer := &scriptedScorer{
		triageResponse:   "true",
		analysisResponse: "```json\n{\"is_relevant\": true, \"relevance_score\": 0.87, \"tags\": [\"ml\", \"golang\"], \"reasoning\": \"strong fit\"}\n```",
	}

	sum, err := newTestEngine(store, scorer).Run(context.Background(), 0)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	rec := store.recorded["https://x/1"]
	if rec.decision != model.DecisionRelevant {
		t.Errorf("decision = %v", rec.decision)
	}
	if rec.score != 0.87 {
		t.Errorf("score = %v", rec.score)
	}
	if len(rec.tags) != 2 {
		t.Errorf("tags = %v", rec.tags)
	}
	if sum.TriagePassed != 1 || sum.Relevant != 1 {
		t.Errorf("summary = %+v", sum)
	}
}

func TestDeepAnalysisFailsClosedOnGarbage(t *testing.T) {
	for _, resp := range []string{
		"I think this job is great for you!",
		`{"is_relevant": true, "relevance_score": `, // truncated
		scoring.FailureSentinel,
	} {
		store := newMemStore(posting("https://x/1", "Engineer", "short", "full text"))
		scorer := &scriptedScorer{triageResponse: "true", analysisResponse: resp}

		if _, err := newTestEngine(store, scorer).Run(context.Background(), 0); err != nil {
			t.Fatalf("Run: %v", err)
		}
		rec := store.recorded["https://x/1"]
		if rec.decision != model.DecisionNotRelevant || rec.score != 0 || len(rec.tags) != 0 {
			t.Errorf("response %q: expected fail-closed outcome, got %+v", resp, rec)
		}
	}
}

func TestDeepAnalysisFailsClosedOnMissingDescription(t *testing.T) {
	store := newMemStore(posting("https://x/1", "Engineer", "api summary only", ""))
	scorer := &scriptedScorer{triageResponse: "true", analysisResponse: `{"is_relevant": true, "relevance_score": 1, "tags": [], "reasoning": "r"}`}

	if _, err := newTestEngine(store, scorer).Run(context.Background(), 0); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if scorer.analysisCalls != 0 {
		t.Errorf("deep analysis must not be called without a full description")
	}
	rec := store.recorded["https://x/1"]
	if rec.decision != model.DecisionNotRelevant || len(rec.tags) != 0 {
		t.Errorf("expected fail-closed outcome, got %+v", rec)
	}
}

func TestRunIsIdempotentPerPosting(t *testing.T) {
	store := newMemStore(posting("https://x/1", "Engineer", "d", "full"))
	scorer := &scriptedScorer{triageResponse: "true", analysisResponse: `{"is_relevant": true, "relevance_score": 0.9, "tags": ["go"], "reasoning": "r"}`}
	engine := newTestEngine(store, scorer)

	if _, err := engine.Run(context.Background(), 0); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	first := store.recorded["https://x/1"]

	// Second run sees no unclassified postings and changes nothing.
	sum, err := engine.Run(context.Background(), 0)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if sum.Processed != 0 {
		t.Errorf("second run processed %d postings", sum.Processed)
	}
	if got := store.recorded["https://x/1"]; got.decision != first.decision || got.score != first.score {
		t.Errorf("decision changed across runs: %+v -> %+v", first, got)
	}
}

func TestRunBatchIsolation(t *testing.T) {
	// failingStore errors when recording the first URL but works for the rest.
	store := newMemStore(
		posting("https://x/1", "Engineer A", "d", "full"),
		posting("https://x/2", "Engineer B", "d", "full"),
	)
	failing := &failingRecordStore{memStore: store, failURL: "https://x/1"}
	scorer := &scriptedScorer{triageResponse: "false"}

	sum, err := newTestEngine(failing, scorer).Run(context.Background(), 0)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Failed != 1 || sum.Processed != 1 {
		t.Errorf("expected 1 failed, 1 processed; got %+v", sum)
	}
	if _, ok := store.recorded["https://x/2"]; !ok {
		t.Error("failure on first posting aborted the batch")
	}
}

type failingRecordStore struct {
	*memStore
	failURL string
}

func (f *failingRecordStore) RecordClassification(ctx context.Context, jobURL string, d model.Decision, s float64, tags []string) error {
	if jobURL == f.failURL {
		return fmt.Errorf("disk full")
	}
	return f.memStore.RecordClassification(ctx, jobURL, d, s, tags)
}

func TestRunRespectsLimit(t *testing.T) {
	store := newMemStore(
		posting("https://x/1", "A", "d", "f"),
		posting("https://x/2", "B", "d", "f"),
		posting("https://x/3", "C", "d", "f"),
	)
	scorer := &scriptedScorer{triageResponse: "false"}

	sum, err := newTestEngine(store, scorer).Run(context.Background(), 2)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Processed != 2 {
		t.Errorf("expected limit of 2, processed %d", sum.Processed)
	}
}
