package review

import (
	"testing"

	"github.com/bittyscout/bittyscout/internal/model"
)

func TestSplitByDecision(t *testing.T) {
	postings := []model.JobPosting{
		{JobURL: "a", Decision: model.DecisionRelevant, Score: 0.4},
		{JobURL: "b", Decision: model.DecisionNotRelevant, Score: 0.9},
		{JobURL: "c", Decision: model.DecisionRelevant, Score: 0.8},
		{JobURL: "d", Decision: model.DecisionNotRelevant, Score: 0.1},
	}

	relevant, rejected := splitByDecision(postings)

	if len(relevant) != 2 || len(rejected) != 2 {
		t.Fatalf("expected 2+2 split, got %d+%d", len(relevant), len(rejected))
	}
	if relevant[0].JobURL != "c" || relevant[1].JobURL != "a" {
		t.Errorf("relevant not sorted by score desc: %v, %v", relevant[0].JobURL, relevant[1].JobURL)
	}
	if rejected[0].JobURL != "b" || rejected[1].JobURL != "d" {
		t.Errorf("rejected not sorted by score desc: %v, %v", rejected[0].JobURL, rejected[1].JobURL)
	}
}

func TestWordWrap(t *testing.T) {
	got := wordWrap("one two three four", 9)
	want := "one two\nthree\nfour"
	if got != want {
		t.Errorf("wordWrap() = %q, want %q", got, want)
	}
	if wordWrap("", 10) != "" {
		t.Error("expected empty string for empty input")
	}
}
