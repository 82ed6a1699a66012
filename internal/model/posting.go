package model

import (
	"context"
	"sort"
	"time"
)

// Decision is the tri-state relevance outcome for a posting.
// A posting starts Unknown and moves to NotRelevant or Relevant exactly once.
type Decision int

const (
	DecisionUnknown Decision = iota
	DecisionNotRelevant
	DecisionRelevant
)

// String returns the human-readable form used in logs and the review UI.
func (d Decision) String() string {
	switch d {
	case DecisionNotRelevant:
		return "not-relevant"
	case DecisionRelevant:
		return "relevant"
	default:
		return "unknown"
	}
}

// JobPosting is the persisted representation of a single job listing,
// uniquely identified by its URL.
type JobPosting struct {
	JobURL          string
	PlatformSource  string // board name, e.g. "greenhouse"
	PlatformJobID   string // board-local ID, may be empty
	CompanyName     string
	Title           string
	Location        string
	Department      string
	DatePosted      string // raw posted-on string from the platform
	APIDescription  string // short summary from the board API
	FullDescription string // full text body, may be empty
	FirstFetched    time.Time
	LastSeen        time.Time
	NotifiedAt      *time.Time // nil until the digest containing this posting is delivered
	Decision        Decision
	Score           float64
	Tags            []string // sorted; only meaningful once Decision is known
}

// PostingData is the normalized shape a source adapter hands to the store's
// Upsert. JobURL and Title are required; everything else is optional.
type PostingData struct {
	JobURL          string
	PlatformSource  string
	PlatformJobID   string
	CompanyName     string
	Title           string
	Location        string
	Department      string
	DatePosted      string
	APIDescription  string
	FullDescription string
}

// SortTags sorts a tag set in place for stable display and storage.
func SortTags(tags []string) {
	sort.Strings(tags)
}

// Source fetches raw postings from one job board and normalizes them.
type Source interface {
	Platform() string
	FetchPostings(ctx context.Context) ([]PostingData, error)
}

// Digest is one notification batch: relevant, not-yet-notified postings
// ordered by score descending then recency descending.
type Digest struct {
	Date     time.Time
	Postings []JobPosting
}

// Notifier delivers a digest over one channel (console, webhook, email).
type Notifier interface {
	Deliver(ctx context.Context, d Digest) error
}
