package matcher

import (
	"strings"

	"github.com/bittyscout/bittyscout/internal/model"
)

// Remote work policies accepted in configuration.
const (
	RemoteAny      = "any"
	RemoteOnly     = "remote_only"
	RemoteHybridOK = "hybrid_ok"
)

// KeywordMatcher decides whether a fetched posting is worth storing at all.
// It checks include keywords against title+description, exclude keywords
// against the title, location substrings, and the remote work policy.
// Matching is case-insensitive. Empty keyword lists are treated as "match all".
type KeywordMatcher struct {
	keywords        []string
	excludeKeywords []string
	locations       []string
	remotePolicy    string
}

// NewKeywordMatcher returns a matcher built from the config lists.
// An empty remotePolicy defaults to RemoteAny.
func NewKeywordMatcher(keywords, excludeKeywords, locations []string, remotePolicy string) *KeywordMatcher {
	if remotePolicy == "" {
		remotePolicy = RemoteAny
	}
	return &KeywordMatcher{
		keywords:        keywords,
		excludeKeywords: excludeKeywords,
		locations:       locations,
		remotePolicy:    remotePolicy,
	}
}

// Match returns true if the posting passes all configured gates:
// at least one include keyword in title or description, no exclude keyword
// in the title, a location match, and the remote policy.
func (m *KeywordMatcher) Match(data model.PostingData) bool {
	titleLower := strings.ToLower(data.Title)
	haystack := titleLower + " " + strings.ToLower(data.APIDescription)
	locationLower := strings.ToLower(data.Location)

	for _, kw := range m.excludeKeywords {
		if strings.Contains(titleLower, strings.ToLower(kw)) {
			return false
		}
	}

	if len(m.keywords) > 0 {
		matched := false
		for _, kw := range m.keywords {
			if strings.Contains(haystack, strings.ToLower(kw)) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	if len(m.locations) > 0 {
		matched := false
		for _, loc := range m.locations {
			if strings.Contains(locationLower, strings.ToLower(loc)) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	return m.matchRemote(titleLower, locationLower)
}

// matchRemote applies the remote work policy against the title and location
// text. Boards rarely expose a structured remote flag, so this relies on the
// word appearing in either field.
func (m *KeywordMatcher) matchRemote(titleLower, locationLower string) bool {
	switch m.remotePolicy {
	case RemoteOnly:
		return strings.Contains(titleLower, "remote") || strings.Contains(locationLower, "remote")
	case RemoteHybridOK:
		return strings.Contains(titleLower, "remote") || strings.Contains(locationLower, "remote") ||
			strings.Contains(titleLower, "hybrid") || strings.Contains(locationLower, "hybrid")
	default:
		return true
	}
}
