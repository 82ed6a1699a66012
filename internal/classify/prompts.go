package classify

import (
	_ "embed"
)

// System prompts for the two stages, loaded once at init.
// The triage prompt demands a bare true/false word; the analysis prompt
// demands a strict JSON object (though responses are still treated as
// untrusted text and parsed defensively).

//go:embed prompts/triage.md
var triagePrompt string

//go:embed prompts/deep_analysis.md
var deepAnalysisPrompt string
