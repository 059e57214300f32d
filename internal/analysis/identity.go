package analysis

import (
	"regexp"
	"sort"
	"strings"

	"github.com/mintesnot-teshome/llm-verify/internal/probe"
)

var modelNamePattern = regexp.MustCompile(
	`(?i)(claude[- ]\d[\w.\-]*|gpt[- ]\d[\w.\-]*|gemini[- ][\w.\-]*|` +
		`llama[- ]\d[\w.\-]*|mistral[\w.\-]*|kimi[\w.\-]*|command[\w.\-]*)`,
)

var cutoffPattern = regexp.MustCompile(
	`(?i)(?:cutoff|knowledge|training)[\s\w]*(?:is|was|in|until|through|up to)?\s*` +
		`((?:january|february|march|april|may|june|july|august|september|october|november|december)` +
		`\s+\d{4}|\d{4}[-/]\d{2}(?:[-/]\d{2})?)`,
)

// ExtractIdentityClaims pulls claimed model names out of identity-suite
// responses. Claims are lowercased, deduplicated, and returned sorted.
func ExtractIdentityClaims(records []probe.Record) []string {
	seen := map[string]bool{}
	for _, r := range records {
		if r.ResponseText == "" || r.PromptCategory != probe.CategoryIdentity {
			continue
		}
		for _, m := range modelNamePattern.FindAllString(r.ResponseText, -1) {
			seen[strings.ToLower(strings.TrimSpace(m))] = true
		}
	}
	claims := make([]string, 0, len(seen))
	for claim := range seen {
		claims = append(claims, claim)
	}
	sort.Strings(claims)
	return claims
}

// ExtractKnowledgeCutoffs pulls training-cutoff dates from any response.
// Duplicates are preserved so consistency checks can count distinct values.
func ExtractKnowledgeCutoffs(records []probe.Record) []string {
	cutoffs := []string{}
	for _, r := range records {
		if r.ResponseText == "" {
			continue
		}
		for _, m := range cutoffPattern.FindAllStringSubmatch(r.ResponseText, -1) {
			cutoffs = append(cutoffs, strings.TrimSpace(m[1]))
		}
	}
	return cutoffs
}

// NamesMatch reports whether a claimed model name plausibly refers to the
// requested one. Names are tokenized on dashes, underscores, and spaces, and
// any shared token counts as a match, so "claude-sonnet-4" matches
// "claude 3.5" via the family name. Inputs are expected lowercase.
func NamesMatch(requested, claimed string) bool {
	requestedTokens := nameTokens(requested)
	claimedTokens := nameTokens(claimed)
	for token := range claimedTokens {
		if requestedTokens[token] {
			return true
		}
	}
	return false
}

func nameTokens(name string) map[string]bool {
	replaced := strings.NewReplacer("-", " ", "_", " ").Replace(name)
	tokens := map[string]bool{}
	for _, part := range strings.Fields(replaced) {
		tokens[part] = true
	}
	return tokens
}
