package analysis

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/mintesnot-teshome/llm-verify/internal/probe"
)

// Style/structure patterns kept as data so new indicators can be added
// without touching the extraction loop.
var (
	markdownPattern     = regexp.MustCompile("[#*`\\-|]")
	bulletListPattern   = regexp.MustCompile(`(?m)^[\s]*[-*•]`)
	numberedListPattern = regexp.MustCompile(`(?m)^[\s]*\d+[.)]\s`)
	codeBlockPattern    = regexp.MustCompile("```")
	greetingPattern     = regexp.MustCompile(`^(Hi|Hello|Hey|Sure|Of course|Great|Certainly)`)
	offerPattern        = regexp.MustCompile(`(?i)(let me know|feel free|happy to help|hope this helps|any questions)\s*[.!?]?\s*$`)
	wordPattern         = regexp.MustCompile(`\b[a-zA-Z]+\b`)
)

var hedgingPhrases = []string{"perhaps", "maybe", "might", "could be", "it's possible", "arguably"}

var confidencePhrases = []string{"certainly", "definitely", "absolutely", "clearly", "obviously"}

// GenerateFingerprint derives a behavioral fingerprint from one model's probe
// records. Records with an error or an empty response are excluded up front;
// if nothing survives the filter the error-marker form is returned instead of
// the four metric sections.
func GenerateFingerprint(records []probe.Record) Fingerprint {
	valid := make([]probe.Record, 0, len(records))
	for _, r := range records {
		if r.IsValid() {
			valid = append(valid, r)
		}
	}
	if len(valid) == 0 {
		return Fingerprint{Error: "No valid results to fingerprint"}
	}
	return Fingerprint{
		Style:      analyzeStyle(valid),
		Vocabulary: analyzeVocabulary(valid),
		Structure:  analyzeStructure(valid),
		Metadata:   analyzeMetadata(valid),
	}
}

func analyzeStyle(records []probe.Record) map[string]float64 {
	lengths := make([]float64, 0, len(records))
	wordCounts := make([]float64, 0, len(records))
	minLength, maxLength := 0.0, 0.0
	for i, r := range records {
		length := float64(utf8.RuneCountInString(r.ResponseText))
		lengths = append(lengths, length)
		wordCounts = append(wordCounts, float64(len(strings.Fields(r.ResponseText))))
		if i == 0 || length < minLength {
			minLength = length
		}
		if length > maxLength {
			maxLength = length
		}
	}
	return map[string]float64{
		"avg_char_length":    mean(lengths),
		"avg_word_count":     mean(wordCounts),
		"min_length":         minLength,
		"max_length":         maxLength,
		"uses_markdown":      ratioMatching(records, markdownPattern),
		"uses_bullet_lists":  ratioMatching(records, bulletListPattern),
		"uses_numbered_lists": ratioMatching(records, numberedListPattern),
		"uses_code_blocks":   ratioMatching(records, codeBlockPattern),
	}
}

func analyzeVocabulary(records []probe.Record) *Vocabulary {
	counts := map[string]int{}
	order := []string{}
	total := 0
	for _, r := range records {
		for _, word := range wordPattern.FindAllString(strings.ToLower(r.ResponseText), -1) {
			if _, seen := counts[word]; !seen {
				order = append(order, word)
			}
			counts[word]++
			total++
		}
	}
	// Most frequent first; ties keep first-occurrence order, so the result is
	// deterministic regardless of map iteration.
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	topN := len(order)
	if topN > 20 {
		topN = 20
	}
	top := make([]WordCount, 0, topN)
	for _, word := range order[:topN] {
		top = append(top, WordCount{Word: word, Count: counts[word]})
	}

	uniqueRatio := float64(len(counts)) / float64(maxInt(total, 1))
	return &Vocabulary{
		TotalWords:      total,
		UniqueWords:     len(counts),
		UniqueRatio:     round4(uniqueRatio),
		Top20Words:      top,
		HedgingRatio:    ratioContaining(records, hedgingPhrases),
		ConfidenceRatio: ratioContaining(records, confidencePhrases),
	}
}

func analyzeStructure(records []probe.Record) map[string]float64 {
	paragraphs := make([]float64, 0, len(records))
	lines := make([]float64, 0, len(records))
	for _, r := range records {
		paragraphs = append(paragraphs, float64(strings.Count(r.ResponseText, "\n\n")+1))
		lines = append(lines, float64(strings.Count(r.ResponseText, "\n")+1))
	}
	return map[string]float64{
		"avg_paragraph_count":        mean(paragraphs),
		"avg_line_count":             mean(lines),
		"starts_with_greeting_ratio": ratioMatching(records, greetingPattern),
		"ends_with_offer_ratio":      ratioMatching(records, offerPattern),
	}
}

func analyzeMetadata(records []probe.Record) *Metadata {
	latencies := []float64{}
	tokens := []float64{}
	errorCount := 0
	for _, r := range records {
		if r.LatencyMS != nil {
			latencies = append(latencies, *r.LatencyMS)
		}
		if r.TotalTokens != nil {
			tokens = append(tokens, float64(*r.TotalTokens))
		}
		// Counted over the filtered input, where records carry no error.
		if r.IsError() {
			errorCount++
		}
	}
	meta := &Metadata{
		TotalResults: len(records),
		ErrorCount:   errorCount,
	}
	if len(latencies) > 0 {
		avg := mean(latencies)
		meta.AvgLatencyMS = &avg
	}
	if len(tokens) > 0 {
		avg := mean(tokens)
		meta.AvgTokens = &avg
	}
	return meta
}

// ratioMatching is the fraction of records whose response matches the
// pattern, rounded to 4 decimals.
func ratioMatching(records []probe.Record, pattern *regexp.Regexp) float64 {
	matches := 0
	for _, r := range records {
		if pattern.MatchString(r.ResponseText) {
			matches++
		}
	}
	return round4(float64(matches) / float64(maxInt(len(records), 1)))
}

// ratioContaining is the fraction of records containing at least one of the
// phrases, case-insensitively.
func ratioContaining(records []probe.Record, phrases []string) float64 {
	matches := 0
	for _, r := range records {
		lower := strings.ToLower(r.ResponseText)
		for _, phrase := range phrases {
			if strings.Contains(lower, phrase) {
				matches++
				break
			}
		}
	}
	return round4(float64(matches) / float64(maxInt(len(records), 1)))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
