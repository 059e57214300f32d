package analysis

import (
	"testing"

	"github.com/mintesnot-teshome/llm-verify/internal/probe"
)

func floatPtr(v float64) *float64 { return &v }

func intPtr(v int) *int { return &v }

func textRecord(text string) probe.Record {
	return probe.Record{
		ID:             "r1",
		RunID:          "run1",
		ModelName:      "claude-sonnet-4",
		Provider:       "anthropic",
		PromptCategory: probe.CategoryFingerprint,
		PromptText:     "p",
		ResponseText:   text,
	}
}

func TestGenerateFingerprintNoValidRecords(t *testing.T) {
	fp := GenerateFingerprint(nil)
	if fp.Error != "No valid results to fingerprint" {
		t.Fatalf("error marker = %q", fp.Error)
	}
	if fp.Style != nil || fp.Vocabulary != nil || fp.Structure != nil || fp.Metadata != nil {
		t.Fatal("error fingerprint must not carry metric sections")
	}

	failed := textRecord("partial output")
	failed.ErrorMessage = "timeout"
	empty := textRecord("")
	fp = GenerateFingerprint([]probe.Record{failed, empty})
	if fp.Error == "" {
		t.Fatal("expected error marker when no record is valid")
	}
}

func TestGenerateFingerprintStyle(t *testing.T) {
	records := []probe.Record{
		textRecord("# Title\n- one\n- two"),
		textRecord("plain answer here"),
	}
	fp := GenerateFingerprint(records)
	if fp.Error != "" {
		t.Fatalf("unexpected error marker %q", fp.Error)
	}
	style := fp.Style
	if got := style["min_length"]; got != 17 {
		t.Fatalf("min_length = %v", got)
	}
	if got := style["max_length"]; got != 19 {
		t.Fatalf("max_length = %v", got)
	}
	if got := style["avg_char_length"]; got != 18 {
		t.Fatalf("avg_char_length = %v", got)
	}
	if got := style["uses_markdown"]; got != 0.5 {
		t.Fatalf("uses_markdown = %v", got)
	}
	if got := style["uses_bullet_lists"]; got != 0.5 {
		t.Fatalf("uses_bullet_lists = %v", got)
	}
	if got := style["uses_code_blocks"]; got != 0 {
		t.Fatalf("uses_code_blocks = %v", got)
	}
}

func TestGenerateFingerprintSkipsInvalidRecords(t *testing.T) {
	failed := textRecord("should not count")
	failed.ErrorMessage = "rate limited"
	records := []probe.Record{textRecord("hello world"), failed}

	fp := GenerateFingerprint(records)
	if fp.Metadata.TotalResults != 1 {
		t.Fatalf("total_results = %d, want 1", fp.Metadata.TotalResults)
	}
	if fp.Metadata.ErrorCount != 0 {
		t.Fatalf("error_count = %d, want 0", fp.Metadata.ErrorCount)
	}
}

func TestGenerateFingerprintVocabulary(t *testing.T) {
	records := []probe.Record{
		textRecord("The cat sat. The cat ran."),
		textRecord("Perhaps the dog might bark."),
	}
	fp := GenerateFingerprint(records)
	voc := fp.Vocabulary
	if voc.TotalWords != 11 {
		t.Fatalf("total_words = %d", voc.TotalWords)
	}
	if voc.UniqueWords != 8 {
		t.Fatalf("unique_words = %d", voc.UniqueWords)
	}
	if voc.UniqueRatio != round4(8.0/11.0) {
		t.Fatalf("unique_ratio = %v", voc.UniqueRatio)
	}
	if len(voc.Top20Words) != 8 {
		t.Fatalf("top words length = %d", len(voc.Top20Words))
	}
	if voc.Top20Words[0].Word != "the" || voc.Top20Words[0].Count != 3 {
		t.Fatalf("top word = %+v", voc.Top20Words[0])
	}
	// Ties keep first-occurrence order.
	if voc.Top20Words[1].Word != "cat" || voc.Top20Words[1].Count != 2 {
		t.Fatalf("second word = %+v", voc.Top20Words[1])
	}
	if voc.HedgingRatio != 0.5 {
		t.Fatalf("hedging_ratio = %v", voc.HedgingRatio)
	}
	if voc.ConfidenceRatio != 0 {
		t.Fatalf("confidence_ratio = %v", voc.ConfidenceRatio)
	}
}

func TestGenerateFingerprintStructure(t *testing.T) {
	records := []probe.Record{
		textRecord("Hello! First paragraph.\n\nSecond paragraph.\nHope this helps."),
		textRecord("Just one line."),
	}
	fp := GenerateFingerprint(records)
	structure := fp.Structure
	if got := structure["avg_paragraph_count"]; got != 1.5 {
		t.Fatalf("avg_paragraph_count = %v", got)
	}
	if got := structure["avg_line_count"]; got != 2 {
		t.Fatalf("avg_line_count = %v", got)
	}
	if got := structure["starts_with_greeting_ratio"]; got != 0.5 {
		t.Fatalf("starts_with_greeting_ratio = %v", got)
	}
	if got := structure["ends_with_offer_ratio"]; got != 0.5 {
		t.Fatalf("ends_with_offer_ratio = %v", got)
	}
}

func TestGenerateFingerprintMetadata(t *testing.T) {
	a := textRecord("first")
	a.LatencyMS = floatPtr(100)
	a.TotalTokens = intPtr(30)
	b := textRecord("second")
	b.LatencyMS = floatPtr(301)
	c := textRecord("third")

	fp := GenerateFingerprint([]probe.Record{a, b, c})
	meta := fp.Metadata
	if meta.TotalResults != 3 {
		t.Fatalf("total_results = %d", meta.TotalResults)
	}
	if meta.AvgLatencyMS == nil || *meta.AvgLatencyMS != 200.5 {
		t.Fatalf("avg_latency_ms = %v", meta.AvgLatencyMS)
	}
	if meta.AvgTokens == nil || *meta.AvgTokens != 30 {
		t.Fatalf("avg_tokens = %v", meta.AvgTokens)
	}

	fp = GenerateFingerprint([]probe.Record{textRecord("no timings")})
	if fp.Metadata.AvgLatencyMS != nil || fp.Metadata.AvgTokens != nil {
		t.Fatal("averages must be nil when no record carries the value")
	}
}
