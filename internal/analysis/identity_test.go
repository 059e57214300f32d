package analysis

import (
	"reflect"
	"testing"

	"github.com/mintesnot-teshome/llm-verify/internal/probe"
)

func identityRecord(text string) probe.Record {
	r := textRecord(text)
	r.PromptCategory = probe.CategoryIdentity
	return r
}

func TestExtractIdentityClaims(t *testing.T) {
	records := []probe.Record{
		identityRecord("I am Claude 3.5 Sonnet, made by Anthropic."),
		identityRecord("My model name is claude-3-5-sonnet-20241022."),
		identityRecord("I'm GPT-4o, an OpenAI model."),
	}
	got := ExtractIdentityClaims(records)
	want := []string{"claude 3.5", "claude-3-5-sonnet-20241022.", "gpt-4o"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("claims = %v, want %v", got, want)
	}
}

func TestExtractIdentityClaimsSkipsOtherCategories(t *testing.T) {
	capability := textRecord("Use claude-3 for this.")
	capability.PromptCategory = probe.CategoryCapability
	if got := ExtractIdentityClaims([]probe.Record{capability}); len(got) != 0 {
		t.Fatalf("claims = %v, want none from non-identity prompts", got)
	}
}

func TestExtractIdentityClaimsDeduplicates(t *testing.T) {
	records := []probe.Record{
		identityRecord("I am GPT-4."),
		identityRecord("As stated, I am gpt-4."),
	}
	got := ExtractIdentityClaims(records)
	if len(got) != 1 || got[0] != "gpt-4." {
		t.Fatalf("claims = %v", got)
	}
}

func TestExtractKnowledgeCutoffs(t *testing.T) {
	records := []probe.Record{
		identityRecord("My knowledge cutoff is April 2024."),
		identityRecord("Training data goes up to 2023-10."),
		textRecord("No cutoff mentioned here, just text."),
	}
	got := ExtractKnowledgeCutoffs(records)
	want := []string{"April 2024", "2023-10"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("cutoffs = %v, want %v", got, want)
	}
}

func TestExtractKnowledgeCutoffsKeepsDuplicates(t *testing.T) {
	records := []probe.Record{
		identityRecord("knowledge cutoff is April 2024"),
		identityRecord("my training cutoff was April 2024"),
	}
	if got := ExtractKnowledgeCutoffs(records); len(got) != 2 {
		t.Fatalf("cutoffs = %v, want both occurrences kept", got)
	}
}

func TestNamesMatch(t *testing.T) {
	cases := []struct {
		requested string
		claimed   string
		want      bool
	}{
		{"claude-sonnet-4", "claude 3.5", true},
		{"gpt-4o", "gpt 4o", true},
		{"llama_3_70b", "llama_3", true},
		{"claude-sonnet-4", "gpt-3.5", false},
		// Token overlap is deliberately loose: a shared version token
		// matches even across families.
		{"claude-sonnet-4", "gpt-4", true},
	}
	for _, tc := range cases {
		if got := NamesMatch(tc.requested, tc.claimed); got != tc.want {
			t.Errorf("NamesMatch(%q, %q) = %v, want %v", tc.requested, tc.claimed, got, tc.want)
		}
	}
}
