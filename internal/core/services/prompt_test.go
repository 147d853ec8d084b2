package services

import (
	"strings"
	"testing"

	"github.com/creditrust-labs/trustline-cli/internal/core/domain"
)

func TestAssemblePrompt(t *testing.T) {
	result := sampleResult()
	prompt := AssemblePrompt("Why do late fees repeat?", result)

	if !strings.Contains(prompt, domain.RefusalText) {
		t.Error("prompt must instruct the model to use the exact refusal text")
	}
	if !strings.HasSuffix(prompt, "Question: Why do late fees repeat?\nAnswer:") {
		t.Errorf("prompt does not end with the question and answer cue:\n%s", prompt)
	}

	// Sources are numbered in retrieval order with document and span.
	first := strings.Index(prompt, `[source 1: complaint c-100, product "Credit card", chars 0-52]`)
	second := strings.Index(prompt, `[source 2: complaint c-200, product "Credit card", chars 40-98]`)
	if first < 0 || second < 0 {
		t.Fatalf("source headers missing or malformed:\n%s", prompt)
	}
	if first > second {
		t.Error("sources rendered out of retrieval order")
	}
	for _, sc := range result {
		if !strings.Contains(prompt, sc.Chunk.Text) {
			t.Errorf("prompt missing chunk text %q", sc.Chunk.Text)
		}
	}
}

func TestAssemblePrompt_OmitsEmptyProduct(t *testing.T) {
	result := domain.RetrievalResult{
		{Chunk: domain.Chunk{ID: "chunk-1", DocumentID: "c-300", Text: "text", Span: domain.Span{Start: 0, End: 4}}},
	}
	prompt := AssemblePrompt("q", result)

	if strings.Contains(prompt, "product") {
		t.Errorf("prompt should omit the product label when unset:\n%s", prompt)
	}
	if !strings.Contains(prompt, "[source 1: complaint c-300, chars 0-4]") {
		t.Errorf("source header malformed:\n%s", prompt)
	}
}

func TestAssemblePrompt_Deterministic(t *testing.T) {
	result := sampleResult()
	a := AssemblePrompt("same question", result)
	b := AssemblePrompt("same question", result)
	if a != b {
		t.Error("prompt assembly is not deterministic")
	}
}
