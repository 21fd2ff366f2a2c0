package rag

import (
	"testing"

	"docs_rag/internal/chunker"
)

func TestFormatContexts(t *testing.T) {
	contexts := []RetrievedContext{
		{Text: "Vacation is 25 days.", Meta: chunker.Metadata{
			chunker.KeySource:  chunker.String("hr.pdf"),
			chunker.KeyChunkID: chunker.Int(4),
		}},
		{Text: "Badges are issued at reception.", Meta: chunker.Metadata{
			chunker.KeySource: chunker.String("security.docx"),
		}},
	}

	want := "[1] source=hr.pdf chunk=4\nVacation is 25 days.\n\n" +
		"[2] source=security.docx chunk=2\nBadges are issued at reception."
	if got := FormatContexts(contexts); got != want {
		t.Fatalf("unexpected format:\n%s\nwant:\n%s", got, want)
	}
}

func TestFormatContexts_Empty(t *testing.T) {
	if got := FormatContexts(nil); got != "" {
		t.Fatalf("expected empty string, got %q", got)
	}
}

func TestFormatContexts_MissingSource(t *testing.T) {
	got := FormatContexts([]RetrievedContext{{Text: "x"}})
	if got != "[1] source=unknown chunk=1\nx" {
		t.Fatalf("unexpected format: %q", got)
	}
}
