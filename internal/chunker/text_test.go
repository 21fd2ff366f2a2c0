package chunker

import (
	"errors"
	"strings"
	"testing"
)

func baseMeta() Metadata {
	return Metadata{KeySource: String("handbook.pdf"), KeyPage: Null()}
}

func TestSplit_TwoOverlappingWindows(t *testing.T) {
	text := strings.Repeat("A", 1000)

	chunks, metas, err := Split(text, baseMeta(), 900, 150)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 2 || len(metas) != 2 {
		t.Fatalf("expected 2 chunks, got %d chunks and %d metas", len(chunks), len(metas))
	}
	if chunks[0] != text[0:900] {
		t.Fatalf("first chunk should be chars [0,900), got %d chars", len(chunks[0]))
	}
	if chunks[1] != text[750:1000] {
		t.Fatalf("second chunk should be chars [750,1000), got %d chars", len(chunks[1]))
	}
	for i, md := range metas {
		n, ok := md.Get(KeyChunkID).Number()
		if !ok || int(n) != i+1 {
			t.Fatalf("chunk %d: expected chunk_id %d, got %v", i, i+1, md.Get(KeyChunkID))
		}
		if md.Get(KeySource).String() != "handbook.pdf" {
			t.Fatalf("chunk %d: source not copied, got %q", i, md.Get(KeySource).String())
		}
		if !md.Get(KeyPage).IsNull() {
			t.Fatalf("chunk %d: expected null page", i)
		}
	}
}

func TestSplit_EmptyInput(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t \n"} {
		chunks, metas, err := Split(text, baseMeta(), 900, 150)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(chunks) != 0 || len(metas) != 0 {
			t.Fatalf("expected no chunks for %q, got %d", text, len(chunks))
		}
		if chunks == nil || metas == nil {
			t.Fatalf("expected empty, non-nil sequences for %q", text)
		}
	}
}

func TestSplit_ExactSizeYieldsOneChunk(t *testing.T) {
	text := strings.Repeat("x", 300)

	chunks, _, err := Split(text, baseMeta(), 300, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected exactly 1 chunk, got %d", len(chunks))
	}
}

func TestSplit_WhitespaceWindowIsSkippedWithoutID(t *testing.T) {
	// window 2 = [10,20) is whitespace only
	text := strings.Repeat("a", 10) + strings.Repeat(" ", 10) + strings.Repeat("b", 10)

	chunks, metas, err := Split(text, baseMeta(), 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %q", len(chunks), chunks)
	}
	if chunks[0] != strings.Repeat("a", 10) || chunks[1] != strings.Repeat("b", 10) {
		t.Fatalf("unexpected chunks: %q", chunks)
	}
	if n, _ := metas[1].Get(KeyChunkID).Number(); n != 2 {
		t.Fatalf("expected contiguous chunk ids, second got %v", n)
	}
}

func TestSplit_IDsContiguousAndChunksNonEmpty(t *testing.T) {
	text := strings.Repeat("lorem ipsum dolor sit amet.\n\n   ", 200)

	chunks, metas, err := Split(text, baseMeta(), 97, 13)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range chunks {
		if strings.TrimSpace(chunks[i]) == "" || chunks[i] != strings.TrimSpace(chunks[i]) {
			t.Fatalf("chunk %d is empty or untrimmed: %q", i, chunks[i])
		}
		if n, _ := metas[i].Get(KeyChunkID).Number(); int(n) != i+1 {
			t.Fatalf("chunk %d: expected id %d, got %v", i, i+1, n)
		}
	}
}

func TestSplit_BaseMetadataIsNotShared(t *testing.T) {
	base := baseMeta()

	_, metas, err := Split(strings.Repeat("z", 50), base, 20, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := base[KeyChunkID]; ok {
		t.Fatalf("base metadata must not be mutated")
	}
	metas[0][KeySource] = String("changed")
	if metas[1].Get(KeySource).String() != "handbook.pdf" {
		t.Fatalf("metadata entries must be independent copies")
	}
}

func TestSplit_CountsRunesNotBytes(t *testing.T) {
	text := strings.Repeat("ж", 15)

	chunks, _, err := Split(text, baseMeta(), 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 2 || chunks[0] != strings.Repeat("ж", 10) {
		t.Fatalf("expected windows by character, got %q", chunks)
	}
}

func TestSplit_InvalidParameters(t *testing.T) {
	cases := []struct {
		name          string
		size, overlap int
		want          error
	}{
		{"zero size", 0, 0, ErrInvalidSize},
		{"negative size", -5, 0, ErrInvalidSize},
		{"negative overlap", 10, -1, ErrInvalidOverlap},
		{"overlap equals size", 10, 10, ErrInvalidOverlap},
		{"overlap above size", 10, 11, ErrInvalidOverlap},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Split("text", baseMeta(), tc.size, tc.overlap)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestWindows_TerminationAndCoverage(t *testing.T) {
	for _, tc := range []struct{ n, size, overlap int }{
		{1, 1, 0}, {1000, 900, 150}, {1001, 10, 9}, {57, 7, 3}, {100, 100, 99}, {5, 10, 2},
	} {
		ws := windows(tc.n, tc.size, tc.overlap)

		step := tc.size - tc.overlap
		limit := (tc.n + step - 1) / step
		if len(ws) > limit {
			t.Fatalf("%+v: %d iterations exceeds bound %d", tc, len(ws), limit)
		}
		if ws[0].start != 0 || ws[len(ws)-1].end != tc.n {
			t.Fatalf("%+v: windows do not span the text: %+v", tc, ws)
		}
		for i := 1; i < len(ws); i++ {
			if ws[i].start > ws[i-1].end {
				t.Fatalf("%+v: gap between windows %d and %d", tc, i-1, i)
			}
			if ws[i].start-ws[i-1].start < step {
				t.Fatalf("%+v: cursor advanced less than %d", tc, step)
			}
		}
	}
}

func TestDocumentIDs(t *testing.T) {
	_, metas, err := Split(strings.Repeat("q", 25), baseMeta(), 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ids := DocumentIDs("policy.docx", metas)
	want := []string{"policy.docx-1", "policy.docx-2", "policy.docx-3"}
	if len(ids) != len(want) {
		t.Fatalf("expected %d ids, got %d", len(want), len(ids))
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("id %d: expected %q, got %q", i, want[i], ids[i])
		}
	}
}
