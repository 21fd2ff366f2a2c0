package rag

import (
	"fmt"
	"strings"

	"docs_rag/internal/chunker"
)

// FormatContexts renders contexts as numbered, labelled blocks separated by
// a blank line:
//
//	[1] source=handbook.pdf chunk=4
//	<text>
func FormatContexts(contexts []RetrievedContext) string {
	var buf strings.Builder
	for i, c := range contexts {
		if i > 0 {
			buf.WriteString("\n\n")
		}
		fmt.Fprintf(&buf, "[%d] source=%s chunk=%s\n", i+1, sourceLabel(c.Meta), chunkLabel(c.Meta, i+1))
		buf.WriteString(c.Text)
	}
	return buf.String()
}

func sourceLabel(md chunker.Metadata) string {
	if s := md.Get(chunker.KeySource); !s.IsNull() && s.String() != "" {
		return s.String()
	}
	return "unknown"
}

func chunkLabel(md chunker.Metadata, index int) string {
	if id := md.Get(chunker.KeyChunkID); !id.IsNull() && id.String() != "" {
		return id.String()
	}
	return fmt.Sprintf("%d", index)
}
