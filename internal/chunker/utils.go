package chunker

import (
	"fmt"
)

// DocumentIDs builds storage ids for a document's chunks: "<name>-<chunk_id>".
func DocumentIDs(name string, metas []Metadata) []string {
	ids := make([]string, len(metas))
	for i, md := range metas {
		n, ok := md.Get(KeyChunkID).Number()
		if !ok {
			n = float64(i + 1)
		}
		ids[i] = fmt.Sprintf("%s-%d", name, int(n))
	}
	return ids
}

// GetFirstNChars возвращает первые N символов строки
func GetFirstNChars(text string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n])
}
