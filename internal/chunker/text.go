package chunker

import (
	"strings"
)

// TextChunker разбивает текст на окна фиксированного размера с overlap.
// Границы окон определяются только смещениями в символах.
type TextChunker struct {
	config Config
}

// NewTextChunker создаёт chunker, проверяя параметры
func NewTextChunker(config Config) (*TextChunker, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &TextChunker{config: config}, nil
}

func (s *TextChunker) Name() string {
	return "simple"
}

// Chunk возвращает выровненные по индексу тексты чанков и их метаданные.
// Каждая запись метаданных это копия base с добавленным chunk_id (с 1).
func (s *TextChunker) Chunk(text string, base Metadata) ([]string, []Metadata) {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 {
		return []string{}, []Metadata{}
	}

	chunks := make([]string, 0, len(runes)/(s.config.Size-s.config.Overlap)+1)
	metas := make([]Metadata, 0, cap(chunks))
	chunkID := 1

	for _, w := range windows(len(runes), s.config.Size, s.config.Overlap) {
		chunk := strings.TrimSpace(string(runes[w.start:w.end]))
		// Пустое окно пропускаем, id не расходуется
		if chunk == "" {
			continue
		}

		md := base.Clone()
		md[KeyChunkID] = Int(chunkID)
		chunks = append(chunks, chunk)
		metas = append(metas, md)
		chunkID++
	}

	return chunks, metas
}

// Split is the one-shot form of NewTextChunker(...).Chunk(...).
func Split(text string, base Metadata, size, overlap int) ([]string, []Metadata, error) {
	c, err := NewTextChunker(Config{Size: size, Overlap: overlap})
	if err != nil {
		return nil, nil, err
	}
	chunks, metas := c.Chunk(text, base)
	return chunks, metas, nil
}

type window struct {
	start, end int
}

// windows перечисляет окна [start, end) по тексту длины n
func windows(n, size, overlap int) []window {
	var out []window
	start := 0
	for start < n {
		end := min(n, start+size)
		out = append(out, window{start: start, end: end})
		if end == n {
			break
		}
		start = max(0, end-overlap)
	}
	return out
}
