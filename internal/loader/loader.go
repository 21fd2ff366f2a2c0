package loader

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"docs_rag/internal/chunker"
)

var ErrUnsupportedFormat = errors.New("unsupported file type")

// Document is the extracted text of one file plus the metadata every chunk
// of it inherits.
type Document struct {
	Name string
	Path string
	Text string
	Meta chunker.Metadata
}

// Loader извлекает текст из файла определённого формата
type Loader interface {
	Load(path string) (string, error)
	Name() string
}

// ForPath выбирает loader по расширению файла
func ForPath(path string) (Loader, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".text":
		return TextLoader{}, nil
	case ".md", ".markdown":
		return MarkdownLoader{}, nil
	case ".pdf":
		return PDFLoader{}, nil
	default:
		return nil, fmt.Errorf("%w: %q, use txt, md or pdf", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Supported reports whether path has an extension Load understands.
func Supported(path string) bool {
	_, err := ForPath(path)
	return err == nil
}

func Load(path string) (Document, error) {
	l, err := ForPath(path)
	if err != nil {
		return Document{}, err
	}
	text, err := l.Load(path)
	if err != nil {
		return Document{}, fmt.Errorf("%s loader: %w", l.Name(), err)
	}
	name := filepath.Base(path)
	return Document{
		Name: name,
		Path: path,
		Text: text,
		Meta: chunker.Metadata{
			chunker.KeySource: chunker.String(name),
			chunker.KeyPage:   chunker.Null(),
		},
	}, nil
}
