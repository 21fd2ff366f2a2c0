package loader

import (
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

type TextLoader struct{}

func (TextLoader) Name() string { return "text" }

func (TextLoader) Load(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// PDFLoader склеивает текст непустых страниц через пустую строку
type PDFLoader struct{}

func (PDFLoader) Name() string { return "pdf" }

func (PDFLoader) Load(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var parts []string
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", err
		}
		if text = strings.TrimSpace(text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n\n"), nil
}
