package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"docs_rag/internal/chunker"
	"docs_rag/internal/loader"
)

// IngestResult summarizes one ingested file.
type IngestResult struct {
	Name    string
	Chunks  int
	Skipped bool // unchanged since the last ingestion
}

// Ingest loads, chunks and indexes one document. Chunks are stored under
// "<name>-<chunk_id>"; older chunks of the same document are replaced.
// Ingestion of the same document name is serialized.
func (a *App) Ingest(ctx context.Context, path string, force bool) (IngestResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return IngestResult{}, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		return IngestResult{}, fmt.Errorf("%s is a directory", path)
	}

	name := filepath.Base(path)
	unlock := a.docLocks.Lock(name)
	defer unlock()

	log := a.logger.With(zap.String("document", name))

	if prev, ok := a.fileInfo(name); ok && !force &&
		prev.LastModified.Equal(info.ModTime()) && prev.Size == info.Size() {
		log.Info("skipping unchanged file")
		return IngestResult{Name: name, Chunks: prev.Chunks, Skipped: true}, nil
	}

	doc, err := loader.Load(path)
	if err != nil {
		return IngestResult{}, err
	}
	log.Info("file loaded", zap.Int("bytes", len(doc.Text)))

	if strings.TrimSpace(doc.Text) == "" {
		log.Warn("no text extracted")
	}

	chunks, metas := a.chunker.Chunk(doc.Text, doc.Meta)
	ids := chunker.DocumentIDs(doc.Name, metas)

	// старая версия остаётся в индексе, пока новая не записана целиком
	if err := a.index.Replace(ctx, doc.Name, chunks, metas, ids); err != nil {
		return IngestResult{}, fmt.Errorf("failed to index %s: %w", name, err)
	}
	if err := a.index.Save(); err != nil {
		return IngestResult{}, err
	}

	a.setFileInfo(name, FileInfo{
		Path:         path,
		LastModified: info.ModTime(),
		Size:         info.Size(),
		Chunks:       len(chunks),
		IngestedAt:   time.Now(),
	})
	if err := a.saveMetadata(); err != nil {
		return IngestResult{}, fmt.Errorf("failed to save metadata: %w", err)
	}

	log.Info("document indexed", zap.Int("chunks", len(chunks)))
	return IngestResult{Name: name, Chunks: len(chunks)}, nil
}
