package index

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/philippgille/chromem-go"
	"go.uber.org/zap"

	"docs_rag/internal/chunker"
	"docs_rag/internal/rag"
)

// Index is the persistent vector index over document chunks. Similarity is
// cosine; distances handed out are 1 - similarity.
type Index struct {
	db          *chromem.DB
	coll        *chromem.Collection
	collection  string
	file        string
	concurrency int
	logger      *zap.Logger

	// Запись сериализуется, чтение идёт параллельно внутри chromem
	mu sync.Mutex
}

type Config struct {
	Collection  string
	File        string // gob.gz snapshot, empty keeps the index in memory only
	Concurrency int
}

// Open restores the index from cfg.File when it exists, otherwise starts
// an empty collection.
func Open(cfg Config, embed chromem.EmbeddingFunc, logger *zap.Logger) (*Index, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}

	db := chromem.NewDB()
	if cfg.File != "" {
		if _, err := os.Stat(cfg.File); err == nil {
			logger.Info("loading vector database", zap.String("file", cfg.File))
			if err := db.ImportFromFile(cfg.File, "", cfg.Collection); err != nil {
				return nil, fmt.Errorf("failed to import DB: %w", err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stat %s: %w", cfg.File, err)
		} else {
			logger.Info("no existing DB file found, starting fresh")
		}
	}

	coll, err := db.GetOrCreateCollection(cfg.Collection, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("failed to open collection %q: %w", cfg.Collection, err)
	}

	return &Index{
		db:          db,
		coll:        coll,
		collection:  cfg.Collection,
		file:        cfg.File,
		concurrency: cfg.Concurrency,
		logger:      logger,
	}, nil
}

// Upsert stores chunks under ids, replacing any chunk with the same id.
// Metadata is flattened to strings (null becomes "").
func (x *Index) Upsert(ctx context.Context, chunks []string, metas []chunker.Metadata, ids []string) error {
	if len(chunks) != len(metas) || len(chunks) != len(ids) {
		return fmt.Errorf("chunks, metadatas and ids length mismatch: %d/%d/%d", len(chunks), len(metas), len(ids))
	}
	if len(chunks) == 0 {
		return nil
	}

	docs := make([]chromem.Document, len(chunks))
	for i := range chunks {
		docs[i] = chromem.Document{
			ID:       ids[i],
			Content:  chunks[i],
			Metadata: metas[i].Flatten(),
		}
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	if err := x.coll.AddDocuments(ctx, docs, x.concurrency); err != nil {
		return fmt.Errorf("add documents: %w", err)
	}
	x.logger.Debug("upserted chunks", zap.Int("count", len(docs)))
	return nil
}

// DeleteSource removes every chunk of the given source document.
func (x *Index) DeleteSource(ctx context.Context, source string) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.coll.Count() == 0 {
		return nil
	}
	if err := x.coll.Delete(ctx, map[string]string{chunker.KeySource: source}, nil); err != nil {
		return fmt.Errorf("delete chunks of %s: %w", source, err)
	}
	return nil
}

// Replace stores the new chunks of source and only then drops the chunks of
// source whose ids are not in ids. A failed upsert leaves the previous
// version of the document searchable.
func (x *Index) Replace(ctx context.Context, source string, chunks []string, metas []chunker.Metadata, ids []string) error {
	if len(chunks) == 0 {
		return x.DeleteSource(ctx, source)
	}
	if err := x.Upsert(ctx, chunks, metas, ids); err != nil {
		return err
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	// Любой сохранённый вектор годится как запрос: нужен только фильтр по source
	anchor, err := x.coll.GetByID(ctx, ids[0])
	if err != nil {
		return fmt.Errorf("lookup %s: %w", ids[0], err)
	}
	results, err := x.coll.QueryEmbedding(ctx, anchor.Embedding, x.coll.Count(), map[string]string{chunker.KeySource: source}, nil)
	if err != nil {
		return fmt.Errorf("list chunks of %s: %w", source, err)
	}

	keep := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		keep[id] = struct{}{}
	}
	var stale []string
	for _, r := range results {
		if _, ok := keep[r.ID]; !ok {
			stale = append(stale, r.ID)
		}
	}
	if len(stale) == 0 {
		return nil
	}
	if err := x.coll.Delete(ctx, nil, nil, stale...); err != nil {
		return fmt.Errorf("delete stale chunks of %s: %w", source, err)
	}
	x.logger.Debug("removed stale chunks", zap.String("source", source), zap.Int("count", len(stale)))
	return nil
}

// Retrieve returns up to k chunks closest to query, best first.
func (x *Index) Retrieve(ctx context.Context, query string, k int) ([]rag.RetrievedContext, error) {
	n := x.coll.Count()
	if n == 0 || k <= 0 {
		return []rag.RetrievedContext{}, nil
	}

	results, err := x.coll.Query(ctx, query, min(k, n), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}

	out := make([]rag.RetrievedContext, 0, len(results))
	for _, r := range results {
		out = append(out, rag.RetrievedContext{
			Text:     r.Content,
			Meta:     chunker.ParseMetadata(r.Metadata),
			Distance: rag.Distance(1 - float64(r.Similarity)),
		})
	}
	return out, nil
}

func (x *Index) Count() int {
	return x.coll.Count()
}

// Save writes a compressed snapshot of the collection to the configured file.
func (x *Index) Save() error {
	if x.file == "" {
		return nil
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	if err := x.db.ExportToFile(x.file, true, "", x.collection); err != nil {
		return fmt.Errorf("failed to export DB: %w", err)
	}
	return nil
}
