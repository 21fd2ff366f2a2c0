package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/philippgille/chromem-go"
	"go.uber.org/zap"

	"docs_rag/internal/chunker"
	"docs_rag/internal/config"
	"docs_rag/internal/index"
	"docs_rag/internal/llm"
	"docs_rag/internal/rag"
)

type App struct {
	cfg    *config.Config
	logger *zap.Logger

	embeddingFunc chromem.EmbeddingFunc
	generator     rag.Generator
	chunker       *chunker.TextChunker
	index         *index.Index
	orchestrator  *rag.Orchestrator

	metadata   *Metadata
	metadataMu sync.Mutex
	docLocks   keyedMutex

	in         io.Reader
	out        io.Writer
	outputPath string
	outputMu   sync.Mutex
}

// Metadata is the registry of ingested documents, persisted next to the index.
type Metadata struct {
	Files    map[string]FileInfo `json:"files"`
	DataPath string              `json:"data_path"`
}

type FileInfo struct {
	Path         string    `json:"path"`
	LastModified time.Time `json:"last_modified"`
	Size         int64     `json:"size"`
	Chunks       int       `json:"chunks"`
	IngestedAt   time.Time `json:"ingested_at"`
}

type Option func(*App)

// WithEmbeddingFunc overrides the embedding function built from config.
func WithEmbeddingFunc(f chromem.EmbeddingFunc) Option {
	return func(a *App) { a.embeddingFunc = f }
}

// WithGenerator overrides the LLM client built from config.
func WithGenerator(g rag.Generator) Option {
	return func(a *App) { a.generator = g }
}

// WithIO sets the REPL input and output.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(a *App) {
		a.in = in
		a.out = out
	}
}

func New(cfg *config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	textChunker, err := chunker.NewTextChunker(cfg.Chunking())
	if err != nil {
		return nil, err
	}

	app := &App{
		cfg:      cfg,
		logger:   logger,
		chunker:  textChunker,
		metadata: &Metadata{Files: make(map[string]FileInfo)},
		in:       os.Stdin,
		out:      os.Stdout,
	}
	for _, apply := range opts {
		apply(app)
	}

	if app.generator == nil {
		app.generator = llm.NewClient(llm.Config{
			URL:         cfg.LlmURL,
			Key:         cfg.LlmAPIKey,
			Model:       cfg.LlmModel,
			Temperature: cfg.LlmTemperature,
			Timeout:     cfg.LlmTimeout,
		}, logger.Named("llm"))
	}

	return app, nil
}

// SetOutputPath включает запись вопросов и ответов в markdown файл
func (a *App) SetOutputPath(path string) {
	a.outputPath = path
}

func (a *App) Init(ctx context.Context) error {
	if err := os.MkdirAll(a.cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	if a.embeddingFunc == nil {
		switch a.cfg.EmbedProvider {
		case config.EmbedOpenAI:
			a.embeddingFunc = chromem.NewEmbeddingFuncOpenAICompat(a.cfg.EmbedURL, a.cfg.EmbedAPIKey, a.cfg.EmbedModel, nil)
		default:
			// Ensure Ollama and the embedding model are available
			if err := ensureOllamaModel(ctx, a.cfg.OllamaURL, a.cfg.OllamaEmbedModel, a.logger); err != nil {
				return fmt.Errorf("ollama model check failed: %w", err)
			}
			a.embeddingFunc = chromem.NewEmbeddingFuncOllama(a.cfg.OllamaEmbedModel, a.cfg.OllamaURL+"/api")
		}
	}

	if err := a.loadMetadata(); err != nil {
		return fmt.Errorf("failed to load metadata: %w", err)
	}

	absDataDir, err := filepath.Abs(a.cfg.DataDir)
	if err != nil {
		return fmt.Errorf("failed to get absolute data dir: %w", err)
	}
	if a.metadata.DataPath != "" && a.metadata.DataPath != absDataDir {
		a.logger.Warn("data directory moved, forgetting registered documents",
			zap.String("from", a.metadata.DataPath), zap.String("to", absDataDir))
		a.metadata.Files = make(map[string]FileInfo)
	}
	a.metadata.DataPath = absDataDir

	a.index, err = index.Open(index.Config{
		Collection:  a.cfg.Collection,
		File:        a.cfg.DBFile,
		Concurrency: a.cfg.MaxConcurrency,
	}, a.embeddingFunc, a.logger.Named("index"))
	if err != nil {
		return fmt.Errorf("failed to open vector database: %w", err)
	}
	a.logger.Info("vector database ready",
		zap.Int("chunks", a.index.Count()),
		zap.Int("documents", len(a.metadata.Files)),
	)

	a.orchestrator, err = rag.NewOrchestrator(a.cfg.AnswerOptions(), a.index, a.generator, rag.WithLogger(a.logger.Named("rag")))
	if err != nil {
		return err
	}

	return a.saveMetadata()
}

func (a *App) loadMetadata() error {
	a.metadataMu.Lock()
	defer a.metadataMu.Unlock()

	f, err := os.Open(a.cfg.MetadataFile)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	} else if err != nil {
		return err
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(a.metadata); err != nil {
		return err
	}
	if a.metadata.Files == nil {
		a.metadata.Files = make(map[string]FileInfo)
	}
	return nil
}

func (a *App) saveMetadata() error {
	a.metadataMu.Lock()
	defer a.metadataMu.Unlock()

	f, err := os.Create(a.cfg.MetadataFile)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(a.metadata)
}

func (a *App) fileInfo(name string) (FileInfo, bool) {
	a.metadataMu.Lock()
	defer a.metadataMu.Unlock()
	fi, ok := a.metadata.Files[name]
	return fi, ok
}

func (a *App) setFileInfo(name string, fi FileInfo) {
	a.metadataMu.Lock()
	defer a.metadataMu.Unlock()
	a.metadata.Files[name] = fi
}

// ensureOllamaModel checks that Ollama answers and pulls model if missing.
func ensureOllamaModel(ctx context.Context, baseURL, model string, logger *zap.Logger) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/tags", nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("ollama is not running or not reachable at %s: %w", baseURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama at %s returned status %d", baseURL, resp.StatusCode)
	}

	var tags struct {
		Models []struct {
			Name  string `json:"name"`
			Model string `json:"model"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return fmt.Errorf("decode ollama tags: %w", err)
	}
	for _, m := range tags.Models {
		if m.Name == model || m.Model == model || m.Name == model+":latest" {
			logger.Info("model is available", zap.String("model", model))
			return nil
		}
	}

	logger.Info("model not found, pulling", zap.String("model", model))
	body, _ := json.Marshal(map[string]any{"name": model, "stream": false})
	pullReq, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/api/pull", bytes.NewReader(body))
	if err != nil {
		return err
	}
	pullReq.Header.Set("Content-Type", "application/json")
	pullResp, err := http.DefaultClient.Do(pullReq)
	if err != nil {
		return fmt.Errorf("failed to pull model %s: %w", model, err)
	}
	defer pullResp.Body.Close()
	if pullResp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to pull model %s: status %d", model, pullResp.StatusCode)
	}
	logger.Info("model pulled successfully", zap.String("model", model))
	return nil
}

// keyedMutex serializes work per key, e.g. per document name. An entry lives
// only while someone holds or waits for it.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	sync.Mutex
	refs int
}

func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*keyedLock)
	}
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()

		k.mu.Lock()
		defer k.mu.Unlock()
		if l.refs--; l.refs == 0 {
			delete(k.locks, key)
		}
	}
}

func (k *keyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
