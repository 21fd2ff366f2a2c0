package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v10"

	"docs_rag/internal/chunker"
	"docs_rag/internal/rag"
)

var ErrInvalid = errors.New("invalid config")

const (
	EmbedOllama = "ollama"
	EmbedOpenAI = "openai"
)

type Config struct {
	DataDir    string `env:"DATA_DIR" envDefault:"./data"`
	Collection string `env:"COLLECTION" envDefault:"company_docs"`

	EmbedProvider    string `env:"EMBED_PROVIDER" envDefault:"ollama"`
	OllamaURL        string `env:"OLLAMA_URL" envDefault:"http://localhost:11434"`
	OllamaEmbedModel string `env:"OLLAMA_EMBED_MODEL" envDefault:"nomic-embed-text"`
	EmbedURL         string `env:"EMBED_URL" envDefault:"https://api.openai.com/v1"`
	EmbedAPIKey      string `env:"EMBED_API_KEY"`
	EmbedModel       string `env:"EMBED_MODEL" envDefault:"text-embedding-3-small"`

	LlmURL         string        `env:"LLM_URL" envDefault:"https://api.perplexity.ai"`
	LlmAPIKey      string        `env:"LLM_API_KEY"`
	LlmModel       string        `env:"LLM_MODEL" envDefault:"sonar-pro"`
	LlmTemperature float64       `env:"LLM_TEMPERATURE" envDefault:"0.2"`
	LlmTimeout     time.Duration `env:"LLM_TIMEOUT" envDefault:"120s"`

	ChunkSize    int `env:"CHUNK_SIZE" envDefault:"900"`
	ChunkOverlap int `env:"CHUNK_OVERLAP" envDefault:"150"`

	TopK              int     `env:"TOP_K" envDefault:"5"`
	DistanceThreshold float64 `env:"DISTANCE_THRESHOLD" envDefault:"0.6"`
	MaxContexts       int     `env:"MAX_CONTEXTS" envDefault:"3"`
	MaxContextChars   int     `env:"MAX_CONTEXT_CHARS" envDefault:"1200"`
	RefusalSentence   string  `env:"REFUSAL_SENTENCE" envDefault:"I don't know based on the provided documents."`
	RefusalPrefix     string  `env:"REFUSAL_PREFIX" envDefault:"I don't know"`

	PromptsFile   string `env:"PROMPTS_FILE"`
	PromptVariant string `env:"PROMPT_VARIANT" envDefault:"default"`

	MaxConcurrency int `env:"MAX_CONCURRENCY" envDefault:"4"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"`

	// Вычисляются из DataDir
	MetadataFile string
	DBFile       string

	variant *PromptVariant
}

// Init читает переменные окружения, вычисляет пути и загружает вариант промптов
func Init(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	cfg.Resolve()

	if cfg.PromptsFile != "" {
		prompts, err := LoadPrompts(cfg.PromptsFile)
		if err != nil {
			return err
		}
		variant, err := prompts.Variant(cfg.PromptVariant)
		if err != nil {
			return err
		}
		cfg.variant = &variant
	}

	return cfg.Validate()
}

// Resolve пересчитывает пути к файлам БД после смены DataDir
func (c *Config) Resolve() {
	c.MetadataFile = filepath.Join(c.DataDir, "documents.json")
	c.DBFile = filepath.Join(c.DataDir, "index.gob.gz")
}

func (c *Config) Validate() error {
	if err := c.Chunking().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err := c.AnswerOptions().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	switch c.EmbedProvider {
	case EmbedOllama, EmbedOpenAI:
	default:
		return fmt.Errorf("%w: unknown embed provider %q", ErrInvalid, c.EmbedProvider)
	}
	if c.MaxConcurrency <= 0 {
		return fmt.Errorf("%w: max concurrency must be positive, got %d", ErrInvalid, c.MaxConcurrency)
	}
	if c.DataDir == "" {
		return fmt.Errorf("%w: data dir is empty", ErrInvalid)
	}
	return nil
}

func (c *Config) Chunking() chunker.Config {
	return chunker.Config{Size: c.ChunkSize, Overlap: c.ChunkOverlap}
}

// AnswerOptions собирает настройки оркестратора; вариант промптов
// перекрывает заданные в нём поля
func (c *Config) AnswerOptions() rag.Options {
	opts := rag.DefaultOptions()
	opts.TopK = c.TopK
	opts.DistanceThreshold = c.DistanceThreshold
	opts.MaxContexts = c.MaxContexts
	opts.MaxContextChars = c.MaxContextChars
	opts.RefusalSentence = c.RefusalSentence
	opts.RefusalPrefix = c.RefusalPrefix
	if c.variant != nil {
		c.variant.apply(&opts)
	}
	return opts
}
