package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"docs_rag/internal/app"
	"docs_rag/internal/config"
)

func main() {
	// Парсим флаги командной строки
	dataDir := flag.String("data", "", "Data directory for vector DB (overrides DATA_DIR)")
	outputFile := flag.String("output", "", "Append questions and answers to a markdown file (optional)")
	force := flag.Bool("force", false, "Re-ingest documents even if unchanged")
	flag.Parse()

	// Загружаем .env (опционально)
	_ = godotenv.Load()

	if *dataDir != "" {
		os.Setenv("DATA_DIR", *dataDir)
	}

	// Загружаем конфиг
	cfg := config.Config{}
	if err := config.Init(&cfg); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := app.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting",
		zap.String("data_dir", cfg.DataDir),
		zap.String("embed_provider", cfg.EmbedProvider),
		zap.String("llm_model", cfg.LlmModel),
	)

	// Контекст с сигналами завершения
	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	a, err := app.New(&cfg, logger)
	if err != nil {
		logger.Fatal("failed to create app", zap.Error(err))
	}

	if *outputFile != "" {
		a.SetOutputPath(*outputFile)
	}

	// Инициализируем (проверка Ollama, загрузка БД)
	if err := a.Init(ctx); err != nil {
		logger.Fatal("failed to initialize app", zap.Error(err))
	}

	// Документы из аргументов индексируем до запуска REPL
	for _, path := range flag.Args() {
		res, err := a.Ingest(ctx, path, *force)
		if err != nil {
			logger.Error("ingestion failed", zap.String("path", path), zap.Error(err))
			continue
		}
		logger.Info("ingested", zap.String("document", res.Name), zap.Int("chunks", res.Chunks), zap.Bool("skipped", res.Skipped))
	}

	if err := a.Run(ctx); err != nil {
		logger.Fatal("app stopped with error", zap.Error(err))
	}
}
