package app

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"docs_rag/internal/loader"
)

// Run reads lines until EOF or ctx is done. A line naming an existing file
// is ingested, any other line is a question.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("application started")
	fmt.Fprintln(a.out, "Enter a file path to ingest it, or ask a question. Ctrl+C to exit.")

	scanner := bufio.NewScanner(a.in)

	// Увеличим буфер, если строки будут длинные
	const maxLineSize = 1024 * 1024
	buf := make([]byte, 64*1024)
	scanner.Buffer(buf, maxLineSize)

	lines := make(chan string)
	errs := make(chan error, 1)
	go func() {
		defer close(lines)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				errs <- nil
				return
			}
		}
		errs <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("shutting down application")
			return nil
		case line, ok := <-lines:
			if !ok {
				if err := <-errs; err != nil {
					return fmt.Errorf("stdin error: %w", err)
				}
				a.logger.Info("stdin closed")
				return nil
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			a.handleLine(ctx, line)
		}
	}
}

func (a *App) handleLine(ctx context.Context, line string) {
	if info, err := os.Stat(line); err == nil && !info.IsDir() {
		if !loader.Supported(line) {
			fmt.Fprintf(a.out, "Unsupported format: %s (use txt, md or pdf)\n", line)
			return
		}
		res, err := a.Ingest(ctx, line, false)
		if err != nil {
			a.logger.Error("ingestion failed", zap.String("path", line), zap.Error(err))
			fmt.Fprintf(a.out, "Ingestion failed: %v\n", err)
			return
		}
		switch {
		case res.Skipped:
			fmt.Fprintf(a.out, "%s is unchanged (%d chunks already stored)\n", res.Name, res.Chunks)
		case res.Chunks == 0:
			fmt.Fprintf(a.out, "No text extracted from: %s\n", res.Name)
		default:
			fmt.Fprintf(a.out, "Stored %d chunks from %s\n", res.Chunks, res.Name)
		}
		return
	}

	res, err := a.Ask(ctx, line)
	if err != nil {
		fmt.Fprintf(a.out, "Error: %v\n", err)
		return
	}
	RenderAnswer(a.out, res)
}
