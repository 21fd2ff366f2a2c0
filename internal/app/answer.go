package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"docs_rag/internal/chunker"
	"docs_rag/internal/rag"
)

const sourcePreviewChars = 1500

// Ask answers a question from the indexed documents, falling back to a
// general answer.
func (a *App) Ask(ctx context.Context, question string) (rag.AnswerResult, error) {
	log := a.logger.With(zap.String("query_id", uuid.NewString()))
	ctx = rag.ContextWithLogger(ctx, log)

	start := time.Now()
	res, err := a.orchestrator.Answer(ctx, question)
	if err != nil {
		log.Error("answer failed", zap.Error(err))
		return rag.AnswerResult{}, err
	}
	log.Info("question answered",
		zap.String("route", string(res.Route)),
		zap.Int("sources", len(res.Sources)),
		zap.Duration("took", time.Since(start)),
	)

	if a.outputPath != "" {
		if err := a.appendTranscript(question, res); err != nil {
			log.Warn("failed to save transcript", zap.Error(err))
		}
	}
	return res, nil
}

// RenderAnswer prints the answer and, for grounded answers, its sources.
func RenderAnswer(w io.Writer, res rag.AnswerResult) {
	answer := res.Answer
	if strings.TrimSpace(answer) == "" {
		answer = "(No response)"
	}
	fmt.Fprintf(w, "\n%s\n", answer)

	if len(res.Sources) == 0 {
		return
	}
	fmt.Fprintf(w, "\nSources (retrieved chunks):\n")
	for i, c := range res.Sources {
		fmt.Fprintf(w, "[%d] %s\n", i+1, sourceLine(c))
		fmt.Fprintf(w, "    %s\n", strings.ReplaceAll(chunker.GetFirstNChars(c.Text, sourcePreviewChars), "\n", "\n    "))
	}
}

func sourceLine(c rag.RetrievedContext) string {
	return fmt.Sprintf("source=%s page=%s chunk=%s distance=%s",
		orDash(c.Meta.Get(chunker.KeySource)),
		orDash(c.Meta.Get(chunker.KeyPage)),
		orDash(c.Meta.Get(chunker.KeyChunkID)),
		formatDistance(c.Distance),
	)
}

func orDash(s chunker.Scalar) string {
	if v := s.String(); v != "" {
		return v
	}
	return "-"
}

func formatDistance(d *float64) string {
	if d == nil {
		return "-"
	}
	return fmt.Sprintf("%.4f", *d)
}

// appendTranscript дописывает вопрос и ответ в markdown файл
func (a *App) appendTranscript(question string, res rag.AnswerResult) error {
	var buf strings.Builder

	buf.WriteString(fmt.Sprintf("## %s\n\n", question))
	buf.WriteString(fmt.Sprintf("**Time:** %s  \n", time.Now().Format("2006-01-02 15:04:05")))
	buf.WriteString(fmt.Sprintf("**Route:** %s  \n", res.Route))
	buf.WriteString(fmt.Sprintf("**Best distance:** %s\n\n", formatDistance(res.BestDistance)))
	buf.WriteString(res.Answer)
	buf.WriteString("\n\n")

	if len(res.Sources) > 0 {
		buf.WriteString("### Sources\n\n")
		for i, c := range res.Sources {
			buf.WriteString(fmt.Sprintf("- [%d] %s\n", i+1, sourceLine(c)))
		}
		buf.WriteString("\n")
	}
	buf.WriteString("---\n\n")

	a.outputMu.Lock()
	defer a.outputMu.Unlock()

	f, err := os.OpenFile(a.outputPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(buf.String())
	return err
}
