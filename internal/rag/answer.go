package rag

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// Orchestrator answers questions from retrieved context when the context is
// relevant, and falls back to a general answer otherwise.
//
// Flow: retrieve → gate → grounded generate → refusal check, with every
// failing step routing to the general answer.
type Orchestrator struct {
	opts      Options
	retriever Retriever
	generator Generator
	logger    *zap.Logger
}

type Option func(*Orchestrator)

func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func NewOrchestrator(opts Options, retriever Retriever, generator Generator, options ...Option) (*Orchestrator, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	o := &Orchestrator{
		opts:      opts,
		retriever: retriever,
		generator: generator,
		logger:    zap.NewNop(),
	}
	for _, apply := range options {
		apply(o)
	}
	return o, nil
}

// Answer runs one question through the pipeline. Retriever and generator
// errors are returned as-is.
func Answer(ctx context.Context, question string, retriever Retriever, generator Generator, opts Options) (AnswerResult, error) {
	o, err := NewOrchestrator(opts, retriever, generator)
	if err != nil {
		return AnswerResult{}, err
	}
	return o.Answer(ctx, question)
}

func (o *Orchestrator) Answer(ctx context.Context, question string) (AnswerResult, error) {
	log := o.log(ctx)

	contexts, err := o.retriever.Retrieve(ctx, question, o.opts.TopK)
	if err != nil {
		return AnswerResult{}, err
	}
	log.Debug("retrieved contexts", zap.Int("count", len(contexts)))

	if len(contexts) == 0 {
		return o.general(ctx, question, RouteGeneralEmpty, nil)
	}

	rel := Gate(contexts, o.opts.DistanceThreshold)
	if !rel.Relevant {
		log.Info("contexts below relevance threshold",
			zap.Float64("best_distance", *rel.Best),
			zap.Float64("threshold", o.opts.DistanceThreshold),
		)
		return o.general(ctx, question, RouteGeneralIrrelevant, rel.Best)
	}
	if rel.Best == nil {
		log.Warn("index returned no distances, skipping relevance gate")
	}

	sources := o.bound(contexts)
	user := "CONTEXT:\n" + FormatContexts(sources) + "\n\nQUESTION:\n" + question

	answer, err := o.generator.Generate(ctx, o.opts.groundedSystem(), user)
	if err != nil {
		return AnswerResult{}, err
	}

	if o.IsRefusal(answer) {
		log.Info("grounded answer refused, falling back to general answer")
		return o.general(ctx, question, RouteGeneralRefused, rel.Best)
	}

	log.Info("answered from documents", zap.Int("sources", len(sources)))
	return AnswerResult{
		Answer:       answer,
		Sources:      sources,
		Route:        RouteGrounded,
		BestDistance: rel.Best,
	}, nil
}

func (o *Orchestrator) general(ctx context.Context, question string, route Route, best *float64) (AnswerResult, error) {
	answer, err := o.generator.Generate(ctx, o.opts.GeneralSystem, question)
	if err != nil {
		return AnswerResult{}, err
	}
	o.log(ctx).Info("answered without documents", zap.String("route", string(route)))
	return AnswerResult{
		Answer:       answer,
		Sources:      []RetrievedContext{},
		Route:        route,
		BestDistance: best,
	}, nil
}

// bound keeps the first MaxContexts contexts and cuts each text to
// MaxContextChars characters.
func (o *Orchestrator) bound(contexts []RetrievedContext) []RetrievedContext {
	n := min(len(contexts), o.opts.MaxContexts)
	out := make([]RetrievedContext, n)
	for i := 0; i < n; i++ {
		c := contexts[i]
		if runes := []rune(c.Text); len(runes) > o.opts.MaxContextChars {
			c.Text = string(runes[:o.opts.MaxContextChars])
		}
		out[i] = c
	}
	return out
}

// IsRefusal reports whether answer starts with the refusal prefix, ignoring
// case and surrounding whitespace.
func (o *Orchestrator) IsRefusal(answer string) bool {
	return strings.HasPrefix(normalize(answer), normalize(o.opts.RefusalPrefix))
}

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.ReplaceAll(s, "’", "'")
}

type loggerKey struct{}

// ContextWithLogger attaches a request-scoped logger, e.g. one carrying a
// query id.
func ContextWithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

func (o *Orchestrator) log(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*zap.Logger); ok && l != nil {
		return l
	}
	return o.logger
}
