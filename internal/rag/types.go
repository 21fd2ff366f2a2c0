package rag

import (
	"context"

	"docs_rag/internal/chunker"
)

// RetrievedContext is one ranked hit from the document index.
type RetrievedContext struct {
	Text     string
	Meta     chunker.Metadata
	Distance *float64 // cosine distance, nil when the index does not report one
}

// Route names the branch that produced an answer.
type Route string

const (
	RouteGrounded          Route = "grounded"
	RouteGeneralEmpty      Route = "general_empty"
	RouteGeneralIrrelevant Route = "general_irrelevant"
	RouteGeneralRefused    Route = "general_refused"
)

// AnswerResult is the outcome of answering one question. Sources is empty
// exactly when the answer came from the general path.
type AnswerResult struct {
	Answer       string
	Sources      []RetrievedContext
	Route        Route
	BestDistance *float64
}

// Grounded reports whether the answer is backed by retrieved sources.
func (r AnswerResult) Grounded() bool {
	return r.Route == RouteGrounded
}

// Retriever returns up to k contexts for query, best first.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]RetrievedContext, error)
}

// Generator produces text for a system/user prompt pair.
type Generator interface {
	Generate(ctx context.Context, system, user string) (string, error)
}

// RetrieverFunc adapts a function to Retriever.
type RetrieverFunc func(ctx context.Context, query string, k int) ([]RetrievedContext, error)

func (f RetrieverFunc) Retrieve(ctx context.Context, query string, k int) ([]RetrievedContext, error) {
	return f(ctx, query, k)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, system, user string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, system, user string) (string, error) {
	return f(ctx, system, user)
}

// Distance returns a pointer to d, for building contexts by hand.
func Distance(d float64) *float64 {
	return &d
}
