package rag

import (
	"math"
	"testing"
)

func ctxWithDistance(d float64) RetrievedContext {
	return RetrievedContext{Text: "t", Distance: Distance(d)}
}

func TestGate_Threshold(t *testing.T) {
	if !IsRelevant([]RetrievedContext{ctxWithDistance(0.4)}, 1.0) {
		t.Fatalf("distance 0.4 should be relevant at threshold 1.0")
	}
	if IsRelevant([]RetrievedContext{ctxWithDistance(1.4)}, 1.0) {
		t.Fatalf("distance 1.4 should not be relevant at threshold 1.0")
	}
	if !IsRelevant([]RetrievedContext{ctxWithDistance(1.0)}, 1.0) {
		t.Fatalf("distance equal to threshold should be relevant")
	}
}

func TestGate_Empty(t *testing.T) {
	rel := Gate(nil, 1.0)
	if rel.Relevant || rel.Best != nil {
		t.Fatalf("empty contexts must not be relevant, got %+v", rel)
	}
}

func TestGate_AllNullDistancesAssumeRelevant(t *testing.T) {
	rel := Gate([]RetrievedContext{{Text: "a"}, {Text: "b"}}, 0.1)
	if !rel.Relevant {
		t.Fatalf("all-null distances should assume relevance")
	}
	if rel.Best != nil {
		t.Fatalf("expected no best distance, got %v", *rel.Best)
	}
}

func TestGate_UsesMinimumIgnoringNulls(t *testing.T) {
	contexts := []RetrievedContext{
		ctxWithDistance(0.9),
		{Text: "no distance"},
		ctxWithDistance(0.3),
		ctxWithDistance(0.7),
	}

	rel := Gate(contexts, 0.5)
	if !rel.Relevant {
		t.Fatalf("best distance 0.3 should pass threshold 0.5")
	}
	if rel.Best == nil || *rel.Best != 0.3 {
		t.Fatalf("expected best distance 0.3, got %v", rel.Best)
	}
}

func TestGate_Monotonic(t *testing.T) {
	for _, d := range []float64{0, 0.1, 0.49, 0.5, 0.51, 1, 1.99} {
		got := IsRelevant([]RetrievedContext{ctxWithDistance(d)}, 0.5)
		if got != (d <= 0.5) {
			t.Errorf("distance %v: expected relevant=%v, got %v", d, d <= 0.5, got)
		}
	}
}

func TestGate_SkipsNaNDistances(t *testing.T) {
	rel := Gate([]RetrievedContext{ctxWithDistance(math.NaN()), ctxWithDistance(0.1)}, 0.5)
	if !rel.Relevant || rel.Best == nil || *rel.Best != 0.1 {
		t.Fatalf("expected NaN to be ignored and best 0.1, got relevant=%v best=%v", rel.Relevant, rel.Best)
	}

	rel = Gate([]RetrievedContext{ctxWithDistance(math.NaN())}, 0.5)
	if !rel.Relevant || rel.Best != nil {
		t.Fatalf("only NaN distances should behave like null ones, got %+v", rel)
	}
}
