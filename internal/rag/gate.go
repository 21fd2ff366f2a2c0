package rag

import "math"

// Relevance is the relevance gate's verdict on a retrieval result.
type Relevance struct {
	Relevant bool
	// Best is the minimum usable distance; nil when no context reported one.
	Best *float64
}

// Gate decides whether contexts are close enough to ground an answer.
// No contexts is never relevant. When every distance is null the gate cannot
// judge and assumes relevance; refusal detection downstream still applies.
func Gate(contexts []RetrievedContext, threshold float64) Relevance {
	if len(contexts) == 0 {
		return Relevance{}
	}
	best, ok := BestDistance(contexts)
	if !ok {
		return Relevance{Relevant: true}
	}
	return Relevance{Relevant: best <= threshold, Best: &best}
}

// IsRelevant is Gate without the distance.
func IsRelevant(contexts []RetrievedContext, threshold float64) bool {
	return Gate(contexts, threshold).Relevant
}

// BestDistance returns the smallest distance, skipping null and NaN ones.
func BestDistance(contexts []RetrievedContext) (float64, bool) {
	var best float64
	found := false
	for _, c := range contexts {
		if c.Distance == nil || math.IsNaN(*c.Distance) {
			continue
		}
		if !found || *c.Distance < best {
			best = *c.Distance
			found = true
		}
	}
	return best, found
}
