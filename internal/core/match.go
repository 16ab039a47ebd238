package core

import (
	"github.com/kilupskalvis/vdup/internal/models"
)

// Matcher assigns each incoming signature to the first registered
// original within the distance threshold, or registers it as a new
// original. It keeps no locks: the scanner drives it from a single
// goroutine, in arrival order.
type Matcher struct {
	threshold float64
	hashSize  int
	// originals in registration order; the order decides match priority
	originals []original
	graph     models.DuplicateGraph
}

type original struct {
	path string
	sig  models.Signature
}

// NewMatcher creates a Matcher with an empty original set
func NewMatcher(threshold float64, hashSize int) *Matcher {
	return &Matcher{
		threshold: threshold,
		hashSize:  hashSize,
		graph:     models.DuplicateGraph{},
	}
}

// MatchResult describes what Add did with one signature
type MatchResult struct {
	// Original is the matched cluster head, empty for a new original
	Original        string
	MatchPercentage float64
	Duplicate       bool
}

// Add consumes one (path, signature) pair. Originals are checked in
// registration order and the first one whose average distance is
// within the threshold wins, even when a later original is strictly
// closer: greedy first-fit, not best-fit. A matched file is recorded
// in the graph and never becomes an original itself.
func (m *Matcher) Add(path string, sig models.Signature) MatchResult {
	for _, o := range m.originals {
		avg, err := o.sig.AverageDistance(sig)
		if err != nil {
			// different length or bit width, not comparable
			continue
		}
		if avg <= m.threshold {
			pct := models.MatchPercentage(avg, m.hashSize)
			m.graph.Add(o.path, path, pct)
			return MatchResult{Original: o.path, MatchPercentage: pct, Duplicate: true}
		}
	}

	m.originals = append(m.originals, original{path: path, sig: sig})
	return MatchResult{}
}

// Graph returns the duplicate graph accumulated so far
func (m *Matcher) Graph() models.DuplicateGraph {
	return m.graph
}

// OriginalCount returns the number of registered originals
func (m *Matcher) OriginalCount() int {
	return len(m.originals)
}
