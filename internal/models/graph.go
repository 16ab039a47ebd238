package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
)

// ErrGraphParse marks a duplicate graph file that is missing or not valid JSON
var ErrGraphParse = errors.New("invalid duplicate graph")

// DuplicateEntry is one detected duplicate of an original
type DuplicateEntry struct {
	Path            string  `json:"path"`
	MatchPercentage float64 `json:"match_percentage"`
}

// DuplicateGraph maps each original video path to its detected
// duplicates. An original only appears once it has at least one
// duplicate, and every path appears as a duplicate at most once.
type DuplicateGraph map[string][]DuplicateEntry

// Add appends a duplicate under the given original
func (g DuplicateGraph) Add(original, duplicate string, matchPercentage float64) {
	g[original] = append(g[original], DuplicateEntry{
		Path:            duplicate,
		MatchPercentage: matchPercentage,
	})
}

// Originals returns the original paths in sorted order for stable display
func (g DuplicateGraph) Originals() []string {
	keys := make([]string, 0, len(g))
	for k := range g {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// TotalDuplicates returns the number of duplicates across all originals
func (g DuplicateGraph) TotalDuplicates() int {
	n := 0
	for _, dups := range g {
		n += len(dups)
	}
	return n
}

// Save writes the graph as indented JSON
func (g DuplicateGraph) Save(path string) error {
	data, err := json.MarshalIndent(g, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal graph: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// LoadGraph reads a graph previously written by Save. A missing or
// malformed file is an ErrGraphParse.
func LoadGraph(path string) (DuplicateGraph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGraphParse, err)
	}

	var g DuplicateGraph
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrGraphParse, path, err)
	}
	return g, nil
}
