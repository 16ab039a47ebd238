package core

import (
	"fmt"
	"os"

	"github.com/kilupskalvis/vdup/internal/models"
)

// DeleteCandidate is one file selected for removal
type DeleteCandidate struct {
	Path            string
	Original        string
	MatchPercentage float64
	Size            int64
}

// DeletePlan lists the files whose match percentage clears the cutoff,
// with the total bytes deleting them would free
type DeletePlan struct {
	Candidates []DeleteCandidate
	TotalSize  int64
}

// BuildDeletePlan selects graph entries at or above minMatch and stats
// each file for its size. Stat failures are returned alongside the
// plan; the affected file is left out but the rest of the plan stands.
func BuildDeletePlan(graph models.DuplicateGraph, minMatch float64) (*DeletePlan, []error) {
	plan := &DeletePlan{}
	var errs []error

	for _, orig := range graph.Originals() {
		for _, dup := range graph[orig] {
			if dup.MatchPercentage < minMatch {
				continue
			}
			fi, err := os.Stat(dup.Path)
			if err != nil {
				errs = append(errs, fmt.Errorf("stat %s: %w", dup.Path, err))
				continue
			}
			plan.Candidates = append(plan.Candidates, DeleteCandidate{
				Path:            dup.Path,
				Original:        orig,
				MatchPercentage: dup.MatchPercentage,
				Size:            fi.Size(),
			})
			plan.TotalSize += fi.Size()
		}
	}
	return plan, errs
}

// ExecuteDeletePlan removes the planned files. Every removal, failed
// or not, is passed to report; a failure does not stop the remaining
// deletions. report may be nil.
func ExecuteDeletePlan(plan *DeletePlan, report func(c DeleteCandidate, err error)) (deleted int, freed int64) {
	for _, c := range plan.Candidates {
		err := os.Remove(c.Path)
		if report != nil {
			report(c, err)
		}
		if err != nil {
			continue
		}
		deleted++
		freed += c.Size
	}
	return deleted, freed
}
