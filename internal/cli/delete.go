package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kilupskalvis/vdup/internal/config"
	"github.com/kilupskalvis/vdup/internal/core"
	"github.com/kilupskalvis/vdup/internal/models"
)

var (
	deleteMinMatch float64
	deleteYes      bool
)

var deleteCmd = &cobra.Command{
	Use:   "delete [<graph.json>]",
	Short: "Delete duplicates recorded by a previous scan",
	Long: `Delete duplicate videos listed in a saved duplicate graph.

Only duplicates at or above the minimum match percentage are removed;
the original of each group is always kept. Defaults to reading
` + config.DefaultOutput + ` from the current directory.

Examples:
  vdup delete                         Use ` + config.DefaultOutput + `
  vdup delete --min-match 95 scan.json
  vdup delete -y                      Skip the confirmation prompt`,
	Args: cobra.MaximumNArgs(1),
	Run:  runDelete,
}

func init() {
	deleteCmd.Flags().Float64Var(&deleteMinMatch, "min-match", config.DefaultMinMatch, "Minimum match percentage for deletion")
	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Skip the confirmation prompt")
}

func runDelete(cmd *cobra.Command, args []string) {
	path := config.DefaultOutput
	if len(args) == 1 {
		path = args[0]
	}

	graph, err := models.LoadGraph(path)
	if err != nil {
		exitError("%v (run a scan first)", err)
	}

	// the saved graph carries full paths; the report shows basenames,
	// same as the scan report for a flat scan
	runDeleteFlow(graph, deleteMinMatch, false, deleteYes)
}

// runDeleteFlow is shared between 'delete' and 'scan --delete'
func runDeleteFlow(graph models.DuplicateGraph, minMatch float64, fullPaths, yes bool) {
	red := color.New(color.FgRed)

	plan, errs := core.BuildDeletePlan(graph, minMatch)
	for _, e := range errs {
		red.Fprintf(os.Stderr, "  - %v\n", e)
	}

	if len(plan.Candidates) == 0 {
		fmt.Println("No files to delete at this match percentage.")
		return
	}

	fmt.Printf("\nFiles to be deleted (%d):\n", len(plan.Candidates))
	for _, c := range plan.Candidates {
		fmt.Printf("  - %s (match: %.2f%%, size: %s)\n",
			displayPath(c.Path, fullPaths), c.MatchPercentage, humanize.IBytes(uint64(c.Size)))
	}
	fmt.Printf("\nTotal storage to be freed: %s\n", humanize.IBytes(uint64(plan.TotalSize)))

	if !yes {
		prompt := fmt.Sprintf("\nDelete %d duplicate files to free %s of space? (yes/no): ",
			len(plan.Candidates), humanize.IBytes(uint64(plan.TotalSize)))
		if !confirm(prompt) {
			fmt.Println("Deletion cancelled.")
			return
		}
	}

	deleted, freed := core.ExecuteDeletePlan(plan, func(c core.DeleteCandidate, err error) {
		if err != nil {
			red.Fprintf(os.Stderr, "  - failed to delete %s: %v\n", c.Path, err)
			return
		}
		fmt.Printf("  - deleted %s (%s)\n", displayPath(c.Path, fullPaths), humanize.IBytes(uint64(c.Size)))
	})

	fmt.Printf("\nDeleted %d files, freed %s\n", deleted, humanize.IBytes(uint64(freed)))
}

// confirm requires an explicit affirmative answer on stdin
func confirm(prompt string) bool {
	fmt.Print(prompt)

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "ye", "yes":
		return true
	}
	return false
}
