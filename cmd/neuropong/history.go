package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	flagHistoryRun   string
	flagHistoryLimit int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show training history",
	Long: `Display recent training runs and their latest generations.

Examples:
  neuropong history
  neuropong history --run k3j9x2ab --limit 50`,
	Run: runHistory,
}

func init() {
	historyCmd.Flags().StringVar(&flagHistoryRun, "run", "", "Only show generations of this run")
	historyCmd.Flags().IntVar(&flagHistoryLimit, "limit", 10, "Number of rows to show")
}

func runHistory(_ *cobra.Command, _ []string) {
	store := mustOpenStore()
	defer store.Close()
	ctx := context.Background()

	if flagHistoryRun == "" {
		runs, err := store.Runs(ctx, flagHistoryLimit)
		if err != nil {
			store.Close()
			exitf("reading runs: %v", err)
		}

		fmt.Println("Training runs")
		fmt.Println()
		if len(runs) == 0 {
			fmt.Println("No training runs recorded yet.")
			fmt.Println()
			fmt.Println("Run 'neuropong train' to start one!")
			return
		}

		fmt.Printf("  %-10s  %-6s  %-8s  %-8s  %s\n", "Run", "Gens", "Best", "Avg", "Last update")
		fmt.Printf("  %-10s  %-6s  %-8s  %-8s  %s\n", "---", "----", "----", "---", "-----------")
		for _, r := range runs {
			fmt.Printf("  %-10s  %-6d  %-8.2f  %-8.2f  %s\n",
				r.RunID, r.Generations, r.BestFitness, r.AvgFitness, r.LastUpdate.Format("2006-01-02 15:04"))
		}
		fmt.Println()
		fmt.Println("Run 'neuropong history --run <id>' for a run's generations.")
		return
	}

	gens, err := store.RecentGenerations(ctx, flagHistoryRun, flagHistoryLimit)
	if err != nil {
		store.Close()
		exitf("reading generations: %v", err)
	}

	fmt.Printf("Generations - run %s\n", flagHistoryRun)
	fmt.Println()
	if len(gens) == 0 {
		fmt.Println("No generations recorded for this run.")
		return
	}

	fmt.Printf("  %-5s  %-9s  %-8s  %-8s  %-8s  %-9s  %s\n", "Gen", "Tick", "Fitness", "Best", "Mutation", "Survivors", "Replaced")
	fmt.Printf("  %-5s  %-9s  %-8s  %-8s  %-8s  %-9s  %s\n", "---", "----", "-------", "----", "--------", "---------", "--------")
	for _, g := range gens {
		fmt.Printf("  %-5d  %-9d  %-8.2f  %-8.2f  %-8.3f  %-9d  %d\n",
			g.Generation, g.Tick, g.EpisodeFitness, g.BestFitness, g.MutationRate, g.Survivors, g.Replaced)
	}
}
