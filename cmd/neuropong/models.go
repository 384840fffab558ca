package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/neuropong/internal/storage"
)

var flagShowHistory int

var modelsCmd = &cobra.Command{
	Use:   "models [name]",
	Short: "List saved models",
	Long: `Shows every model name in the database with its number of saves and
best fitness. Given a name, shows that model's most recent saves.

Examples:
  neuropong models
  neuropong models default --limit 20
  neuropong models delete old-run`,
	Args: cobra.MaximumNArgs(1),
	Run:  runModels,
}

var modelsDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete every saved snapshot of a model",
	Args:  cobra.ExactArgs(1),
	Run:   runModelsDelete,
}

func init() {
	modelsCmd.Flags().IntVar(&flagShowHistory, "limit", 10, "Number of saves to show for a named model")
	modelsCmd.AddCommand(modelsDeleteCmd)
}

func mustOpenStore() *storage.Store {
	cfg, err := loadConfig()
	if err != nil {
		exitf("%v", err)
	}
	store, err := storage.Open(cfg.Storage.Path)
	if err != nil {
		exitf("opening model database: %v", err)
	}
	return store
}

func runModels(_ *cobra.Command, args []string) {
	store := mustOpenStore()
	defer store.Close()

	ctx := context.Background()
	if len(args) == 1 {
		showModelHistory(ctx, store, args[0])
		return
	}

	models, err := store.ListModels(ctx)
	if err != nil {
		store.Close()
		exitf("listing models: %v", err)
	}

	if len(models) == 0 {
		fmt.Println("No models saved yet.")
		fmt.Println()
		fmt.Println("Run 'neuropong train' to evolve one!")
		return
	}

	fmt.Println("Saved models:")
	fmt.Println()

	// Calculate column widths
	maxNameLen := 4 // "Name" header
	for _, m := range models {
		if len(m.Name) > maxNameLen {
			maxNameLen = len(m.Name)
		}
	}

	fmt.Printf("  %-*s  %-6s  %-8s  %-8s  %s\n", maxNameLen, "Name", "Saves", "Best", "Net", "Last saved")
	fmt.Printf("  %-*s  %-6s  %-8s  %-8s  %s\n", maxNameLen, "----", "-----", "----", "---", "----------")
	for _, m := range models {
		fmt.Printf("  %-*s  %-6d  %-8.2f  %-8s  %s\n",
			maxNameLen, m.Name, m.Count, m.BestFitness, m.Topology, m.LastSaved.Format("2006-01-02 15:04"))
	}

	fmt.Println()
	fmt.Println("Run 'neuropong play --model <name>' to play against one.")
}

func showModelHistory(ctx context.Context, store *storage.Store, name string) {
	records, err := store.ModelHistory(ctx, name, flagShowHistory)
	if err != nil {
		store.Close()
		exitf("reading model %q: %v", name, err)
	}

	fmt.Printf("Saves - %s\n", name)
	fmt.Println()

	if len(records) == 0 {
		fmt.Println("No saves recorded for this name.")
		return
	}

	fmt.Printf("  %-6s  %-8s  %-5s  %-6s  %s\n", "ID", "Fitness", "Gen", "Brain", "Date")
	fmt.Printf("  %-6s  %-8s  %-5s  %-6s  %s\n", "--", "-------", "---", "-----", "----")
	for _, r := range records {
		fmt.Printf("  %-6d  %-8.2f  %-5d  %-6d  %s\n",
			r.ID, r.Fitness, r.Generation, r.BrainID, r.CreatedAt.Format("2006-01-02 15:04"))
	}
}

func runModelsDelete(_ *cobra.Command, args []string) {
	store := mustOpenStore()
	defer store.Close()

	n, err := store.DeleteModels(context.Background(), args[0])
	if err != nil {
		store.Close()
		exitf("deleting model %q: %v", args[0], err)
	}
	if n == 0 {
		fmt.Printf("No saves found for %q.\n", args[0])
		return
	}
	fmt.Printf("Deleted %d saves of %q.\n", n, args[0])
}
