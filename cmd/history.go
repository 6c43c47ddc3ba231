package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"mermdv/history"
)

var (
	historyLimit int
	historyRun   string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show detailed deployment history",
	Long: `Show detailed deployment history with per-operation outcomes.

Examples:
  mermdv history                     # Recent runs with their operations
  mermdv history --run <run-id>      # One run in full
  mermdv history --limit 5
`,
	Run: func(cmd *cobra.Command, args []string) {
		store, err := history.NewStore()
		if err != nil {
			fmt.Printf("❌ Connecting to history database: %v\n", err)
			os.Exit(1)
		}
		ctx := context.Background()

		var runs []history.Run
		if historyRun != "" {
			all, err := store.ListRuns(ctx, 1000)
			if err != nil {
				fmt.Printf("❌ Reading deployment runs: %v\n", err)
				os.Exit(1)
			}
			for _, r := range all {
				if r.ID == historyRun {
					runs = []history.Run{r}
					break
				}
			}
			if len(runs) == 0 {
				fmt.Printf("❌ No run with id %s\n", historyRun)
				os.Exit(1)
			}
		} else {
			runs, err = store.ListRuns(ctx, historyLimit)
			if err != nil {
				fmt.Printf("❌ Reading deployment runs: %v\n", err)
				os.Exit(1)
			}
		}

		if len(runs) == 0 {
			fmt.Println("📋 No deployment history found")
			return
		}

		fmt.Println("📋 Deployment History")
		fmt.Println(strings.Repeat("=", 60))
		for _, r := range runs {
			showRun(ctx, store, r)
		}
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "Number of runs to show")
	historyCmd.Flags().StringVar(&historyRun, "run", "", "Show a single run by id")
}

func showRun(ctx context.Context, store *history.Store, r history.Run) {
	green := color.New(color.FgGreen, color.Bold)
	red := color.New(color.FgRed, color.Bold)
	yellow := color.New(color.FgYellow, color.Bold)
	blue := color.New(color.FgBlue, color.Bold)
	cyan := color.New(color.FgCyan)

	fmt.Println()
	switch r.Status {
	case "success":
		green.Print("✅ ")
	case "failed":
		red.Print("❌ ")
	default:
		yellow.Print("⏳ ")
	}
	blue.Printf("%s → %s\n", r.DiagramFile, r.Solution)
	cyan.Printf("   📅 Started: %s", r.StartedAt.Format("2006-01-02 15:04:05"))
	if r.FinishedAt != nil {
		cyan.Printf("  ⏱  Took: %s", r.FinishedAt.Sub(r.StartedAt).Round(time.Second))
	}
	fmt.Println()
	cyan.Printf("   🌐 %s  👤 %s  🆔 %s\n", r.Environment, r.ExecutedBy, r.ID)

	ops, err := store.RunOperations(ctx, r.ID)
	if err != nil {
		red.Printf("   failed to read operations: %v\n", err)
		return
	}
	for _, op := range ops {
		mark := "✔"
		style := green
		if op.Status != "success" {
			mark, style = "✘", red
		}
		style.Printf("   %s ", mark)
		fmt.Printf("%-25s %s\n", op.Type, op.Target)
		if op.ErrorMessage != "" {
			red.Printf("     %s\n", op.ErrorMessage)
		}
	}
}
