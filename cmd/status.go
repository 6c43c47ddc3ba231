package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"mermdv/history"
)

var statusLimit int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show recent deployment runs",
	Long: `Show recent deployment runs from the history database.

Requires HISTORY_DATABASE_URL to be set; deploy records runs there
automatically.

Examples:
  mermdv status              # Last 10 runs
  mermdv status --limit 25
`,
	Run: func(cmd *cobra.Command, args []string) {
		store, err := history.NewStore()
		if err != nil {
			fmt.Printf("❌ Connecting to history database: %v\n", err)
			os.Exit(1)
		}

		runs, err := store.ListRuns(context.Background(), statusLimit)
		if err != nil {
			fmt.Printf("❌ Reading deployment runs: %v\n", err)
			os.Exit(1)
		}

		if len(runs) == 0 {
			fmt.Println("📋 No deployments recorded yet")
			return
		}

		green := color.New(color.FgGreen)
		red := color.New(color.FgRed)
		yellow := color.New(color.FgYellow)

		fmt.Println("📋 Recent deployments")
		for _, r := range runs {
			switch r.Status {
			case "success":
				green.Print("✅ ")
			case "failed":
				red.Print("❌ ")
			default:
				yellow.Print("⏳ ")
			}
			fmt.Printf("%s  %s → %s (%s)\n",
				r.StartedAt.Format("2006-01-02 15:04:05"), r.DiagramFile, r.Solution, r.ID)
			if r.ErrorMessage != "" {
				red.Printf("   %s\n", r.ErrorMessage)
			}
		}
	},
}

func init() {
	statusCmd.Flags().IntVar(&statusLimit, "limit", 10, "Number of runs to show")
}
