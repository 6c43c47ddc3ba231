package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mermdv/tui"
)

var wizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive diagram-to-Dataverse walkthrough",
	Long: `Walk through validating, fixing and converting a diagram
interactively.

The wizard loads a diagram, shows every validation finding, offers to
apply the automatic fixes, and writes the Dataverse payloads when the
diagram is clean enough. Deployment stays a separate step; review
artifacts.json, then run 'mermdv deploy'.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadProject()
		if err != nil {
			fmt.Printf("❌ %v\n", err)
			os.Exit(1)
		}

		outcome, err := tui.Run(cfg)
		if err != nil {
			fmt.Printf("❌ Wizard failed: %v\n", err)
			os.Exit(1)
		}
		if outcome.DiagramFile == "" {
			return // quit before loading anything
		}

		if outcome.FixesApplied > 0 {
			fmt.Printf("✅ %d fixes applied to %s\n", outcome.FixesApplied, outcome.DiagramFile)
		}
		if outcome.ArtifactsFile != "" {
			fmt.Printf("✅ Payloads written to %s\n", outcome.ArtifactsFile)
			fmt.Println("💡 Run 'mermdv deploy' to push them to Dataverse")
		}
	},
}
