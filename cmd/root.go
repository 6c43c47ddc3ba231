package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "mermdv",
	Short: "Convert Mermaid ER diagrams into Dataverse tables",
	Long: `mermdv turns a Mermaid erDiagram into Microsoft Dataverse metadata:
validate the diagram, auto-fix what Dataverse would reject, generate the
Web API payloads and deploy them into a solution.

Examples:

  mermdv init
  mermdv validate -f diagram.mmd
  mermdv fix -f diagram.mmd --write
  mermdv convert --dry-run
  mermdv deploy
  mermdv wizard
`,
}

// Execute runs the CLI
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("❌", err)
		os.Exit(1)
	}
}

// Register subcommands
func init() {
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(fixCmd)
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(deployCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(wizardCmd)
	rootCmd.AddCommand(docsCmd)
}
