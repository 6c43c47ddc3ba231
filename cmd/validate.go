package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"mermdv/validator"
)

var (
	validateDiagramFile string
	validateFormat      string
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a Mermaid ER diagram against Dataverse constraints",
	Long: `Validate a Mermaid erDiagram against Dataverse schema rules.

This command performs comprehensive validation including:
- Primary key presence (every table needs exactly one)
- Foreign key columns backing each relationship
- Naming conflicts with Dataverse primary-name columns
- Reserved Dataverse column names
- Duplicate columns, composite keys, choice column issues
- Many-to-many relationships (Dataverse needs a junction table)

Validation is fully offline; no environment connection is required.
Warning ids are stable across runs, so scripts can track individual
findings through fix cycles.

Examples:
  mermdv validate                     # Validate diagram from mermdv.yaml
  mermdv validate -f diagram.mmd      # Validate a specific file
  mermdv validate --format json       # Machine-readable output
`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runValidate(); err != nil {
			fmt.Printf("❌ Validation failed: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	validateCmd.Flags().StringVarP(&validateDiagramFile, "file", "f", "", "Diagram file (overrides project file)")
	validateCmd.Flags().StringVar(&validateFormat, "format", "text", "Output format (text, json)")
}

func runValidate() error {
	cfg, err := loadProject()
	if err != nil {
		return err
	}
	d, _, file, err := loadDiagram(cfg, validateDiagramFile)
	if err != nil {
		return err
	}

	warnings := validator.Validate(d)
	result := validator.NewResult(warnings)

	if validateFormat == "json" {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
	} else {
		printWarnings(file, warnings)
	}

	if !result.Valid {
		os.Exit(1)
	}
	return nil
}

func printWarnings(file string, warnings []validator.Warning) {
	if len(warnings) == 0 {
		color.Green("✅ %s: no issues found", file)
		return
	}

	fmt.Printf("Validating %s\n\n", file)

	red := color.New(color.FgRed, color.Bold)
	yellow := color.New(color.FgYellow, color.Bold)
	cyan := color.New(color.FgCyan)
	muted := color.New(color.FgHiBlack)

	for _, w := range warnings {
		switch w.Severity {
		case validator.SeverityError:
			red.Print("✘ error   ")
		case validator.SeverityWarning:
			yellow.Print("⚠ warning ")
		default:
			cyan.Print("ℹ info    ")
		}
		fmt.Println(w.Message)
		if w.Suggestion != "" {
			fmt.Printf("            %s\n", w.Suggestion)
		}
		if w.AutoFixable {
			muted.Printf("            auto-fixable (id: %s)\n", w.ID)
		}
	}

	errors, warns, infos := countBySeverity(warnings)
	fmt.Printf("\n%d errors, %d warnings, %d notes\n", errors, warns, infos)
	if fixable := countFixable(warnings); fixable > 0 {
		fmt.Printf("💡 Run 'mermdv fix -f %s --write' to apply %d automatic fixes\n", file, fixable)
	}
}

func countFixable(warnings []validator.Warning) int {
	n := 0
	for _, w := range warnings {
		if w.AutoFixable {
			n++
		}
	}
	return n
}
