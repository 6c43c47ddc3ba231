package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"mermdv/corrector"
	"mermdv/validator"
)

var (
	fixDiagramFile string
	fixID          string
	fixWrite       bool
	fixOutput      string
	fixFormat      string
)

// Fixing can uncover follow-up issues (a junction table synthesized for
// a many-to-many still needs its relationships checked), so fix rounds
// repeat until the text settles. Each round resolves at least one
// warning, so the bound is never hit in practice.
const maxFixRounds = 10

var fixCmd = &cobra.Command{
	Use:   "fix",
	Short: "Auto-fix diagram issues found by validation",
	Long: `Apply automatic fixes for validation warnings.

Fixes are minimal text edits: the rest of the diagram, including
comments and formatting, is preserved. Fixing is idempotent; running
fix on already-corrected text changes nothing.

Examples:
  mermdv fix                                  # Preview all fixes
  mermdv fix --write                          # Fix in place
  mermdv fix -o fixed.mmd                     # Write to a new file
  mermdv fix --id missing_primary_key:Order   # Apply one fix by id
`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runFix(); err != nil {
			fmt.Printf("❌ Fix failed: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	fixCmd.Flags().StringVarP(&fixDiagramFile, "file", "f", "", "Diagram file (overrides project file)")
	fixCmd.Flags().StringVar(&fixID, "id", "", "Apply only the fix with this warning id")
	fixCmd.Flags().BoolVarP(&fixWrite, "write", "w", false, "Write the corrected diagram back to the input file")
	fixCmd.Flags().StringVarP(&fixOutput, "output", "o", "", "Write the corrected diagram to this file")
	fixCmd.Flags().StringVar(&fixFormat, "format", "text", "Output format (text, json)")
}

func runFix() error {
	cfg, err := loadProject()
	if err != nil {
		return err
	}
	d, text, file, err := loadDiagram(cfg, fixDiagramFile)
	if err != nil {
		return err
	}

	warnings := validator.Validate(d)
	var resolved []string

	if fixID != "" {
		result := corrector.FixOne(text, fixID, warnings)
		text = result.Text
		resolved = result.Resolved
		if len(resolved) == 0 {
			return fmt.Errorf("no auto-fixable warning with id %q", fixID)
		}
	} else {
		for round := 0; round < maxFixRounds; round++ {
			result := corrector.FixAll(text, warnings)
			if len(result.Resolved) == 0 {
				break
			}
			text = result.Text
			resolved = append(resolved, result.Resolved...)
			warnings = revalidate(cfg, text)
		}
	}

	remaining := validator.MarkFixed(revalidate(cfg, text), resolved)

	if fixFormat == "json" {
		out := struct {
			Text     string              `json:"text"`
			Resolved []string            `json:"resolved"`
			Warnings []validator.Warning `json:"warnings"`
		}{text, resolved, remaining}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
	} else if len(resolved) == 0 {
		color.Green("✅ Nothing to fix")
	} else {
		for _, id := range resolved {
			color.Green("✔ fixed %s", id)
		}
		errors, warns, _ := countBySeverity(remaining)
		fmt.Printf("\n%d fixes applied, %d errors and %d warnings remain\n", len(resolved), errors, warns)
	}

	return writeCorrected(file, text, len(resolved) > 0)
}

func writeCorrected(file, text string, changed bool) error {
	switch {
	case fixOutput != "":
		if err := os.WriteFile(fixOutput, []byte(text), 0644); err != nil {
			return fmt.Errorf("writing %s: %v", fixOutput, err)
		}
		fmt.Printf("📄 Corrected diagram written to %s\n", fixOutput)
	case fixWrite && changed:
		if err := os.WriteFile(file, []byte(text), 0644); err != nil {
			return fmt.Errorf("writing %s: %v", file, err)
		}
		fmt.Printf("📄 %s updated in place\n", file)
	case changed && fixFormat != "json":
		fmt.Println("💡 Re-run with --write to save, or -o <file> for a copy")
	}
	return nil
}
