package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mermdv/config"
	"mermdv/corrector"
	"mermdv/generator"
	"mermdv/loader"
	"mermdv/schema"
	"mermdv/validator"
)

var (
	convertDiagramFile string
	convertChoicesFile string
	convertOutput      string
	convertAutoFix     bool
	dryRunConvert      bool
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Generate Dataverse metadata payloads from a diagram",
	Long: `Convert a Mermaid erDiagram into Dataverse Web API payloads.

The diagram is validated first; errors abort the conversion. With
--auto-fix, fixable issues are corrected in memory before generating
(the diagram file itself is not touched).

Examples:
  mermdv convert                      # Write artifacts.json
  mermdv convert --dry-run            # Print payloads without writing
  mermdv convert --auto-fix           # Fix warnings, then convert
  mermdv convert --choices choices.json
`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runConvert(); err != nil {
			fmt.Printf("❌ Convert failed: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	convertCmd.Flags().StringVarP(&convertDiagramFile, "file", "f", "", "Diagram file (overrides project file)")
	convertCmd.Flags().StringVar(&convertChoicesFile, "choices", "", "Global choices JSON file (overrides project file)")
	convertCmd.Flags().StringVarP(&convertOutput, "output", "o", "artifacts.json", "Output file for generated payloads")
	convertCmd.Flags().BoolVar(&convertAutoFix, "auto-fix", false, "Apply automatic fixes before converting")
	convertCmd.Flags().BoolVar(&dryRunConvert, "dry-run", false, "Print the payloads instead of writing a file")
}

func runConvert() error {
	cfg, err := loadProject()
	if err != nil {
		return err
	}

	artifacts, warnings, err := buildArtifacts(cfg, convertDiagramFile, convertChoicesFile, convertAutoFix)
	if err != nil {
		return err
	}

	for _, w := range warnings {
		if w.Severity == validator.SeverityWarning {
			fmt.Printf("⚠️  %s\n", w.Message)
		}
	}

	data, err := json.MarshalIndent(artifacts, "", "  ")
	if err != nil {
		return err
	}

	if dryRunConvert {
		fmt.Println("\n================ DRY RUN: Dataverse Payload Preview ================")
		fmt.Println(string(data))
		fmt.Println("====================================================================")
		return nil
	}

	if err := os.WriteFile(convertOutput, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %v", convertOutput, err)
	}
	fmt.Printf("✅ %d tables, %d relationships, %d global choices written to %s\n",
		len(artifacts.Entities), len(artifacts.Relationships), len(artifacts.GlobalChoices), convertOutput)
	return nil
}

// buildArtifacts is the shared parse/validate/generate pipeline behind
// convert and deploy.
func buildArtifacts(cfg *config.Config, diagramOverride, choicesOverride string, autoFix bool) (*generator.Artifacts, []validator.Warning, error) {
	d, text, _, err := loadDiagram(cfg, diagramOverride)
	if err != nil {
		return nil, nil, err
	}

	warnings := validator.Validate(d)
	if autoFix {
		for round := 0; round < maxFixRounds; round++ {
			result := corrector.FixAll(text, warnings)
			if len(result.Resolved) == 0 {
				break
			}
			text = result.Text
			warnings = revalidate(cfg, text)
		}
		d = loader.ParseDiagram(text)
		loader.MarkCDMEntities(d, cfg.CDMEntities)
	}

	if !validator.NewResult(warnings).Valid {
		for _, w := range warnings {
			if w.Severity == validator.SeverityError {
				fmt.Printf("✘ %s\n", w.Message)
			}
		}
		return nil, nil, fmt.Errorf("diagram has validation errors; fix them or run with --auto-fix")
	}

	choicesFile := cfg.GlobalChoices
	if choicesOverride != "" {
		choicesFile = choicesOverride
	}
	var choices []schema.GlobalChoice
	if choicesFile != "" {
		choices, err = loader.LoadGlobalChoicesFromJSON(choicesFile)
		if err != nil {
			return nil, nil, fmt.Errorf("loading global choices: %v", err)
		}
	}

	gen := generator.New(cfg.Publisher.Prefix, choices)
	artifacts, err := gen.Generate(d)
	if err != nil {
		return nil, nil, err
	}
	return artifacts, warnings, nil
}
