package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"mermdv/generator"
	"mermdv/schema"
)

var (
	docsOutput string
	docsFile   string
)

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Generate markdown documentation from a diagram",
	Long: `Generate markdown documentation of the tables, columns and
relationships a diagram will create, including the prefixed logical
names Dataverse will use.

Examples:
  mermdv docs                        # Print to stdout
  mermdv docs --output SCHEMA.md
`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadProject()
		if err != nil {
			fmt.Printf("❌ %v\n", err)
			os.Exit(1)
		}
		d, _, file, err := loadDiagram(cfg, docsFile)
		if err != nil {
			fmt.Printf("❌ %v\n", err)
			os.Exit(1)
		}
		if len(d.Entities) == 0 {
			fmt.Println("❌ No tables found in diagram")
			os.Exit(1)
		}

		doc := renderDocs(file, d, generator.New(cfg.Publisher.Prefix, nil))
		if docsOutput == "" {
			fmt.Print(doc)
			return
		}
		if err := os.WriteFile(docsOutput, []byte(doc), 0644); err != nil {
			fmt.Printf("❌ Writing %s: %v\n", docsOutput, err)
			os.Exit(1)
		}
		fmt.Printf("✅ Documentation written to %s\n", docsOutput)
	},
}

func init() {
	docsCmd.Flags().StringVarP(&docsFile, "file", "f", "", "Diagram file (overrides project file)")
	docsCmd.Flags().StringVarP(&docsOutput, "output", "o", "", "Output file (default stdout)")
}

func renderDocs(file string, d *schema.Diagram, gen *generator.Generator) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Schema: %s\n\n", file)
	fmt.Fprintf(&b, "%d tables, %d relationships\n\n", len(d.Entities), len(d.Relationships))

	for _, e := range d.Entities {
		fmt.Fprintf(&b, "## %s\n\n", e.Name)
		if e.IsCDM {
			b.WriteString("Common Data Model table; referenced, never created.\n\n")
			continue
		}
		fmt.Fprintf(&b, "Logical name: `%s`\n\n", gen.LogicalName(e.Name))
		b.WriteString("| Column | Type | Key | Description |\n")
		b.WriteString("|--------|------|-----|-------------|\n")
		for _, a := range e.Attributes {
			var keys []string
			if a.PrimaryKey {
				keys = append(keys, "PK")
			}
			if a.ForeignKey {
				keys = append(keys, "FK")
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
				a.Name, a.Type, strings.Join(keys, " "), a.Description)
		}
		b.WriteString("\n")
	}

	if len(d.Relationships) > 0 {
		b.WriteString("## Relationships\n\n")
		b.WriteString("| From | To | Cardinality | Label |\n")
		b.WriteString("|------|----|-------------|-------|\n")
		for _, r := range d.Relationships {
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
				r.FromEntity, r.ToEntity, r.Cardinality, r.Label)
		}
		b.WriteString("\n")
	}

	return b.String()
}
