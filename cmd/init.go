package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new mermdv project",
	Long: `Initialize a new mermdv project in the current directory.

Creates:
- mermdv.yaml    project file (diagram path, publisher, solution)
- diagram.mmd    sample Mermaid erDiagram to start from
- choices.json   sample global choices definition

Examples:
  mermdv init
  mermdv init --force    # Overwrite existing files`,
	Run: func(cmd *cobra.Command, args []string) {
		created := 0
		for _, f := range scaffoldFiles {
			if _, err := os.Stat(f.name); err == nil && !initForce {
				fmt.Printf("⚠️  %s already exists, skipping (use --force to overwrite)\n", f.name)
				continue
			}
			if err := os.WriteFile(f.name, []byte(f.content), 0644); err != nil {
				fmt.Printf("❌ Writing %s: %v\n", f.name, err)
				os.Exit(1)
			}
			fmt.Printf("✅ Created %s\n", f.name)
			created++
		}
		if created > 0 {
			fmt.Println("\nNext steps:")
			fmt.Println("  1. Edit diagram.mmd (or point mermdv.yaml at your own diagram)")
			fmt.Println("  2. mermdv validate")
			fmt.Println("  3. mermdv convert --dry-run")
		}
	},
}

var initForce bool

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite existing files")
}

var scaffoldFiles = []struct {
	name    string
	content string
}{
	{"mermdv.yaml", `# mermdv project file
diagram: diagram.mmd
globalChoices: choices.json

publisher:
  uniqueName: contosopublisher
  friendlyName: Contoso Publisher
  prefix: cto

solution:
  uniqueName: contososolution
  friendlyName: Contoso Solution

# Entities from the Common Data Model referenced by the diagram.
# These are never created; relationships just point at them.
# cdmEntities:
#   - Account
#   - Contact

# dataverse:
#   url: https://yourorg.crm.dynamics.com
`},
	{"diagram.mmd", `erDiagram
    Customer {
        string customer_id PK "Customer number"
        string full_name
        datetime created_on
        bool is_active
    }
    Order {
        string order_id PK
        string customer_id FK
        decimal total
        date ordered_on
    }
    OrderLine {
        string order_line_id PK
        string order_id FK
        int quantity
        decimal price
    }
    Customer ||--o{ Order : places
    Order ||--o{ OrderLine : contains
`},
	{"choices.json", `{
  "globalChoices": [
    {
      "name": "order_status",
      "displayName": "Order Status",
      "options": [
        { "label": "Draft", "value": 100000000 },
        { "label": "Confirmed", "value": 100000001 },
        { "label": "Shipped", "value": 100000002 }
      ]
    }
  ]
}
`},
}
