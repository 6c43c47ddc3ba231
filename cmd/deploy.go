package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mermdv/dataverse"
	"mermdv/deployer"
	"mermdv/diff"
	"mermdv/generator"
	"mermdv/history"
	"mermdv/introspect"
	"mermdv/utils"
)

var (
	deployDiagramFile string
	deployChoicesFile string
	deployAutoFix     bool
	dryRunDeploy      bool
	deployTimeout     time.Duration
)

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Deploy generated metadata into a Dataverse environment",
	Long: `Deploy the diagram's tables, relationships and global choices into
the Dataverse environment at DATAVERSE_URL.

The environment is introspected first and only missing metadata is
created, so re-running deploy after a partial failure picks up where it
left off. The publisher and solution from the project file are created
when absent. When HISTORY_DATABASE_URL is set, every run and operation
is recorded there.

Examples:
  mermdv deploy                       # Deploy diagram from mermdv.yaml
  mermdv deploy --dry-run             # Show what would be created
  mermdv deploy --auto-fix            # Fix warnings before deploying
`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runDeploy(); err != nil {
			fmt.Printf("❌ Deploy failed: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	deployCmd.Flags().StringVarP(&deployDiagramFile, "file", "f", "", "Diagram file (overrides project file)")
	deployCmd.Flags().StringVar(&deployChoicesFile, "choices", "", "Global choices JSON file (overrides project file)")
	deployCmd.Flags().BoolVar(&deployAutoFix, "auto-fix", false, "Apply automatic fixes before deploying")
	deployCmd.Flags().BoolVar(&dryRunDeploy, "dry-run", false, "Show pending operations without executing them")
	deployCmd.Flags().DurationVar(&deployTimeout, "timeout", 30*time.Minute, "Overall deployment timeout")
}

func runDeploy() error {
	cfg, err := loadProject()
	if err != nil {
		return err
	}

	artifacts, _, err := buildArtifacts(cfg, deployDiagramFile, deployChoicesFile, deployAutoFix)
	if err != nil {
		return err
	}

	utils.LoadEnv()
	baseURL := os.Getenv("DATAVERSE_URL")
	if baseURL == "" {
		baseURL = cfg.Dataverse.URL
	}
	if baseURL == "" {
		return fmt.Errorf("no environment: set DATAVERSE_URL or dataverse.url in %s", configFile)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		logger = zap.NewNop()
	}
	defer logger.Sync()

	client := dataverse.NewHTTPClient(baseURL,
		dataverse.StaticToken(utils.GetDataverseToken()),
		dataverse.WithLogger(logger))

	ctx, cancel := context.WithTimeout(context.Background(), deployTimeout)
	defer cancel()

	if err := client.WhoAmI(ctx); err != nil {
		return fmt.Errorf("connecting to %s: %v", baseURL, err)
	}

	existing, err := introspect.IntrospectEnvironment(ctx, client)
	if err != nil {
		return fmt.Errorf("introspecting environment: %v", err)
	}

	ops := diff.DiffArtifacts(artifacts, existing)
	if len(ops) == 0 {
		fmt.Println("✅ Environment is up to date, nothing to deploy.")
		return nil
	}

	if dryRunDeploy {
		fmt.Println("\n================ DRY RUN: Pending Operations ================")
		for _, op := range ops {
			fmt.Printf("  %-25s %s\n", op.Type, op.Target())
		}
		fmt.Printf("==============================================================\n%d operations pending\n", len(ops))
		return nil
	}

	opts := []deployer.Option{deployer.WithLogger(logger)}
	if utils.GetHistoryDatabaseURL() != "" {
		store, err := history.NewStore()
		if err != nil {
			return err
		}
		if err := store.EnsureTables(ctx); err != nil {
			return err
		}
		opts = append(opts, deployer.WithHistory(store))
	}

	diagramFile := cfg.Diagram
	if deployDiagramFile != "" {
		diagramFile = deployDiagramFile
	}

	gen := generator.New(cfg.Publisher.Prefix, nil)
	summary, err := deployer.New(client, opts...).Deploy(ctx, gen, ops, deployer.Options{
		PublisherUniqueName:   cfg.Publisher.UniqueName,
		PublisherFriendlyName: cfg.Publisher.FriendlyName,
		SolutionUniqueName:    cfg.Solution.UniqueName,
		SolutionFriendlyName:  cfg.Solution.FriendlyName,
		DiagramFile:           diagramFile,
		Environment:           baseURL,
	})
	if summary != nil && summary.RunID != "" {
		fmt.Printf("📋 Run recorded as %s\n", summary.RunID)
	}
	if err != nil {
		return err
	}

	fmt.Printf("✅ Deployed %d tables, %d attributes, %d relationships, %d global choices\n",
		summary.Entities, summary.Attributes, summary.Relationships, summary.GlobalChoices)
	return nil
}
