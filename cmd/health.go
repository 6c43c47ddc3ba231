package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"mermdv/database"
	"mermdv/dataverse"
	"mermdv/utils"
)

var healthTimeout time.Duration

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check Dataverse and history database connectivity",
	Long: `Check that the configured Dataverse environment is reachable and the
access token works, and that the history database (when configured)
answers.

Examples:
  mermdv health                    # Check all configured connections
  mermdv health --timeout 10s      # Set custom timeout
`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := checkHealth(); err != nil {
			fmt.Printf("❌ Health check failed: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	healthCmd.Flags().DurationVarP(&healthTimeout, "timeout", "t", 5*time.Second, "Timeout for health checks")
}

func checkHealth() error {
	ctx, cancel := context.WithTimeout(context.Background(), healthTimeout)
	defer cancel()

	utils.LoadEnv()

	client := dataverse.NewHTTPClient(utils.GetDataverseURL(), dataverse.StaticToken(utils.GetDataverseToken()))
	if err := client.WhoAmI(ctx); err != nil {
		return fmt.Errorf("dataverse: %v", err)
	}
	fmt.Println("✅ Dataverse environment is reachable and the token works")

	if utils.GetHistoryDatabaseURL() == "" {
		fmt.Println("ℹ️  HISTORY_DATABASE_URL not set, history tracking disabled")
		return nil
	}

	pool, err := database.GetPool()
	if err != nil {
		return fmt.Errorf("history database: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("history database ping: %v", err)
	}

	var tableExists bool
	query := `SELECT EXISTS (
		SELECT FROM information_schema.tables
		WHERE table_schema = 'public'
		AND table_name = 'deployment_runs'
	)`
	if err := pool.QueryRow(ctx, query).Scan(&tableExists); err != nil {
		return fmt.Errorf("checking deployment_runs table: %v", err)
	}

	if !tableExists {
		fmt.Println("⚠️  History database is accessible but deployment_runs table not found")
		fmt.Println("   It will be created on the first deploy")
		return nil
	}

	var count int
	if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM deployment_runs").Scan(&count); err != nil {
		return fmt.Errorf("counting deployment runs: %v", err)
	}
	fmt.Printf("📊 History database is healthy, %d deployments recorded\n", count)

	return nil
}
