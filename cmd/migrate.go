package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/killallgit/diarist/internal/database"
	"github.com/killallgit/diarist/internal/models"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the session store schema",
	Long: `Manage the schema of the session store database (database.path).

Every command that opens the store migrates it automatically; these
subcommands exist to prepare or inspect a store ahead of time.

Available subcommands:
  up      - Create or update all tables
  status  - Show which tables exist`,
}

// migrateUpCmd applies the schema
var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Create or update all tables",
	RunE:  runMigrateUp,
}

// migrateStatusCmd shows migration status
var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which tables exist",
	RunE:  runMigrateStatus,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateStatusCmd)

	migrateCmd.PersistentFlags().Bool("dry-run", false, "show what would be done without making changes")
}

type tabler interface {
	TableName() string
}

func tableName(m any) string {
	if t, ok := m.(tabler); ok {
		return t.TableName()
	}
	return fmt.Sprintf("%T", m)
}

func runMigrateUp(cmd *cobra.Command, args []string) error {
	if err := loadConfig(cmd); err != nil {
		return err
	}
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	out := cmd.OutOrStdout()

	db, err := database.Initialize(appConfig.Database.Path, appConfig.Database.Verbose)
	if err != nil {
		return err
	}
	defer db.Close()

	if dryRun {
		fmt.Fprintln(out, "Dry run mode - no changes will be made")
		return printTableStatus(cmd, db)
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		return err
	}
	fmt.Fprintf(out, "Session store at %s is up to date\n", appConfig.Database.Path)
	return nil
}

func runMigrateStatus(cmd *cobra.Command, args []string) error {
	if err := loadConfig(cmd); err != nil {
		return err
	}
	db, err := database.Initialize(appConfig.Database.Path, appConfig.Database.Verbose)
	if err != nil {
		return err
	}
	defer db.Close()
	return printTableStatus(cmd, db)
}

func printTableStatus(cmd *cobra.Command, db *database.DB) error {
	out := cmd.OutOrStdout()
	for _, m := range models.All() {
		status := "missing"
		if db.Migrator().HasTable(m) {
			status = "present"
		}
		fmt.Fprintf(out, "  %-22s %s\n", tableName(m), status)
	}
	return nil
}
