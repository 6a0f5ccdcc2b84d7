package main

import (
	"fmt"
	"os"

	"github.com/schemactl/schemactl/internal/app"
	"github.com/schemactl/schemactl/internal/config"
	"github.com/schemactl/schemactl/internal/profiles"
	"github.com/schemactl/schemactl/pkg/interactive"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "schemactl",
	Short: "Install, validate and migrate SQL database schemas",
	Long:  `schemactl installs a declared table catalog into PostgreSQL or SQLite, validates a live database against it, and applies versioned migration steps.`,
}

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Create the schema tables in dependency order",
	RunE:  runInstall,
}

var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Drop the schema tables in reverse dependency order",
	RunE:  runUninstall,
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Compare the live database against the catalog",
	RunE:  runValidate,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending migration steps",
	RunE:  runMigrate,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show installed tables and pending migrations",
	RunE:  runStatus,
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage saved connection profiles",
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved profiles",
	RunE:  runProfileList,
}

var profileSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save a config file as a named profile",
	RunE:  runProfileSave,
}

var profileDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete a saved profile",
	RunE:  runProfileDelete,
}

var service = app.NewService()

var (
	configPath  string
	catalogPath string
	profileDir  string
	profileName string
	overwrite   bool
	assumeYes   bool
	verbose     bool
)

func init() {
	for _, cmd := range []*cobra.Command{installCmd, uninstallCmd, validateCmd, migrateCmd, statusCmd} {
		cmd.Flags().StringVar(&configPath, "config", "", "Path to the database configuration file")
		cmd.Flags().BoolVar(&verbose, "verbose", false, "Enable verbose logging")
		cmd.MarkFlagRequired("config")
	}

	installCmd.Flags().StringVar(&catalogPath, "catalog", "", "Path to a catalog file (defaults to the builtin schema)")
	installCmd.Flags().BoolVar(&overwrite, "overwrite", false, "Drop and recreate tables that already exist (data is lost)")
	installCmd.Flags().BoolVar(&assumeYes, "yes", false, "Skip confirmation prompts")

	uninstallCmd.Flags().StringVar(&catalogPath, "catalog", "", "Path to a catalog file (defaults to the builtin schema)")
	uninstallCmd.Flags().BoolVar(&assumeYes, "yes", false, "Skip confirmation prompts")

	validateCmd.Flags().StringVar(&catalogPath, "catalog", "", "Path to a catalog file (defaults to the builtin schema)")

	profileCmd.PersistentFlags().StringVar(&profileDir, "dir", "", "Profile directory (defaults to ./profiles)")
	profileSaveCmd.Flags().StringVar(&profileName, "name", "", "Profile name")
	profileSaveCmd.Flags().StringVar(&configPath, "config", "", "Path to the database configuration file to save")
	profileSaveCmd.MarkFlagRequired("config")
	profileDeleteCmd.Flags().StringVar(&profileName, "name", "", "Profile name")
	profileDeleteCmd.MarkFlagRequired("name")

	profileCmd.AddCommand(profileListCmd)
	profileCmd.AddCommand(profileSaveCmd)
	profileCmd.AddCommand(profileDeleteCmd)

	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(uninstallCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(profileCmd)

	cobra.OnInitialize(func() {
		rootCmd.SilenceUsage = true
		rootCmd.SilenceErrors = true
	})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runInstall(cmd *cobra.Command, args []string) error {
	if overwrite && !assumeYes {
		prompter := interactive.NewPrompter(os.Stdin)
		if !prompter.Confirm("overwrite install", configPath) {
			return fmt.Errorf("install canceled")
		}
	}
	return service.Install(configPath, catalogPath, overwrite, verbose)
}

func runUninstall(cmd *cobra.Command, args []string) error {
	if !assumeYes {
		prompter := interactive.NewPrompter(os.Stdin)
		if !prompter.Confirm("uninstall", configPath) {
			return fmt.Errorf("uninstall canceled")
		}
	}
	return service.Uninstall(configPath, catalogPath, verbose)
}

func runValidate(cmd *cobra.Command, args []string) error {
	return service.Validate(configPath, catalogPath, verbose)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	return service.Migrate(configPath, verbose)
}

func runStatus(cmd *cobra.Command, args []string) error {
	return service.Status(configPath, verbose)
}

func runProfileList(cmd *cobra.Command, args []string) error {
	manager := profiles.NewManager(profileDir)
	list, err := manager.List("")
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Println("No profiles saved.")
		return nil
	}
	for _, p := range list {
		fmt.Printf("%-30s %-10s %s\n", p.Name, p.Driver, p.Path)
	}
	return nil
}

func runProfileSave(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("cannot load config: %w", err)
	}

	manager := profiles.NewManager(profileDir)
	profile, err := manager.Save(profileName, cfg)
	if err != nil {
		return err
	}
	fmt.Printf("Saved profile %s (%s)\n", profile.Name, profile.Path)
	return nil
}

func runProfileDelete(cmd *cobra.Command, args []string) error {
	manager := profiles.NewManager(profileDir)
	return manager.Delete(profileName)
}
