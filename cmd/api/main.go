package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/maghraz/crm/cmd/api/commands"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "maghraz",
		Short: "Maghraz CRM board server",
		Long:  `Maghraz CRM is a single-tenant customer-relationship board: customers as cards in workflow columns, with reminders, tags, call history and CSV import.`,
	}

	// Add commands
	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewMigrateCommand())
	rootCmd.AddCommand(commands.NewTemplateCommand())
	rootCmd.AddCommand(commands.NewImportCommand())

	// Execute root command
	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution failed: %v", err)
		os.Exit(1)
	}
}
