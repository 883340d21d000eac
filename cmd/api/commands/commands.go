package commands

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"

	"github.com/maghraz/crm/internal/adapters/notifier"
	"github.com/maghraz/crm/internal/adapters/repository"
	"github.com/maghraz/crm/internal/application/services"
	"github.com/maghraz/crm/internal/infrastructure/config"
	"github.com/maghraz/crm/internal/infrastructure/database"
	"github.com/maghraz/crm/internal/infrastructure/logger"
	"github.com/maghraz/crm/internal/infrastructure/server"
	"github.com/maghraz/crm/internal/ports"
)

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the Maghraz CRM board server",
		Long:  "Start the board server with the reminder sweep and all configured routes and middleware",
		Run: func(cmd *cobra.Command, args []string) {
			runServer()
		},
	}
}

// NewMigrateCommand creates the migrate command with subcommands
func NewMigrateCommand() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration commands (postgres backend)",
		Long:  "Manage database migrations (up, down, version)",
	}

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Run all up migrations",
		Run: func(cmd *cobra.Command, args []string) {
			runMigration("up")
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Run all down migrations",
		Run: func(cmd *cobra.Command, args []string) {
			runMigration("down")
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print current migration version",
		Run: func(cmd *cobra.Command, args []string) {
			showMigrationVersion()
		},
	})

	return migrateCmd
}

// NewTemplateCommand creates the CSV template export command
func NewTemplateCommand() *cobra.Command {
	templateCmd := &cobra.Command{
		Use:   "template",
		Short: "Write the blank CSV import template",
		Run: func(cmd *cobra.Command, args []string) {
			output, _ := cmd.Flags().GetString("output")
			writeTemplate(output)
		},
	}

	templateCmd.Flags().StringP("output", "o", "maghraz_crm_template.csv", "Output file path")

	return templateCmd
}

// NewImportCommand creates the CSV import command
func NewImportCommand() *cobra.Command {
	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Import customers from a CSV file into the board",
		Run: func(cmd *cobra.Command, args []string) {
			file, _ := cmd.Flags().GetString("file")
			if file == "" {
				log.Fatal("--file is required")
			}
			runImport(file)
		},
	}

	importCmd.Flags().StringP("file", "f", "", "CSV file to import")

	return importCmd
}

func runServer() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Close()

	if cfg.App.IsProduction() && cfg.App.Debug {
		appLogger.Warn("Debug mode is enabled in production")
	}

	appLogger.Infow("Starting Maghraz CRM",
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
		"store_backend", cfg.Store.Backend,
	)

	// Initialize the board repository
	repo, db, err := buildRepository(cfg)
	if err != nil {
		appLogger.Fatalw("Failed to initialize board store", "error", err)
	}
	if db != nil {
		defer db.Close()
	}

	// Load the board document; a corrupt store is fatal
	boardService, err := services.NewBoardService(context.Background(), repo, appLogger)
	if err != nil {
		appLogger.Fatalw("Failed to load board", "error", err)
	}

	importService := services.NewImportService(boardService, appLogger)
	whatsappService := services.NewWhatsAppService(cfg.WhatsApp.CountryCode, cfg.WhatsApp.Messages)

	// Start the reminder sweep, tied to the server lifetime
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	reminderService := services.NewReminderService(boardService, notifier.NewLogNotifier(appLogger), cfg.Sweep.Interval, appLogger)
	reminderService.Start(sweepCtx)

	// Initialize server
	srv, err := server.New(cfg, boardService, importService, whatsappService, db, appLogger)
	if err != nil {
		stopSweep()
		appLogger.Fatalw("Failed to initialize server", "error", err)
	}

	// Start server in a goroutine
	go func() {
		address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		if err := srv.Start(address); err != nil {
			appLogger.Infow("Server stopped", "reason", err.Error())
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down")

	// Stop the sweep before tearing down the board it mutates
	stopSweep()
	reminderService.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Errorw("Server shutdown failed", "error", err)
	}
}

func runMigration(direction string) {
	m := newMigrator()
	defer m.Close()

	var err error
	switch direction {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	}

	if err != nil && err != migrate.ErrNoChange {
		log.Fatalf("Migration %s failed: %v", direction, err)
	}

	fmt.Printf("Migration %s completed\n", direction)
}

func showMigrationVersion() {
	m := newMigrator()
	defer m.Close()

	version, dirty, err := m.Version()
	if err == migrate.ErrNilVersion {
		fmt.Println("No migrations applied yet")
		return
	}
	if err != nil {
		log.Fatalf("Failed to read migration version: %v", err)
	}

	fmt.Printf("Current version: %d (dirty: %v)\n", version, dirty)
}

func newMigrator() *migrate.Migrate {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	driver, err := postgres.WithInstance(db.DB.DB, &postgres.Config{})
	if err != nil {
		log.Fatalf("Failed to create migration driver: %v", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://migrations", cfg.Database.Name, driver)
	if err != nil {
		log.Fatalf("Failed to create migrator: %v", err)
	}

	return m
}

func writeTemplate(path string) {
	appLogger := logger.NewNop()

	file, err := os.Create(path)
	if err != nil {
		log.Fatalf("Failed to create template file: %v", err)
	}
	defer file.Close()

	importService := services.NewImportService(nil, appLogger)
	if err := importService.WriteTemplate(file); err != nil {
		log.Fatalf("Failed to write template: %v", err)
	}

	fmt.Printf("Template written to %s\n", path)
}

func runImport(path string) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Close()

	repo, db, err := buildRepository(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize board store: %v", err)
	}
	if db != nil {
		defer db.Close()
	}

	boardService, err := services.NewBoardService(context.Background(), repo, appLogger)
	if err != nil {
		log.Fatalf("Failed to load board: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		log.Fatalf("Failed to open import file: %v", err)
	}
	defer file.Close()

	importService := services.NewImportService(boardService, appLogger)
	count, err := importService.ImportCSV(file)
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}

	// The board service saves asynchronously; force a final synchronous
	// save so the CLI exits with the import on disk.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := repo.Save(ctx, boardService.Snapshot()); err != nil {
		log.Fatalf("Failed to persist imported board: %v", err)
	}

	fmt.Printf("Imported %d customers\n", count)
}

func buildRepository(cfg *config.Config) (ports.BoardRepository, *database.DB, error) {
	switch cfg.Store.Backend {
	case "postgres":
		db, err := database.New(cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to database: %w", err)
		}
		return repository.NewPostgresBoardRepository(db.DB), db, nil
	default:
		return repository.NewFileBoardRepository(cfg.Store.FilePath), nil, nil
	}
}
