// Package cli holds the shopstock command line.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/suteetoe/shopstock/internal/model"
	"github.com/suteetoe/shopstock/pkg/config"
	"github.com/suteetoe/shopstock/pkg/database"
	"github.com/suteetoe/shopstock/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const serviceName = "shopstock"

var rootCmd = &cobra.Command{
	Use:   "shopstock",
	Short: "Multi-shop inventory and ordering backend",
	Long: `shopstock tracks products, stock movements and scheduled orders for
several independent shops.

Run "shopstock serve" to start the HTTP API. The other commands manage the
database and accounts directly.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// bootstrap loads configuration, starts the logger and opens the database
func bootstrap() (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load(serviceName)
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}

	err = logger.InitLogger(&logger.LogConfig{
		Level:       cfg.Log.Level,
		Environment: cfg.Server.Env,
		ServiceName: cfg.ServiceName,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	log := logger.GetLogger()
	log.Info("Configuration loaded", cfg.LogConfig()...)

	db, err := database.InitDB(&cfg.DB)
	if err != nil {
		return nil, nil, err
	}
	log.Info("Database connection established", zap.String("driver", cfg.DB.Driver))
	return cfg, db, nil
}

// migrate creates or updates every table
func migrate(db *gorm.DB) error {
	return database.MigrateModels(db, model.All()...)
}
