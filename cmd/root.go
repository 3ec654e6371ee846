/*
 * Copyright 2025 Google LLC
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *    https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */
package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/GoogleCloudPlatform/db-quality-scorer/internal/config"
	"github.com/GoogleCloudPlatform/db-quality-scorer/internal/database"
	_ "github.com/GoogleCloudPlatform/db-quality-scorer/internal/database/mysql"
	_ "github.com/GoogleCloudPlatform/db-quality-scorer/internal/database/oracle"
	_ "github.com/GoogleCloudPlatform/db-quality-scorer/internal/database/postgres"
	_ "github.com/GoogleCloudPlatform/db-quality-scorer/internal/database/sqlserver"
	"github.com/GoogleCloudPlatform/db-quality-scorer/internal/logging"
)

var (
	cfgFile string
	v       = viper.New()
)

// flagBindings maps configuration keys to the flags that override them.
// Only the flags present on the running command are bound.
var flagBindings = map[string]string{
	"database.dialect":  "dialect",
	"database.host":     "host",
	"database.port":     "port",
	"database.user":     "username",
	"database.password": "password",
	"database.name":     "database",
	"database.cloudsql_instance_connection_name": "cloudsql-instance-connection-name",
	"database.cloudsql_use_private_ip":           "cloudsql-use-private-ip",
	"database.row_limit":                         "row-limit",
	"database.order_by":                          "order-by",
	"scoring.metrics":                            "metrics",
	"scoring.columns":                            "columns",
	"scoring.failure_mode":                       "failure-mode",
	"report.format":                              "format",
	"report.out":                                 "out",
	"report.summary":                             "summary",
	"log.level":                                  "log-level",
	"log.format":                                 "log-format",
	"gemini_api_key":                             "gemini-api-key",
	"gemini_model":                               "model",
}

var rootCmd = &cobra.Command{
	Use:   "db_quality_scorer",
	Short: "A tool to score the data quality of tables and files",
	Long: `db_quality_scorer is a CLI tool that scores a dataset against a reference
dataset on completeness, uniqueness, validity, accuracy and consistency.
Datasets are CSV or Parquet files, or database tables given as table:<name>.`,
	SilenceUsage:      true,
	PersistentPreRunE: initFlagsAndConfig,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// initFlagsAndConfig resolves the configuration of the running command and
// installs the global logger.
func initFlagsAndConfig(cmd *cobra.Command, args []string) error {
	for key, name := range flagBindings {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return fmt.Errorf("failed to bind flag --%s: %w", name, err)
			}
		}
	}

	cfg, err := config.Load(v, cfgFile)
	if err != nil {
		return err
	}
	if partial, _ := cmd.Flags().GetBool("partial"); partial {
		cfg.Scoring.FailureMode = "partial"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	zap.ReplaceGlobals(logger)
	config.SetConfig(cfg)
	return nil
}

func currentConfig() (*config.Config, error) {
	cfg := config.Current()
	if cfg == nil {
		return nil, fmt.Errorf("configuration is not initialized")
	}
	return cfg, nil
}

func setupDatabase(ctx context.Context, cfg config.DatabaseConfig) (*database.DB, error) {
	db, err := database.New(ctx, cfg)
	if err != nil {
		zap.L().Error("Failed to connect to database", zap.String("dialect", cfg.Dialect), zap.Error(err))
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", fmt.Sprintf("Config file (default is ./%s.yaml)", config.DefaultConfigName))

	// Database connection flags
	rootCmd.PersistentFlags().String("dialect", "", fmt.Sprintf("Database dialect (%s)", strings.Join(config.SupportedDialects, ", ")))
	rootCmd.PersistentFlags().String("host", "", "Database host")
	rootCmd.PersistentFlags().Int("port", 0, "Database port")
	rootCmd.PersistentFlags().String("username", "", "Database username")
	rootCmd.PersistentFlags().String("password", "", "Database password")
	rootCmd.PersistentFlags().String("database", "", "Database name")
	rootCmd.PersistentFlags().String("cloudsql-instance-connection-name", "", "Cloud SQL instance connection name (for Cloud SQL dialects) - MANDATORY for CloudSQL")
	rootCmd.PersistentFlags().Bool("cloudsql-use-private-ip", false, "Use private IP for Cloud SQL connection (Cloud SQL)")

	// Logging flags
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "Log format (console or json)")

	// Gemini API Key flag
	rootCmd.PersistentFlags().String("gemini-api-key", "", "Gemini API key (can also be set via GEMINI_API_KEY environment variable)")

	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(listTablesCmd)
}
