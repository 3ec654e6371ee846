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
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// listTablesCmd represents the list-tables command
var listTablesCmd = &cobra.Command{
	Use:     "list-tables",
	Short:   "List the tables of the configured database",
	Long:    `Connects to the database and prints one table per line. Any of them can be scored as table:<name>.`,
	Example: `./db_quality_scorer list-tables --dialect mysql --host localhost --port 3306 --username user --password pass --database shop`,
	Args:    cobra.NoArgs,
	RunE:    runListTables,
}

func runListTables(cmd *cobra.Command, args []string) error {
	cfg, err := currentConfig()
	if err != nil {
		return err
	}
	zap.L().Info("Starting list-tables operation",
		zap.String("dialect", cfg.Database.Dialect), zap.String("database", cfg.Database.DBName))

	ctx := cmd.Context()
	db, err := setupDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	tables, err := db.ListTables(ctx)
	if err != nil {
		return fmt.Errorf("failed to list tables: %w", err)
	}
	for _, table := range tables {
		fmt.Fprintln(cmd.OutOrStdout(), table)
	}
	zap.L().Info("List tables operation completed", zap.Int("tables", len(tables)))
	return nil
}
