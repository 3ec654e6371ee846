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

// Package oracle registers the Oracle dialect, backed by the pure Go
// go-ora driver. The database name is used as the service name.
package oracle

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	goora "github.com/sijms/go-ora/v2"

	"github.com/GoogleCloudPlatform/db-quality-scorer/internal/config"
	"github.com/GoogleCloudPlatform/db-quality-scorer/internal/database"
)

const defaultPort = 1521

type oracleHandler struct{}

var _ database.DialectHandler = (*oracleHandler)(nil)

// CreateCloudSQLPool always fails: Cloud SQL has no Oracle engine.
func (h oracleHandler) CreateCloudSQLPool(cfg config.DatabaseConfig) (*sql.DB, error) {
	return nil, errors.New("Cloud SQL does not offer Oracle; use the oracle dialect with a host")
}

func (h oracleHandler) CreateStandardPool(cfg config.DatabaseConfig) (*sql.DB, error) {
	port := cfg.Port
	if port == 0 {
		port = defaultPort
	}
	dsn := goora.BuildUrl(cfg.Host, port, cfg.DBName, cfg.User, cfg.Password, nil)
	dbPool, err := sql.Open("oracle", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql.Open (oracle): %w", err)
	}
	return dbPool, nil
}

func (h oracleHandler) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (h oracleHandler) ListTables(ctx context.Context, db *database.DB) ([]string, error) {
	rows, err := db.Pool.QueryContext(ctx, "SELECT TABLE_NAME FROM USER_TABLES ORDER BY TABLE_NAME")
	if err != nil {
		return nil, fmt.Errorf("error querying tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("error scanning table name: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating table rows: %w", err)
	}
	return tables, nil
}

func (h oracleHandler) ListColumns(ctx context.Context, db *database.DB, tableName string) ([]database.ColumnInfo, error) {
	query := "SELECT COLUMN_NAME, DATA_TYPE FROM USER_TAB_COLUMNS WHERE TABLE_NAME = :1 ORDER BY COLUMN_ID"
	rows, err := db.Pool.QueryContext(ctx, query, tableName)
	if err != nil {
		return nil, fmt.Errorf("error querying columns for table %s: %w", tableName, err)
	}
	defer rows.Close()

	var columns []database.ColumnInfo
	for rows.Next() {
		var c database.ColumnInfo
		if err := rows.Scan(&c.Name, &c.DataType); err != nil {
			return nil, fmt.Errorf("error scanning column name and data type: %w", err)
		}
		columns = append(columns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column rows: %w", err)
	}
	return columns, nil
}

// SelectRowsQuery uses the 12c row limiting clause.
func (h oracleHandler) SelectRowsQuery(tableName string, columns []string, orderBy string, limit int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", database.QuoteList(h.QuoteIdentifier, columns), h.QuoteIdentifier(tableName))
	if orderBy != "" {
		fmt.Fprintf(&b, " ORDER BY %s", h.QuoteIdentifier(orderBy))
	}
	if limit > 0 {
		fmt.Fprintf(&b, " FETCH FIRST %d ROWS ONLY", limit)
	}
	return b.String()
}

func init() {
	database.RegisterDialectHandler("oracle", oracleHandler{})
}
