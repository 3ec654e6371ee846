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

// Package database connects to SQL databases through per-dialect handlers
// and materializes tables as datasets.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/GoogleCloudPlatform/db-quality-scorer/internal/config"
	"github.com/GoogleCloudPlatform/db-quality-scorer/internal/dataset"
)

// DBAdapter defines the interface for database operations needed by the assessor.
type DBAdapter interface {
	ListTables(ctx context.Context) ([]string, error)
	ListColumns(ctx context.Context, tableName string) ([]ColumnInfo, error)
	LoadTable(ctx context.Context, tableName string, opts LoadOptions) (*dataset.Dataset, error)
	Ping(ctx context.Context) error
	Close() error
	GetConfig() config.DatabaseConfig
}

var _ DBAdapter = (*DB)(nil)

// DB holds the database connection pool and dialect handler.
type DB struct {
	Pool    *sql.DB
	Handler DialectHandler
	Config  config.DatabaseConfig
}

// ColumnInfo holds basic information about a database column.
type ColumnInfo struct {
	Name     string
	DataType string
}

// LoadOptions bounds and orders a table load.
type LoadOptions struct {
	// Limit caps the number of rows; 0 means no limit.
	Limit int
	// OrderBy names the column that fixes row positions. Without it the
	// database's natural order is used.
	OrderBy string
	// Columns restricts the load to the named columns, in table order.
	Columns []string
}

// DialectHandler holds the dialect specific SQL of a database.
type DialectHandler interface {
	CreateCloudSQLPool(cfg config.DatabaseConfig) (*sql.DB, error)
	CreateStandardPool(cfg config.DatabaseConfig) (*sql.DB, error)
	QuoteIdentifier(name string) string
	ListTables(ctx context.Context, db *DB) ([]string, error)
	ListColumns(ctx context.Context, db *DB, tableName string) ([]ColumnInfo, error)
	// SelectRowsQuery returns a SELECT of columns from tableName. orderBy
	// may be empty and limit may be 0.
	SelectRowsQuery(tableName string, columns []string, orderBy string, limit int) string
}

var (
	dialectHandlers = make(map[string]DialectHandler)
	mu              sync.RWMutex
)

func RegisterDialectHandler(dialect string, handler DialectHandler) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := dialectHandlers[dialect]; exists {
		zap.L().Warn("Dialect handler is being overwritten", zap.String("dialect", dialect))
	}
	dialectHandlers[dialect] = handler
}

func GetDialectHandler(dialect string) (DialectHandler, error) {
	mu.RLock()
	defer mu.RUnlock()
	handler, ok := dialectHandlers[dialect]
	if !ok {
		return nil, fmt.Errorf("unsupported database dialect: %s", dialect)
	}
	return handler, nil
}

// New opens a pool for cfg and checks it with a ping.
func New(ctx context.Context, cfg config.DatabaseConfig) (*DB, error) {
	handler, err := GetDialectHandler(cfg.Dialect)
	if err != nil {
		return nil, err
	}

	var pool *sql.DB
	if strings.HasPrefix(cfg.Dialect, "cloudsql") {
		pool, err = handler.CreateCloudSQLPool(cfg)
	} else {
		pool, err = handler.CreateStandardPool(cfg)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create database pool for dialect %s: %w", cfg.Dialect, err)
	}

	if err := pool.PingContext(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to database (ping failed) for dialect %s: %w", cfg.Dialect, err)
	}

	return &DB{
		Pool:    pool,
		Handler: handler,
		Config:  cfg,
	}, nil
}

func (db *DB) GetConfig() config.DatabaseConfig {
	return db.Config
}

func (db *DB) Ping(ctx context.Context) error {
	if db.Pool == nil {
		return fmt.Errorf("database connection pool is not initialized")
	}
	return db.Pool.PingContext(ctx)
}

func (db *DB) Close() error {
	if db.Pool != nil {
		return db.Pool.Close()
	}
	zap.L().Warn("Attempted to close a nil database connection pool")
	return nil
}

func (db *DB) ListTables(ctx context.Context) ([]string, error) {
	if db.Handler == nil {
		return nil, fmt.Errorf("dialect handler not initialized")
	}
	return db.Handler.ListTables(ctx, db)
}

func (db *DB) ListColumns(ctx context.Context, tableName string) ([]ColumnInfo, error) {
	if db.Handler == nil {
		return nil, fmt.Errorf("dialect handler not initialized")
	}
	return db.Handler.ListColumns(ctx, db, tableName)
}

// LoadTable reads a table into a dataset. Column types come from the
// catalog; text columns are further classified from their values.
func (db *DB) LoadTable(ctx context.Context, tableName string, opts LoadOptions) (*dataset.Dataset, error) {
	if db.Handler == nil || db.Pool == nil {
		return nil, fmt.Errorf("database is not initialized")
	}

	columns, err := db.ListColumns(ctx, tableName)
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s not found or has no columns", tableName)
	}
	columns, err = selectColumns(tableName, columns, opts.Columns)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.Name
	}
	query := db.Handler.SelectRowsQuery(tableName, names, opts.OrderBy, opts.Limit)
	zap.L().Debug("Loading table", zap.String("table", tableName), zap.String("query", query))

	rows, err := db.Pool.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying rows of table %s: %w", tableName, err)
	}
	defer rows.Close()

	types := make([]dataset.SemanticType, len(columns))
	for i, c := range columns {
		types[i] = SemanticTypeForSQL(c.DataType)
	}
	values := make([][]dataset.Value, len(columns))
	raw := make([]any, len(columns))
	dest := make([]any, len(columns))
	for i := range raw {
		dest[i] = &raw[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("error scanning row of table %s: %w", tableName, err)
		}
		for i := range raw {
			values[i] = append(values[i], ValueFromDriver(raw[i], types[i]))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows of table %s: %w", tableName, err)
	}

	cols := make([]*dataset.Column, len(columns))
	for i, c := range columns {
		if types[i] == dataset.TypeText {
			cols[i] = dataset.NewColumn(c.Name, values[i])
			continue
		}
		cols[i] = dataset.NewTypedColumn(c.Name, types[i], values[i])
	}
	return dataset.New(tableName, cols...)
}

func selectColumns(tableName string, all []ColumnInfo, wanted []string) ([]ColumnInfo, error) {
	if len(wanted) == 0 {
		return all, nil
	}
	byName := make(map[string]bool, len(wanted))
	for _, w := range wanted {
		byName[w] = true
	}
	var out []ColumnInfo
	for _, c := range all {
		if byName[c.Name] {
			out = append(out, c)
			delete(byName, c.Name)
		}
	}
	if len(byName) > 0 {
		var missing []string
		for _, w := range wanted {
			if byName[w] {
				missing = append(missing, w)
			}
		}
		return nil, fmt.Errorf("table %s has no column(s): %s", tableName, strings.Join(missing, ", "))
	}
	return out, nil
}
