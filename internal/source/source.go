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

// Package source loads datasets from CSV files, Parquet files and
// database tables.
package source

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/GoogleCloudPlatform/db-quality-scorer/internal/database"
	"github.com/GoogleCloudPlatform/db-quality-scorer/internal/dataset"
)

const tablePrefix = "table:"

var (
	// ErrEmptyDataset is returned when a source has no columns or no rows.
	ErrEmptyDataset = errors.New("dataset is empty")
	// ErrUnsupportedSource is returned for URIs no loader understands.
	ErrUnsupportedSource = errors.New("unsupported source")
)

// TableLoader reads a database table. *database.DB satisfies it.
type TableLoader interface {
	LoadTable(ctx context.Context, tableName string, opts database.LoadOptions) (*dataset.Dataset, error)
}

// Options control how a source is read.
type Options struct {
	// DB serves table: URIs.
	DB TableLoader
	// Limit caps the number of rows read; 0 reads everything.
	Limit int
	// OrderBy fixes row order for tables. Files keep their own order.
	OrderBy string
	// Delimiter overrides CSV delimiter detection when non-zero.
	Delimiter rune
	// Columns restricts the dataset to these columns.
	Columns []string
}

// IsTableURI reports whether uri names a database table.
func IsTableURI(uri string) bool {
	return strings.HasPrefix(strings.ToLower(uri), tablePrefix)
}

// TableName strips the table: prefix from uri.
func TableName(uri string) string {
	return strings.TrimSpace(uri[len(tablePrefix):])
}

// Load reads the dataset named by uri: a path ending in .csv, .tsv or
// .parquet, or table:<name> for a table of opts.DB.
func Load(ctx context.Context, uri string, opts Options) (*dataset.Dataset, error) {
	var (
		ds  *dataset.Dataset
		err error
	)
	switch {
	case IsTableURI(uri):
		ds, err = loadTable(ctx, uri, opts)
	default:
		switch strings.ToLower(filepath.Ext(uri)) {
		case ".csv", ".tsv", ".txt":
			ds, err = loadCSV(uri, opts)
		case ".parquet", ".pq":
			ds, err = loadParquet(ctx, uri, opts)
		default:
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedSource, uri)
		}
	}
	if err != nil {
		return nil, err
	}

	if len(opts.Columns) > 0 && !IsTableURI(uri) {
		if ds, err = ds.Select(opts.Columns...); err != nil {
			return nil, err
		}
	}
	if ds.NumColumns() == 0 || ds.NumRows() == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyDataset, uri)
	}
	zap.L().Debug("Loaded dataset",
		zap.String("source", uri),
		zap.Int("rows", ds.NumRows()),
		zap.Int("columns", ds.NumColumns()))
	return ds, nil
}

func loadTable(ctx context.Context, uri string, opts Options) (*dataset.Dataset, error) {
	name := TableName(uri)
	if name == "" {
		return nil, fmt.Errorf("%w: missing table name in %q", ErrUnsupportedSource, uri)
	}
	if opts.DB == nil {
		return nil, fmt.Errorf("%s requires a database connection", uri)
	}
	return opts.DB.LoadTable(ctx, name, database.LoadOptions{
		Limit:   opts.Limit,
		OrderBy: opts.OrderBy,
		Columns: opts.Columns,
	})
}

func datasetName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
