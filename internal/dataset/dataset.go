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

// Package dataset holds the in-memory tabular model scored by the quality
// engine: an ordered set of named, typed columns of nullable values.
package dataset

import (
	"fmt"
	"sort"
)

// Column is a named, typed sequence of values.
type Column struct {
	Name   string
	Type   SemanticType
	Values []Value
}

// NewColumn builds a column whose type is inferred from its values.
func NewColumn(name string, values []Value) *Column {
	return &Column{Name: name, Type: InferType(values), Values: values}
}

// NewTypedColumn builds a column with a declared type, e.g. one reported by
// a database catalog.
func NewTypedColumn(name string, typ SemanticType, values []Value) *Column {
	return &Column{Name: name, Type: typ, Values: values}
}

func (c *Column) Len() int { return len(c.Values) }

// NullCount returns the number of null cells.
func (c *Column) NullCount() int {
	n := 0
	for _, v := range c.Values {
		if v.IsNull() {
			n++
		}
	}
	return n
}

// Dataset is an ordered collection of equally long columns with unique
// names. It is treated as read-only once built.
type Dataset struct {
	name    string
	columns []*Column
	index   map[string]int
	rows    int
}

// New assembles a dataset from columns. Column names must be unique and all
// columns must have the same length.
func New(name string, columns ...*Column) (*Dataset, error) {
	ds := &Dataset{
		name:    name,
		columns: make([]*Column, 0, len(columns)),
		index:   make(map[string]int, len(columns)),
	}
	for i, col := range columns {
		if col == nil {
			return nil, fmt.Errorf("dataset %q: column #%d is nil", name, i+1)
		}
		if _, dup := ds.index[col.Name]; dup {
			return nil, fmt.Errorf("dataset %q: duplicate column name %q", name, col.Name)
		}
		if i == 0 {
			ds.rows = col.Len()
		} else if col.Len() != ds.rows {
			return nil, fmt.Errorf("dataset %q: column %q has %d rows, expected %d", name, col.Name, col.Len(), ds.rows)
		}
		ds.index[col.Name] = len(ds.columns)
		ds.columns = append(ds.columns, col)
	}
	return ds, nil
}

// FromRecords builds a dataset from a header and string records, as read
// from a CSV file. Missing trailing cells are treated as null.
func FromRecords(name string, header []string, records [][]string) (*Dataset, error) {
	columns := make([]*Column, len(header))
	for c, colName := range header {
		raw := make([]string, len(records))
		for r, record := range records {
			if c < len(record) {
				raw[r] = record[c]
			}
		}
		columns[c] = NewColumn(colName, ParseColumn(raw))
	}
	return New(name, columns...)
}

// FromRows builds a dataset from row maps. Columns follow order; when order
// is empty the keys of all rows are used in sorted order. Absent keys are null.
func FromRows(name string, order []string, rows []map[string]any) (*Dataset, error) {
	if len(order) == 0 {
		seen := make(map[string]struct{})
		for _, row := range rows {
			for k := range row {
				if _, ok := seen[k]; !ok {
					seen[k] = struct{}{}
					order = append(order, k)
				}
			}
		}
		sort.Strings(order)
	}

	columns := make([]*Column, len(order))
	for c, colName := range order {
		values := make([]Value, len(rows))
		for r, row := range rows {
			values[r] = Of(row[colName])
		}
		columns[c] = NewColumn(colName, values)
	}
	return New(name, columns...)
}

func (d *Dataset) Name() string { return d.name }

// NumRows returns the row count shared by all columns.
func (d *Dataset) NumRows() int { return d.rows }

func (d *Dataset) NumColumns() int { return len(d.columns) }

// Columns returns the columns in order.
func (d *Dataset) Columns() []*Column {
	out := make([]*Column, len(d.columns))
	copy(out, d.columns)
	return out
}

// ColumnNames returns the column names in order.
func (d *Dataset) ColumnNames() []string {
	names := make([]string, len(d.columns))
	for i, c := range d.columns {
		names[i] = c.Name
	}
	return names
}

// Column looks up a column by name.
func (d *Dataset) Column(name string) (*Column, bool) {
	i, ok := d.index[name]
	if !ok {
		return nil, false
	}
	return d.columns[i], true
}

func (d *Dataset) HasColumn(name string) bool {
	_, ok := d.index[name]
	return ok
}

// Row returns the values of row i in column order.
func (d *Dataset) Row(i int) []Value {
	row := make([]Value, len(d.columns))
	for c, col := range d.columns {
		row[c] = col.Values[i]
	}
	return row
}

// Select returns a dataset restricted to the named columns, in the order
// given. An empty selection returns the dataset itself.
func (d *Dataset) Select(names ...string) (*Dataset, error) {
	if len(names) == 0 {
		return d, nil
	}
	cols := make([]*Column, 0, len(names))
	for _, name := range names {
		col, ok := d.Column(name)
		if !ok {
			return nil, fmt.Errorf("dataset %q has no column %q", d.name, name)
		}
		cols = append(cols, col)
	}
	return New(d.name, cols...)
}
