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
package quality

import "fmt"

// ScoreRow holds the metric percentages of one column. A metric that was
// not computed for the column is absent.
type ScoreRow map[Metric]float64

// ScoreTable maps column names to their metric scores. Column order and
// metric order are preserved. A table is immutable once built.
type ScoreTable struct {
	columns []string
	metrics []Metric
	rows    map[string]ScoreRow
}

// NewScoreTable builds a table from rows keyed by column name. Every column
// in columns must have a row; metrics fixes the metric order.
func NewScoreTable(columns []string, metrics []Metric, rows map[string]ScoreRow) (*ScoreTable, error) {
	t := &ScoreTable{
		columns: append([]string(nil), columns...),
		metrics: append([]Metric(nil), metrics...),
		rows:    make(map[string]ScoreRow, len(columns)),
	}
	for _, col := range columns {
		row, ok := rows[col]
		if !ok {
			return nil, fmt.Errorf("score table: no row for column %q", col)
		}
		if _, dup := t.rows[col]; dup {
			return nil, fmt.Errorf("score table: duplicate column %q", col)
		}
		cp := make(ScoreRow, len(row))
		for m, v := range row {
			cp[m] = v
		}
		t.rows[col] = cp
	}
	return t, nil
}

// Columns returns the column names in order.
func (t *ScoreTable) Columns() []string {
	return append([]string(nil), t.columns...)
}

// Metrics returns the metrics of the table in order.
func (t *ScoreTable) Metrics() []Metric {
	return append([]Metric(nil), t.metrics...)
}

func (t *ScoreTable) Len() int { return len(t.columns) }

// Score returns the score of a column for a metric.
func (t *ScoreTable) Score(column string, m Metric) (float64, bool) {
	row, ok := t.rows[column]
	if !ok {
		return 0, false
	}
	v, ok := row[m]
	return v, ok
}

// Row returns a copy of the scores of one column.
func (t *ScoreTable) Row(column string) (ScoreRow, bool) {
	row, ok := t.rows[column]
	if !ok {
		return nil, false
	}
	cp := make(ScoreRow, len(row))
	for m, v := range row {
		cp[m] = v
	}
	return cp, true
}
