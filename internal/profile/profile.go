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

// Package profile computes dataset level statistics and raises alerts
// about suspicious column distributions.
package profile

import (
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/GoogleCloudPlatform/db-quality-scorer/internal/dataset"
)

// Stats summarizes a dataset.
type Stats struct {
	Rows              int            `json:"rows" yaml:"rows"`
	Columns           int            `json:"columns" yaml:"columns"`
	MissingCells      int            `json:"missing_cells" yaml:"missing_cells"`
	MissingCellsPct   float64        `json:"missing_cells_pct" yaml:"missing_cells_pct"`
	DistinctValues    int            `json:"distinct_values" yaml:"distinct_values"`
	DistinctValuesPct float64        `json:"distinct_values_pct" yaml:"distinct_values_pct"`
	DuplicateRows     int            `json:"duplicate_rows" yaml:"duplicate_rows"`
	DuplicateRowsPct  float64        `json:"duplicate_rows_pct" yaml:"duplicate_rows_pct"`
	MemoryBytes       uint64         `json:"memory_bytes" yaml:"memory_bytes"`
	Memory            string         `json:"memory" yaml:"memory"`
	VariableTypes     map[string]int `json:"variable_types" yaml:"variable_types"`
}

// variableTypes lists every semantic type so that absent types report 0.
var variableTypes = []dataset.SemanticType{
	dataset.TypeText,
	dataset.TypeCategorical,
	dataset.TypeNumeric,
	dataset.TypeBoolean,
	dataset.TypeDatetime,
}

// Describe computes Stats for ds. Percentages are 0 for an empty dataset.
func Describe(ds *dataset.Dataset) Stats {
	s := Stats{
		Rows:          ds.NumRows(),
		Columns:       ds.NumColumns(),
		VariableTypes: make(map[string]int, len(variableTypes)),
	}
	for _, t := range variableTypes {
		s.VariableTypes[t.String()] = 0
	}

	distinct := make(map[string]struct{})
	for _, col := range ds.Columns() {
		s.VariableTypes[col.Type.String()]++
		s.MissingCells += col.NullCount()
		for _, v := range col.Values {
			distinct[v.Key()] = struct{}{}
			s.MemoryBytes += cellSize(v)
		}
	}
	s.DistinctValues = len(distinct)
	s.DuplicateRows = DuplicateRows(ds)
	s.Memory = humanize.IBytes(s.MemoryBytes)

	if cells := s.Rows * s.Columns; cells > 0 {
		s.MissingCellsPct = percent(s.MissingCells, cells)
		s.DistinctValuesPct = percent(s.DistinctValues, cells)
	}
	if s.Rows > 0 {
		s.DuplicateRowsPct = percent(s.DuplicateRows, s.Rows)
	}
	return s
}

// DuplicateRows counts rows identical to an earlier row. Nulls in the same
// position compare equal.
func DuplicateRows(ds *dataset.Dataset) int {
	seen := make(map[string]struct{}, ds.NumRows())
	dups := 0
	var b strings.Builder
	for i := 0; i < ds.NumRows(); i++ {
		b.Reset()
		for _, v := range ds.Row(i) {
			b.WriteString(v.Key())
			b.WriteByte(0x1f)
		}
		k := b.String()
		if _, ok := seen[k]; ok {
			dups++
			continue
		}
		seen[k] = struct{}{}
	}
	return dups
}

// cellSize approximates the in-memory footprint of a value.
func cellSize(v dataset.Value) uint64 {
	switch v.Kind() {
	case dataset.KindBool:
		return 1
	case dataset.KindTime:
		return 24
	case dataset.KindString:
		s, _ := v.Text()
		return 16 + uint64(len(s))
	default:
		return 8
	}
}

func percent(n, total int) float64 {
	return float64(n) / float64(total) * 100
}
