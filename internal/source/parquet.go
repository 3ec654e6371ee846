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
package source

import (
	"context"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/GoogleCloudPlatform/db-quality-scorer/internal/dataset"
)

func loadParquet(ctx context.Context, path string, opts Options) (*dataset.Dataset, error) {
	pf, err := file.OpenParquetFile(path, false)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer pf.Close()

	reader, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{}, memory.NewGoAllocator())
	if err != nil {
		return nil, fmt.Errorf("failed to create arrow reader: %w", err)
	}
	table, err := reader.ReadTable(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet data: %w", err)
	}
	defer table.Release()

	return datasetFromArrow(datasetName(path), table, opts.Limit)
}

func datasetFromArrow(name string, table arrow.Table, limit int) (*dataset.Dataset, error) {
	cols := make([]*dataset.Column, 0, table.NumCols())
	for i := 0; i < int(table.NumCols()); i++ {
		cols = append(cols, columnFromArrow(table.Column(i), limit))
	}
	return dataset.New(name, cols...)
}

func columnFromArrow(col *arrow.Column, limit int) *dataset.Column {
	var values []dataset.Value
collect:
	for _, chunk := range col.Data().Chunks() {
		for i := 0; i < chunk.Len(); i++ {
			if limit > 0 && len(values) == limit {
				break collect
			}
			values = append(values, arrowValue(chunk, i))
		}
	}

	typ, ok := semanticTypeForArrow(col.DataType())
	if !ok {
		return dataset.NewColumn(col.Name(), values)
	}
	return dataset.NewTypedColumn(col.Name(), typ, values)
}

// semanticTypeForArrow maps fixed arrow types. String-like columns report
// false so their type is inferred from the values.
func semanticTypeForArrow(dt arrow.DataType) (dataset.SemanticType, bool) {
	switch dt.ID() {
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64,
		arrow.UINT8, arrow.UINT16, arrow.UINT32, arrow.UINT64,
		arrow.FLOAT16, arrow.FLOAT32, arrow.FLOAT64,
		arrow.DECIMAL128:
		return dataset.TypeNumeric, true
	case arrow.BOOL:
		return dataset.TypeBoolean, true
	case arrow.DATE32, arrow.DATE64, arrow.TIMESTAMP:
		return dataset.TypeDatetime, true
	}
	return dataset.TypeText, false
}

func arrowValue(arr arrow.Array, i int) dataset.Value {
	if arr.IsNull(i) {
		return dataset.Null()
	}
	switch a := arr.(type) {
	case *array.String:
		return dataset.String(a.Value(i))
	case *array.LargeString:
		return dataset.String(a.Value(i))
	case *array.Binary:
		return dataset.String(string(a.Value(i)))
	case *array.Boolean:
		return dataset.Bool(a.Value(i))
	case *array.Int8:
		return dataset.Int(int64(a.Value(i)))
	case *array.Int16:
		return dataset.Int(int64(a.Value(i)))
	case *array.Int32:
		return dataset.Int(int64(a.Value(i)))
	case *array.Int64:
		return dataset.Int(a.Value(i))
	case *array.Uint8:
		return dataset.Int(int64(a.Value(i)))
	case *array.Uint16:
		return dataset.Int(int64(a.Value(i)))
	case *array.Uint32:
		return dataset.Int(int64(a.Value(i)))
	case *array.Uint64:
		return dataset.Float(float64(a.Value(i)))
	case *array.Float16:
		return dataset.Float(float64(a.Value(i).Float32()))
	case *array.Float32:
		return dataset.Float(float64(a.Value(i)))
	case *array.Float64:
		return dataset.Float(a.Value(i))
	case *array.Decimal128:
		scale := a.DataType().(*arrow.Decimal128Type).Scale
		return dataset.Float(a.Value(i).ToFloat64(scale))
	case *array.Date32:
		return dataset.Time(a.Value(i).ToTime())
	case *array.Date64:
		return dataset.Time(a.Value(i).ToTime())
	case *array.Timestamp:
		unit := a.DataType().(*arrow.TimestampType).Unit
		return dataset.Time(a.Value(i).ToTime(unit))
	}
	return dataset.String(arr.ValueStr(i))
}
