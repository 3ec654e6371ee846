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
package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/GoogleCloudPlatform/db-quality-scorer/internal/assessor"
)

// renderCSV writes the Score Table only: a header of "column" and the
// metric names, then one row per column. Absent cells are left empty.
func renderCSV(w io.Writer, a *assessor.Assessment) error {
	cw := csv.NewWriter(w)
	if a.Scores == nil {
		cw.Flush()
		return cw.Error()
	}
	metrics := a.Scores.Metrics()
	if err := cw.Write(append([]string{"column"}, metricHeaders(metrics)...)); err != nil {
		return err
	}
	for _, col := range a.Scores.Columns() {
		record := make([]string, 0, len(metrics)+1)
		record = append(record, col)
		for _, m := range metrics {
			v, ok := a.Scores.Score(col, m)
			if !ok {
				record = append(record, "")
				continue
			}
			record = append(record, strconv.FormatFloat(v, 'f', 2, 64))
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
