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
package assessor

import (
	"fmt"
	"sort"
	"strings"
)

// maxFactAlerts bounds the alerts quoted to the LLM.
const maxFactAlerts = 20

// Facts renders the parts of an assessment the LLM may rely on.
func Facts(a *Assessment) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dataset: %s (reference: %s)\n", a.Dataset, a.Reference)
	fmt.Fprintf(&b, "Overall Score: %.2f\n", a.Overall)

	b.WriteString("Metric averages:\n")
	for _, avg := range a.Averages {
		fmt.Fprintf(&b, "- %s: %.2f over %d column(s)\n", avg.Metric, avg.Mean, avg.Columns)
	}

	if a.Scores != nil {
		b.WriteString("Column scores:\n")
		for _, col := range a.Scores.Columns() {
			row, _ := a.Scores.Row(col)
			parts := make([]string, 0, len(row))
			for _, m := range a.Scores.Metrics() {
				if v, ok := row[m]; ok {
					parts = append(parts, fmt.Sprintf("%s=%.2f", m, v))
				}
			}
			fmt.Fprintf(&b, "- %s: %s\n", col, strings.Join(parts, ", "))
		}
	}

	if len(a.ColumnErrors) > 0 {
		cols := make([]string, 0, len(a.ColumnErrors))
		for c := range a.ColumnErrors {
			cols = append(cols, c)
		}
		sort.Strings(cols)
		b.WriteString("Scoring errors:\n")
		for _, c := range cols {
			fmt.Fprintf(&b, "- %s: %v\n", c, a.ColumnErrors[c])
		}
	}

	if a.Stats != nil {
		fmt.Fprintf(&b, "Rows: %d, columns: %d, missing cells: %.2f%%, duplicate rows: %.2f%%\n",
			a.Stats.Rows, a.Stats.Columns, a.Stats.MissingCellsPct, a.Stats.DuplicateRowsPct)
	}
	if len(a.Alerts) > 0 {
		b.WriteString("Alerts:\n")
		for i, al := range a.Alerts {
			if i == maxFactAlerts {
				fmt.Fprintf(&b, "- ... and %d more\n", len(a.Alerts)-maxFactAlerts)
				break
			}
			fmt.Fprintf(&b, "- %s\n", al.Message)
		}
	}
	return b.String()
}
