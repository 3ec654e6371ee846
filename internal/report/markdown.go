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
	"io"
	"strings"

	"github.com/GoogleCloudPlatform/db-quality-scorer/internal/assessor"
)

func renderMarkdown(w io.Writer, a *assessor.Assessment) error {
	ew := &errWriter{w: w}
	ew.printf("# Data Quality Report: %s\n\n", a.Dataset)
	ew.printf("Reference dataset: `%s`\n\n", a.Reference)
	ew.printf("**Overall Data Quality Score: %.2f%%**\n", a.Overall)

	if a.Stats != nil {
		ew.printf("\n## Dataset Statistics\n\n| Statistic | Value |\n|---|---|\n")
		for _, line := range statLines(a.Stats) {
			ew.printf("| %s | %s |\n", line[0], line[1])
		}
		ew.printf("\n### Variable Types\n\n| Type | Columns |\n|---|---|\n")
		for _, name := range sortedKeys(a.Stats.VariableTypes) {
			ew.printf("| %s | %d |\n", name, a.Stats.VariableTypes[name])
		}
	}

	if len(a.Alerts) > 0 {
		ew.printf("\n## Alerts\n\n")
		for _, alert := range a.Alerts {
			ew.printf("- %s\n", escapeCell(alert.Message))
		}
	}

	if a.Scores != nil {
		metrics := a.Scores.Metrics()
		headers := metricHeaders(metrics)
		ew.printf("\n## Quality Scores\n\n| Column | %s |\n|---|%s\n", strings.Join(headers, " | "), strings.Repeat("---:|", len(headers)))
		for _, col := range a.Scores.Columns() {
			ew.printf("| %s | %s |\n", escapeCell(col), strings.Join(scoreCells(a.Scores, col, metrics), " | "))
		}
	}

	if len(a.ColumnErrors) > 0 {
		ew.printf("\n## Scoring Errors\n\n")
		for _, col := range sortedErrorColumns(a.ColumnErrors) {
			ew.printf("- `%s`: %s\n", col, escapeCell(a.ColumnErrors[col].Error()))
		}
	}

	if len(a.Averages) > 0 {
		ew.printf("\n## Metric Averages\n\n| Metric | Mean | Columns |\n|---|---:|---:|\n")
		for _, avg := range a.Averages {
			ew.printf("| %s | %.2f | %d |\n", avg.Metric, avg.Mean, avg.Columns)
		}
	}

	if a.Summary != nil && a.Summary.Narrative != "" {
		ew.printf("\n## Summary\n\n%s\n", a.Summary.Narrative)
		if len(a.Summary.Recommendations) > 0 {
			ew.printf("\n### Recommendations\n\n")
			for _, rec := range a.Summary.Recommendations {
				ew.printf("- %s\n", rec)
			}
		}
	}
	return ew.err
}

// escapeCell keeps pipes and newlines from breaking a table row.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
