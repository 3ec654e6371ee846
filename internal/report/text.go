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
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/GoogleCloudPlatform/db-quality-scorer/internal/assessor"
	"github.com/GoogleCloudPlatform/db-quality-scorer/internal/profile"
	"github.com/GoogleCloudPlatform/db-quality-scorer/internal/quality"
)

// errWriter remembers the first write error so renderers can write
// unconditionally and check once.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func renderText(w io.Writer, a *assessor.Assessment) error {
	ew := &errWriter{w: w}
	ew.printf("Data Quality Report: %s (reference: %s)\n", a.Dataset, a.Reference)

	if a.Stats != nil {
		ew.printf("\nDataset Statistics\n")
		tw := tabwriter.NewWriter(ew.w, 0, 0, 2, ' ', 0)
		for _, line := range statLines(a.Stats) {
			fmt.Fprintf(tw, "  %s\t%s\n", line[0], line[1])
		}
		ew.flush(tw)

		ew.printf("\nVariable Types\n")
		tw = tabwriter.NewWriter(ew.w, 0, 0, 2, ' ', 0)
		for _, name := range sortedKeys(a.Stats.VariableTypes) {
			fmt.Fprintf(tw, "  %s\t%d\n", name, a.Stats.VariableTypes[name])
		}
		ew.flush(tw)
	}

	if len(a.Alerts) > 0 {
		ew.printf("\nAlerts\n")
		for _, alert := range a.Alerts {
			ew.printf("  ALERT: %s\n", alert.Message)
		}
	}

	if a.Scores != nil {
		metrics := a.Scores.Metrics()
		ew.printf("\nQuality Scores\n")
		tw := tabwriter.NewWriter(ew.w, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "Column\t%s\n", strings.Join(metricHeaders(metrics), "\t"))
		for _, col := range a.Scores.Columns() {
			fmt.Fprintf(tw, "%s\t%s\n", col, strings.Join(scoreCells(a.Scores, col, metrics), "\t"))
		}
		ew.flush(tw)
	}

	if len(a.ColumnErrors) > 0 {
		ew.printf("\nScoring Errors\n")
		for _, col := range sortedErrorColumns(a.ColumnErrors) {
			ew.printf("  %s: %v\n", col, a.ColumnErrors[col])
		}
	}

	if len(a.Averages) > 0 {
		ew.printf("\nMetric Averages\n")
		tw := tabwriter.NewWriter(ew.w, 0, 0, 2, ' ', 0)
		for _, avg := range a.Averages {
			fmt.Fprintf(tw, "  %s\t%.2f\t(%d column(s))\n", avg.Metric, avg.Mean, avg.Columns)
		}
		ew.flush(tw)
	}

	ew.printf("\nOverall Data Quality Score: %.2f%%\n", a.Overall)

	if a.Summary != nil && a.Summary.Narrative != "" {
		ew.printf("\nSummary\n  %s\n", a.Summary.Narrative)
		if len(a.Summary.Recommendations) > 0 {
			ew.printf("\nRecommendations\n")
			for _, rec := range a.Summary.Recommendations {
				ew.printf("  - %s\n", rec)
			}
		}
	}
	return ew.err
}

func (ew *errWriter) flush(tw *tabwriter.Writer) {
	if err := tw.Flush(); err != nil && ew.err == nil {
		ew.err = err
	}
}

func statLines(s *profile.Stats) [][2]string {
	return [][2]string{
		{"Number of Rows", fmt.Sprintf("%d", s.Rows)},
		{"Number of Columns", fmt.Sprintf("%d", s.Columns)},
		{"Missing Cells", fmt.Sprintf("%d", s.MissingCells)},
		{"Missing Cells (%)", fmt.Sprintf("%.2f%%", s.MissingCellsPct)},
		{"Distinct Values", fmt.Sprintf("%d", s.DistinctValues)},
		{"Distinct Values (%)", fmt.Sprintf("%.2f%%", s.DistinctValuesPct)},
		{"Duplicate Rows", fmt.Sprintf("%d", s.DuplicateRows)},
		{"Duplicate Rows (%)", fmt.Sprintf("%.2f%%", s.DuplicateRowsPct)},
		{"Memory Usage", s.Memory},
	}
}

func metricHeaders(metrics []quality.Metric) []string {
	out := make([]string, len(metrics))
	for i, m := range metrics {
		out[i] = string(m)
	}
	return out
}

func scoreCells(t *quality.ScoreTable, col string, metrics []quality.Metric) []string {
	out := make([]string, len(metrics))
	for i, m := range metrics {
		out[i] = formatScore(t.Score(col, m))
	}
	return out
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
