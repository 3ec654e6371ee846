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

// Package report renders an assessment as text, markdown, json, yaml or
// csv.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/GoogleCloudPlatform/db-quality-scorer/internal/assessor"
	"github.com/GoogleCloudPlatform/db-quality-scorer/internal/genai"
	"github.com/GoogleCloudPlatform/db-quality-scorer/internal/profile"
)

// Report formats.
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
	FormatYAML     = "yaml"
	FormatCSV      = "csv"
)

// Document is the serializable form of an assessment.
type Document struct {
	Dataset      string          `json:"dataset" yaml:"dataset"`
	Reference    string          `json:"reference" yaml:"reference"`
	OverallScore float64         `json:"overall_score" yaml:"overall_score"`
	Metrics      []string        `json:"metrics" yaml:"metrics"`
	Averages     []MetricAverage `json:"metric_averages" yaml:"metric_averages"`
	Columns      []ColumnScores  `json:"columns" yaml:"columns"`
	Stats        *profile.Stats  `json:"stats,omitempty" yaml:"stats,omitempty"`
	Alerts       []profile.Alert `json:"alerts,omitempty" yaml:"alerts,omitempty"`
	Summary      *genai.Summary  `json:"summary,omitempty" yaml:"summary,omitempty"`
	DurationMS   int64           `json:"duration_ms" yaml:"duration_ms"`
}

// MetricAverage is one metric mean down the columns that carry it.
type MetricAverage struct {
	Metric  string  `json:"metric" yaml:"metric"`
	Mean    float64 `json:"mean" yaml:"mean"`
	Columns int     `json:"columns" yaml:"columns"`
}

// ColumnScores holds the scores of one column keyed by metric name. Error
// is set when the column could not be scored for some metric.
type ColumnScores struct {
	Column string             `json:"column" yaml:"column"`
	Scores map[string]float64 `json:"scores" yaml:"scores"`
	Error  string             `json:"error,omitempty" yaml:"error,omitempty"`
}

// NewDocument flattens a into a Document. Columns that failed before any
// metric was scored are appended after the Score Table columns.
func NewDocument(a *assessor.Assessment) Document {
	doc := Document{
		Dataset:      a.Dataset,
		Reference:    a.Reference,
		OverallScore: a.Overall,
		Stats:        a.Stats,
		Alerts:       a.Alerts,
		Summary:      a.Summary,
		DurationMS:   a.Duration.Milliseconds(),
		Metrics:      []string{},
		Averages:     make([]MetricAverage, 0, len(a.Averages)),
		Columns:      []ColumnScores{},
	}
	for _, avg := range a.Averages {
		doc.Averages = append(doc.Averages, MetricAverage{Metric: string(avg.Metric), Mean: avg.Mean, Columns: avg.Columns})
	}

	seen := make(map[string]bool)
	if a.Scores != nil {
		for _, m := range a.Scores.Metrics() {
			doc.Metrics = append(doc.Metrics, string(m))
		}
		for _, col := range a.Scores.Columns() {
			seen[col] = true
			cs := ColumnScores{Column: col, Scores: map[string]float64{}}
			row, _ := a.Scores.Row(col)
			for m, v := range row {
				cs.Scores[string(m)] = v
			}
			if err, ok := a.ColumnErrors[col]; ok {
				cs.Error = err.Error()
			}
			doc.Columns = append(doc.Columns, cs)
		}
	}
	for _, col := range sortedErrorColumns(a.ColumnErrors) {
		if !seen[col] {
			doc.Columns = append(doc.Columns, ColumnScores{Column: col, Scores: map[string]float64{}, Error: a.ColumnErrors[col].Error()})
		}
	}
	return doc
}

// Render writes a to w in the given format.
func Render(w io.Writer, a *assessor.Assessment, format string) error {
	if a == nil {
		return fmt.Errorf("nothing to render")
	}
	switch strings.ToLower(format) {
	case "", FormatText:
		return renderText(w, a)
	case FormatMarkdown:
		return renderMarkdown(w, a)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(NewDocument(a))
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(NewDocument(a)); err != nil {
			return err
		}
		return enc.Close()
	case FormatCSV:
		return renderCSV(w, a)
	}
	return fmt.Errorf("unsupported report format: %s", format)
}

func sortedErrorColumns(errs map[string]error) []string {
	cols := make([]string, 0, len(errs))
	for col := range errs {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}

// formatScore renders a score with two decimals; absent cells render as "-".
func formatScore(v float64, ok bool) string {
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%.2f", v)
}
