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

import (
	"errors"
	"fmt"
	"strings"

	"github.com/GoogleCloudPlatform/db-quality-scorer/internal/dataset"
)

// Options configures a scoring pass.
type Options struct {
	// Metrics to compute, in table order. Empty means DefaultMetrics().
	Metrics []Metric
	// FailureMode selects between aborting and collecting per-column errors.
	FailureMode FailureMode
	// Progress, when set, is called after each column is scored.
	Progress func(done, total int, column string)
}

// Scores is the result of a scoring pass.
type Scores struct {
	Table *ScoreTable
	// ColumnErrors holds the errors of columns that could not be fully
	// scored in Partial mode. Failed cells are absent from Table.
	ColumnErrors map[string]error
}

// CalculateScores scores every column of primary with each selected metric.
// Accuracy and Consistency compare against the same-named column of
// reference.
func CalculateScores(primary, reference *dataset.Dataset, opts Options) (*Scores, error) {
	if primary == nil || reference == nil {
		return nil, errors.New("primary and reference datasets are required")
	}
	metrics := opts.Metrics
	if len(metrics) == 0 {
		metrics = DefaultMetrics()
	}
	if err := checkMetrics(metrics); err != nil {
		return nil, err
	}

	columns := primary.ColumnNames()
	rows := make(map[string]ScoreRow, len(columns))
	columnErrors := make(map[string]error)

	for i, name := range columns {
		col, _ := primary.Column(name)
		row := make(ScoreRow, len(metrics))
		var errs []error
		for _, m := range metrics {
			score, err := scoreCell(primary, reference, col, m)
			if err != nil {
				if opts.FailureMode == FailFast {
					return nil, fmt.Errorf("scoring %s of column '%s': %w", m, name, err)
				}
				errs = append(errs, fmt.Errorf("%s: %w", m, err))
				continue
			}
			row[m] = score
		}
		if len(errs) > 0 {
			columnErrors[name] = errors.Join(errs...)
		}
		rows[name] = row
		if opts.Progress != nil {
			opts.Progress(i+1, len(columns), name)
		}
	}

	table, err := NewScoreTable(columns, metrics, rows)
	if err != nil {
		return nil, err
	}
	return &Scores{Table: table, ColumnErrors: columnErrors}, nil
}

func checkMetrics(metrics []Metric) error {
	seen := make(map[Metric]bool, len(metrics))
	for _, m := range metrics {
		switch m {
		case Completeness, Uniqueness, Validity, Accuracy, Consistency:
		case Timeliness:
			return fmt.Errorf("%s: %w", m, ErrMetricDisabled)
		default:
			return &UnknownMetricError{Name: string(m)}
		}
		if seen[m] {
			return fmt.Errorf("metric %s selected more than once", m)
		}
		seen[m] = true
	}
	return nil
}

func scoreCell(primary, reference *dataset.Dataset, col *dataset.Column, m Metric) (float64, error) {
	switch m {
	case Completeness:
		return CompletenessScore(col), nil
	case Uniqueness:
		return UniquenessScore(col), nil
	case Validity:
		if !isEmailColumn(col.Name) {
			return 100, nil
		}
		return ValidityScore(col, EmailRule)
	case Accuracy:
		return AccuracyScore(primary, reference, col.Name)
	case Consistency:
		return ConsistencyScore(primary, reference, col.Name, col.Name)
	}
	return 0, &UnknownMetricError{Name: string(m)}
}

// isEmailColumn reports whether the email validity rule applies to a column.
// The match is on the name only.
func isEmailColumn(name string) bool {
	return strings.Contains(strings.ToLower(name), "email")
}
