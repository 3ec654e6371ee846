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
package profile

import (
	"fmt"
	"math"

	"github.com/GoogleCloudPlatform/db-quality-scorer/internal/dataset"
)

// AlertKind classifies an alert.
type AlertKind string

const (
	AlertMissing          AlertKind = "missing_values"
	AlertDuplicateRows    AlertKind = "duplicate_rows"
	AlertHighCorrelation  AlertKind = "high_correlation"
	AlertMultiCorrelation AlertKind = "multi_correlation"
	AlertNegative         AlertKind = "negative_values"
	AlertLowVariance      AlertKind = "low_variance"
	AlertLowCardinality   AlertKind = "low_cardinality"
	AlertEmpty            AlertKind = "empty_column"
	AlertUnique           AlertKind = "unique"
	AlertNearlyUnique     AlertKind = "nearly_unique"
	AlertOutliers         AlertKind = "outliers"
	AlertSkewed           AlertKind = "skewed"
	AlertHighKurtosis     AlertKind = "high_kurtosis"
)

// Alert thresholds.
const (
	CorrelationThreshold  = 0.85
	NearlyUniqueRatio     = 0.95
	LowCardinalityLimit   = 5
	SkewnessThreshold     = 1.0
	KurtosisThreshold     = 3.0
	multiCorrelationLimit = 1
)

// Alert is a single finding about a dataset. Column is empty for
// dataset level alerts.
type Alert struct {
	Kind    AlertKind `json:"kind" yaml:"kind"`
	Column  string    `json:"column,omitempty" yaml:"column,omitempty"`
	Message string    `json:"message" yaml:"message"`
}

func (a Alert) String() string { return a.Message }

// Alerts inspects ds and returns its alerts grouped by check, in column
// order within each check.
func Alerts(ds *dataset.Dataset) []Alert {
	var alerts []Alert
	add := func(kind AlertKind, col, format string, args ...any) {
		alerts = append(alerts, Alert{Kind: kind, Column: col, Message: fmt.Sprintf(format, args...)})
	}
	rows := ds.NumRows()
	cols := ds.Columns()

	for _, c := range cols {
		if n := c.NullCount(); n > 0 {
			add(AlertMissing, c.Name, "'%s' has %d missing values (%.2f%%).", c.Name, n, percent(n, rows))
		}
	}

	if dups := DuplicateRows(ds); dups > 0 {
		add(AlertDuplicateRows, "", "Dataset contains %d duplicate rows (%.2f%%).", dups, percent(dups, rows))
	}

	var numeric []*dataset.Column
	for _, c := range cols {
		if c.Type == dataset.TypeNumeric {
			numeric = append(numeric, c)
		}
	}

	partners := make(map[string]int)
	for i := 0; i < len(numeric); i++ {
		for j := i + 1; j < len(numeric); j++ {
			r, ok := pearson(numeric[i], numeric[j])
			if !ok || math.Abs(r) <= CorrelationThreshold {
				continue
			}
			a, b := numeric[i].Name, numeric[j].Name
			add(AlertHighCorrelation, a, "'%s' is highly correlated with '%s' (correlation: %.2f).", a, b, r)
			partners[a]++
			partners[b]++
		}
	}
	for _, c := range numeric {
		if n := partners[c.Name]; n > multiCorrelationLimit {
			add(AlertMultiCorrelation, c.Name, "'%s' is overall highly correlated with multiple columns (%d columns).", c.Name, n)
		}
	}

	for _, c := range numeric {
		neg := 0
		for _, x := range numbers(c) {
			if x < 0 {
				neg++
			}
		}
		if neg > 0 {
			add(AlertNegative, c.Name, "'%s' contains %d negative values.", c.Name, neg)
		}
	}

	for _, c := range cols {
		distinct := distinctCount(c)
		switch {
		case distinct == 1:
			add(AlertLowVariance, c.Name, "'%s' has low variance, with only one unique value across the dataset.", c.Name)
		case distinct > 1 && distinct < LowCardinalityLimit && isTextual(c):
			add(AlertLowCardinality, c.Name, "'%s' has low cardinality (only %d unique values).", c.Name, distinct)
		}
	}

	for _, c := range cols {
		if rows > 0 && c.NullCount() == rows {
			add(AlertEmpty, c.Name, "'%s' is entirely empty or contains only missing values.", c.Name)
			continue
		}
		distinct := distinctCount(c)
		switch {
		case rows > 0 && distinct == rows:
			add(AlertUnique, c.Name, "'%s' has unique values across all rows (unique distribution).", c.Name)
		case float64(distinct) > float64(rows)*NearlyUniqueRatio:
			add(AlertNearlyUnique, c.Name, "'%s' is nearly unique (%d unique values, %d duplicates).", c.Name, distinct, rows-distinct)
		}
	}

	for _, c := range numeric {
		if n := iqrOutliers(numbers(c)); n > 0 {
			add(AlertOutliers, c.Name, "'%s' has %d potential outliers.", c.Name, n)
		}
	}

	for _, c := range numeric {
		xs := numbers(c)
		if s := skewness(xs); math.Abs(s) > SkewnessThreshold {
			add(AlertSkewed, c.Name, "'%s' is significantly skewed (skewness: %.2f).", c.Name, s)
		}
		if k := excessKurtosis(xs); math.Abs(k) > KurtosisThreshold {
			add(AlertHighKurtosis, c.Name, "'%s' has high kurtosis (kurtosis: %.2f).", c.Name, k)
		}
	}
	return alerts
}

func distinctCount(c *dataset.Column) int {
	seen := make(map[string]struct{})
	for _, v := range c.Values {
		if !v.IsNull() {
			seen[v.Key()] = struct{}{}
		}
	}
	return len(seen)
}

func isTextual(c *dataset.Column) bool {
	return c.Type == dataset.TypeText || c.Type == dataset.TypeCategorical
}
