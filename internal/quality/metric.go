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

// Package quality implements the data-quality scoring engine: per-column
// metrics, cross-dataset comparison, the Score Table and its aggregation.
//
// The engine is synchronous and keeps no state between calls. Every metric
// returns a percentage in [0, 100].
package quality

import (
	"fmt"
	"strings"
)

// Metric names a quality dimension.
type Metric string

const (
	Completeness Metric = "Completeness"
	Uniqueness   Metric = "Uniqueness"
	Validity     Metric = "Validity"
	Accuracy     Metric = "Accuracy"
	Consistency  Metric = "Consistency"
	// Timeliness is recognized but not accepted by CalculateScores.
	Timeliness Metric = "Timeliness"
)

var knownMetrics = []Metric{Completeness, Uniqueness, Validity, Accuracy, Consistency, Timeliness}

// DefaultMetrics returns the metric selection used when none is given.
// A fresh slice is returned on every call.
func DefaultMetrics() []Metric {
	return []Metric{Completeness, Validity, Uniqueness, Accuracy, Consistency}
}

// ParseMetric resolves a metric name case-insensitively.
func ParseMetric(name string) (Metric, error) {
	trimmed := strings.TrimSpace(name)
	for _, m := range knownMetrics {
		if strings.EqualFold(trimmed, string(m)) {
			return m, nil
		}
	}
	return "", &UnknownMetricError{Name: name}
}

// ParseMetrics resolves a list of metric names, dropping duplicates while
// keeping the first occurrence order.
func ParseMetrics(names []string) ([]Metric, error) {
	seen := make(map[Metric]bool, len(names))
	out := make([]Metric, 0, len(names))
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		m, err := ParseMetric(name)
		if err != nil {
			return nil, err
		}
		if seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out, nil
}

func (m Metric) crossDataset() bool {
	return m == Accuracy || m == Consistency
}

// FailureMode controls how CalculateScores reacts to a cross-dataset error.
type FailureMode int

const (
	// FailFast aborts the whole pass on the first error.
	FailFast FailureMode = iota
	// Partial records the error for the column and keeps scoring.
	Partial
)

func (f FailureMode) String() string {
	if f == Partial {
		return "partial"
	}
	return "fail-fast"
}

// ParseFailureMode accepts "fail-fast" (or "failfast") and "partial".
func ParseFailureMode(s string) (FailureMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "fail-fast", "failfast":
		return FailFast, nil
	case "partial":
		return Partial, nil
	}
	return FailFast, fmt.Errorf("unknown failure mode %q (expected fail-fast or partial)", s)
}
