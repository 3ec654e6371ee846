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

// MetricAverage is the mean of one metric down the columns that have it.
type MetricAverage struct {
	Metric  Metric
	Mean    float64
	Columns int
}

// MetricAverages returns the per-metric column means of t, in metric order.
// With no metrics given all metrics of the table are used. Metrics without
// any cell are left out.
func MetricAverages(t *ScoreTable, metrics ...Metric) []MetricAverage {
	if t == nil {
		return nil
	}
	if len(metrics) == 0 {
		metrics = t.metrics
	}
	out := make([]MetricAverage, 0, len(metrics))
	for _, m := range metrics {
		var sum float64
		n := 0
		for _, col := range t.columns {
			if v, ok := t.rows[col][m]; ok {
				sum += v
				n++
			}
		}
		if n == 0 {
			continue
		}
		out = append(out, MetricAverage{Metric: m, Mean: sum / float64(n), Columns: n})
	}
	return out
}

// OverallQualityScore is the mean of the per-metric means, so every metric
// weighs the same however many columns carry it. An empty table scores 0.
func OverallQualityScore(t *ScoreTable, metrics ...Metric) float64 {
	avgs := MetricAverages(t, metrics...)
	if len(avgs) == 0 {
		return 0
	}
	var sum float64
	for _, a := range avgs {
		sum += a.Mean
	}
	return sum / float64(len(avgs))
}
