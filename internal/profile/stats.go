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
	"math"
	"sort"

	"github.com/GoogleCloudPlatform/db-quality-scorer/internal/dataset"
)

// numbers returns the non-null numeric cells of col.
func numbers(col *dataset.Column) []float64 {
	out := make([]float64, 0, len(col.Values))
	for _, v := range col.Values {
		if f, ok := v.Float64(); ok && !math.IsNaN(f) {
			out = append(out, f)
		}
	}
	return out
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// quantile interpolates linearly between the closest ranks of sorted.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// iqrOutliers counts values outside [Q1 - 1.5*IQR, Q3 + 1.5*IQR].
func iqrOutliers(xs []float64) int {
	if len(xs) == 0 {
		return 0
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	q1, q3 := quantile(sorted, 0.25), quantile(sorted, 0.75)
	iqr := q3 - q1
	lower, upper := q1-1.5*iqr, q3+1.5*iqr
	n := 0
	for _, x := range xs {
		if x < lower || x > upper {
			n++
		}
	}
	return n
}

// centralSums returns the sums of squared, cubed and fourth-power
// deviations from the mean.
func centralSums(xs []float64) (s2, s3, s4 float64) {
	m := mean(xs)
	for _, x := range xs {
		d := x - m
		d2 := d * d
		s2 += d2
		s3 += d2 * d
		s4 += d2 * d2
	}
	return s2, s3, s4
}

// skewness is the bias-adjusted sample skewness. It is 0 for fewer than
// three values or a constant sample.
func skewness(xs []float64) float64 {
	n := float64(len(xs))
	if n < 3 {
		return 0
	}
	s2, s3, _ := centralSums(xs)
	if s2 == 0 {
		return 0
	}
	m2, m3 := s2/n, s3/n
	return math.Sqrt(n*(n-1)) / (n - 2) * m3 / math.Pow(m2, 1.5)
}

// excessKurtosis is the bias-adjusted sample excess kurtosis. It is 0 for
// fewer than four values or a constant sample.
func excessKurtosis(xs []float64) float64 {
	n := float64(len(xs))
	if n < 4 {
		return 0
	}
	s2, _, s4 := centralSums(xs)
	if s2 == 0 {
		return 0
	}
	num := n * (n + 1) * (n - 1) * s4
	den := (n - 2) * (n - 3) * s2 * s2
	adj := 3 * (n - 1) * (n - 1) / ((n - 2) * (n - 3))
	return num/den - adj
}

// pearson correlates two columns over the rows where both are numeric.
// ok is false when fewer than two such rows exist or either side is constant.
func pearson(a, b *dataset.Column) (r float64, ok bool) {
	var xs, ys []float64
	for i := range a.Values {
		x, okx := a.Values[i].Float64()
		y, oky := b.Values[i].Float64()
		if okx && oky && !math.IsNaN(x) && !math.IsNaN(y) {
			xs = append(xs, x)
			ys = append(ys, y)
		}
	}
	if len(xs) < 2 {
		return 0, false
	}
	mx, my := mean(xs), mean(ys)
	var sxy, sxx, syy float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return 0, false
	}
	return sxy / math.Sqrt(sxx*syy), true
}
