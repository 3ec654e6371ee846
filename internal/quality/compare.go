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

import "github.com/GoogleCloudPlatform/db-quality-scorer/internal/dataset"

const (
	primaryLabel   = "primary"
	referenceLabel = "reference"
)

// AccuracyScore compares column name of primary against the same column of
// reference, row by row. A row is correct when both cells are null or both
// are non-null and equal. The score is correct rows over primary rows; zero
// rows score 100.
func AccuracyScore(primary, reference *dataset.Dataset, name string) (float64, error) {
	return ConsistencyScore(primary, reference, name, name)
}

// ConsistencyScore compares column c1 of primary against column c2 of
// reference using the same rule as AccuracyScore. An empty c2 means c1.
func ConsistencyScore(primary, reference *dataset.Dataset, c1, c2 string) (float64, error) {
	if c2 == "" {
		c2 = c1
	}
	pc, rc, err := lookupPair(primary, reference, c1, c2)
	if err != nil {
		return 0, err
	}
	return agreement(pc.Values, rc.Values), nil
}

func lookupPair(primary, reference *dataset.Dataset, c1, c2 string) (*dataset.Column, *dataset.Column, error) {
	pc, pok := primary.Column(c1)
	rc, rok := reference.Column(c2)
	if !pok || !rok {
		missing := &MissingColumnError{}
		if !pok {
			missing.Missing = append(missing.Missing, MissingColumn{Dataset: primaryLabel, Column: c1})
		}
		if !rok {
			missing.Missing = append(missing.Missing, MissingColumn{Dataset: referenceLabel, Column: c2})
		}
		return nil, nil, missing
	}
	if primary.NumRows() != reference.NumRows() {
		return nil, nil, &RowCountMismatchError{PrimaryRows: primary.NumRows(), ReferenceRows: reference.NumRows()}
	}
	return pc, rc, nil
}

// agreement is the null-aware positional equality shared by accuracy and
// consistency. Both slices have the same length.
func agreement(a, b []dataset.Value) float64 {
	if len(a) == 0 {
		return 100
	}
	agree := 0
	for i := range a {
		x, y := a[i], b[i]
		switch {
		case x.IsNull() && y.IsNull():
			agree++
		case x.Equal(y):
			agree++
		}
	}
	return float64(agree) / float64(len(a)) * 100
}
