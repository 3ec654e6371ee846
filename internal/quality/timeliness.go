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
	"time"

	"github.com/GoogleCloudPlatform/db-quality-scorer/internal/dataset"
)

// TimelinessScore is the share of datetime cells at or after threshold.
// Columns that are not datetime score 100. It is not part of any scoring
// pass: CalculateScores rejects Timeliness with ErrMetricDisabled.
func TimelinessScore(col *dataset.Column, threshold *time.Time) (float64, error) {
	if col.Type != dataset.TypeDatetime {
		return 100, nil
	}
	if threshold == nil {
		return 0, errors.New("timeliness: threshold date must be provided")
	}
	n := col.Len()
	if n == 0 {
		return 0, nil
	}
	timely := 0
	for _, v := range col.Values {
		if ts, ok := v.TimeValue(); ok && !ts.Before(*threshold) {
			timely++
		}
	}
	return float64(timely) / float64(n) * 100, nil
}
