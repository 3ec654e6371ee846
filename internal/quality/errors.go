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
)

// ErrMetricDisabled is returned when a recognized but disabled metric is
// requested.
var ErrMetricDisabled = errors.New("metric is disabled")

// MissingColumn identifies one column absent from one dataset.
type MissingColumn struct {
	Dataset string
	Column  string
}

// MissingColumnError reports the columns a cross-dataset comparison could
// not find.
type MissingColumnError struct {
	Missing []MissingColumn
}

func (e *MissingColumnError) Error() string {
	parts := make([]string, len(e.Missing))
	for i, m := range e.Missing {
		parts[i] = fmt.Sprintf("'%s' in the %s dataset", m.Column, m.Dataset)
	}
	return "column(s) missing: " + strings.Join(parts, ", ")
}

// RowCountMismatchError is returned when two datasets compared positionally
// have different lengths.
type RowCountMismatchError struct {
	PrimaryRows   int
	ReferenceRows int
}

func (e *RowCountMismatchError) Error() string {
	return fmt.Sprintf("row count mismatch: primary dataset has %d rows, reference dataset has %d", e.PrimaryRows, e.ReferenceRows)
}

// RuleError wraps a failure raised by a validity rule.
type RuleError struct {
	Column string
	Row    int
	Cause  error
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("validity rule failed on column '%s' at row %d: %v", e.Column, e.Row, e.Cause)
}

func (e *RuleError) Unwrap() error { return e.Cause }

// UnknownMetricError is returned for an unrecognized metric name.
type UnknownMetricError struct {
	Name string
}

func (e *UnknownMetricError) Error() string {
	return fmt.Sprintf("unknown metric %q", e.Name)
}
