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
	"fmt"
	"regexp"
	"strings"

	"github.com/GoogleCloudPlatform/db-quality-scorer/internal/dataset"
)

// Rule is a validity predicate over a single cell.
type Rule func(v dataset.Value) bool

var emailPattern = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)

// EmailRule matches the string form of a value against an email pattern.
// Null renders as the empty string and is therefore invalid.
func EmailRule(v dataset.Value) bool {
	return emailPattern.MatchString(v.String())
}

// NotNull accepts any non-null value.
func NotNull(v dataset.Value) bool {
	return !v.IsNull()
}

// NonBlankString accepts text values that contain a non-whitespace rune.
func NonBlankString(v dataset.Value) bool {
	s, ok := v.Text()
	return ok && strings.TrimSpace(s) != ""
}

// DefaultRule picks the validity rule for a column type: numeric and
// datetime columns only need a value, everything else needs non-blank text.
func DefaultRule(t dataset.SemanticType) Rule {
	switch t {
	case dataset.TypeNumeric, dataset.TypeDatetime:
		return NotNull
	default:
		return NonBlankString
	}
}

// CompletenessScore is the share of non-null cells. An empty column scores 0.
func CompletenessScore(col *dataset.Column) float64 {
	n := col.Len()
	if n == 0 {
		return 0
	}
	return float64(n-col.NullCount()) / float64(n) * 100
}

// UniquenessScore is the number of distinct non-null values over the row
// count. An empty column scores 0.
func UniquenessScore(col *dataset.Column) float64 {
	n := col.Len()
	if n == 0 {
		return 0
	}
	distinct := make(map[string]struct{}, n)
	for _, v := range col.Values {
		if v.IsNull() {
			continue
		}
		distinct[v.Key()] = struct{}{}
	}
	return float64(len(distinct)) / float64(n) * 100
}

// ValidityScore is the share of cells accepted by rule, or by the column's
// default rule when rule is nil. An empty column scores 0. A panicking rule
// is reported as a *RuleError.
func ValidityScore(col *dataset.Column, rule Rule) (float64, error) {
	n := col.Len()
	if n == 0 {
		return 0, nil
	}
	if rule == nil {
		rule = DefaultRule(col.Type)
	}
	valid := 0
	for i, v := range col.Values {
		ok, err := applyRule(rule, v)
		if err != nil {
			return 0, &RuleError{Column: col.Name, Row: i, Cause: err}
		}
		if ok {
			valid++
		}
	}
	return float64(valid) / float64(n) * 100, nil
}

func applyRule(rule Rule, v dataset.Value) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, isErr := r.(error); isErr {
				err = e
				return
			}
			err = fmt.Errorf("%v", r)
		}
	}()
	return rule(v), nil
}
