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
package dataset

import (
	"strconv"
	"strings"
	"time"
)

// SemanticType is the inferred meaning of a column. It drives the default
// validity rule.
type SemanticType int

const (
	TypeText SemanticType = iota
	TypeNumeric
	TypeDatetime
	TypeBoolean
	TypeCategorical
)

func (t SemanticType) String() string {
	switch t {
	case TypeNumeric:
		return "numeric"
	case TypeDatetime:
		return "datetime"
	case TypeBoolean:
		return "boolean"
	case TypeCategorical:
		return "categorical"
	default:
		return "text"
	}
}

// categoricalMaxDistinct is the largest number of distinct values a text
// column may hold and still be considered categorical.
const categoricalMaxDistinct = 5

// dateLayouts are tried in order when a text cell is checked for a datetime.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
	"02-Jan-2006",
}

// nullTokens are the text cells treated as missing when parsing records.
var nullTokens = map[string]struct{}{
	"":     {},
	"NA":   {},
	"N/A":  {},
	"n/a":  {},
	"NaN":  {},
	"nan":  {},
	"-NaN": {},
	"NULL": {},
	"null": {},
	"None": {},
	"<NA>": {},
	"#N/A": {},
	"#NA":  {},
	"-nan": {},
}

// IsNullToken reports whether a raw text cell denotes a missing value.
func IsNullToken(s string) bool {
	_, ok := nullTokens[s]
	return ok
}

// InferType derives the semantic type of a column from the kinds of its
// non-null values. A column with no values at all is numeric, matching how
// an all-empty CSV column is read by tabular libraries.
func InferType(values []Value) SemanticType {
	var numeric, text, boolean, datetime, nonNull int
	distinct := make(map[string]struct{})
	for _, v := range values {
		switch v.Kind() {
		case KindNull:
			continue
		case KindInt, KindFloat:
			numeric++
		case KindString:
			text++
			if len(distinct) <= categoricalMaxDistinct {
				distinct[v.Key()] = struct{}{}
			}
		case KindBool:
			boolean++
		case KindTime:
			datetime++
		}
		nonNull++
	}

	switch {
	case nonNull == 0 || numeric == nonNull:
		return TypeNumeric
	case boolean == nonNull:
		return TypeBoolean
	case datetime == nonNull:
		return TypeDatetime
	case text == nonNull && len(distinct) <= categoricalMaxDistinct && len(distinct) < nonNull:
		return TypeCategorical
	default:
		return TypeText
	}
}

// ParseColumn converts raw text cells into typed values. The whole column
// is parsed as int, float, bool or datetime when every non-missing cell
// agrees; otherwise cells are kept as text.
func ParseColumn(raw []string) []Value {
	values := make([]Value, len(raw))
	parsers := []func(string) (Value, bool){parseInt, parseFloat, parseBool, ParseTime}

	for _, parse := range parsers {
		ok := true
		seen := false
		for i, cell := range raw {
			if IsNullToken(cell) {
				values[i] = Null()
				continue
			}
			v, parsed := parse(cell)
			if !parsed {
				ok = false
				break
			}
			values[i] = v
			seen = true
		}
		if ok && seen {
			return values
		}
	}

	for i, cell := range raw {
		if IsNullToken(cell) {
			values[i] = Null()
			continue
		}
		values[i] = String(cell)
	}
	return values
}

func parseInt(s string) (Value, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return Value{}, false
	}
	return Int(n), true
}

func parseFloat(s string) (Value, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return Value{}, false
	}
	return Float(f), true
}

func parseBool(s string) (Value, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true":
		return Bool(true), true
	case "false":
		return Bool(false), true
	}
	return Value{}, false
}

// ParseTime parses a datetime cell using the supported layouts.
func ParseTime(s string) (Value, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Time(t), true
		}
	}
	return Value{}, false
}
