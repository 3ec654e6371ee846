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
package database

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/GoogleCloudPlatform/db-quality-scorer/internal/dataset"
)

var (
	numericTypes = []string{
		"int", "integer", "bigint", "smallint", "tinyint", "mediumint", "serial", "bigserial", "smallserial",
		"decimal", "numeric", "number", "real", "double", "double precision", "float", "binary_float",
		"binary_double", "money", "smallmoney",
	}
	datetimeTypes = []string{
		"date", "datetime", "datetime2", "smalldatetime", "datetimeoffset", "timestamp", "time",
		"timestamp without time zone", "timestamp with time zone", "time without time zone", "timestamptz",
	}
	booleanTypes = []string{"bool", "boolean", "bit", "tinyint(1)"}
)

// SemanticTypeForSQL maps a catalog data type, such as "varchar(20)",
// "timestamp with time zone" or "NUMBER", to a semantic type.
func SemanticTypeForSQL(dataType string) dataset.SemanticType {
	t := strings.ToLower(strings.TrimSpace(dataType))
	for _, b := range booleanTypes {
		if t == b {
			return dataset.TypeBoolean
		}
	}
	base := t
	if i := strings.IndexByte(base, '('); i >= 0 {
		rest := ""
		if j := strings.IndexByte(base, ')'); j > i {
			rest = base[j+1:]
		}
		base = strings.TrimSpace(base[:i] + rest)
	}
	base = strings.TrimSpace(strings.TrimSuffix(base, " unsigned"))
	for _, n := range numericTypes {
		if base == n {
			return dataset.TypeNumeric
		}
	}
	for _, d := range datetimeTypes {
		if base == d {
			return dataset.TypeDatetime
		}
	}
	// e.g. Oracle "TIMESTAMP(6) WITH LOCAL TIME ZONE"
	if strings.HasPrefix(base, "timestamp") {
		return dataset.TypeDatetime
	}
	return dataset.TypeText
}

// ValueFromDriver converts a scanned driver value into a dataset value.
// Drivers that return numbers, booleans or times as text ([]byte) are
// parsed according to the declared type.
func ValueFromDriver(raw any, typ dataset.SemanticType) dataset.Value {
	var s string
	switch x := raw.(type) {
	case []byte:
		s = string(x)
	case string:
		s = x
	default:
		return dataset.Of(raw)
	}

	switch typ {
	case dataset.TypeNumeric:
		if n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
			return dataset.Int(n)
		}
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return dataset.Float(f)
		}
	case dataset.TypeBoolean:
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "1", "t", "true", "y", "yes", "\x01":
			return dataset.Bool(true)
		case "0", "f", "false", "n", "no", "\x00":
			return dataset.Bool(false)
		}
	case dataset.TypeDatetime:
		if v, ok := dataset.ParseTime(s); ok {
			return v
		}
		if t, err := time.Parse("15:04:05", strings.TrimSpace(s)); err == nil {
			return dataset.Time(t)
		}
	}
	return dataset.String(s)
}

// QuoteList quotes every name with quote and joins them with commas.
func QuoteList(quote func(string) string, names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = quote(n)
	}
	return strings.Join(quoted, ", ")
}

// SelectWithLimitClause builds the common "SELECT ... FROM ... ORDER BY ...
// LIMIT n" form shared by dialects that accept a trailing LIMIT.
func SelectWithLimitClause(quote func(string) string, tableName string, columns []string, orderBy string, limit int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", QuoteList(quote, columns), quote(tableName))
	if orderBy != "" {
		fmt.Fprintf(&b, " ORDER BY %s", quote(orderBy))
	}
	if limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", limit)
	}
	return b.String()
}
