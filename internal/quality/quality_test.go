package quality

import (
	"errors"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoogleCloudPlatform/db-quality-scorer/internal/dataset"
)

func vals(in ...any) []dataset.Value {
	out := make([]dataset.Value, len(in))
	for i, v := range in {
		out[i] = dataset.Of(v)
	}
	return out
}

func mustRows(t *testing.T, name string, order []string, rows []map[string]any) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.FromRows(name, order, rows)
	require.NoError(t, err)
	return ds
}

func TestCompletenessScore(t *testing.T) {
	tests := []struct {
		name   string
		values []dataset.Value
		want   float64
	}{
		{"No nulls", vals(1, 2, 3, 4), 100},
		{"One null of four", vals(1, nil, 3, 4), 75},
		{"All null", vals(nil, nil), 0},
		{"Empty column", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CompletenessScore(dataset.NewColumn("c", tt.values)), 1e-9)
		})
	}
}

func TestUniquenessScore(t *testing.T) {
	tests := []struct {
		name   string
		values []dataset.Value
		want   float64
	}{
		{"All equal", vals(7, 7, 7, 7), 25},
		{"All distinct", vals(1, 2, 3), 100},
		{"Nulls are not a distinct value", vals(1, nil, nil, 1), 25},
		{"Int and float of same number", vals(2, 2.0), 50},
		{"Empty column", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, UniquenessScore(dataset.NewColumn("c", tt.values)), 1e-9)
		})
	}
}

func TestValidityScoreDefaultRule(t *testing.T) {
	tests := []struct {
		name   string
		values []dataset.Value
		want   float64
	}{
		{"Numeric with null", vals(1, nil, 3, 4), 75},
		{"Text with blanks", vals("x", "", "  ", "y"), 50},
		{"Text with null", vals("x", nil), 50},
		{"Datetime", vals(time.Now(), nil), 50},
		{"Boolean is not text", vals(true, false), 0},
		{"Empty column", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidityScore(dataset.NewColumn("c", tt.values), nil)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestEmailRule(t *testing.T) {
	tests := []struct {
		in   dataset.Value
		want bool
	}{
		{dataset.String("jane.doe+tag@example.co.uk"), true},
		{dataset.String("a_b%c@sub.domain.org"), true},
		{dataset.String("missing-at.example.com"), false},
		{dataset.String("user@host"), false},
		{dataset.String("user@host.c"), false},
		{dataset.String(""), false},
		{dataset.Null(), false},
		{dataset.Int(42), false},
	}
	for _, tt := range tests {
		t.Run(tt.in.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, EmailRule(tt.in))
		})
	}
}

func TestValidityScorePanickingRule(t *testing.T) {
	col := dataset.NewColumn("c", vals("a", "b"))
	sentinel := errors.New("bad value")

	_, err := ValidityScore(col, func(v dataset.Value) bool {
		if s, _ := v.Text(); s == "b" {
			panic(sentinel)
		}
		return true
	})
	var ruleErr *RuleError
	require.ErrorAs(t, err, &ruleErr)
	assert.Equal(t, "c", ruleErr.Column)
	assert.Equal(t, 1, ruleErr.Row)
	assert.ErrorIs(t, err, sentinel)

	_, err = ValidityScore(col, func(dataset.Value) bool { panic("boom") })
	assert.ErrorContains(t, err, "boom")
}

func TestAccuracyScore(t *testing.T) {
	primary := mustRows(t, "p", []string{"a"}, []map[string]any{{"a": 1}, {"a": 2}, {"a": nil}, {"a": 4}})

	tests := []struct {
		name      string
		reference []map[string]any
		want      float64
	}{
		{"Identical", []map[string]any{{"a": 1}, {"a": 2}, {"a": nil}, {"a": 4}}, 100},
		{"Numerically equal floats", []map[string]any{{"a": 1.0}, {"a": 2.0}, {"a": nil}, {"a": 4.0}}, 100},
		{"One differs", []map[string]any{{"a": 1}, {"a": 3}, {"a": nil}, {"a": 4}}, 75},
		{"Null against value", []map[string]any{{"a": 1}, {"a": 2}, {"a": 3}, {"a": nil}}, 50},
		{"Disjoint", []map[string]any{{"a": 10}, {"a": 20}, {"a": 30}, {"a": 40}}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref := mustRows(t, "r", []string{"a"}, tt.reference)
			got, err := AccuracyScore(primary, ref, "a")
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestAccuracyScoreCompletelyDifferent(t *testing.T) {
	p := mustRows(t, "p", []string{"a"}, []map[string]any{{"a": "x"}, {"a": "y"}})
	r := mustRows(t, "r", []string{"a"}, []map[string]any{{"a": "u"}, {"a": "v"}})
	got, err := AccuracyScore(p, r, "a")
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)
}

func TestAccuracyScoreZeroRows(t *testing.T) {
	p, err := dataset.New("p", dataset.NewColumn("a", nil))
	require.NoError(t, err)
	got, err := AccuracyScore(p, p, "a")
	require.NoError(t, err)
	assert.Equal(t, 100.0, got)

	got, err = ConsistencyScore(p, p, "a", "")
	require.NoError(t, err)
	assert.Equal(t, 100.0, got)
}

func TestMissingColumnError(t *testing.T) {
	p := mustRows(t, "p", []string{"a", "c"}, []map[string]any{{"a": 1, "c": 1}})
	r := mustRows(t, "r", []string{"a", "b"}, []map[string]any{{"a": 1, "b": 1}})

	_, err := AccuracyScore(p, r, "c")
	var missing *MissingColumnError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []MissingColumn{{Dataset: "reference", Column: "c"}}, missing.Missing)
	assert.EqualError(t, err, "column(s) missing: 'c' in the reference dataset")

	_, err = AccuracyScore(p, r, "z")
	assert.EqualError(t, err, "column(s) missing: 'z' in the primary dataset, 'z' in the reference dataset")

	_, err = ConsistencyScore(p, r, "a", "q")
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []MissingColumn{{Dataset: "reference", Column: "q"}}, missing.Missing)
}

func TestRowCountMismatch(t *testing.T) {
	p := mustRows(t, "p", []string{"a"}, []map[string]any{{"a": 1}, {"a": 2}})
	r := mustRows(t, "r", []string{"a"}, []map[string]any{{"a": 1}})

	_, err := AccuracyScore(p, r, "a")
	var mismatch *RowCountMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, 2, mismatch.PrimaryRows)
	assert.Equal(t, 1, mismatch.ReferenceRows)
}

func TestConsistencyScore(t *testing.T) {
	p := mustRows(t, "p", []string{"a", "b"}, []map[string]any{
		{"a": 1, "b": "x"},
		{"a": nil, "b": nil},
		{"a": 3, "b": ""},
	})
	r := mustRows(t, "r", []string{"a", "a_copy"}, []map[string]any{
		{"a": 1, "a_copy": 1},
		{"a": nil, "a_copy": 5},
		{"a": 3, "a_copy": 3},
	})

	for _, col := range p.ColumnNames() {
		got, err := ConsistencyScore(p, p, col, col)
		require.NoError(t, err)
		assert.Equal(t, 100.0, got, "self consistency of %s", col)
	}

	got, err := ConsistencyScore(p, r, "a", "a_copy")
	require.NoError(t, err)
	assert.InDelta(t, 200.0/3, got, 1e-9)
}

func TestCalculateScoresEndToEnd(t *testing.T) {
	rows := []map[string]any{{"a": 1, "b": "x"}, {"a": 2, "b": ""}}
	primary := mustRows(t, "primary", []string{"a", "b"}, rows)
	reference := mustRows(t, "reference", []string{"a", "b"}, rows)

	scores, err := CalculateScores(primary, reference, Options{})
	require.NoError(t, err)
	require.Empty(t, scores.ColumnErrors)

	table := scores.Table
	assert.Equal(t, []string{"a", "b"}, table.Columns())
	assert.Equal(t, DefaultMetrics(), table.Metrics())

	get := func(col string, m Metric) float64 {
		v, ok := table.Score(col, m)
		require.True(t, ok, "%s/%s", col, m)
		return v
	}
	assert.Equal(t, 100.0, get("a", Completeness))
	assert.Equal(t, 100.0, get("b", Completeness))
	assert.Equal(t, 100.0, get("a", Accuracy))
	assert.Equal(t, 100.0, get("a", Consistency))
	// b is not an email column, so the orchestrator scores it 100.
	assert.Equal(t, 100.0, get("b", Validity))

	b, _ := primary.Column("b")
	v, err := ValidityScore(b, nil)
	require.NoError(t, err)
	assert.Equal(t, 50.0, v)
}

func TestCalculateScoresEmailColumn(t *testing.T) {
	rows := []map[string]any{
		{"Contact_Email": "a@example.com", "notes": ""},
		{"Contact_Email": "not-an-email", "notes": ""},
		{"Contact_Email": nil, "notes": ""},
		{"Contact_Email": "b@example.org", "notes": ""},
	}
	ds := mustRows(t, "p", []string{"Contact_Email", "notes"}, rows)

	scores, err := CalculateScores(ds, ds, Options{Metrics: []Metric{Validity}})
	require.NoError(t, err)

	v, _ := scores.Table.Score("Contact_Email", Validity)
	assert.Equal(t, 50.0, v)
	v, _ = scores.Table.Score("notes", Validity)
	assert.Equal(t, 100.0, v)
}

func TestCalculateScoresFailFast(t *testing.T) {
	p := mustRows(t, "p", []string{"a", "only_here"}, []map[string]any{{"a": 1, "only_here": 2}})
	r := mustRows(t, "r", []string{"a"}, []map[string]any{{"a": 1}})

	scores, err := CalculateScores(p, r, Options{})
	assert.Nil(t, scores)
	var missing *MissingColumnError
	require.ErrorAs(t, err, &missing)
	assert.Contains(t, err.Error(), "'only_here' in the reference dataset")
}

func TestCalculateScoresPartial(t *testing.T) {
	p := mustRows(t, "p", []string{"a", "only_here"}, []map[string]any{{"a": 1, "only_here": 2}, {"a": 2, "only_here": nil}})
	r := mustRows(t, "r", []string{"a"}, []map[string]any{{"a": 1}, {"a": 2}})

	var progress []string
	scores, err := CalculateScores(p, r, Options{
		FailureMode: Partial,
		Progress:    func(done, total int, column string) { progress = append(progress, column) },
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "only_here"}, progress)

	require.Contains(t, scores.ColumnErrors, "only_here")
	var missing *MissingColumnError
	assert.ErrorAs(t, scores.ColumnErrors["only_here"], &missing)

	_, ok := scores.Table.Score("only_here", Accuracy)
	assert.False(t, ok)
	c, ok := scores.Table.Score("only_here", Completeness)
	require.True(t, ok)
	assert.Equal(t, 50.0, c)
}

func TestCalculateScoresMetricSelection(t *testing.T) {
	ds := mustRows(t, "p", []string{"a"}, []map[string]any{{"a": 1}})

	_, err := CalculateScores(ds, ds, Options{Metrics: []Metric{Timeliness}})
	assert.ErrorIs(t, err, ErrMetricDisabled)

	_, err = CalculateScores(ds, ds, Options{Metrics: []Metric{"Freshness"}})
	var unknown *UnknownMetricError
	assert.ErrorAs(t, err, &unknown)

	_, err = CalculateScores(ds, ds, Options{Metrics: []Metric{Completeness, Completeness}})
	assert.Error(t, err)

	scores, err := CalculateScores(ds, ds, Options{Metrics: []Metric{Uniqueness, Completeness}})
	require.NoError(t, err)
	assert.Equal(t, []Metric{Uniqueness, Completeness}, scores.Table.Metrics())
	_, ok := scores.Table.Score("a", Accuracy)
	assert.False(t, ok)
}

func TestOverallQualityScoreIsMeanOfMeans(t *testing.T) {
	metrics := []Metric{Completeness, Validity}
	rows := map[string]ScoreRow{
		"x": {Completeness: 100, Validity: 0},
		"y": {Completeness: 100},
		"z": {Completeness: 40},
	}
	table, err := NewScoreTable([]string{"x", "y", "z"}, metrics, rows)
	require.NoError(t, err)

	avgs := MetricAverages(table)
	require.Len(t, avgs, 2)
	assert.Equal(t, MetricAverage{Metric: Completeness, Mean: 80, Columns: 3}, avgs[0])
	assert.Equal(t, MetricAverage{Metric: Validity, Mean: 0, Columns: 1}, avgs[1])

	overall := OverallQualityScore(table)
	assert.InDelta(t, 40.0, overall, 1e-9)

	flat := (100.0 + 0 + 100 + 40) / 4
	assert.NotEqual(t, flat, overall)

	reordered, err := NewScoreTable([]string{"z", "x", "y"}, metrics, rows)
	require.NoError(t, err)
	assert.InDelta(t, overall, OverallQualityScore(reordered), 1e-9)

	assert.InDelta(t, 80.0, OverallQualityScore(table, Completeness), 1e-9)
	assert.InDelta(t, 80.0, OverallQualityScore(table, Completeness, Accuracy), 1e-9)
}

func TestOverallQualityScoreEmptyTable(t *testing.T) {
	table, err := NewScoreTable(nil, DefaultMetrics(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, OverallQualityScore(table))
	assert.Empty(t, MetricAverages(table))
}

func TestScoreTableIsImmutable(t *testing.T) {
	rows := map[string]ScoreRow{"a": {Completeness: 50}}
	table, err := NewScoreTable([]string{"a"}, []Metric{Completeness}, rows)
	require.NoError(t, err)

	rows["a"][Completeness] = 0
	row, _ := table.Row("a")
	row[Completeness] = 1
	cols := table.Columns()
	cols[0] = "changed"

	v, _ := table.Score("a", Completeness)
	assert.Equal(t, 50.0, v)
	assert.Equal(t, []string{"a"}, table.Columns())

	_, err = NewScoreTable([]string{"a", "b"}, nil, rows)
	assert.Error(t, err)
}

func TestParseMetrics(t *testing.T) {
	got, err := ParseMetrics([]string{"completeness", " VALIDITY ", "Completeness", ""})
	require.NoError(t, err)
	assert.Equal(t, []Metric{Completeness, Validity}, got)

	_, err = ParseMetrics([]string{"nope"})
	assert.EqualError(t, err, `unknown metric "nope"`)

	mode, err := ParseFailureMode("Partial")
	require.NoError(t, err)
	assert.Equal(t, Partial, mode)
	_, err = ParseFailureMode("sometimes")
	assert.Error(t, err)
}

func TestTimelinessScore(t *testing.T) {
	threshold := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	col := dataset.NewColumn("updated_at", vals(
		threshold.AddDate(0, 0, -1),
		threshold,
		threshold.AddDate(0, 1, 0),
		nil,
	))
	got, err := TimelinessScore(col, &threshold)
	require.NoError(t, err)
	assert.Equal(t, 50.0, got)

	_, err = TimelinessScore(col, nil)
	assert.Error(t, err)

	got, err = TimelinessScore(dataset.NewColumn("n", vals(1, 2)), nil)
	require.NoError(t, err)
	assert.Equal(t, 100.0, got)
}

// Randomized datasets must always score inside [0, 100].
func TestScoresStayInRange(t *testing.T) {
	faker := gofakeit.New(42)
	for iter := 0; iter < 25; iter++ {
		n := faker.Number(0, 40)
		primaryRows := make([]map[string]any, n)
		referenceRows := make([]map[string]any, n)
		for i := 0; i < n; i++ {
			row := map[string]any{
				"id":       faker.Number(1, 10),
				"email":    faker.Email(),
				"name":     faker.FirstName(),
				"balance":  faker.Float64Range(-100, 100),
				"active":   faker.Bool(),
				"joined":   faker.Date(),
				"category": faker.RandomString([]string{"a", "b", "c", ""}),
			}
			for k := range row {
				if faker.Number(0, 4) == 0 {
					row[k] = nil
				}
			}
			ref := make(map[string]any, len(row))
			for k, v := range row {
				ref[k] = v
				if faker.Bool() {
					ref[k] = faker.Word()
				}
			}
			primaryRows[i] = row
			referenceRows[i] = ref
		}
		order := []string{"id", "email", "name", "balance", "active", "joined", "category"}
		primary := mustRows(t, "p", order, primaryRows)
		reference := mustRows(t, "r", order, referenceRows)

		scores, err := CalculateScores(primary, reference, Options{})
		require.NoError(t, err)
		for _, col := range scores.Table.Columns() {
			row, _ := scores.Table.Row(col)
			for m, v := range row {
				assert.GreaterOrEqual(t, v, 0.0, "%s/%s", col, m)
				assert.LessOrEqual(t, v, 100.0, "%s/%s", col, m)
			}
			c, _ := primary.Column(col)
			v, err := ValidityScore(c, nil)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 100.0)
		}
		overall := OverallQualityScore(scores.Table)
		assert.GreaterOrEqual(t, overall, 0.0)
		assert.LessOrEqual(t, overall, 100.0)
	}
}
