package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoogleCloudPlatform/db-quality-scorer/internal/database"
	"github.com/GoogleCloudPlatform/db-quality-scorer/internal/dataset"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDetectDelimiter(t *testing.T) {
	tests := []struct {
		line string
		want rune
	}{
		{"a,b,c", ','},
		{"a;b;c", ';'},
		{"a\tb\tc", '\t'},
		{"a|b|c", '|'},
		{"a;b,c;d", ';'},
		{"single", ','},
		{"", ','},
		{"a,b;c", ','},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectDelimiter(tt.line))
		})
	}
}

func TestLoadCSV(t *testing.T) {
	path := writeFile(t, "customers.csv", "\ufeffid;email;age\n1;a@example.com;30\n2;;41\n3;c@example.com\n")

	ds, err := Load(context.Background(), path, Options{})
	require.NoError(t, err)
	assert.Equal(t, "customers", ds.Name())
	assert.Equal(t, []string{"id", "email", "age"}, ds.ColumnNames())
	assert.Equal(t, 3, ds.NumRows())

	id, _ := ds.Column("id")
	assert.Equal(t, dataset.TypeNumeric, id.Type)
	email, _ := ds.Column("email")
	assert.Equal(t, 1, email.NullCount())
	age, _ := ds.Column("age")
	assert.True(t, age.Values[2].IsNull())
}

func TestLoadCSVOptions(t *testing.T) {
	path := writeFile(t, "orders.csv", "id,status,total\n1,open,10.5\n2,closed,3\n3,open,7\n")
	ctx := context.Background()

	ds, err := Load(ctx, path, Options{Limit: 2, Columns: []string{"total", "id"}})
	require.NoError(t, err)
	assert.Equal(t, 2, ds.NumRows())
	assert.Equal(t, []string{"total", "id"}, ds.ColumnNames())

	// A forced delimiter that is not in the file yields one wide column.
	ds, err = Load(ctx, path, Options{Delimiter: ';'})
	require.NoError(t, err)
	assert.Equal(t, 1, ds.NumColumns())

	_, err = Load(ctx, path, Options{Columns: []string{"missing"}})
	assert.ErrorContains(t, err, `has no column "missing"`)
}

func TestLoadErrors(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		uri     string
		opts    Options
		wantErr error
		wantMsg string
	}{
		{name: "Header only", uri: writeFile(t, "empty.csv", "a,b\n"), wantErr: ErrEmptyDataset},
		{name: "Blank file", uri: writeFile(t, "blank.csv", ""), wantErr: ErrEmptyDataset},
		{name: "Unknown extension", uri: "data.xlsx", wantErr: ErrUnsupportedSource},
		{name: "Missing table name", uri: "table:", opts: Options{DB: &fakeLoader{}}, wantErr: ErrUnsupportedSource},
		{name: "No database", uri: "table:orders", wantMsg: "table:orders requires a database connection"},
		{name: "Missing file", uri: filepath.Join(t.TempDir(), "nope.csv"), wantMsg: "failed to open file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(ctx, tt.uri, tt.opts)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.wantMsg != "" {
				assert.ErrorContains(t, err, tt.wantMsg)
			}
		})
	}
}

type fakeLoader struct {
	gotName string
	gotOpts database.LoadOptions
	ds      *dataset.Dataset
	err     error
}

func (f *fakeLoader) LoadTable(ctx context.Context, tableName string, opts database.LoadOptions) (*dataset.Dataset, error) {
	f.gotName, f.gotOpts = tableName, opts
	return f.ds, f.err
}

func TestLoadTable(t *testing.T) {
	ds, err := dataset.New("orders", dataset.NewColumn("id", []dataset.Value{dataset.Int(1), dataset.Int(2)}))
	require.NoError(t, err)
	loader := &fakeLoader{ds: ds}

	got, err := Load(context.Background(), "TABLE: orders", Options{DB: loader, Limit: 10, OrderBy: "id", Columns: []string{"id"}})
	require.NoError(t, err)
	assert.Same(t, ds, got)
	assert.Equal(t, "orders", loader.gotName)
	assert.Equal(t, database.LoadOptions{Limit: 10, OrderBy: "id", Columns: []string{"id"}}, loader.gotOpts)

	loader.err = errors.New("relation does not exist")
	_, err = Load(context.Background(), "table:orders", Options{DB: loader})
	assert.EqualError(t, err, "relation does not exist")
}

func TestIsTableURI(t *testing.T) {
	assert.True(t, IsTableURI("table:orders"))
	assert.True(t, IsTableURI("Table:orders"))
	assert.False(t, IsTableURI("orders.csv"))
	assert.False(t, IsTableURI("tables/orders.csv"))
}

func writeParquet(t *testing.T) string {
	t.Helper()
	mem := memory.NewGoAllocator()
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
		{Name: "email", Type: arrow.BinaryTypes.String, Nullable: true},
		{Name: "active", Type: arrow.FixedWidthTypes.Boolean, Nullable: true},
		{Name: "signup", Type: arrow.FixedWidthTypes.Date32, Nullable: true},
		{Name: "score", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	}, nil)

	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()
	b.Field(0).(*array.Int64Builder).AppendValues([]int64{1, 2, 3}, []bool{true, true, false})
	b.Field(1).(*array.StringBuilder).AppendValues([]string{"a@example.com", "not-an-email", ""}, []bool{true, true, false})
	b.Field(2).(*array.BooleanBuilder).AppendValues([]bool{true, false, true}, nil)
	day := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)
	b.Field(3).(*array.Date32Builder).AppendValues([]arrow.Date32{
		arrow.Date32FromTime(day), arrow.Date32FromTime(day.AddDate(0, 0, 1)), arrow.Date32FromTime(day.AddDate(0, 0, 2)),
	}, nil)
	b.Field(4).(*array.Float64Builder).AppendValues([]float64{0.5, 1.5, 2.5}, nil)

	rec := b.NewRecord()
	defer rec.Release()
	tbl := array.NewTableFromRecords(schema, []arrow.Record{rec})
	defer tbl.Release()

	path := filepath.Join(t.TempDir(), "people.parquet")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, pqarrow.WriteTable(tbl, f, 1024, parquet.NewWriterProperties(), pqarrow.DefaultWriterProps()))
	require.NoError(t, f.Close())
	return path
}

func TestLoadParquet(t *testing.T) {
	path := writeParquet(t)

	ds, err := Load(context.Background(), path, Options{})
	require.NoError(t, err)
	assert.Equal(t, "people", ds.Name())
	assert.Equal(t, []string{"id", "email", "active", "signup", "score"}, ds.ColumnNames())
	assert.Equal(t, 3, ds.NumRows())

	id, _ := ds.Column("id")
	assert.Equal(t, dataset.TypeNumeric, id.Type)
	assert.True(t, id.Values[0].Equal(dataset.Int(1)))
	assert.True(t, id.Values[2].IsNull())

	email, _ := ds.Column("email")
	assert.Equal(t, "not-an-email", email.Values[1].String())
	assert.Equal(t, 1, email.NullCount())

	active, _ := ds.Column("active")
	assert.Equal(t, dataset.TypeBoolean, active.Type)

	signup, _ := ds.Column("signup")
	assert.Equal(t, dataset.TypeDatetime, signup.Type)
	ts, ok := signup.Values[0].TimeValue()
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(ts.UTC().Format(time.RFC3339), "2024-02-29"))

	limited, err := Load(context.Background(), path, Options{Limit: 2, Columns: []string{"score"}})
	require.NoError(t, err)
	assert.Equal(t, 2, limited.NumRows())
	assert.Equal(t, []string{"score"}, limited.ColumnNames())
}
