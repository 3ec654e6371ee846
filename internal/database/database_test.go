package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/GoogleCloudPlatform/db-quality-scorer/internal/config"
	"github.com/GoogleCloudPlatform/db-quality-scorer/internal/dataset"
)

// Mock DialectHandler implementation
type mockDialectHandler struct {
	mu                   sync.Mutex
	createCloudSQLPoolFn func(cfg config.DatabaseConfig) (*sql.DB, error)
	createStandardPoolFn func(cfg config.DatabaseConfig) (*sql.DB, error)
	listTablesFn         func(db *DB) ([]string, error)
	listColumnsFn        func(db *DB, tableName string) ([]ColumnInfo, error)

	// Call counters
	cloudSQLPoolCalls int
	standardPoolCalls int
	listTablesCalls   int
	listColumnsCalls  int
}

func (m *mockDialectHandler) CreateCloudSQLPool(cfg config.DatabaseConfig) (*sql.DB, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cloudSQLPoolCalls++
	if m.createCloudSQLPoolFn != nil {
		return m.createCloudSQLPoolFn(cfg)
	}
	mockDb, _, _ := sqlmock.New()
	return mockDb, nil
}

func (m *mockDialectHandler) CreateStandardPool(cfg config.DatabaseConfig) (*sql.DB, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.standardPoolCalls++
	if m.createStandardPoolFn != nil {
		return m.createStandardPoolFn(cfg)
	}
	mockDb, _, _ := sqlmock.New()
	return mockDb, nil
}

func (m *mockDialectHandler) QuoteIdentifier(name string) string { return fmt.Sprintf(`"%s"`, name) }

func (m *mockDialectHandler) ListTables(ctx context.Context, db *DB) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listTablesCalls++
	if m.listTablesFn != nil {
		return m.listTablesFn(db)
	}
	return []string{"table1"}, nil
}

func (m *mockDialectHandler) ListColumns(ctx context.Context, db *DB, tableName string) ([]ColumnInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listColumnsCalls++
	if m.listColumnsFn != nil {
		return m.listColumnsFn(db, tableName)
	}
	return []ColumnInfo{{Name: "col1", DataType: "int"}}, nil
}

func (m *mockDialectHandler) SelectRowsQuery(tableName string, columns []string, orderBy string, limit int) string {
	return SelectWithLimitClause(m.QuoteIdentifier, tableName, columns, orderBy, limit)
}

func withCleanRegistry(t *testing.T) {
	t.Helper()
	mu.Lock()
	original := dialectHandlers
	dialectHandlers = make(map[string]DialectHandler)
	mu.Unlock()
	t.Cleanup(func() {
		mu.Lock()
		dialectHandlers = original
		mu.Unlock()
	})
}

func TestRegisterAndGetDialectHandler(t *testing.T) {
	withCleanRegistry(t)

	mockHandler := &mockDialectHandler{}
	testDialect := "testdialect"

	if _, err := GetDialectHandler(testDialect); err == nil {
		t.Errorf("Expected error when getting unregistered dialect, got nil")
	}

	RegisterDialectHandler(testDialect, mockHandler)

	handler, err := GetDialectHandler(testDialect)
	if err != nil {
		t.Errorf("Unexpected error getting registered dialect: %v", err)
	}
	if handler != mockHandler {
		t.Errorf("Got wrong handler back, expected mock, got %T", handler)
	}

	mockHandler2 := &mockDialectHandler{}
	RegisterDialectHandler(testDialect, mockHandler2)
	handler, err = GetDialectHandler(testDialect)
	if err != nil {
		t.Errorf("Unexpected error getting overwritten dialect: %v", err)
	}
	if handler != mockHandler2 {
		t.Errorf("Got wrong handler back after overwrite, expected mock2, got %T", handler)
	}
}

func TestNewChoosesPoolByDialect(t *testing.T) {
	withCleanRegistry(t)
	ctx := context.Background()

	tests := []struct {
		dialect      string
		wantCloudSQL bool
	}{
		{"mockdb", false},
		{"cloudsqlmockdb", true},
	}
	for _, tt := range tests {
		t.Run(tt.dialect, func(t *testing.T) {
			handler := &mockDialectHandler{}
			pool := func(config.DatabaseConfig) (*sql.DB, error) {
				db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
				if err != nil {
					return nil, err
				}
				mock.ExpectPing()
				return db, nil
			}
			handler.createStandardPoolFn = pool
			handler.createCloudSQLPoolFn = pool
			RegisterDialectHandler(tt.dialect, handler)

			db, err := New(ctx, config.DatabaseConfig{Dialect: tt.dialect})
			if err != nil {
				t.Fatalf("New() unexpected error: %v", err)
			}
			defer db.Close()

			if tt.wantCloudSQL && handler.cloudSQLPoolCalls != 1 {
				t.Errorf("expected CreateCloudSQLPool to be called once, got %d", handler.cloudSQLPoolCalls)
			}
			if !tt.wantCloudSQL && handler.standardPoolCalls != 1 {
				t.Errorf("expected CreateStandardPool to be called once, got %d", handler.standardPoolCalls)
			}
		})
	}
}

func TestNewErrors(t *testing.T) {
	withCleanRegistry(t)
	ctx := context.Background()

	if _, err := New(ctx, config.DatabaseConfig{Dialect: "nope"}); err == nil {
		t.Errorf("New() with unknown dialect expected error, got nil")
	}

	poolErr := errors.New("bad dsn")
	RegisterDialectHandler("broken", &mockDialectHandler{
		createStandardPoolFn: func(config.DatabaseConfig) (*sql.DB, error) { return nil, poolErr },
	})
	if _, err := New(ctx, config.DatabaseConfig{Dialect: "broken"}); !errors.Is(err, poolErr) {
		t.Errorf("New() error = %v, want %v", err, poolErr)
	}

	pingErr := errors.New("connection refused")
	RegisterDialectHandler("unreachable", &mockDialectHandler{
		createStandardPoolFn: func(config.DatabaseConfig) (*sql.DB, error) {
			db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
			if err != nil {
				return nil, err
			}
			mock.ExpectPing().WillReturnError(pingErr)
			return db, nil
		},
	})
	if _, err := New(ctx, config.DatabaseConfig{Dialect: "unreachable"}); !errors.Is(err, pingErr) {
		t.Errorf("New() error = %v, want %v", err, pingErr)
	}
}

// Helper to create a DB with a mock handler and pool for delegation tests
func newTestDBWithMockHandler(t *testing.T, handler DialectHandler) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDb, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("An error '%s' was not expected when opening a stub database connection", err)
	}
	return &DB{
		Pool:    mockDb,
		Handler: handler,
		Config:  config.DatabaseConfig{Dialect: "mock"},
	}, mock
}

func TestDBMethodsDelegateToHandler(t *testing.T) {
	mockHandler := &mockDialectHandler{}
	db, mock := newTestDBWithMockHandler(t, mockHandler)
	defer db.Close()
	ctx := context.Background()

	if _, err := db.ListTables(ctx); err != nil {
		t.Errorf("db.ListTables() returned unexpected error: %v", err)
	}
	if _, err := db.ListColumns(ctx, "t1"); err != nil {
		t.Errorf("db.ListColumns() returned unexpected error: %v", err)
	}
	if mockHandler.listTablesCalls != 1 || mockHandler.listColumnsCalls != 1 {
		t.Errorf("expected one call each, got ListTables=%d ListColumns=%d", mockHandler.listTablesCalls, mockHandler.listColumnsCalls)
	}

	mock.ExpectPing()
	if err := db.Ping(ctx); err != nil {
		t.Errorf("db.Ping() returned unexpected error: %v", err)
	}

	if cfg := db.GetConfig(); cfg.Dialect != "mock" {
		t.Errorf("db.GetConfig() returned wrong dialect, got %s, want mock", cfg.Dialect)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestUninitializedDB(t *testing.T) {
	db := &DB{}
	ctx := context.Background()
	if _, err := db.ListTables(ctx); err == nil {
		t.Errorf("ListTables() on uninitialized DB expected error")
	}
	if _, err := db.LoadTable(ctx, "t", LoadOptions{}); err == nil {
		t.Errorf("LoadTable() on uninitialized DB expected error")
	}
	if err := db.Ping(ctx); err == nil {
		t.Errorf("Ping() on uninitialized DB expected error")
	}
	if err := db.Close(); err != nil {
		t.Errorf("Close() on uninitialized DB returned %v", err)
	}
}

func TestLoadTable(t *testing.T) {
	ctx := context.Background()
	columns := []ColumnInfo{
		{Name: "id", DataType: "bigint"},
		{Name: "email", DataType: "varchar(255)"},
		{Name: "active", DataType: "boolean"},
	}

	tests := []struct {
		name      string
		columns   []ColumnInfo
		opts      LoadOptions
		mockSetup func(mock sqlmock.Sqlmock)
		wantErr   string
		check     func(t *testing.T, ds *dataset.Dataset)
	}{
		{
			name:    "Success",
			columns: columns,
			opts:    LoadOptions{OrderBy: "id", Limit: 3},
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT "id", "email", "active" FROM "people" ORDER BY "id" LIMIT 3`)).
					WillReturnRows(sqlmock.NewRows([]string{"id", "email", "active"}).
						AddRow(int64(1), "a@example.com", true).
						AddRow(int64(2), "b@example.com", false).
						AddRow(int64(3), nil, nil))
			},
			check: func(t *testing.T, ds *dataset.Dataset) {
				if ds.Name() != "people" || ds.NumRows() != 3 || ds.NumColumns() != 3 {
					t.Fatalf("got dataset %s with %dx%d, want people 3x3", ds.Name(), ds.NumRows(), ds.NumColumns())
				}
				active, _ := ds.Column("active")
				if active.Type != dataset.TypeBoolean {
					t.Errorf("active type = %v, want boolean", active.Type)
				}
				email, _ := ds.Column("email")
				if email.Type != dataset.TypeText || email.NullCount() != 1 {
					t.Errorf("email type = %v nulls = %d, want text with 1 null", email.Type, email.NullCount())
				}
			},
		},
		{
			name:    "Column subset",
			columns: columns,
			opts:    LoadOptions{Columns: []string{"active", "id"}},
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT "id", "active" FROM "people"`)).
					WillReturnRows(sqlmock.NewRows([]string{"id", "active"}).AddRow(int64(1), true))
			},
			check: func(t *testing.T, ds *dataset.Dataset) {
				got := ds.ColumnNames()
				if len(got) != 2 || got[0] != "id" || got[1] != "active" {
					t.Errorf("ColumnNames() = %v, want [id active]", got)
				}
			},
		},
		{
			name:      "Unknown table",
			columns:   nil,
			mockSetup: func(mock sqlmock.Sqlmock) {},
			wantErr:   "table people not found or has no columns",
		},
		{
			name:    "Query error",
			columns: columns,
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT`).WillReturnError(errors.New("permission denied"))
			},
			wantErr: "error querying rows of table people: permission denied",
		},
		{
			name:    "Row error",
			columns: columns,
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT`).WillReturnRows(sqlmock.NewRows([]string{"id", "email", "active"}).
					AddRow(int64(1), "x", true).
					RowError(0, errors.New("connection reset")))
			},
			wantErr: "error iterating rows of table people: connection reset",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := &mockDialectHandler{
				listColumnsFn: func(db *DB, tableName string) ([]ColumnInfo, error) { return tt.columns, nil },
			}
			db, mock := newTestDBWithMockHandler(t, handler)
			defer db.Close()
			tt.mockSetup(mock)

			ds, err := db.LoadTable(ctx, "people", tt.opts)
			if tt.wantErr != "" {
				if err == nil || err.Error() != tt.wantErr {
					t.Fatalf("LoadTable() error = %v, want %q", err, tt.wantErr)
				}
			} else {
				if err != nil {
					t.Fatalf("LoadTable() unexpected error: %v", err)
				}
				tt.check(t, ds)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("there were unfulfilled expectations: %s", err)
			}
		})
	}
}
