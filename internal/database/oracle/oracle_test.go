package oracle

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoogleCloudPlatform/db-quality-scorer/internal/config"
	"github.com/GoogleCloudPlatform/db-quality-scorer/internal/database"
	"github.com/GoogleCloudPlatform/db-quality-scorer/internal/dataset"
)

func TestOracleRegistered(t *testing.T) {
	h, err := database.GetDialectHandler("oracle")
	require.NoError(t, err)
	assert.IsType(t, oracleHandler{}, h)
}

func TestOracleCloudSQLUnsupported(t *testing.T) {
	_, err := oracleHandler{}.CreateCloudSQLPool(config.DatabaseConfig{})
	assert.ErrorContains(t, err, "Cloud SQL does not offer Oracle")
}

func TestOracleSelectRowsQuery(t *testing.T) {
	h := oracleHandler{}
	assert.Equal(t, `SELECT "ID", "EMAIL" FROM "CUSTOMERS" ORDER BY "ID" FETCH FIRST 10 ROWS ONLY`,
		h.SelectRowsQuery("CUSTOMERS", []string{"ID", "EMAIL"}, "ID", 10))
	assert.Equal(t, `SELECT "ID" FROM "CUSTOMERS"`, h.SelectRowsQuery("CUSTOMERS", []string{"ID"}, "", 0))
}

func TestOracleLoadTable(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	db := &database.DB{Pool: mockDB, Handler: oracleHandler{}}
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COLUMN_NAME, DATA_TYPE FROM USER_TAB_COLUMNS WHERE TABLE_NAME = :1 ORDER BY COLUMN_ID")).
		WithArgs("CUSTOMERS").
		WillReturnRows(sqlmock.NewRows([]string{"COLUMN_NAME", "DATA_TYPE"}).
			AddRow("ID", "NUMBER").
			AddRow("EMAIL", "VARCHAR2").
			AddRow("CREATED", "TIMESTAMP(6) WITH LOCAL TIME ZONE"))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "ID", "EMAIL", "CREATED" FROM "CUSTOMERS"`)).
		WillReturnRows(sqlmock.NewRows([]string{"ID", "EMAIL", "CREATED"}).
			AddRow("1", "a@example.com", nil).
			AddRow("2", "b@example.com", nil))

	ds, err := db.LoadTable(context.Background(), "CUSTOMERS", database.LoadOptions{})
	require.NoError(t, err)

	id, _ := ds.Column("ID")
	assert.Equal(t, dataset.TypeNumeric, id.Type)
	assert.Equal(t, dataset.Int(2), id.Values[1])
	created, _ := ds.Column("CREATED")
	assert.Equal(t, dataset.TypeDatetime, created.Type)
	assert.Equal(t, 2, created.NullCount())
	assert.NoError(t, mock.ExpectationsWereMet())
}
