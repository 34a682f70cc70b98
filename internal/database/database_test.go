package database

import (
	"context"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaDeclaresTenantTables(t *testing.T) {
	for _, table := range []string{"restaurants", "users", "menu_categories", "menu_items", "orders", "order_items", "print_jobs"} {
		assert.Contains(t, Schema(), "CREATE TABLE IF NOT EXISTS "+table+" (")
	}
	assert.Contains(t, Schema(), "voice_line_id      TEXT UNIQUE")
	assert.Contains(t, Schema(), "UNIQUE (tenant_id, order_number)")
	assert.Contains(t, Schema(), "UNIQUE (order_id, idempotency_key)")
}

func TestSchemaKeepsOrderAmountsUnrounded(t *testing.T) {
	schema := Schema()
	for _, column := range []string{"subtotal", "tax", "delivery_fee", "total"} {
		assert.Regexp(t, `(?m)^\s+`+column+`\s+NUMERIC NOT NULL,$`, tableDDL(t, schema, "orders"), column)
	}
	assert.Regexp(t, `(?m)^\s+unit_price\s+NUMERIC NOT NULL CHECK`, tableDDL(t, schema, "order_items"))
	assert.Contains(t, schema, "ALTER TABLE order_items ALTER COLUMN unit_price TYPE NUMERIC;")
}

func tableDDL(t *testing.T, schema, table string) string {
	t.Helper()
	start := strings.Index(schema, "CREATE TABLE IF NOT EXISTS "+table+" (")
	require.GreaterOrEqual(t, start, 0, table)
	end := strings.Index(schema[start:], ");")
	require.Greater(t, end, 0, table)
	return schema[start : start+end]
}

func TestApplySchemaExecutesEmbeddedDDL(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS restaurants")).WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, ApplySchema(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}
