package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeSchemaFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func testSchema(t *testing.T) *Schema {
	t.Helper()
	dir := t.TempDir()

	writeSchemaFile(t, dir, "customers.yml", `
name: customers
description: Contains customer information and their loyalty points
columns:
  - name: id
    type: integer
    description: Unique identifier for the customer
  - name: points
    type: integer
    description: Current loyalty points balance
`)
	writeSchemaFile(t, dir, "points_transactions.yml", `
name: points_transactions
description: Records of points earned or redeemed by customers
columns:
  - name: id
    type: integer
    description: Unique identifier for the transaction
  - name: points
    type: integer
    description: Number of points
    properties:
      indexed: true
`)
	writeSchemaFile(t, dir, "broken.yml", `name: broken`)
	writeSchemaFile(t, dir, "notes.txt", `not a schema`)

	s, err := Load(dir, zap.NewNop())
	require.NoError(t, err)
	return s
}

func TestLoad(t *testing.T) {
	s := testSchema(t)

	assert.Equal(t, []string{"customers", "points_transactions"}, s.TableNames())

	table, ok := s.Lookup("customers")
	require.True(t, ok)
	assert.Equal(t, "Contains customer information and their loyalty points", table.Description)
	assert.Len(t, table.Columns, 2)

	_, ok = s.Lookup("broken")
	assert.False(t, ok, "files without columns should be skipped")
}

func TestLoadMissingDir(t *testing.T) {
	_, err := Load("/nonexistent/schema/dir", zap.NewNop())
	assert.Error(t, err)
}

func TestSelect(t *testing.T) {
	s := testSchema(t)

	tables := s.Select([]string{"points_transactions", "unknown_table", " customers "})
	require.Len(t, tables, 2)
	assert.Equal(t, "customers", tables[0].Name)
	assert.Equal(t, "points_transactions", tables[1].Name)
}

func TestKeywordMatch(t *testing.T) {
	s := testSchema(t)

	t.Run("plural question words match singular table terms", func(t *testing.T) {
		tables := s.KeywordMatch("How many points did my customers earn last week?")
		names := make([]string, 0, len(tables))
		for _, tbl := range tables {
			names = append(names, tbl.Name)
		}
		assert.Contains(t, names, "customers")
		assert.Contains(t, names, "points_transactions")
	})

	t.Run("unrelated question matches nothing", func(t *testing.T) {
		assert.Empty(t, s.KeywordMatch("What is the weather today?"))
	})
}

func TestFormatForPrompt(t *testing.T) {
	s := testSchema(t)

	out := FormatForPrompt(s.Select([]string{"points_transactions"}))
	assert.Contains(t, out, "DATABASE SCHEMA:")
	assert.Contains(t, out, "TABLE: points_transactions")
	assert.Contains(t, out, "DESCRIPTION: Records of points earned or redeemed by customers")
	assert.Contains(t, out, "  - points (integer): Number of points [indexed=true]")
}
