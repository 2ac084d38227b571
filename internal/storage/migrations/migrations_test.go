package migrations

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitStatements(t *testing.T) {
	input := `-- header comment
CREATE TABLE a (x UInt8) ENGINE = Memory;

-- second
CREATE TABLE b (y UInt8) ENGINE = Memory;
`
	stmts := splitStatements(input)
	require.Len(t, stmts, 2)
	assert.Equal(t, "CREATE TABLE a (x UInt8) ENGINE = Memory", stmts[0])
	assert.Equal(t, "CREATE TABLE b (y UInt8) ENGINE = Memory", stmts[1])
}

func TestSplitStatements_StringLiterals(t *testing.T) {
	stmts := splitStatements("INSERT INTO t VALUES ('a;b', 'it''s'); SELECT 1 -- trailing; note\n;")
	require.Len(t, stmts, 2)
	assert.Equal(t, "INSERT INTO t VALUES ('a;b', 'it''s')", stmts[0])
	assert.Equal(t, "SELECT 1", stmts[1])
}

func TestDatabaseFromDSN(t *testing.T) {
	db, err := databaseFromDSN("clickhouse://localhost:9000/gateway")
	require.NoError(t, err)
	assert.Equal(t, "gateway", db)

	_, err = databaseFromDSN("clickhouse://localhost:9000")
	assert.Error(t, err)
}

func TestLoadScripts_EmbeddedSchemas(t *testing.T) {
	pg, err := loadScripts(schemas, postgresDir)
	require.NoError(t, err)
	require.NotEmpty(t, pg)
	assert.Contains(t, pg[0].sql, "route_audits")

	ch, err := loadScripts(schemas, clickhouseDir)
	require.NoError(t, err)
	require.NotEmpty(t, ch)
	for _, s := range ch {
		assert.NotEmpty(t, splitStatements(s.sql), s.name)
	}
}

func TestLoadScripts_OrderAndFiltering(t *testing.T) {
	fsys := fstest.MapFS{
		"db/002_b.sql": {Data: []byte("SELECT 2;")},
		"db/001_a.sql": {Data: []byte("SELECT 1;")},
		"db/003_c.sql": {Data: []byte("  \n")},
		"db/README.md": {Data: []byte("notes")},
		"db/nested/x":  {Data: []byte("ignored")},
	}

	scripts, err := loadScripts(fsys, "db")
	require.NoError(t, err)
	require.Len(t, scripts, 2)
	assert.Equal(t, "001_a.sql", scripts[0].name)
	assert.Equal(t, "002_b.sql", scripts[1].name)

	_, err = loadScripts(fsys, "missing")
	assert.Error(t, err)
}
