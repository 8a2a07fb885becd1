package migrate

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Embedded(t *testing.T) {
	migrations, err := Load(Migrations())
	require.NoError(t, err)
	require.Len(t, migrations, 3)

	for i, m := range migrations {
		assert.Equal(t, i+1, m.Version)
		assert.NotEmpty(t, strings.TrimSpace(m.Up))
		assert.NotEmpty(t, strings.TrimSpace(m.Down))
	}
	assert.Equal(t, "create_contracts", migrations[1].Name)
	assert.Contains(t, migrations[1].Up, "UNIQUE (contract_id, version)")
	assert.Contains(t, migrations[1].Up, "ON DELETE CASCADE")
	assert.Contains(t, migrations[2].Up, "DO INSTEAD NOTHING")
}

func TestLoad_OrdersAndPairs(t *testing.T) {
	source := fstest.MapFS{
		"010_add_index.up.sql":    {Data: []byte("CREATE INDEX x ON t (a);")},
		"002_create_t.up.sql":     {Data: []byte("CREATE TABLE t (a INT);")},
		"002_create_t.down.sql":   {Data: []byte("DROP TABLE t;")},
		"README.md":               {Data: []byte("ignored")},
		"010_add_index.down.sql":  {Data: []byte("DROP INDEX x;")},
		"notes/001_nested.up.sql": {Data: []byte("ignored")},
	}

	migrations, err := Load(source)
	require.NoError(t, err)
	require.Len(t, migrations, 2)
	assert.Equal(t, 2, migrations[0].Version)
	assert.Equal(t, "create_t", migrations[0].Name)
	assert.Equal(t, "DROP TABLE t;", migrations[0].Down)
	assert.Equal(t, 10, migrations[1].Version)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name   string
		source fstest.MapFS
		errMsg string
	}{
		{
			name:   "missing version",
			source: fstest.MapFS{"create_t.up.sql": {Data: []byte("x")}},
			errMsg: "invalid migration",
		},
		{
			name:   "non numeric version",
			source: fstest.MapFS{"abc_create_t.up.sql": {Data: []byte("x")}},
			errMsg: "invalid migration version",
		},
		{
			name:   "down without up",
			source: fstest.MapFS{"001_create_t.down.sql": {Data: []byte("DROP TABLE t;")}},
			errMsg: "has no up script",
		},
		{
			name: "conflicting names",
			source: fstest.MapFS{
				"001_create_t.up.sql":   {Data: []byte("x")},
				"001_create_u.down.sql": {Data: []byte("y")},
			},
			errMsg: "conflicting names",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.source)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestPending(t *testing.T) {
	migrations := []Migration{{Version: 1}, {Version: 2}, {Version: 3}}

	pending := Pending(migrations, map[int]bool{1: true, 3: true})

	require.Len(t, pending, 1)
	assert.Equal(t, 2, pending[0].Version)
	assert.Len(t, Pending(migrations, map[int]bool{}), 3)
	assert.Empty(t, Pending(migrations, map[int]bool{1: true, 2: true, 3: true}))
}
