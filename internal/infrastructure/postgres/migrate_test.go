package postgres

import (
	"os"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPendingMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"002_products.sql": {Data: []byte("CREATE TABLE products ();")},
		"001_users.sql":    {Data: []byte("CREATE TABLE users ();")},
		"003_empty.sql":    {Data: []byte("   \n")},
		"README.md":        {Data: []byte("not sql")},
	}

	all, err := pendingMigrations(fsys, map[string]bool{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "001_users", all[0].version)
	assert.Equal(t, "002_products", all[1].version)

	rest, err := pendingMigrations(fsys, map[string]bool{"001_users": true})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "002_products", rest[0].version)
}

func TestPendingMigrations_ShippedSchema(t *testing.T) {
	all, err := pendingMigrations(os.DirFS("../../migrations"), nil)
	require.NoError(t, err)
	require.NotEmpty(t, all)
	assert.Equal(t, "001_users", all[0].version)
	for _, m := range all {
		assert.NotContains(t, m.sql, "DROP TABLE", m.version)
	}
}
