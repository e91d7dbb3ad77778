package database

import (
	"context"
	"io"
	"testing"

	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crustalyst/internal/config"
)

func TestConnectDB_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ConnectDB(ctx, config.DatabaseConfig{Host: "127.0.0.1", Port: 1, User: "x", Database: "x", SSLMode: "disable"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEmbeddedMigrations(t *testing.T) {
	src, err := iofs.New(migrationsFS, "migrations")
	require.NoError(t, err)
	defer src.Close()

	first, err := src.First()
	require.NoError(t, err)
	assert.EqualValues(t, 1, first)

	next, err := src.Next(first)
	require.NoError(t, err)
	assert.EqualValues(t, 2, next)

	body, ident, err := src.ReadUp(first)
	require.NoError(t, err)
	defer body.Close()
	assert.Equal(t, "schema", ident)
}

// Rolling back the seed must not trip foreign keys on a database that has
// taken orders, so every delete skips referenced rows.
func TestSeedDownKeepsReferencedRows(t *testing.T) {
	src, err := iofs.New(migrationsFS, "migrations")
	require.NoError(t, err)
	defer src.Close()

	body, _, err := src.ReadDown(2)
	require.NoError(t, err)
	defer body.Close()
	raw, err := io.ReadAll(body)
	require.NoError(t, err)
	sql := string(raw)

	for _, ref := range []string{
		"FROM order_items oi WHERE oi.menu_item_id = m.id",
		"FROM orders o WHERE o.table_id = t.id",
		"FROM staff_notifications n WHERE n.table_id = t.id",
		"FROM payments p WHERE p.table_id = t.id",
	} {
		assert.Contains(t, sql, "NOT EXISTS (SELECT 1 "+ref+")")
	}
}
