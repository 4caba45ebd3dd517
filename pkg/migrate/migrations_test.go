package migrate

import (
	"io/fs"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/require"
)

func TestValidateDirAcceptsShippedMigrations(t *testing.T) {
	require.NoError(t, ValidateDir("migrations"))
}

func readMigration(t *testing.T, suffix string) string {
	t.Helper()
	matches, err := fs.Glob(Migrations, "migrations/*_"+suffix+".sql")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	data, err := fs.ReadFile(Migrations, matches[0])
	require.NoError(t, err)
	return string(data)
}

func TestSellerLedgerMigrationGuardsInvariants(t *testing.T) {
	content := readMigration(t, "create_seller_ledger")
	for _, sub := range []string{
		"CHECK (available_cents >= 0)",
		"CHECK (pending_cents >= 0)",
		"CHECK (net_cents = available_delta_cents + pending_delta_cents)",
		"idempotency_key text NOT NULL UNIQUE",
		"DROP TABLE IF EXISTS seller_balances",
	} {
		require.Truef(t, strings.Contains(content, sub), "missing %q", sub)
	}
}

func TestOrdersMigrationRestoresStockOnce(t *testing.T) {
	content := readMigration(t, "create_orders")
	require.Contains(t, content, "CONSTRAINT ux_stock_restorations_order_reason UNIQUE (order_id, reason)")
	require.Contains(t, content, "payment_intent_id text UNIQUE")
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	path, err := CreateSQLMigration(dir, "Add Payout Index!")
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(path, "_add_payout_index.sql"))
	require.NoError(t, ValidateDir(dir))

	_, err = CreateSQLMigration(dir, "!!!")
	require.Error(t, err)
}

func TestCreateSQLMigrationBumpsPastLatest(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	first, err := createSQLMigration(dir, "first", now)
	require.NoError(t, err)
	second, err := createSQLMigration(dir, "second", now.Add(-time.Hour))
	require.NoError(t, err)

	require.Equal(t, "20260102030405_first.sql", filepath.Base(first))
	require.Equal(t, "20260102030406_second.sql", filepath.Base(second))
}

func TestValidateFSRejectsUnbalancedStatements(t *testing.T) {
	fsys := fstest.MapFS{
		"20260101000000_bad.sql": {Data: []byte("-- +goose Up\n-- +goose StatementBegin\nSELECT 1;\n-- +goose Down\n")},
	}
	err := ValidateFS(fsys, ".")
	require.ErrorContains(t, err, "StatementBegin")

	fsys["20260101000000_bad.sql"] = &fstest.MapFile{Data: []byte("-- +goose Down\n-- +goose Up\n")}
	require.ErrorContains(t, ValidateFS(fsys, "."), "Down before Up")
}

func TestEmbeddedMigrationsValidate(t *testing.T) {
	require.NoError(t, ValidateEmbedded())
}
