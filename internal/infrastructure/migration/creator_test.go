package migration

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agencyops/backend/migrations"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add payout notes", "add_payout_notes"},
		{"Add-Payout-Notes", "add_payout_notes"},
		{"ADD_PAYOUT_NOTES", "add_payout_notes"},
		{"add__payout__notes", "add_payout_notes"},
		{"Rates 2026", "rates_2026"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration(t *testing.T) {
	t.Run("numbers after the highest existing migration", func(t *testing.T) {
		dir := t.TempDir()
		for _, name := range []string{"000001_first.up.sql", "000001_first.down.sql", "000004_fourth.up.sql"} {
			require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
		}

		mf, err := CreateMigration(dir, "add payout notes", "Free text on payouts")
		require.NoError(t, err)

		assert.Equal(t, "000005", mf.Version)
		assert.Equal(t, "000005_add_payout_notes.up.sql", filepath.Base(mf.UpPath))
		assert.Equal(t, "000005_add_payout_notes.down.sql", filepath.Base(mf.DownPath))

		up, err := os.ReadFile(mf.UpPath)
		require.NoError(t, err)
		assert.Contains(t, string(up), "add payout notes")
		assert.Contains(t, string(up), "Free text on payouts")

		down, err := os.ReadFile(mf.DownPath)
		require.NoError(t, err)
		assert.Contains(t, string(down), "Rollback for add payout notes")
	})

	t.Run("creates the directory on first use", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested")
		mf, err := CreateMigration(dir, "init", "")
		require.NoError(t, err)
		assert.Equal(t, "000001", mf.Version)
	})

	t.Run("rejects unusable names", func(t *testing.T) {
		_, err := CreateMigration(t.TempDir(), "!!!", "")
		assert.Error(t, err)
	})
}

func TestListMigrations(t *testing.T) {
	t.Run("missing directory", func(t *testing.T) {
		names, err := ListMigrations(filepath.Join(t.TempDir(), "absent"))
		require.NoError(t, err)
		assert.Empty(t, names)
	})

	t.Run("sorted up files only", func(t *testing.T) {
		dir := t.TempDir()
		for _, name := range []string{"000002_b.up.sql", "000002_b.down.sql", "000001_a.up.sql", "README.md"} {
			require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
		}
		names, err := ListMigrations(dir)
		require.NoError(t, err)
		assert.Equal(t, []string{"000001_a", "000002_b"}, names)
	})
}

func TestEmbeddedMigrations(t *testing.T) {
	entries, err := fs.ReadDir(migrations.FS, ".")
	require.NoError(t, err)

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, e := range entries {
		if base, ok := strings.CutSuffix(e.Name(), ".up.sql"); ok {
			ups[base] = true
		}
		if base, ok := strings.CutSuffix(e.Name(), ".down.sql"); ok {
			downs[base] = true
		}
	}
	require.NotEmpty(t, ups)
	assert.Equal(t, ups, downs, "every up migration needs a matching down")

	body, err := fs.ReadFile(migrations.FS, "000001_create_partner_settlement.up.sql")
	require.NoError(t, err)
	assert.NotContains(t, strings.ToLower(string(body)), "balance", "balance is derived, never stored")
}
