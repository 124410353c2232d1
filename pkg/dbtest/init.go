package dbtest

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	fixtures "github.com/aquasecurity/bolt-fixtures"
)

// InitDB loads the YAML fixtures into a fresh bolt file and returns its path.
func InitDB(t *testing.T, fixtureFiles []string) string {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "cve_db.bolt")

	// Load testdata into BoltDB
	loader, err := fixtures.New(dbPath, fixtureFiles)
	require.NoError(t, err)
	require.NoError(t, loader.Load())
	require.NoError(t, loader.Close())

	return dbPath
}
