package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunInit(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, runInit(dir, "Jardinería Soto"))

	for _, f := range []string{"greenbook.yaml", "vendors.csv", ".gitignore"} {
		_, err := os.Stat(filepath.Join(dir, f))
		assert.NoError(t, err, f)
	}
	for _, d := range []string{"ledger", "logs", "captures"} {
		info, err := os.Stat(filepath.Join(dir, d))
		require.NoError(t, err, d)
		assert.True(t, info.IsDir())
	}

	_, err := os.Stat(filepath.Join(dir, ".git"))
	assert.NoError(t, err, "git repository initialized")
}

func TestLoadEnv_UninitializedDir(t *testing.T) {
	_, err := loadEnv(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "greenbook init")
}
