package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunIngest_MissingDataDirBeforeConnect(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	// An unsupported URL fails immediately on connect, so the error below
	// proves the data directory check runs first.
	t.Setenv("DB_URL", "bogus://nowhere")
	t.Setenv("DATA_DIR", filepath.Join(t.TempDir(), "absent"))

	err := runIngest(context.Background(), "", "", 0, false, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "data directory not found")
	assert.NotContains(t, err.Error(), "unsupported database URL")
}

func TestRunIngest_MissingAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("DATA_DIR", t.TempDir())

	err := runIngest(context.Background(), "", "", 0, false, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
}
