package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	body := fmt.Sprintf("session_key: test\nstorage:\n  backend: bolt\n  path: %s\n", filepath.Join(dir, "nutripal.bolt"))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestStatsAndUsers(t *testing.T) {
	path := writeTestConfig(t)

	out, err := run(t, "stats", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Total Users: 1")
	assert.Contains(t, out, "Total Meals Logged: 0")

	out, err = run(t, "users", "list", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "admin@nutripal.ai (admin)")
	assert.Contains(t, out, "Admin User")

	_, err = run(t, "users", "delete", "admin@nutripal.ai", "--config", path)
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "nutripal version dev\n", out)
}
