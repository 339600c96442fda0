package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/handtrack/internal/config"
)

func TestListenAddr(t *testing.T) {
	cfg := config.Default()
	cfg.Server.Addr = "127.0.0.1:9000"

	assert.Equal(t, "127.0.0.1:9000", listenAddr("", cfg))
	assert.Equal(t, ":7000", listenAddr(":7000", cfg))
}

func TestFindWebDir(t *testing.T) {
	dir := findWebDir()
	require.NotEmpty(t, dir, "the repository web directory should be found from the package directory")
	assert.True(t, filepath.IsAbs(dir))

	_, err := os.Stat(filepath.Join(dir, "index.html"))
	assert.NoError(t, err)
}
