package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeNavigation(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "navigation.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadNavigationFromPath(t *testing.T) {
	path := writeNavigation(t, "refresh_delay: 250ms\nscroll_container: content\n")

	cfg, err := LoadNavigationFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, cfg.RefreshDelay)
	assert.Equal(t, "content", cfg.ScrollContainer)
}

func TestLoadNavigationFromPath_Invalid(t *testing.T) {
	_, err := LoadNavigationFromPath(writeNavigation(t, "refresh_delay: -1s\n"))
	assert.Error(t, err)

	_, err = LoadNavigationFromPath(writeNavigation(t, "refresh_delay: [\n"))
	assert.Error(t, err)
}

func TestLoadNavigationOrDefault_MissingFile(t *testing.T) {
	cfg, err := LoadNavigationOrDefault(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultRefreshDelay, cfg.RefreshDelay)
	assert.Equal(t, "main-scroll", cfg.ScrollContainer)
}
