package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const testHome = "/home/testuser"

func TestRoadmapDir(t *testing.T) {
	assert.Equal(t, filepath.Join("/repo", ".roadmap"), RoadmapDir("/repo"))
}

func TestConfigPath(t *testing.T) {
	assert.Equal(t, filepath.Join("/repo", ".roadmap", "config.yaml"), ConfigPath("/repo"))
}

func TestLockFilePath(t *testing.T) {
	assert.Equal(t, filepath.Join("/repo", ".roadmap_init.lock"), LockFilePath("/repo"))
}

func TestDefaultStorePath_EndsWithRoadmapDB(t *testing.T) {
	path := DefaultStorePath()
	assert.NotEmpty(t, path)
	assert.True(t, strings.HasSuffix(path, filepath.Join(".roadmap", "roadmap.db")))
}

func TestDefaultConfigDir_NonEmpty(t *testing.T) {
	dir := DefaultConfigDir()
	assert.NotEmpty(t, dir)
	assert.True(t, strings.Contains(dir, appName))
}

func TestDefaultConfigDir_MacOS(t *testing.T) {
	if runtime.GOOS != platformDarwin {
		t.Skip("macOS-only test")
	}

	dir := DefaultConfigDir()
	assert.Contains(t, dir, "Library/Application Support")
}

func TestLinuxConfigDir_XDGOverride(t *testing.T) {
	xdgDir := "/custom/config"

	t.Setenv("XDG_CONFIG_HOME", xdgDir)
	result := linuxConfigDir(testHome)
	assert.Equal(t, filepath.Join(xdgDir, appName), result)
}

func TestLinuxConfigDir_DefaultFallback(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")
	os.Unsetenv("XDG_CONFIG_HOME")
	result := linuxConfigDir(testHome)
	assert.Equal(t, filepath.Join(testHome, ".config", appName), result)
}

func TestDefaultsFilePath_EndsWithDefaultsToml(t *testing.T) {
	path := DefaultsFilePath()
	assert.NotEmpty(t, path)
	assert.True(t, strings.HasSuffix(path, "defaults.toml"))
}
