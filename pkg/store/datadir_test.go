package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultDataDirMacOS(t *testing.T) {
	home, _ := os.UserHomeDir()
	assert.Equal(t, filepath.Join(home, "Library", "Application Support", "tempo"), defaultDataDirForOS("darwin"))
	assert.Equal(t, filepath.Join(home, "Library", "Application Support", "tempo"), defaultConfigDirForOS("darwin"))
}

func TestDefaultDataDirLinux(t *testing.T) {
	home, _ := os.UserHomeDir()

	t.Setenv("XDG_DATA_HOME", "")
	assert.Equal(t, filepath.Join(home, ".local", "share", "tempo"), defaultDataDirForOS("linux"))

	t.Setenv("XDG_DATA_HOME", "/custom/data")
	assert.Equal(t, filepath.Join("/custom/data", "tempo"), defaultDataDirForOS("linux"))
}

func TestDefaultConfigDirLinux(t *testing.T) {
	home, _ := os.UserHomeDir()

	t.Setenv("XDG_CONFIG_HOME", "")
	assert.Equal(t, filepath.Join(home, ".config", "tempo"), defaultConfigDirForOS("linux"))

	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	assert.Equal(t, filepath.Join("/custom/config", "tempo"), defaultConfigDirForOS("linux"))
}

func TestDefaultDataDirWindows(t *testing.T) {
	t.Setenv("LOCALAPPDATA", `C:\Users\test\AppData\Local`)
	assert.Equal(t, filepath.Join(`C:\Users\test\AppData\Local`, "tempo"), defaultDataDirForOS("windows"))

	t.Setenv("LOCALAPPDATA", "")
	t.Setenv("APPDATA", `C:\Users\test\AppData\Roaming`)
	assert.Equal(t, filepath.Join(`C:\Users\test\AppData\Roaming`, "tempo"), defaultDataDirForOS("windows"))
	assert.Equal(t, filepath.Join(`C:\Users\test\AppData\Roaming`, "tempo"), defaultConfigDirForOS("windows"))
}
