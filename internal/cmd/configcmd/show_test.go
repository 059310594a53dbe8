package configcmd

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/open-doc-collective/refnum/internal/config"
)

func TestRunShow_WithConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	cfg := config.Default()
	cfg.WarningLevel = 1
	cfg.Cleveref = true
	require.NoError(t, cfg.Save(filepath.Join(tmpDir, "refnum", "config.yml")))

	require.NoError(t, runShow(true))
}

func TestRunShow_NoConfigFile(t *testing.T) {
	for _, v := range []string{"REFNUM_WARNING_LEVEL", "REFNUM_CLEVEREF",
		"REFNUM_FAKE_CLEVEREF", "REFNUM_EQREF"} {
		t.Setenv(v, "")
	}
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	require.NoError(t, runShow(true))
}

func TestRunShow_EnvOverride(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("REFNUM_EQREF", "true")

	require.NoError(t, runShow(true))
}
