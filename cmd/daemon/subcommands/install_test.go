package subcommands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leefowlercu/hwnotify/internal/config"
	"github.com/leefowlercu/hwnotify/internal/servicemanager"
	"github.com/leefowlercu/hwnotify/internal/testutil"
)

func resetInstallFlags(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		installEnvFile = ".env"
		installWatchdog = 0
		installPrint = false
		for _, name := range []string{"env-file", "watchdog", "print"} {
			if f := InstallCmd.Flags().Lookup(name); f != nil {
				f.Changed = false
			}
		}
		InstallCmd.SetOut(nil)
	})
}

func runInstallOptions(t *testing.T) (servicemanager.UnitOptions, error) {
	t.Helper()
	return unitOptions(InstallCmd, config.Get())
}

func TestRunInstall_PrintUsesConfig(t *testing.T) {
	env := testutil.NewTestEnv(t)
	env.WriteConfig("poll:\n  interval: 300\ndaemon:\n  shutdown_timeout: 10\n")
	resetInstallFlags(t)

	envFile := filepath.Join(t.TempDir(), "secrets.env")
	require.NoError(t, os.WriteFile(envFile, []byte("PRACTICUM_TOKEN=x\n"), 0o600))

	require.NoError(t, InstallCmd.Flags().Set("env-file", envFile))
	require.NoError(t, InstallCmd.Flags().Set("print", "true"))

	var out bytes.Buffer
	InstallCmd.SetOut(&out)

	require.NoError(t, runInstall(InstallCmd, nil))

	unit := out.String()
	assert.Contains(t, unit, "Type=notify")
	assert.Contains(t, unit, "--env-file "+envFile)
	assert.Contains(t, unit, "WatchdogSec=900\n")
	assert.Contains(t, unit, "TimeoutStopSec=15\n")
}

func TestUnitOptions_MissingExplicitEnvFile(t *testing.T) {
	_ = testutil.NewTestEnv(t)
	resetInstallFlags(t)

	require.NoError(t, InstallCmd.Flags().Set("env-file", filepath.Join(t.TempDir(), "missing.env")))

	_, err := runInstallOptions(t)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestUnitOptions_DefaultEnvFileSkippedWhenAbsent(t *testing.T) {
	_ = testutil.NewTestEnv(t)
	resetInstallFlags(t)
	t.Chdir(t.TempDir())

	require.NoError(t, InstallCmd.Flags().Set("watchdog", "0s"))

	opts, err := runInstallOptions(t)
	require.NoError(t, err)
	assert.Empty(t, opts.EnvFile)
	assert.Equal(t, time.Duration(0), opts.Watchdog)
}
