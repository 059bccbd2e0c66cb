package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"workbench/internal/config"
	"workbench/internal/pathvar"
	"workbench/pkg/testutils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupConfig writes a test configuration into a temp dir and returns its path
func setupConfig(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, config.SaveConfig(config.NewTestConfig(dir), cfgPath))
	return dir, cfgPath
}

func run(t *testing.T, cfgPath string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := cmd.Execute()
	return testutils.StripANSI(out.String()), err
}

func TestPathvarCommands(t *testing.T) {
	dir, cfgPath := setupConfig(t)

	out, err := run(t, cfgPath, "pathvar", "new", "--name", "PROJECT", "--value", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "saved")

	reg, err := pathvar.LoadRegistry(filepath.Join(dir, "variables.yaml"))
	require.NoError(t, err)
	value, ok := reg.Get("PROJECT")
	require.True(t, ok)
	assert.Equal(t, dir, value)

	t.Run("duplicate name is rejected", func(t *testing.T) {
		_, err := run(t, cfgPath, "pathvar", "new", "--name", "PROJECT", "--value", dir)
		assert.Error(t, err)
	})

	t.Run("check reports relative paths", func(t *testing.T) {
		out, err := run(t, cfgPath, "pathvar", "check", "--name", "OTHER", "--value", "relative/dir")
		assert.Error(t, err)
		assert.Contains(t, out, pathvar.MessagePathRelative)
	})

	t.Run("resolve", func(t *testing.T) {
		out, err := run(t, cfgPath, "pathvar", "resolve", "PROJECT/src")
		require.NoError(t, err)
		assert.Contains(t, out, filepath.Join(dir, "src"))
	})

	t.Run("edit renames", func(t *testing.T) {
		_, err := run(t, cfgPath, "pathvar", "edit", "PROJECT", "--name", "ROOT")
		require.NoError(t, err)

		out, err := run(t, cfgPath, "pathvar", "list")
		require.NoError(t, err)
		assert.Contains(t, out, "ROOT")
		assert.NotContains(t, out, "PROJECT")
	})

	t.Run("rm suggests close names", func(t *testing.T) {
		_, err := run(t, cfgPath, "pathvar", "rm", "ROOTS")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Did you mean ROOT?")

		_, err = run(t, cfgPath, "pathvar", "rm", "ROOT")
		require.NoError(t, err)
	})
}

func TestPrefsCommands(t *testing.T) {
	_, cfgPath := setupConfig(t)

	_, err := run(t, cfgPath, "prefs", "set", "SAVE_INTERVAL", "10", "open_on_single_click", "true")
	require.NoError(t, err)

	cfg, err := config.LoadConfigFile(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "10", cfg.Preferences["SAVE_INTERVAL"])
	assert.Equal(t, "true", cfg.Preferences["OPEN_ON_SINGLE_CLICK"])

	out, err := run(t, cfgPath, "prefs", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "single-click")

	t.Run("out of range interval", func(t *testing.T) {
		_, err := run(t, cfgPath, "prefs", "set", "SAVE_INTERVAL", "0")
		assert.Error(t, err)
	})

	t.Run("unknown key", func(t *testing.T) {
		_, err := run(t, cfgPath, "prefs", "set", "SAVE_INTERVL", "3")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "SAVE_INTERVAL")
	})

	t.Run("defaults", func(t *testing.T) {
		_, err := run(t, cfgPath, "prefs", "defaults")
		require.NoError(t, err)
		cfg, err := config.LoadConfigFile(cfgPath)
		require.NoError(t, err)
		assert.Empty(t, cfg.Preferences)
	})
}

func TestPrefsImport(t *testing.T) {
	dir, cfgPath := setupConfig(t)
	target := testutils.MakeDirs(t, dir, "shared")[0]

	epf := "file_export_version=3.0\n" +
		"/instance/org.eclipse.ui.workbench/SAVE_INTERVAL=15\n" +
		"/instance/org.eclipse.core.resources/pathvariable.SHARED=" + filepath.ToSlash(target) + "\n"
	src := testutils.WriteFiles(t, dir, map[string]string{"prefs.epf": epf})["prefs.epf"]

	out, err := run(t, cfgPath, "prefs", "import", src, "--list")
	require.NoError(t, err)
	assert.Contains(t, out, "workbench")
	assert.Contains(t, out, "path-variables")

	_, err = run(t, cfgPath, "prefs", "import", src)
	require.NoError(t, err)

	cfg, err := config.LoadConfigFile(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "15", cfg.Preferences["SAVE_INTERVAL"])

	reg, err := pathvar.LoadRegistry(filepath.Join(dir, "variables.yaml"))
	require.NoError(t, err)
	_, ok := reg.Get("SHARED")
	assert.True(t, ok)

	t.Run("unknown filter", func(t *testing.T) {
		_, err := run(t, cfgPath, "prefs", "import", src, "--filter", "workbnch")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "workbench")
	})
}

func TestExecCommand(t *testing.T) {
	dir, cfgPath := setupConfig(t)
	cfg := config.NewTestConfig(dir)
	cfg.Handlers = []config.HandlerDecl{
		{CommandID: "greet", Class: "echo", Attributes: map[string]string{"prefix": "hello "}},
		{CommandID: "greet", Class: "echo", Priority: 5, Context: "loud", Attributes: map[string]string{"prefix": "HELLO "}},
		{CommandID: "broken", Class: "missing"},
	}
	require.NoError(t, config.SaveConfig(cfg, cfgPath))

	out, err := run(t, cfgPath, "exec", "greet", "--param", "world")
	require.NoError(t, err)
	assert.Equal(t, "hello world\n", out)

	out, err = run(t, cfgPath, "exec", "greet", "--param", "world", "--context", "loud")
	require.NoError(t, err)
	assert.Equal(t, "HELLO world\n", out)

	out, err = run(t, cfgPath, "exec", "prefs.get", "--param", "SAVE_INTERVAL")
	require.NoError(t, err)
	assert.Equal(t, "5\n", out)

	_, err = run(t, cfgPath, "exec", "broken")
	assert.Error(t, err)

	_, err = run(t, cfgPath, "exec", "gret")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Did you mean greet?")
}
