package common

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterCommonFlags(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	f := RegisterCommonFlags(fs)
	require.NoError(t, fs.Parse([]string{"-config", "risk.yaml", "-log-level", "debug", "-log-dir", ""}))

	assert.Equal(t, ".env", *f.EnvFile)
	assert.Equal(t, "risk.yaml", *f.ConfigFile)
	assert.Equal(t, "debug", *f.LogLevel)
	assert.Equal(t, "", *f.LogDir)
	assert.False(t, *f.Version)
}

func TestFlagValidator(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "events.csv")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	v := NewFlagValidator().
		ValidateFile("events", file, true).
		ValidateChoice("log-level", "WARN", LogLevels).
		ValidateExtension("xlsx", "out.xlsx", ".xlsx")
	assert.False(t, v.HasErrors())
	assert.NoError(t, v.GetError())

	v = NewFlagValidator().
		ValidateFile("events", "", true).
		ValidateFile("config", filepath.Join(dir, "missing.yaml"), false).
		ValidateFile("events", dir, true).
		ValidateChoice("log-level", "trace", LogLevels).
		ValidateExtension("xlsx", "out.csv", ".xlsx")
	require.True(t, v.HasErrors())

	err := v.GetError()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "events is required")
	assert.Contains(t, err.Error(), "config file does not exist")
	assert.Contains(t, err.Error(), "is a directory")
	assert.Contains(t, err.Error(), "log-level must be one of [debug, info, warn, error], got: trace")
	assert.Contains(t, err.Error(), "xlsx must end in one of [.xlsx]")
}

func TestCheckHelpAndVersion(t *testing.T) {
	fs := flag.NewFlagSet("risk-replay", flag.ContinueOnError)
	f := RegisterCommonFlags(fs)
	usage := NewUsageFormatter("risk-replay", "Replay events through the risk manager").
		AddExample("risk-replay -events events.csv", "Replay a session")

	var buf bytes.Buffer
	assert.False(t, CheckHelpAndVersion(&buf, "risk-replay", f, usage, fs))
	assert.Empty(t, buf.String())

	require.NoError(t, fs.Parse([]string{"-version"}))
	assert.True(t, CheckHelpAndVersion(&buf, "risk-replay", f, usage, fs))
	assert.Contains(t, buf.String(), "risk-replay v"+ProjectVersion)

	buf.Reset()
	*f.Version = false
	*f.Help = true
	assert.True(t, CheckHelpAndVersion(&buf, "risk-replay", f, usage, fs))
	assert.Contains(t, buf.String(), "# Replay a session")
	assert.Contains(t, buf.String(), "-log-level")
}
