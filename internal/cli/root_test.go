package cli

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "simple-rental", cmd.Use)
	assert.Contains(t, cmd.Long, "access key")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := [][]string{{"serve"}, {"keys"}, {"keys", "add"}, {"keys", "list"}, {"keys", "remove"}}

	for _, path := range commands {
		t.Run(strings.Join(path, " "), func(t *testing.T) {
			subCmd, _, err := cmd.Find(path)
			require.NoError(t, err, "Command %v should exist", path)
			require.NotNil(t, subCmd)
			assert.Equal(t, path[len(path)-1], subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	levelFlag := cmd.PersistentFlags().Lookup("log-level")
	require.NotNil(t, levelFlag)
	assert.Equal(t, "info", levelFlag.DefValue)

	envFlag := cmd.PersistentFlags().Lookup("env-file")
	require.NotNil(t, envFlag)
	assert.Equal(t, ".env", envFlag.DefValue)
}

func TestInvalidLogLevel(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"keys", "list", "--env-file", "", "--log-level", "loud"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestParseLevel(t *testing.T) {
	for _, s := range []string{"debug", "info", "warn", "error", "INFO", ""} {
		_, err := parseLevel(s)
		assert.NoError(t, err, s)
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append(args, "--env-file", ""))
	err := cmd.Execute()
	return out.String(), err
}

func TestKeysLifecycle(t *testing.T) {
	t.Setenv("KEY_REGISTRY_DRIVER", "")
	dsn := filepath.Join(t.TempDir(), "valid_keys.db")

	out, err := run(t, "keys", "add", "acme", "--key", "k-acme", "--dsn", dsn)
	require.NoError(t, err)
	assert.Equal(t, "k-acme\n", out)

	out, err = run(t, "keys", "add", "beta", "--dsn", dsn)
	require.NoError(t, err)
	generated := strings.TrimSpace(out)
	assert.Len(t, generated, 36, "generated keys are uuids")

	_, err = run(t, "keys", "add", "acme", "--key", "another", "--dsn", dsn)
	assert.Error(t, err, "a tenant has one key")

	_, err = run(t, "keys", "add", "../etc", "--dsn", dsn)
	assert.Error(t, err)

	out, err = run(t, "keys", "list", "--dsn", dsn)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "TENANT"))
	assert.Contains(t, lines[1], "acme")
	assert.Contains(t, lines[1], "k-acme")
	assert.Contains(t, lines[2], generated)

	_, err = run(t, "keys", "remove", "k-acme", "--dsn", dsn)
	require.NoError(t, err)

	_, err = run(t, "keys", "remove", "k-acme", "--dsn", dsn)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not provisioned")
}

func TestKeysAdd_DriverOverrideNeedsDSN(t *testing.T) {
	t.Setenv("KEY_REGISTRY_DRIVER", "bogus")
	t.Setenv("KEY_REGISTRY_DSN", "")

	out, err := run(t, "keys", "add", "acme", "--driver", "sqlite3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DSN")
	assert.Empty(t, out)
}
