package main

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOptionsResolvesConnectionAndFolder(t *testing.T) {
	opts, conn, dbName, root := parseOptions([]string{
		"-Uappuser", "-Ppa55", "-hsql.internal", "-p1533", "Widgets", "/srv/schemas",
	})

	assert.Equal(t, "Widgets", dbName)
	assert.Equal(t, "/srv/schemas", root)
	assert.Equal(t, "sql.internal", conn.Host)
	assert.Equal(t, 1533, conn.Port)
	assert.Equal(t, "appuser", conn.User)
	assert.Equal(t, "pa55", conn.Password)
	assert.False(t, opts.NoTables)
}

func TestParseOptionsEnvPasswordOverridesFlag(t *testing.T) {
	require.NoError(t, os.Setenv("MSSQL_PWD", "from-env"))
	defer os.Unsetenv("MSSQL_PWD")

	_, conn, _, _ := parseOptions([]string{"-Pflag-password", "Widgets", "/srv/schemas"})
	assert.Equal(t, "from-env", conn.Password)
}

func TestParseOptionsConfigModeTakesNoPositionalArgs(t *testing.T) {
	opts, _, dbName, root := parseOptions([]string{"--config", "/etc/tsqldiff.toml"})
	assert.Equal(t, "/etc/tsqldiff.toml", opts.Config)
	assert.Empty(t, dbName)
	assert.Empty(t, root)
}

func TestParseOptionsExclusionFlags(t *testing.T) {
	opts, _, _, _ := parseOptions([]string{"--no-triggers", "--no-views", "Widgets", "/srv/schemas"})
	assert.True(t, opts.NoTriggers)
	assert.True(t, opts.NoViews)
	assert.False(t, opts.NoTables)
}
