package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ninecc/ninecc/pkg/cli"
)

func parseGroups(t *testing.T, args ...string) (*Config, error) {
	t.Helper()
	cfg := NewConfig()
	fs := cli.NewFlagSet("test")
	g := cfg.SetupFlagGroups(fs)
	require.NoError(t, fs.Parse(args))
	return cfg, cfg.ApplyFlagGroups(g)
}

func TestFlagGroups(t *testing.T) {
	cfg, err := parseGroups(t, "-Wno-overflow", "-Wunused-value", "-Flong-idents")
	require.NoError(t, err)
	assert.False(t, cfg.IsWarningEnabled(WarnOverflow))
	assert.True(t, cfg.IsWarningEnabled(WarnUnusedValue))
	assert.True(t, cfg.IsFeatureEnabled(FeatLongIdents))
	assert.True(t, cfg.IsWarningEnabled(WarnDivZero), "untouched switches keep their defaults")
}

func TestFlagGroupsWallThenNo(t *testing.T) {
	cfg, err := parseGroups(t, "-Wall", "-Wno-div-zero")
	require.NoError(t, err)
	assert.True(t, cfg.IsWarningEnabled(WarnUnusedValue))
	assert.False(t, cfg.IsWarningEnabled(WarnPedantic))
	assert.False(t, cfg.IsWarningEnabled(WarnDivZero))
}

func TestFlagGroupsKeepStd(t *testing.T) {
	cfg := NewConfig()
	fs := cli.NewFlagSet("test")
	g := cfg.SetupFlagGroups(fs)
	require.NoError(t, fs.Parse(nil))
	require.NoError(t, cfg.ApplyStd("9ccx"))
	require.NoError(t, cfg.ApplyFlagGroups(g))
	assert.True(t, cfg.IsFeatureEnabled(FeatLongIdents))
}

func TestFlagGroupsUnknown(t *testing.T) {
	_, err := parseGroups(t, "-Wbogus")
	assert.EqualError(t, err, "unknown warning 'bogus'")

	_, err = parseGroups(t, "-Fno-bogus")
	assert.EqualError(t, err, "unknown feature 'bogus'")
}
