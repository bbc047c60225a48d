package host

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewConfig_RequiresProgram(t *testing.T) {
	t.Parallel()

	// --- Act ---
	cfg, err := NewConfig(Config{Parallel: 4})

	// --- Assert ---
	require.Nil(t, cfg)
	require.ErrorContains(t, err, "PROGRAM is a required argument")
}

func TestNewConfig_RejectsNegativeParallel(t *testing.T) {
	t.Parallel()

	// --- Act ---
	cfg, err := NewConfig(Config{Program: "hello", Parallel: -1})

	// --- Assert ---
	require.Nil(t, cfg)
	require.ErrorContains(t, err, "parallel cannot be negative")
}

func TestNewConfig_PassesFieldsThrough(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	in := Config{
		Project:  "billing",
		Stack:    "prod",
		Parallel: 8,
		DryRun:   true,
		Monitor:  "http://127.0.0.1:9999",
		Engine:   "ws://127.0.0.1:9998",
		Program:  "hello",
		Args:     []string{"--force"},
	}

	// --- Act ---
	cfg, err := NewConfig(in)

	// --- Assert ---
	require.NoError(t, err)
	require.Equal(t, &in, cfg)
}
