package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse_PositionalInput(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	config, shouldExit, err := Parse([]string{"Explain", "Raft"}, out)

	require.NoError(t, err)
	require.False(t, shouldExit)
	require.Equal(t, "Explain Raft", config.Input, "positional args are joined into one query")
	require.Equal(t, "json", config.LogFormat)
	require.Equal(t, "info", config.LogLevel)
}

func TestParse_FlagsAndShorthands(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	config, shouldExit, err := Parse([]string{
		"-i", "Explain Raft",
		"-c", "/etc/draftpipe",
		"-caller", "premium_alice",
		"-log-level", "DEBUG",
		"-log-format", "TEXT",
		"-workers", "8",
		"-healthcheck-port", "8080",
	}, out)

	require.NoError(t, err)
	require.False(t, shouldExit)
	require.Equal(t, "Explain Raft", config.Input)
	require.Equal(t, "/etc/draftpipe", config.ConfigPath)
	require.Equal(t, "premium_alice", config.Caller)
	require.Equal(t, "debug", config.LogLevel, "levels are case-insensitive")
	require.Equal(t, "text", config.LogFormat)
	require.Equal(t, 8, config.Workers)
	require.Equal(t, 8080, config.HealthcheckPort)
}

func TestParse_LongFlagsWinOverShorthand(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	config, _, err := Parse([]string{"-input", "from long", "-i", "from short"}, out)

	require.NoError(t, err)
	require.Equal(t, "from long", config.Input)
}

func TestParse_NoInputPrintsUsage(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	config, shouldExit, err := Parse(nil, out)

	require.NoError(t, err)
	require.True(t, shouldExit)
	require.Nil(t, config)
	require.Contains(t, out.String(), "Usage:")
}

func TestParse_Invalid(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		args []string
	}{
		{name: "bad log format", args: []string{"-log-format", "yaml", "q"}},
		{name: "bad log level", args: []string{"-log-level", "verbose", "q"}},
		{name: "unknown flag", args: []string{"--nope", "q"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, _, err := Parse(tc.args, &bytes.Buffer{})
			require.Error(t, err)

			var exitErr *ExitError
			require.ErrorAs(t, err, &exitErr)
			require.Equal(t, 2, exitErr.Code)
		})
	}
}
