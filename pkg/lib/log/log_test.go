package log

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		"":        LevelInfo,
		"warning": LevelWarn,
		" error ": LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("JSON")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatText, f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}

func TestLazyLogger_FollowsDefault(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	l := Logger("test/lazy")

	var buf bytes.Buffer
	SetOutputWithLevel(&buf, FormatText, LevelDebug)
	l.Debug("hello", "k", 1)

	out := buf.String()
	assert.Contains(t, out, "component=test/lazy")
	assert.Contains(t, out, "msg=hello")
	assert.Contains(t, out, "k=1")
	assert.True(t, l.Enabled(LevelDebug))

	buf.Reset()
	SetOutputWithLevel(&buf, FormatText, LevelWarn)
	l.Info("dropped")
	assert.Empty(t, buf.String())
	assert.Equal(t, "test/lazy", l.Component())
}
