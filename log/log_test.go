package log

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithFilter(t *testing.T) {
	var buf bytes.Buffer
	opt, err := WithFilter("*:* -debug:noisy")
	require.NoError(t, err)

	l := New(&buf, DebugLevel, opt)
	l.Named("noisy").Debug("hidden message")
	l.Named("noisy").Info("visible info")
	l.Named("other").Debug("visible debug")

	out := buf.String()
	assert.NotContains(t, out, "hidden message")
	assert.Contains(t, out, "visible info")
	assert.Contains(t, out, "visible debug")
}

func TestLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, InfoLevel)
	l.Debug("dropped")
	assert.Empty(t, buf.String())

	l.SetLevel(DebugLevel)
	l.Debug("kept")
	assert.Contains(t, buf.String(), "kept")
	assert.True(t, l.Named("child").Enabled(DebugLevel))
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, WarnLevel, lvl)

	_, err = ParseLevel("verbose")
	assert.Error(t, err)
}

func TestContext(t *testing.T) {
	assert.Same(t, Default(), GetFromContext(context.Background()))

	l := DevLogger(&bytes.Buffer{}, DebugLevel).Named("ctx")
	ctx := AddToContext(context.Background(), l)
	assert.Same(t, l, GetFromContext(ctx))
}
