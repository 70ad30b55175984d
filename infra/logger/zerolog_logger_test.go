package logger

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestZerologLoggerWritesComponentField(t *testing.T) {
	var buf bytes.Buffer
	l := newZerologLogger("store", &buf)
	l.Infof("opened %s", "csipd.db")

	out := buf.String()
	assert.Contains(t, out, `"component":"store"`)
	assert.Contains(t, out, "opened csipd.db")
}

func TestZerologLoggerSuppressesDebugByDefault(t *testing.T) {
	var buf bytes.Buffer
	l := newZerologLogger("store", &buf)
	l.Debugf("hidden %d", 1)
	l.Debugw("hidden", map[string]any{"k": 1})
	assert.Empty(t, buf.String())
}

func TestZerologLoggerLevelFromEnv(t *testing.T) {
	t.Setenv("CSIPD_LOG_LEVEL", "debug")
	var buf bytes.Buffer
	l := newZerologLogger("transmit", &buf)
	l.Debugw("delivery", map[string]any{"attempt": 2})
	assert.Contains(t, buf.String(), `"attempt":2`)
}

func TestLevelFromEnvFallsBackToInfo(t *testing.T) {
	t.Setenv("CSIPD_LOG_LEVEL", "shouting")
	assert.Equal(t, zerolog.InfoLevel, levelFromEnv())
}

func TestZerologLoggerConsoleMode(t *testing.T) {
	t.Setenv("CSIPD_ENV", "dev")
	var buf bytes.Buffer
	l := newZerologLogger("cli", &buf)
	l.Warnf("plain text")

	out := buf.String()
	assert.Contains(t, out, "plain text")
	assert.NotContains(t, out, `"message"`)
}
