package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	prev := Get()
	t.Cleanup(func() { Set(prev) })
	var buf bytes.Buffer
	Set(zerolog.New(&buf))
	return &buf
}

func lastLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.NotEmpty(t, lines)
	var m map[string]any
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &m))
	return m
}

func TestInitUnknownLevelFallsBackToInfo(t *testing.T) {
	prev := Get()
	t.Cleanup(func() { Set(prev) })

	Init("chatty", "")
	assert.Equal(t, zerolog.InfoLevel, Get().GetLevel())
	Init("warn", "")
	assert.Equal(t, zerolog.WarnLevel, Get().GetLevel())
}

func TestInitWritesFile(t *testing.T) {
	prev := Get()
	t.Cleanup(func() { Set(prev) })

	path := t.TempDir() + "/auth.log"
	Init("info", path)
	Info().Str("k", "v").Msg("hello")

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"message":"hello"`)
}

func TestEchoLoggerLevels(t *testing.T) {
	buf := capture(t)
	e := echo.New()
	e.Use(EchoLogger())
	e.GET("/ok", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/bad", func(c echo.Context) error { return echo.NewHTTPError(http.StatusUnauthorized) })
	e.GET("/boom", func(c echo.Context) error { return errors.New("boom") })

	cases := []struct {
		path   string
		status int
		level  string
	}{
		{"/ok", http.StatusOK, "info"},
		{"/bad", http.StatusUnauthorized, "warn"},
		{"/boom", http.StatusInternalServerError, "error"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))
		assert.Equal(t, tc.status, rec.Code, tc.path)

		line := lastLine(t, buf)
		assert.Equal(t, tc.level, line["level"], tc.path)
		assert.Equal(t, tc.path, line["path"])
		assert.EqualValues(t, tc.status, line["status"])
	}
}

func TestEchoRecovery(t *testing.T) {
	buf := capture(t)
	e := echo.New()
	e.Use(EchoRecovery())
	e.GET("/panic", func(c echo.Context) error { panic("kaboom") })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	line := lastLine(t, buf)
	assert.Equal(t, "kaboom", line["panic"])
	assert.Equal(t, "panic recovered", line["message"])
}
