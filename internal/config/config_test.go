package config

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"HOST", "PORT", "ALLOW_ORIGINS", "LOG_LEVEL", "LOG_FILE", "MAX_UPLOAD_MB", "DB_PATH", "RULES_FILE"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	assert.Equal(t, "127.0.0.1:8082", cfg.Addr())
	assert.Equal(t, []string{"*"}, cfg.AllowOrigins)
	assert.Equal(t, 64, cfg.MaxUploadMB)
	assert.Equal(t, "data/catalog.db", cfg.DBPath)
	assert.Empty(t, cfg.RulesFile)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("ALLOW_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("DB_PATH", "/tmp/x.db")
	t.Setenv("RULES_FILE", "rules.yaml")
	cfg := Load()
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowOrigins)
	assert.Equal(t, "/tmp/x.db", cfg.DBPath)
	assert.Equal(t, "rules.yaml", cfg.RulesFile)
}

func TestNewLogger_ConsoleOnly(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(Config{LogLevel: "debug"}, &buf)
	l.Debug().Msg("hello")
	assert.Contains(t, buf.String(), "hello")
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}
