package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		bind:            "0.0.0.0",
		port:            8080,
		questionAPI:     defaultQuestionAPI,
		questionTimeout: 10 * time.Second,
	}
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, validConfig().validate())

	t.Run("port out of range", func(t *testing.T) {
		cfg := validConfig()
		cfg.port = 0
		assert.Error(t, cfg.validate())

		cfg.port = 65536
		assert.Error(t, cfg.validate())
	})

	t.Run("tls flags must be paired", func(t *testing.T) {
		cfg := validConfig()
		cfg.tlsCert = "cert.pem"
		assert.Error(t, cfg.validate())

		cfg.tlsKey = "key.pem"
		assert.NoError(t, cfg.validate())
	})

	t.Run("question api required unless offline", func(t *testing.T) {
		cfg := validConfig()
		cfg.questionAPI = ""
		assert.Error(t, cfg.validate())

		cfg.offline = true
		assert.NoError(t, cfg.validate())
	})
}

func TestConfig_Scheme(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, "http", cfg.scheme())

	cfg.tlsCert = "cert.pem"
	cfg.tlsKey = "key.pem"
	assert.Equal(t, "https", cfg.scheme())
}

func TestNewCmd_Defaults(t *testing.T) {
	cfg := &Config{}
	cmd := newCmd(cfg)

	require.NoError(t, cmd.ParseFlags(nil))

	assert.Equal(t, "0.0.0.0", cfg.bind)
	assert.Equal(t, 8080, cfg.port)
	assert.Equal(t, defaultQuestionAPI, cfg.questionAPI)
	assert.Equal(t, 10*time.Second, cfg.questionTimeout)
	assert.False(t, cfg.offline)
	assert.NoError(t, cfg.validate())
}
