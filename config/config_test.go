package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/formstream/config"
	"github.com/dmitrymomot/formstream/limits"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		var cfg config.Config
		require.NoError(t, config.Load(&cfg))

		assert.False(t, cfg.Strict)
		assert.Empty(t, cfg.TempDir)
		assert.Equal(t, 32*limits.KiB, cfg.FormLimit)
		assert.Equal(t, 2*limits.MiB, cfg.DataFormLimit)
		assert.Equal(t, 8*limits.KiB, cfg.StringLimit)
		assert.Equal(t, 1*limits.MiB, cfg.FileLimit)
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("FORM_STRICT", "true")
		t.Setenv("FORM_TEMP_DIR", "/var/staging")
		t.Setenv("FORM_LIMIT_FILE", "16MiB")
		t.Setenv("FORM_FILE_TYPE_LIMITS", "png:4MiB,pdf:10MiB")

		var cfg config.Config
		require.NoError(t, config.Load(&cfg))

		assert.True(t, cfg.Strict)
		assert.Equal(t, "/var/staging", cfg.TempDir)
		assert.Equal(t, 16*limits.MiB, cfg.FileLimit)
		assert.Equal(t, map[string]limits.ByteSize{
			"png": 4 * limits.MiB,
			"pdf": 10 * limits.MiB,
		}, cfg.FileTypeLimits)
	})

	t.Run("invalid size is a parse error", func(t *testing.T) {
		t.Setenv("FORM_LIMIT_FORM", "lots")

		var cfg config.Config
		err := config.Load(&cfg)
		assert.ErrorIs(t, err, config.ErrParsingConfig)
	})

	t.Run("nil pointer", func(t *testing.T) {
		assert.ErrorIs(t, config.Load[config.Config](nil), config.ErrNilPointer)
	})

	t.Run("custom struct", func(t *testing.T) {
		t.Setenv("TEST_UPLOAD_DIR", "/srv/uploads")
		type custom struct {
			UploadDir string `env:"TEST_UPLOAD_DIR"`
		}
		var c custom
		require.NoError(t, config.Load(&c))
		assert.Equal(t, "/srv/uploads", c.UploadDir)
	})
}

func TestConfigConversions(t *testing.T) {
	cfg := config.Config{
		Strict:        true,
		TempDir:       "/var/staging",
		FormLimit:     64 * limits.KiB,
		DataFormLimit: 8 * limits.MiB,
		StringLimit:   16 * limits.KiB,
		FileLimit:     2 * limits.MiB,
		FileTypeLimits: map[string]limits.ByteSize{
			"png": 4 * limits.MiB,
		},
	}

	t.Run("options", func(t *testing.T) {
		assert.True(t, cfg.Options().Strict)
	})

	t.Run("env", func(t *testing.T) {
		env := cfg.Env()
		assert.Equal(t, "/var/staging", env.TempDir)
		assert.Equal(t, 64*limits.KiB, env.FindLimit(0, "form"))
		assert.Equal(t, 8*limits.MiB, env.FindLimit(0, "data-form"))
		assert.Equal(t, 16*limits.KiB, env.FindLimit(0, "string"))
		assert.Equal(t, 2*limits.MiB, env.FindLimit(0, "file"))
		assert.Equal(t, 4*limits.MiB, env.FindLimit(0, "file", "png"))
		assert.Equal(t, 2*limits.MiB, env.FindLimit(0, "file", "pdf"))
	})
}
