package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/dmitrymomot/formstream/form"
	"github.com/dmitrymomot/formstream/limits"
)

var defaultEnvLoaded sync.Once

// Load populates v from the process environment. The default .env file is
// loaded once per process before the first parse; a missing file is not an
// error.
func Load[T any](v *T) error {
	defaultEnvLoaded.Do(func() {
		// Ignore errors - the .env file might not exist and that's ok
		_ = godotenv.Load()
	})
	if v == nil {
		return ErrNilPointer
	}

	if err := env.Parse(v); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	return nil
}

// MustLoad works like Load but panics if configuration loading fails.
// This is useful for configurations that are required for the application to start.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Sprintf("Failed to load required configuration: %v", err))
	}
}

// Config describes the binding engine's environment-tunable settings. Size
// values accept the usual suffixes ("32KiB", "2MiB", bare byte counts).
type Config struct {
	// Strict switches the engine to fail-fast semantics: unknown fields,
	// duplicates and structural mismatches become errors instead of being
	// dropped.
	Strict bool `env:"FORM_STRICT" envDefault:"false"`

	// TempDir is the staging directory for streamed data fields. Empty
	// means the system temporary directory.
	TempDir string `env:"FORM_TEMP_DIR"`

	FormLimit     limits.ByteSize `env:"FORM_LIMIT_FORM" envDefault:"32KiB"`
	DataFormLimit limits.ByteSize `env:"FORM_LIMIT_DATA_FORM" envDefault:"2MiB"`
	StringLimit   limits.ByteSize `env:"FORM_LIMIT_STRING" envDefault:"8KiB"`
	FileLimit     limits.ByteSize `env:"FORM_LIMIT_FILE" envDefault:"1MiB"`

	// FileTypeLimits overrides the file limit per extension, e.g.
	// FORM_FILE_TYPE_LIMITS="png:4MiB,pdf:10MiB".
	FileTypeLimits map[string]limits.ByteSize `env:"FORM_FILE_TYPE_LIMITS" envSeparator:"," envKeyValSeparator:":"`
}

// Options converts the configuration into parser options.
func (c Config) Options() form.Options {
	return form.Options{Strict: c.Strict}
}

// Env converts the configuration into a binding environment: the named
// limits plus per-extension file overrides under "file/<ext>" keys.
func (c Config) Env() *form.Env {
	m := limits.Map{
		"form":      c.FormLimit,
		"data-form": c.DataFormLimit,
		"string":    c.StringLimit,
		"file":      c.FileLimit,
	}
	for ext, size := range c.FileTypeLimits {
		m = m.With("file/"+ext, size)
	}
	return &form.Env{Limits: m, TempDir: c.TempDir}
}
