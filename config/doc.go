// Package config loads form-processing settings from environment variables.
//
// It wraps `github.com/joho/godotenv` and `github.com/caarlos0/env/v11`:
// the default `.env` file (if present) is loaded once per process, then the
// environment is parsed into a struct using field tags.
//
// The package ships a ready-made Config describing the binding engine's
// knobs — strictness, staging directory and size limits — with converters
// into the types the form package consumes:
//
//	var cfg config.Config
//	if err := config.Load(&cfg); err != nil {
//	    log.Fatalf("parsing env: %v", err)
//	}
//
//	p := form.New[SignupForm](cfg.Options())
//	env := cfg.Env()
//
// Load also accepts any custom struct with `env` tags.
//
// # Error Handling
//
// Sentinel errors can be compared with `errors.Is`:
//
//   - `ErrParsingConfig` – failed to parse env vars into the struct.
//   - `ErrNilPointer`    – nil pointer passed to `Load`/`MustLoad`.
package config
