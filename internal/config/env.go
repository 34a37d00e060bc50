package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Env holds process-level settings that only come from the environment.
type Env struct {
	LogFile    string `env:"READTEXT_LOG_FILE"`
	Debug      bool   `env:"READTEXT_DEBUG"`
	ConfigHome string `env:"READTEXT_CONFIG_HOME"`

	// For debugging the status view
	NoTUIAltScreen bool `env:"READTEXT_NO_ALT_SCREEN"`
}

// LoadDotenv loads files into the process environment without overriding
// variables that are already set. Missing files are ignored.
func LoadDotenv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("unable to load %s: %w", f, err)
		}
	}
	return nil
}

// LoadEnv parses Env from the process environment.
func LoadEnv() (Env, error) {
	e, err := env.ParseAs[Env]()
	if err != nil {
		return e, fmt.Errorf("error parsing environment: %w", err)
	}
	return e, nil
}
