package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/x/editor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultConfig = `# speech engine: voicevox, espeak or mock
engine: "voicevox"
# speaking speed (0.5 to 2.0)
speed: 1.0
# pitch offset (-1.0 to 1.0)
pitch: 0.0

# VOICEVOX engine (https://voicevox.hiroshiba.jp/)
voicevox:
  url: "http://localhost:50021"
  speaker: 3
  timeout: "30s"
  requests_per_second: 5

# eSpeak engine
espeak:
  # espeak or espeak-ng
  command: "espeak"
  voice: "en"
  # variant: "f3"
  timeout: "30s"

# playback: auto, oto, command or null
audio:
  backend: "auto"
  # external player used by the command backend and as the auto fallback
  command: "aplay"
  args: ["-q"]
  # temp_dir: "/tmp/readtext"
  file_prefix: "readtext_"
  auto_cleanup: true

pipeline:
  # chunks synthesized ahead of playback
  buffer_size: 2
  # lines per chunk
  split_threshold: 50

# synthesized audio cache
cache:
  enabled: true
  # dir: "~/.cache/readtext/audio"
  memory_mb: 32
  disk_mb: 256
  ttl: "168h"

# text normalization before synthesis
reading_rules:
  enabled: true
  # extend: custom rules run after the presets
  # override: a custom command rule replaces the preset rule of the same name
  mode: "extend"
  presets: ["latex"]
  # directories with .yaml or .toml preset files
  preset_dirs: []
  custom_rules: []
  #  - type: command
  #    name: "textbf"
  #    arg_count: 1
  #  - type: replace
  #    pattern: "\\\\LaTeX"
  #    replacement: "LaTeX"
`

var configCmd = &cobra.Command{
	Use:     "config",
	Hidden:  false,
	Short:   "Edit the readtext config file",
	Long:    paragraph(fmt.Sprintf("\n%s the readtext config file. We’ll use EDITOR to determine which editor to use. If the config file doesn't exist, it will be created.", keyword("Edit"))),
	Example: paragraph("readtext config\nreadtext config --config path/to/config.yml"),
	Args:    cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		if err := ensureConfigFile(); err != nil {
			return err
		}

		c, err := editor.Cmd("readtext", configFile)
		if err != nil {
			return fmt.Errorf("unable to set config file: %w", err)
		}
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			return fmt.Errorf("unable to run command: %w", err)
		}

		fmt.Println("Wrote config file to:", configFile)
		return nil
	},
}

func ensureConfigFile() error {
	if configFile == "" {
		configFile = viper.GetViper().ConfigFileUsed()
	}
	if configFile == "" {
		configFile = defaultConfigFile
	}
	if configFile == "" {
		return errors.New("could not determine the configuration file location")
	}

	if ext := path.Ext(configFile); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("'%s' is not a supported configuration type: use '%s' or '%s'", ext, ".yaml", ".yml")
	}

	if _, err := os.Stat(configFile); errors.Is(err, fs.ErrNotExist) {
		if err := os.MkdirAll(filepath.Dir(configFile), 0o700); err != nil {
			return fmt.Errorf("unable create directory: %w", err)
		}

		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("unable to create config file: %w", err)
		}
		defer func() { _ = f.Close() }()

		if _, err := f.WriteString(defaultConfig); err != nil {
			return fmt.Errorf("unable to write config file: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("unable to stat config file: %w", err)
	}
	return nil
}
