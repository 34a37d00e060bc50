package main

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
)

func getLogFilePath() (string, error) {
	if envCfg.LogFile != "" {
		return envCfg.LogFile, nil
	}
	return gap.NewScope(gap.User, "readtext").LogPath("readtext.log") //nolint:wrapcheck
}

// setupLog sends the default logger to the log file. The returned closer
// must be called on exit.
func setupLog() (func() error, error) {
	log.SetOutput(io.Discard)

	logFile, err := getLogFilePath()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil { //nolint:gosec
		return nil, err //nolint:wrapcheck
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644) //nolint:gosec
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	log.SetDefault(log.NewWithOptions(f, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Prefix:          "readtext",
	}))
	log.SetLevel(log.InfoLevel)
	if envCfg.Debug {
		log.SetLevel(log.DebugLevel)
	}
	return f.Close, nil
}
