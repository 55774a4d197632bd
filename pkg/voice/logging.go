package voice

import (
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
)

var debugLogger *log.Logger

// InitializeLogging sets up logging for the voice pipeline
func InitializeLogging(debugMode bool) error {
	if debugMode {
		log.SetLevel(log.DebugLevel)
		log.Debug("Logging initialized", "level", "DEBUG")
	} else {
		log.SetLevel(log.InfoLevel)
	}

	// A TUI owns stdout while a session runs, so debug output goes to a
	// file instead of the terminal.
	if debugMode {
		if err := setupDebugLogFile(); err != nil {
			log.Warn("Failed to setup debug log file", "error", err)
		}
	}

	return nil
}

// setupDebugLogFile creates a debug log file
func setupDebugLogFile() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}

	logDir := filepath.Join(home, ".config", "voicelink")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return err
	}

	logPath := filepath.Join(logDir, "debug.log")
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}

	// The file stays open for the life of the process.
	debugLogger = log.NewWithOptions(file, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Level:           log.DebugLevel,
	})
	log.SetDefault(debugLogger)
	log.Debug("Debug log file created", "path", logPath)

	return nil
}

// EnableDebugLogging enables debug logging at runtime
func EnableDebugLogging() {
	log.SetLevel(log.DebugLevel)
	log.Debug("Debug logging enabled")
}

// DisableDebugLogging disables debug logging at runtime
func DisableDebugLogging() {
	log.SetLevel(log.InfoLevel)
}
