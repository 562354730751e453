package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
)

// Trust label constants.
const (
	StrongValue = "Strong" // Strong value
	FairValue   = "Fair"   // Fair value
	WeakValue   = "Weak"   // Weak value
	PoorValue   = "Poor"   // Poor value
)

// Color variables for console output.
var (
	StrongColor = color.New(color.FgGreen, color.Bold) // StrongColor marks a package that is safe to adopt.
	FairColor   = color.New(color.FgCyan)              // FairColor marks an acceptable package.
	WeakColor   = color.New(color.FgYellow)            // WeakColor asks for a closer look.
	PoorColor   = color.New(color.FgRed, color.Bold)   // PoorColor marks a package to avoid.
)

// GetPlainLabel returns a plain text label for a net score in [0, 1].
// This is the core logic used for CSV, JSON, and table printing.
func GetPlainLabel(score float64) string {
	switch {
	case score >= 0.75:
		return StrongValue
	case score >= 0.5:
		return FairValue
	case score >= 0.25:
		return WeakValue
	default:
		return PoorValue
	}
}

// GetColorLabel returns a colored text label for console output (table).
func GetColorLabel(score float64) string {
	text := GetPlainLabel(score)

	switch text {
	case StrongValue:
		return StrongColor.Sprint(text)
	case FairValue:
		return FairColor.Sprint(text)
	case WeakValue:
		return WeakColor.Sprint(text)
	default: // "Poor"
		return PoorColor.Sprint(text)
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. It falls back to os.Stdout when no path is given.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// GetCacheDBFilePath returns the path to the SQLite DB file for snapshot caching.
func GetCacheDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".trustscore_cache.db"
	}
	return filepath.Join(homeDir, ".trustscore_cache.db")
}

// GetHistoryDBFilePath returns the path to the SQLite DB file for run history.
func GetHistoryDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".trustscore_history.db"
	}
	return filepath.Join(homeDir, ".trustscore_history.db")
}

// TruncateURL shortens a URL to maxWidth runes, keeping its tail.
func TruncateURL(u string, maxWidth int) string {
	runes := []rune(u)
	if len(runes) > maxWidth && maxWidth > 3 {
		return "..." + string(runes[len(runes)-maxWidth+3:])
	}
	return u
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
