package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"

	"github.com/huangsam/hockeystick/schema"
)

// Color variables for console output.
var (
	SurgingColor   = color.New(color.FgGreen, color.Bold) // SurgingColor marks the hockey-stick blade.
	GrowingColor   = color.New(color.FgCyan)
	FlatColor      = color.New(color.FgYellow)
	DecliningColor = color.New(color.FgRed)
)

// GetPlainLabel returns the trend label for a fitted slope. This is the
// core logic used for CSV, JSON, and table printing.
func GetPlainLabel(slope float64) string {
	return string(schema.ClassifySlope(slope))
}

// GetColorLabel returns a colored text label for console output (table).
func GetColorLabel(slope float64) string {
	text := schema.ClassifySlope(slope)

	switch text {
	case schema.SurgingTrend:
		return SurgingColor.Sprint(text)
	case schema.GrowingTrend:
		return GrowingColor.Sprint(text)
	case schema.FlatTrend:
		return FlatColor.Sprint(text)
	default: // "Declining"
		return DecliningColor.Sprint(text)
	}
}

// SelectOutputFile returns the appropriate file handle for output.
// An empty path means stdout.
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

// LogWarn logs a warning through the structured logger.
func LogWarn(msg string, err error) {
	Log().Warn().Err(err).Msg(msg)
}

// GetCacheDBFilePath returns the path to the SQLite DB file for the fetch cache.
func GetCacheDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".hockeystick_cache.db"
	}
	return filepath.Join(homeDir, ".hockeystick_cache.db")
}

// GetHistoryDBFilePath returns the path to the SQLite DB file for run history.
func GetHistoryDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".hockeystick_history.db"
	}
	return filepath.Join(homeDir, ".hockeystick_history.db")
}

// TopicFileName turns a topic into a file-system friendly base name.
// Path separators are replaced so a topic like "AC/DC" cannot escape the
// output directory.
func TopicFileName(topic string) string {
	name := strings.TrimSpace(topic)
	name = strings.NewReplacer("/", "_", "\\", "_", "\x00", "").Replace(name)
	if name == "" || name == "." || name == ".." {
		return "_"
	}
	return name
}

// TruncateText truncates text to a maximum width with an ellipsis suffix.
// Requires maxWidth > 3 to leave room for the ellipsis.
func TruncateText(text string, maxWidth int) string {
	runes := []rune(text)
	if len(runes) > maxWidth && maxWidth > 3 {
		return string(runes[:maxWidth-3]) + "..."
	}
	return text
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
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
