package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
)

// Win probability label constants.
const (
	LikelyValue    = "Likely"    // Likely win
	ContestedValue = "Contested" // Contested
	UnlikelyValue  = "Unlikely"  // Unlikely win
	RemoteValue    = "Remote"    // Remote chance
)

// Color variables for console output.
var (
	LikelyColor    = color.New(color.FgGreen, color.Bold) // LikelyColor marks a comfortable lead.
	ContestedColor = color.New(color.FgYellow)            // ContestedColor marks a coin flip.
	UnlikelyColor  = color.New(color.FgMagenta)           // UnlikelyColor marks an uphill bid.
	RemoteColor    = color.New(color.FgRed, color.Bold)   // RemoteColor marks a bid that almost never wins.
	WinColor       = color.New(color.FgGreen)
	LossColor      = color.New(color.FgRed)
)

// GetPlainLabel returns a plain text label for a win probability in percent.
// This is the core logic used for CSV, JSON, and table printing.
func GetPlainLabel(winProbability float64) string {
	switch {
	case winProbability >= 70:
		return LikelyValue
	case winProbability >= 40:
		return ContestedValue
	case winProbability >= 15:
		return UnlikelyValue
	default:
		return RemoteValue
	}
}

// GetColorLabel returns a colored text label for console output (table).
// It uses GetPlainLabel to determine the string, and then applies the appropriate color.
func GetColorLabel(winProbability float64) string {
	text := GetPlainLabel(winProbability)

	switch text {
	case LikelyValue:
		return LikelyColor.Sprint(text)
	case ContestedValue:
		return ContestedColor.Sprint(text)
	case UnlikelyValue:
		return UnlikelyColor.Sprint(text)
	default: // "Remote"
		return RemoteColor.Sprint(text)
	}
}

// GetOutcomeLabel returns "WIN" or "LOSS", colored when requested. Ties are losses.
func GetOutcomeLabel(beats, useColors bool) string {
	text, c := "LOSS", LossColor
	if beats {
		text, c = "WIN", WinColor
	}
	if !useColors {
		return text
	}
	return c.Sprint(text)
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. It returns os.Stdout when no path is given.
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

// GetLotDBFilePath returns the path to the SQLite DB file for lot storage.
func GetLotDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".bidsim_lots.db"
	}
	return filepath.Join(homeDir, ".bidsim_lots.db")
}

// GetRunsDBFilePath returns the path to the SQLite DB file for run history.
func GetRunsDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".bidsim_runs.db"
	}
	return filepath.Join(homeDir, ".bidsim_runs.db")
}

// LotIDFromPath derives a lot id from a document file name.
func LotIDFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
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
