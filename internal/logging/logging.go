// Package logging writes a structured operation log to a file and provides
// summary and follow helpers for the logs command.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Open returns a logger appending to the file at path. When verbose is set,
// records are mirrored to stderr. The returned closer flushes the file.
func Open(path string, verbose bool) (*slog.Logger, func() error, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	var w io.Writer = file
	if verbose {
		w = io.MultiWriter(file, os.Stderr)
	}

	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	return logger, file.Close, nil
}

// Discard returns a logger that drops everything, for callers that do not
// care about the log file (and for tests).
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Stats summarizes the log file.
type Stats struct {
	TotalLines int
	Errors     int
	Updates    int
}

// FileStats scans the log file and counts lines, errors, and update
// operations. A missing file yields zero stats.
func FileStats(path string) (*Stats, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Stats{}, nil
		}
		return nil, fmt.Errorf("failed to read log file: %w", err)
	}

	stats := &Stats{}
	for _, line := range strings.Split(string(data), "\n") {
		if line == "" {
			continue
		}
		stats.TotalLines++
		if strings.Contains(line, "level=ERROR") {
			stats.Errors++
		}
		if strings.Contains(line, "op=update") {
			stats.Updates++
		}
	}

	return stats, nil
}

// Tail returns the last n lines of the log file, oldest first. A missing
// file yields no lines.
func Tail(path string, n int) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read log file: %w", err)
	}

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) == 1 && lines[0] == "" {
		return nil, nil
	}
	if n > 0 && len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines, nil
}
