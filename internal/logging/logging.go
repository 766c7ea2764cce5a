// Package logging wires the process-wide slog logger. Logs always go to
// stdout; when a file path is configured they are also written there
// with size-based rotation.
package logging

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Setup configures the default slog logger. With a logPath the output is
// duplicated into a rotating file. Returns a cleanup function that
// closes the file.
func Setup(logPath string) func() {
	var w io.Writer = os.Stdout
	cleanup := func() {}

	if logPath != "" {
		rotator := &lumberjack.Logger{
			Filename:   logPath,
			MaxSize:    50, // megabytes
			MaxBackups: 5,
			MaxAge:     30, // days
			Compress:   true,
		}
		w = io.MultiWriter(os.Stdout, rotator)
		cleanup = func() { rotator.Close() }
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	slog.SetDefault(slog.New(handler))
	return cleanup
}
