package logger

import (
	"log/slog"
	"os"
)

// New returns the process logger. JSON output so log pipelines can index
// the request_id and tenant attrs handlers attach.
func New() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}
