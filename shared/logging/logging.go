package logging

import (
	"io"
	"log"
	"log/slog"
	"os"

	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Init installs a JSON slog logger as the process default. Output goes to
// stdout and, when logFile is set, to a size-rotated file as well. The
// returned writer is the same sink, for middleware that writes raw lines.
func Init(logFile string) (*slog.Logger, io.Writer) {
	var out io.Writer = os.Stdout
	if logFile != "" {
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    10, // MB
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   true,
		})
	}

	logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)
	// slog.SetDefault routes the log package through the handler; drop the
	// duplicate timestamp prefix.
	log.SetFlags(0)
	return logger, out
}
