package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation limits for file destinations.
const (
	logMaxSizeMB = 50
	logMaxAge    = 7 // days
)

// openLog points the global zerolog logger at logfile ("stderr", "stdout", or a path appended
// to and rotated by size) and sets the global level.  Output is JSON when asJSON is set,
// otherwise console formatted and colored only on a terminal.  The returned func flushes and closes the destination.
func openLog(level string, logfile string, asJSON bool) (func(), error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl < zerolog.DebugLevel || lvl > zerolog.ErrorLevel {
		return nil, fmt.Errorf("log level %q not one of: debug, info, warn, error", level)
	}

	var (
		out   io.Writer
		color bool
		flush = func() {}
	)
	switch logfile {
	case "stderr", "":
		out, color = os.Stderr, isatty.IsTerminal(os.Stderr.Fd())
	case "stdout":
		out, color = os.Stdout, isatty.IsTerminal(os.Stdout.Fd())
	default:
		// Fail at startup rather than on the first log line.
		f, err := os.OpenFile(logfile, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o666)
		if err != nil {
			return nil, err
		}
		_ = f.Close()
		rotating := &lumberjack.Logger{
			Filename: logfile,
			MaxSize:  logMaxSizeMB,
			MaxAge:   logMaxAge,
			Compress: true,
		}
		out = rotating
		flush = func() { _ = rotating.Close() }
	}

	zerolog.SetGlobalLevel(lvl)
	out = zerolog.SyncWriter(out)
	if !asJSON {
		out = zerolog.ConsoleWriter{Out: out, NoColor: !color}
	}
	log.Logger = log.Output(out)
	return flush, nil
}
