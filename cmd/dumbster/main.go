// main is the dumbster daemon launcher
package main

import (
	"context"
	"expvar"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/inbucket/dumbster/pkg/config"
	"github.com/inbucket/dumbster/pkg/server"
	"github.com/inbucket/dumbster/pkg/storage"
	"github.com/inbucket/dumbster/pkg/storage/mem"
	"github.com/rs/zerolog/log"
)

var (
	// version contains the build version number, populated during linking.
	version = "undefined"

	// date contains the build date, populated during linking.
	date = "undefined"
)

// drainTimeout bounds how long shutdown waits for open SMTP sessions.
const drainTimeout = 15 * time.Second

func init() {
	startTime := time.Now()
	expvar.Publish("uptime", expvar.Func(func() any {
		return time.Since(startTime) / time.Second
	}))
	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))

	storage.Constructors["memory"] = mem.New
}

// options holds the command line flags.
type options struct {
	help     bool
	pidfile  string
	logfile  string
	logjson  bool
	netdebug bool
}

func parseFlags(fs *flag.FlagSet, args []string) (*options, error) {
	o := &options{}
	fs.BoolVar(&o.help, "help", false, "Displays help on flags and env variables.")
	fs.StringVar(&o.pidfile, "pidfile", "", "Write our PID into the specified file.")
	fs.StringVar(&o.logfile, "logfile", "stderr", "Write out log into the specified file.")
	fs.BoolVar(&o.logjson, "logjson", false, "Logs are written in JSON format.")
	fs.BoolVar(&o.netdebug, "netdebug", false, "Dump SMTP network traffic to stdout.")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: dumbster [options]")
		fs.PrintDefaults()
	}
	return o, fs.Parse(args)
}

func main() {
	opts, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		os.Exit(2)
	}
	if opts.help {
		flag.CommandLine.Usage()
		fmt.Fprintln(os.Stderr, "")
		if err := config.Usage(os.Stderr); err != nil {
			fmt.Fprintf(os.Stderr, "Unable to describe configuration: %v\n", err)
			os.Exit(1)
		}
		return
	}

	config.Version = version
	config.BuildDate = date
	conf, err := config.Process()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}
	conf.SMTP.Debug = opts.netdebug

	closeLog, err := openLog(conf.LogLevel, opts.logfile, opts.logjson)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Log error: %v\n", err)
		os.Exit(1)
	}
	startupLog := log.With().Str("phase", "startup").Logger()
	startupLog.Info().Str("version", config.Version).Str("buildDate", config.BuildDate).
		Msg("Dumbster starting")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	if err := writePIDFile(opts.pidfile); err != nil {
		startupLog.Fatal().Err(err).Str("path", opts.pidfile).Msg("Failed to write pidfile")
	}

	rootCtx, rootCancel := context.WithCancel(context.Background())
	shutdownChan := make(chan bool)
	svcs, err := server.Prod(rootCtx, shutdownChan, conf)
	if err != nil {
		rootCancel()
		removePIDFile(opts.pidfile)
		startupLog.Fatal().Err(err).Msg("Fatal error during startup")
	}

	awaitShutdown(sigChan, shutdownChan)
	rootCancel()

	// Wait for active connections to finish.
	if !drained(svcs, drainTimeout) {
		log.Error().Str("phase", "shutdown").Msg("Clean shutdown took too long, forcing exit")
	}
	removePIDFile(opts.pidfile)
	closeLog()
}

// awaitShutdown blocks until a signal arrives or a service closes shutdownChan.  Signals close
// shutdownChan so every service observes the request.
func awaitShutdown(sigChan <-chan os.Signal, shutdownChan chan bool) {
	select {
	case sig := <-sigChan:
		log.Info().Str("phase", "shutdown").Str("signal", sig.String()).
			Msgf("Received %v, shutting down", sig)
		close(shutdownChan)
	case <-shutdownChan:
		log.Warn().Str("phase", "shutdown").Msg("Service requested shutdown")
	}
}

// drained reports whether svcs finished draining within timeout.
func drained(svcs interface{ Drain() }, timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		svcs.Drain()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}

func writePIDFile(pidfile string) error {
	if pidfile == "" {
		return nil
	}
	return os.WriteFile(pidfile, fmt.Appendf(nil, "%v\n", os.Getpid()), 0644)
}

// removePIDFile removes the PID file if created.
func removePIDFile(pidfile string) {
	if pidfile == "" {
		return
	}
	if err := os.Remove(pidfile); err != nil {
		log.Error().Str("phase", "shutdown").Err(err).Str("path", pidfile).
			Msg("Failed to remove pidfile")
	}
}
