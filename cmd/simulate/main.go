// Command simulate fires concurrent evaluations at a running netrisk
// instance and verifies the audit log afterwards.
package main

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/netrisk/internal/simulate"
	"github.com/okian/netrisk/pkg/json"
	"github.com/okian/netrisk/pkg/logger"
)

const (
	defaultWorkers = 2 // multiplier for runtime.NumCPU()
	runTimeout     = 10 * time.Minute
	filePerm       = 0600
)

func main() {
	var (
		baseURL     = flag.String("url", "http://localhost:8080", "Base URL of the service")
		count       = flag.Int("count", simulate.DefaultCount, "Number of evaluations to submit")
		identifiers = flag.Int("identifiers", 0, "Distinct numbers from +61400500800..999 to use (default all 200)")
		workers     = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout     = flag.Duration("timeout", simulate.DefaultTimeout, "HTTP request timeout")
		seed        = flag.Uint64("seed", 0, "Generator seed (default from clock)")
		stepUp      = flag.Float64("step-up", simulate.DefaultStepUp, "STEP_UP threshold the service runs with")
		reject      = flag.Float64("reject", simulate.DefaultReject, "REJECT threshold the service runs with")
		report      = flag.String("report", "", "Write the JSON report to this file")
		logFile     = flag.String("log", "", "Also write logs to this file")
		verbose     = flag.Bool("verbose", false, "Enable debug logging")
	)
	flag.Parse()

	var out io.Writer = os.Stdout
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, filePerm)
		if err != nil {
			os.Stderr.WriteString("failed to open log file: " + err.Error() + "\n")
			os.Exit(1)
		}
		defer f.Close()
		out = io.MultiWriter(os.Stdout, f)
	}
	if err := logger.Init(logger.WithOutput(out)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	rep, err := simulate.Run(ctx, simulate.Config{
		BaseURL:     *baseURL,
		Count:       *count,
		Identifiers: *identifiers,
		Workers:     *workers,
		Timeout:     *timeout,
		Seed:        *seed,
		StepUp:      *stepUp,
		Reject:      *reject,
	})
	if rep != nil && *report != "" {
		if werr := writeReport(*report, rep); werr != nil {
			logger.Get().Warn(ctx, "failed to write report", logger.Error(werr))
		}
	}
	if err != nil {
		logger.Get().Error(ctx, "simulation failed", logger.Error(err))
		os.Exit(1)
	}
}

func writeReport(path string, rep *simulate.Report) error {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, filePerm)
}
