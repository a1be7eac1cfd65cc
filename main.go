package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/x/term"
	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/luki/weighplot/internal/config"
	"github.com/luki/weighplot/internal/logging"
	"github.com/luki/weighplot/internal/monitor"
)

// Exit codes.
const (
	exitOK    = 0
	exitFail  = 1
	exitUsage = 2
)

var commands = []struct {
	name string
	desc string
}{
	{"", "Live plotter TUI (default)"},
	{"tail", "Print samples to stdout without a TUI"},
	{"ports", "List serial ports"},
	{"show", "Summarize a CSV export"},
	{"help", "Show this help"},
}

func main() {
	args := os.Args[1:]
	cmd := ""
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "":
		os.Exit(runPlotter(args))
	case "tail":
		os.Exit(runTail(args))
	case "ports":
		os.Exit(runPorts(os.Stdout))
	case "show":
		os.Exit(runShow(args, os.Stdout))
	case "help":
		printHelp(os.Stdout)
	default:
		color.New(color.FgRed).Fprintf(os.Stderr, "unknown command %q\n\n", cmd)
		printHelp(os.Stderr)
		os.Exit(exitUsage)
	}
}

func printHelp(w io.Writer) {
	fmt.Fprintln(w, "Usage: weighplot [command] [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, c := range commands {
		name := c.name
		if name == "" {
			name = "(none)"
		}
		fmt.Fprintf(w, "  %-8s %s\n", name, c.desc)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'weighplot tail -h' for the flag list; the plotter and tail share it.")
	fmt.Fprintln(w, "Use -port sim (or sim:<seed>) for the simulated scale.")
}

func runPlotter(args []string) int {
	cfg, err := loadConfig("weighplot", args, os.Stderr)
	if err != nil {
		return reportConfigError(err)
	}

	// Piped output gets plain lines instead of an alt-screen TUI.
	if !term.IsTerminal(os.Stdout.Fd()) {
		return tailWith(cfg)
	}

	log := logging.New(cfg.LogFile, cfg.Debug)
	defer func() { _ = log.Sync() }()
	logStartup(log, "plotter", cfg)

	if err := monitor.Run(cfg, monitor.Deps{Log: log}); err != nil {
		log.Error("tui exited", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitFail
	}
	return exitOK
}

// loadConfig parses flags, loads the optional YAML file named by -config
// plus the environment, then applies only the flags that were set.
func loadConfig(name string, args []string, stderr io.Writer) (config.Config, error) {
	def := config.Default()

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		path       = fs.String("config", "", "YAML config file")
		port       = fs.String("port", "", "serial port, or sim / sim:<seed> for the simulator")
		baud       = fs.Int("baud", def.BaudRate, "baud rate")
		poll       = fs.Duration("poll", def.PollInterval, "poll interval")
		maxPoints  = fs.Int("max-points", def.MaxPoints, "samples kept in the plot window")
		delim      = fs.String("delimiter", def.Delimiter, "token delimiter")
		maxPending = fs.Int("max-pending", def.MaxPending, "pending bytes before resync, 0 for no limit")
		logFile    = fs.String("log", "", "rotated log file, empty disables logging")
		debug      = fs.Bool("debug", false, "debug level logging")
		exportDir  = fs.String("export-dir", def.ExportDir, "directory for CSV/PNG exports")
	)
	if err := fs.Parse(args); err != nil {
		return def, err
	}
	if fs.NArg() > 0 {
		return def, fmt.Errorf("%w: unexpected argument %q", config.ErrInvalid, fs.Arg(0))
	}

	cfg, err := config.Load(*path)
	if err != nil {
		return cfg, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.Port = *port
		case "baud":
			cfg.BaudRate = *baud
		case "poll":
			cfg.PollInterval = *poll
		case "max-points":
			cfg.MaxPoints = *maxPoints
		case "delimiter":
			cfg.Delimiter = *delim
		case "max-pending":
			cfg.MaxPending = *maxPending
		case "log":
			cfg.LogFile = *logFile
		case "debug":
			cfg.Debug = *debug
		case "export-dir":
			cfg.ExportDir = *exportDir
		}
	})

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func reportConfigError(err error) int {
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
	return exitUsage
}

func logStartup(log *zap.Logger, mode string, cfg config.Config) {
	log.Info("starting",
		zap.String("mode", mode),
		zap.String("port", cfg.Port),
		zap.Int("baud", cfg.BaudRate),
		zap.Duration("poll", cfg.PollInterval),
		zap.Int("max_points", cfg.MaxPoints),
		zap.String("delimiter", cfg.Delimiter),
		zap.Int("max_pending", cfg.MaxPending))
}
