package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/marmos91/hdfsfile/internal/logger"
	"github.com/marmos91/hdfsfile/pkg/config"
	"gopkg.in/yaml.v3"
)

const usage = `hdfsfile - file operations on a block-oriented distributed filesystem

Usage:
  hdfsfile [global flags] <command> [flags] [args]

Commands:
  init                     Write a default configuration file
  ls <path>...             List directories
  stat <path>...           Show path metadata
  cat <path>               Print a file (-offset/-length read a byte range)
  put <local> <remote>     Upload a local file ("-" reads stdin)
  mkdir <path>...          Create directories and their parents
  rm [-r] <path>...        Remove paths
  rmdir <path>...          Remove empty directories
  hosts <path>             Show the hosts storing a byte range

Global flags:
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	global := flag.NewFlagSet("hdfsfile", flag.ContinueOnError)
	global.SetOutput(stderr)
	configPath := global.String("config", "", "Path to config file (default: $XDG_CONFIG_HOME/hdfsfile/config.yaml)")
	logLevel := global.String("log-level", "", "Log level override (DEBUG, INFO, WARN, ERROR)")
	driverType := global.String("driver", "", "Driver override (hdfs, memory, badger, s3)")
	coordinator := global.String("coordinator", "", "Coordinator override (e.g. hdfs://namenode:8020)")
	global.Usage = func() {
		_, _ = fmt.Fprint(stderr, usage)
		global.PrintDefaults()
	}

	if err := global.Parse(args); err != nil {
		return 2
	}
	if global.NArg() == 0 {
		global.Usage()
		return 2
	}

	command, rest := global.Arg(0), global.Args()[1:]

	// init runs before any configuration is loaded
	if command == "init" {
		return report(stderr, runInit(rest, stdout, stderr))
	}

	cmd, ok := commands[command]
	if !ok {
		_, _ = fmt.Fprintf(stderr, "unknown command %q\n\n", command)
		global.Usage()
		return 2
	}

	// ===== Step 1: Load configuration =====
	cfg, err := config.Load(*configPath)
	if err != nil {
		return report(stderr, err)
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if *driverType != "" {
		cfg.Driver.Type = *driverType
	}
	if *coordinator != "" {
		cfg.Client.Coordinator = *coordinator
	}
	config.ApplyDefaults(cfg)
	if err := config.Validate(cfg); err != nil {
		return report(stderr, err)
	}

	if err := logger.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output); err != nil {
		return report(stderr, err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ===== Step 2: Metrics =====
	metricsResult := config.InitializeMetrics(cfg)
	if metricsResult.Server != nil {
		metricsCtx, cancelMetrics := context.WithCancel(ctx)
		defer cancelMetrics()
		go func() {
			if err := metricsResult.Server.Start(metricsCtx); err != nil {
				logger.Warn("%v", err)
			}
		}()
	}

	// ===== Step 3: Driver and client =====
	driver, err := config.CreateDriver(ctx, &cfg.Driver, metricsResult.S3Metrics)
	if err != nil {
		return report(stderr, err)
	}
	defer func() {
		if err := config.CloseDriver(driver); err != nil {
			logger.Warn("failed to close driver: %v", err)
		}
	}()

	client, err := config.CreateClient(driver, &cfg.Client, metricsResult.ClientMetrics)
	if err != nil {
		return report(stderr, err)
	}

	logger.Debug("driver=%s coordinator=%s command=%s", cfg.Driver.Type, cfg.Client.Coordinator, command)
	if logger.Enabled(logger.LevelDebug) {
		if out, err := yaml.Marshal(cfg); err == nil {
			logger.Debug("effective configuration:\n%s", out)
		}
	}

	// ===== Step 4: Run the command =====
	a := &app{client: client, stdout: stdout, stderr: stderr, stdin: os.Stdin}
	return report(stderr, cmd(a, ctx, rest))
}

// report prints err and maps it to an exit code.
func report(stderr io.Writer, err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, flag.ErrHelp):
		return 0
	case errors.Is(err, errUsage):
		_, _ = fmt.Fprintf(stderr, "hdfsfile: %v\n", err)
		return 2
	default:
		_, _ = fmt.Fprintf(stderr, "hdfsfile: %v\n", err)
		return 1
	}
}

func runInit(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	fs.SetOutput(stderr)
	force := fs.Bool("force", false, "Overwrite an existing config file")
	path := fs.String("path", "", "Write to this path instead of the default location")
	if err := fs.Parse(args); err != nil {
		return err
	}

	target := *path
	if target == "" {
		target = config.GetDefaultConfigPath()
	}
	if err := config.InitConfigToPath(target, *force); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(stdout, "Configuration written to %s\n", target)
	return nil
}
