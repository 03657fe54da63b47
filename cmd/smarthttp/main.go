package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/fenilsonani/smarthttp/internal/config"
	"github.com/fenilsonani/smarthttp/internal/observability"
	"github.com/fenilsonani/smarthttp/internal/transport"
	"github.com/fenilsonani/smarthttp/pkg/smarthttp"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// app carries the state built once per invocation and shared by subcommands
type app struct {
	configPath  string
	debug       bool
	timeout     time.Duration
	metricsFile string

	cfg      *config.Config
	log      logr.Logger
	registry *prometheus.Registry
	opts     []transport.Option

	closeLogs func() error
}

func newRootCommand() *cobra.Command {
	a := &app{log: logr.Discard()}

	rootCmd := &cobra.Command{
		Use:   "smarthttp",
		Short: "Git over the smart HTTP protocol",
		Long: `smarthttp talks to Git servers over the smart HTTP protocol. Every
action is a single HTTP exchange: ref advertisement, upload-pack or
receive-pack. Clone, fetch and push run through go-git with this
transport installed for http and https URLs.`,
		Version:            fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:       true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: a.teardown,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "Path to a YAML config file")
	flags.BoolVar(&a.debug, "debug", false, "Log every request at debug level")
	flags.DurationVar(&a.timeout, "timeout", 0, "Timeout waiting for response headers (0 disables)")
	flags.StringVar(&a.metricsFile, "metrics-file", "", "Write Prometheus metrics to this file on exit")

	rootCmd.AddCommand(
		newLsRemoteCommand(a),
		newInfoRefsCommand(a),
		newCloneCommand(a),
		newFetchCommand(a),
		newPushCommand(a),
	)
	for _, sub := range rootCmd.Commands() {
		a.teardownOnError(sub)
	}

	return rootCmd
}

// setup loads configuration, applies flag overrides, builds the logger and
// installs the adapter into go-git
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if a.debug {
		cfg.Log.Level = "debug"
	}
	if flags.Changed("timeout") {
		cfg.Timeout = a.timeout
	}
	if flags.Changed("metrics-file") {
		cfg.MetricsFile = a.metricsFile
	}

	logger, closeLogs, err := observability.SetupLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	a.cfg = cfg
	a.closeLogs = closeLogs
	a.log = observability.Logr(logger).WithName("smarthttp")
	a.registry = prometheus.NewRegistry()

	client := transport.NewHTTPClientWithHeaderTimeout(cfg.Timeout)

	a.opts = []transport.Option{
		transport.WithHTTPClient(client),
		transport.WithLogger(a.log),
		transport.WithMetrics(transport.NewMetrics(a.registry)),
		transport.WithUserAgent(cfg.UserAgent),
	}

	// go-git's protocol table is process-wide; point it at this invocation
	if !smarthttp.Register(a.opts...) {
		smarthttp.Configure(a.opts...)
	}
	return nil
}

// teardown writes the metrics snapshot and closes the log outputs
func (a *app) teardown(_ *cobra.Command, _ []string) error {
	var err error
	if a.cfg != nil && a.cfg.MetricsFile != "" {
		if werr := prometheus.WriteToTextfile(a.cfg.MetricsFile, a.registry); werr != nil {
			err = fmt.Errorf("failed to write metrics: %w", werr)
		}
	}
	if a.closeLogs != nil {
		if cerr := a.closeLogs(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close log outputs: %w", cerr)
		}
		a.closeLogs = nil
	}
	return err
}

// teardownOnError runs teardown when c fails, since cobra skips post-run
// hooks after an error
func (a *app) teardownOnError(c *cobra.Command) {
	run := c.RunE
	c.RunE = func(cmd *cobra.Command, args []string) error {
		err := run(cmd, args)
		if err != nil {
			_ = a.teardown(cmd, args)
		}
		return err
	}
}

// session opens a smart HTTP session configured like the registered adapter
func (a *app) session() *transport.Session {
	return transport.NewSession(a.opts...)
}
