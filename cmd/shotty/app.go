package main

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/yairfalse/shotty/internal/config"
	"github.com/yairfalse/shotty/internal/emitter"
	"github.com/yairfalse/shotty/internal/executor"
	"github.com/yairfalse/shotty/internal/journal"
	"github.com/yairfalse/shotty/internal/policy"
	awsprovider "github.com/yairfalse/shotty/internal/provider/aws"
	"github.com/yairfalse/shotty/internal/telemetry"
)

type globalFlags struct {
	configPath string
	profile    string
	region     string
	debug      bool
	output     string
	logFormat  string
}

// providerFactory builds the session. It runs at most once per process.
type providerFactory func(ctx context.Context, cfg awsprovider.Config) (executor.Provider, error)

func newAWSProvider(ctx context.Context, cfg awsprovider.Config) (executor.Provider, error) {
	return awsprovider.New(ctx, cfg)
}

// app carries the process-wide state shared by every command.
type app struct {
	stdout io.Writer
	stderr io.Writer
	flags  globalFlags

	cfg         *config.Config
	telemetry   *telemetry.Provider
	newProvider providerFactory
	provider    executor.Provider
	emitter     emitter.Emitter
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{
		stdout:      stdout,
		stderr:      stderr,
		newProvider: newAWSProvider,
	}
}

// setup loads configuration, applies flag overrides and starts logging
// and telemetry. It runs before every command.
func (a *app) setup(cmd *cobra.Command) error {
	if err := validateOutput(a.flags.output); err != nil {
		return err
	}

	cfg, err := a.loadConfig(cmd)
	if err != nil {
		return err
	}
	if a.flags.profile != "" {
		cfg.AWS.Profile = a.flags.profile
	}
	if a.flags.region != "" {
		cfg.AWS.Region = a.flags.region
	}
	if a.flags.logFormat != "" {
		cfg.Log.Format = a.flags.logFormat
	}
	if a.flags.debug {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	a.cfg = cfg

	if err := telemetry.SetupLogging(cfg.Log.Level, cfg.Log.Format); err != nil {
		return err
	}

	tp, err := telemetry.NewProvider(cmd.Context(), cfg.OTEL)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	a.telemetry = tp

	return nil
}

func (a *app) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if cmd.Flags().Changed("config") {
		return config.Load(a.flags.configPath)
	}
	return config.LoadOptional(config.DefaultPath())
}

// session returns the provider, building it on first use.
func (a *app) session(ctx context.Context) (executor.Provider, error) {
	if a.provider != nil {
		return a.provider, nil
	}

	p, err := a.newProvider(ctx, awsprovider.Config{
		Profile: a.cfg.AWS.Profile,
		Region:  a.cfg.AWS.Region,
		Wait: awsprovider.WaitOptions{
			Timeout:  a.cfg.Wait.Timeout,
			MinDelay: a.cfg.Wait.MinDelay,
			MaxDelay: a.cfg.Wait.MaxDelay,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	a.provider = p
	return p, nil
}

// executor wires the provider, policy and emitters into an executor.
// Progress lines go to stdout in text mode and to stderr otherwise, so
// structured output stays parseable.
func (a *app) executor(ctx context.Context, dryRun bool) (*executor.Executor, error) {
	p, err := a.session(ctx)
	if err != nil {
		return nil, err
	}

	guard, err := a.guard(ctx)
	if err != nil {
		return nil, err
	}

	emit, err := a.events()
	if err != nil {
		return nil, err
	}

	out := a.stdout
	if a.flags.output != outputText {
		out = a.stderr
	}

	return executor.New(p, executor.Options{
		Out:         out,
		Emitter:     emit,
		Guard:       guard,
		Description: a.cfg.Snapshot.Description,
		DryRun:      dryRun,
	}), nil
}

func (a *app) guard(ctx context.Context) (policy.Guard, error) {
	if a.cfg.Policy.File == "" {
		return policy.AllowAll{}, nil
	}
	return policy.Load(ctx, a.cfg.Policy.File)
}

// events builds the emitter chain: metrics always, the journal when enabled.
func (a *app) events() (emitter.Emitter, error) {
	if a.emitter != nil {
		return a.emitter, nil
	}

	metrics, err := emitter.NewMetricsEmitter(a.telemetry.Meter())
	if err != nil {
		return nil, err
	}

	var j *journal.Journal
	if a.cfg.Journal.Enabled {
		j, err = journal.Open(a.cfg.Journal.Dir)
		if err != nil {
			return nil, err
		}
		log.Debug().Str("path", j.Path()).Msg("journal opened")
	}

	if j != nil {
		a.emitter = emitter.NewMultiEmitter(metrics, j)
	} else {
		a.emitter = emitter.NewMultiEmitter(metrics)
	}
	return a.emitter, nil
}

// close flushes everything setup and executor opened.
func (a *app) close(ctx context.Context) error {
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if a.emitter != nil {
		keep(a.emitter.Close())
	}
	if a.telemetry != nil {
		if a.cfg != nil && a.cfg.Metrics.Textfile != "" {
			keep(a.telemetry.WriteTextfile(a.cfg.Metrics.Textfile))
		}
		keep(a.telemetry.Shutdown(ctx))
	}
	return firstErr
}
