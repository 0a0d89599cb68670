package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"poster/pkg/agent"
	llmmetrics "poster/pkg/agent/middleware/metrics"
	"poster/pkg/clock"
	"poster/pkg/config"
	"poster/pkg/engine"
	"poster/pkg/generate"
	"poster/pkg/logx"
	"poster/pkg/media"
	"poster/pkg/metrics"
	"poster/pkg/persistence"
	"poster/pkg/publish"
	"poster/pkg/randx"
	"poster/pkg/state"
	"poster/pkg/utils"
	"poster/pkg/weather"
)

type runOptions struct {
	configPath  string
	stateDir    string
	dryRun      bool
	lock        bool
	seed        uint64
	seeded      bool
	metricsFile string
	logDir      string
	noWeather   bool
	now         string // RFC 3339 override of the clock
}

func newRunCmd() *cobra.Command {
	var opts runOptions
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Make one posting decision",
		Long: `Loads state, picks a slot, decides whether to skip, generates or falls back
to text, and publishes it.

Without X credentials the run logs what it would post and exits 0.
With --dry-run nothing leaves the machine but state is updated as if posted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.configPath = configPath
			opts.stateDir = stateDir
			opts.seeded = cmd.Flags().Changed("seed")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			res, err := executeRun(ctx, opts)
			printResult(cmd.OutOrStdout(), res)
			return err
		},
	}
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "publish nothing; synthesize post ids")
	cmd.Flags().BoolVar(&opts.lock, "lock", false, "take an exclusive lock on the state directory")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "seed the random source for a reproducible run")
	cmd.Flags().StringVar(&opts.metricsFile, "metrics-file", "", "write Prometheus metrics to this textfile")
	cmd.Flags().StringVar(&opts.logDir, "log-dir", "", "also append logs to a dated file in this directory")
	cmd.Flags().BoolVar(&opts.noWeather, "no-weather", false, "skip the weather lookup")
	cmd.Flags().StringVar(&opts.now, "now", "", "pretend the current time is this RFC 3339 instant")
	_ = cmd.Flags().MarkHidden("now")
	return cmd
}

// executeRun wires every capability and runs the engine once.
func executeRun(ctx context.Context, opts runOptions) (engine.Result, error) {
	logger := logx.NewLogger("poster")

	if opts.logDir != "" {
		if err := logx.OpenLogFile(opts.logDir); err != nil {
			return engine.Result{}, err
		}
		defer func() { _ = logx.CloseLogFile() }()
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return engine.Result{}, err
	}
	if opts.noWeather {
		cfg.Weather.Enabled = false
	}

	clk, err := newClock(cfg, opts.now)
	if err != nil {
		return engine.Result{}, err
	}
	rng := randx.NewFromTime()
	if opts.seeded {
		rng = randx.New(opts.seed)
	}

	counter, err := utils.NewTokenCounter(cfg.Generator.Model)
	if err != nil {
		logger.Warn("Token counter unavailable, using estimates: %v", err)
	}

	store, err := state.NewStore(opts.stateDir, &cfg.Tuning, rng, counter)
	if err != nil {
		return engine.Result{}, err
	}

	if opts.lock {
		lock, lockErr := state.AcquireLock(opts.stateDir, state.DefaultStaleLockAge)
		if lockErr != nil {
			return engine.Result{}, lockErr
		}
		defer func() {
			if releaseErr := lock.Release(); releaseErr != nil {
				logger.Warn("Failed to release lock: %v", releaseErr)
			}
		}()
	}

	secrets, err := loadSecrets(opts.stateDir)
	if err != nil {
		return engine.Result{}, err
	}

	runMetrics := metrics.NewRunMetrics()
	deps := engine.Deps{
		Config: cfg,
		Clock:  clk,
		Rand:   rng,
		Store:  store,
		DryRun: opts.dryRun,
	}

	factory := agent.NewLLMClientFactory(cfg.Generator, secrets,
		llmmetrics.NewPrometheusRecorder(runMetrics.Registry()), counter)
	if client, clientErr := factory.CreateClient(); clientErr != nil {
		logger.Warn("Generator unavailable, fallback texts only: %v", clientErr)
	} else {
		deps.Generator = generate.New(client)
	}

	if opts.dryRun {
		deps.Publisher = publish.NewDryRun()
	} else if xc, pubErr := publish.NewXClient(cfg.Publisher, secrets.XCredentials()); pubErr != nil {
		logger.Warn("Publisher unavailable: %v", pubErr)
	} else {
		deps.Publisher = xc
	}

	if cfg.Weather.Enabled {
		cache := weather.LoadCache(opts.stateDir, time.Duration(cfg.Weather.CacheTTLMinutes)*time.Minute)
		deps.Weather = weather.NewSource(cfg.Weather, cache)
	}
	deps.Media = media.NewFinder(cfg.Media, configBaseDir(opts.configPath), rng)

	history, err := persistence.InitializeDatabase(filepath.Join(opts.stateDir, persistence.DBFileName))
	if err != nil {
		logger.Warn("History disabled: %v", err)
	} else {
		ops := persistence.NewDatabaseOperations(history)
		defer func() { _ = ops.Close() }()
		deps.Recorders = append(deps.Recorders, ops)
	}
	deps.Recorders = append(deps.Recorders, runMetrics)

	eng, err := engine.New(deps)
	if err != nil {
		return engine.Result{}, err
	}

	ctx = logx.WithRunID(ctx, persistence.NewRunID())
	res, runErr := eng.Run(ctx)

	if opts.metricsFile != "" {
		if err := runMetrics.WriteTextfile(opts.metricsFile); err != nil {
			logger.Warn("%v", err)
		}
	}
	if runErr != nil && errors.Is(runErr, engine.ErrPublishFailed) {
		logger.Error("Run failed: %v", runErr)
	}
	return res, runErr
}

func newClock(cfg *config.Config, now string) (clock.Clock, error) {
	if now == "" {
		return clock.New(cfg.TimezoneOffsetHours), nil
	}
	t, err := time.Parse(time.RFC3339, now)
	if err != nil {
		return nil, fmt.Errorf("invalid --now %q: %w", now, err)
	}
	return &clock.Fixed{T: t, Loc: clock.Zone(cfg.TimezoneOffsetHours)}, nil
}

// configBaseDir resolves relative media paths against the config file's directory.
func configBaseDir(path string) string {
	if path == "" {
		return "."
	}
	return filepath.Dir(path)
}

func printResult(w io.Writer, res engine.Result) {
	if res.Outcome == "" {
		return
	}
	fmt.Fprintf(w, "outcome=%s", res.Outcome)
	if res.Slot != "" {
		fmt.Fprintf(w, " slot=%s", res.Slot)
	}
	if res.Source != "" {
		fmt.Fprintf(w, " source=%s attempts=%d", res.Source, res.Attempts)
	}
	if res.PostID != "" {
		fmt.Fprintf(w, " post_id=%s", res.PostID)
	}
	if res.HadImage {
		fmt.Fprint(w, " image=true")
	}
	fmt.Fprintf(w, " energy=%d mood=%s\n", res.Energy, res.Mood)
	if res.Text != "" {
		fmt.Fprintln(w, res.Text)
	}
}
