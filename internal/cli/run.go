package cli

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/godseed/internal/audio"
	"github.com/roach88/godseed/internal/binder"
	"github.com/roach88/godseed/internal/config"
	"github.com/roach88/godseed/internal/domain"
	"github.com/roach88/godseed/internal/engine"
	"github.com/roach88/godseed/internal/event"
	"github.com/roach88/godseed/internal/fx"
	"github.com/roach88/godseed/internal/loop"
	"github.com/roach88/godseed/internal/store"
	"github.com/roach88/godseed/internal/story"
	"github.com/roach88/godseed/internal/telemetry"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database  string
	Slot      string
	Frames    int
	Seed      uint64
	Telemetry string
	Resume    bool
	NoSave    bool
}

// RunResult is the JSON payload of run.
type RunResult struct {
	Slot          domain.Slot    `json:"slot"`
	Frames        int            `json:"frames"`
	SimulatedMs   int64          `json:"simulatedMs"`
	Clicks        int            `json:"clicks"`
	Interrupted   bool           `json:"interrupted,omitempty"`
	Entropy       float64        `json:"entropy"`
	Tier          domain.Tier    `json:"tier"`
	Season        domain.Season  `json:"season"`
	SeasonCount   int            `json:"seasonCount"`
	Seeds         int            `json:"seeds"`
	Gods          int            `json:"gods"`
	Stats         engine.Stats   `json:"stats"`
	Ending        *engine.Ending `json:"ending,omitempty"`
	ActiveLoops   []string       `json:"activeLoops"`
	Effects       []fx.Effect    `json:"effects"`
	TelemetryRows int            `json:"telemetryRows"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a headless garden simulation",
		Long: `Run the garden headless on a simulated clock.

A scripted player taps the surface, feeds seeds, pets gods and answers
choices. Every event flows through the binder to the audio router (which
logs playback instead of producing sound), the visual effect router and
the telemetry collector. The run stops after the configured number of
frames, when an ending is reached, or on Ctrl-C. State is saved to the
configured slot on the way out.

Examples:
  godseed run
  godseed run --frames 6000 --seed 7 --telemetry out/run.csv
  godseed run --slot B --resume
  godseed run --no-save --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulation(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "save database path (default from config)")
	cmd.Flags().StringVar(&opts.Slot, "slot", "", "save slot A, B or C (default from config)")
	cmd.Flags().IntVar(&opts.Frames, "frames", 0, "frames to simulate (default from config)")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 0, "random seed (default from config)")
	cmd.Flags().StringVar(&opts.Telemetry, "telemetry", "", "telemetry CSV path (default from config)")
	cmd.Flags().BoolVar(&opts.Resume, "resume", false, "continue from the save in the slot")
	cmd.Flags().BoolVar(&opts.NoSave, "no-save", false, "use an in-memory database")

	return cmd
}

func runSimulation(opts *RunOptions, cmd *cobra.Command) error {
	out := opts.formatter(cmd)
	logger := opts.logger(cmd.ErrOrStderr())

	cfg, err := opts.loadConfig()
	if err != nil {
		return out.Fail(ExitCommandError, CodeConfig, "failed to load config", err)
	}
	if err := opts.apply(cfg, cmd); err != nil {
		return out.Fail(ExitCommandError, CodeInvalidArgs, "invalid arguments", err)
	}

	st, err := store.Open(cfg.Database)
	if err != nil {
		return out.Fail(ExitCommandError, CodeDatabase, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()
	logger.Debug("database ready", "path", cfg.Database)

	tw, err := telemetry.Create(cfg.Simulate.Telemetry)
	if err != nil {
		return out.Fail(ExitCommandError, CodeInvalidArgs, "failed to create telemetry file", err)
	}
	defer func() {
		if closeErr := tw.Close(); closeErr != nil {
			logger.Error("error closing telemetry", "error", closeErr)
		}
	}()

	sim, err := newSimulation(cfg, st, tw, logger)
	if err != nil {
		return out.Fail(ExitCommandError, CodeCatalog, "failed to load audio catalog", err)
	}

	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	if opts.Resume {
		if err := sim.resume(ctx); err != nil {
			if errors.Is(err, store.ErrSlotNotFound) {
				return out.Fail(ExitFailure, CodeSlotEmpty, fmt.Sprintf("slot %s is empty", cfg.Slot), err)
			}
			return out.Fail(ExitFailure, CodeMalformed, "failed to resume save", err)
		}
	}

	result, err := sim.run(ctx)
	if err != nil {
		return out.Fail(ExitFailure, CodeDatabase, "simulation failed", err)
	}
	return out.Result(result, func(w io.Writer) { printRun(w, result) })
}

// apply lays explicitly set flags over cfg.
func (o *RunOptions) apply(cfg *config.Config, cmd *cobra.Command) error {
	flags := cmd.Flags()
	cfg.Database = cmp.Or(o.Database, cfg.Database)
	if o.NoSave {
		cfg.Database = ":memory:"
	}
	cfg.Slot = cmp.Or(o.Slot, cfg.Slot)
	if flags.Changed("frames") {
		cfg.Simulate.Frames = o.Frames
	}
	if flags.Changed("seed") {
		cfg.Simulate.Seed = o.Seed
	}
	cfg.Simulate.Telemetry = cmp.Or(o.Telemetry, cfg.Simulate.Telemetry)
	return cfg.Validate()
}

// simulation is one headless run and everything listening to it.
type simulation struct {
	cfg       *config.Config
	logger    *slog.Logger
	clock     *simClock
	engine    *engine.Engine
	audio     *audio.Router
	fx        *fx.Router
	collector *telemetry.Collector
	telemetry *telemetry.Writer
	player    *autoPlayer
}

func newSimulation(cfg *config.Config, st *store.Store, tw *telemetry.Writer, logger *slog.Logger) (*simulation, error) {
	catalog := audio.DefaultCatalog()
	if cfg.Content.Cues != "" {
		var errs []error
		catalog, errs = audio.LoadCatalog(cfg.Content.Cues)
		if len(errs) > 0 {
			return nil, errors.Join(errs...)
		}
	}

	clock := newSimClock()
	s := &simulation{
		cfg:       cfg,
		logger:    logger,
		clock:     clock,
		collector: telemetry.NewCollector(),
		telemetry: tw,
		player:    newAutoPlayer(cfg.Simulate.Seed, cfg.Simulate.ClicksPerSecond),
	}

	s.audio = audio.NewRouter(catalog, audio.LogPlayer{Logger: logger},
		audio.WithMetadata(loop.LoadMetadata(cfg.Content.LoopMeta, logger)),
		audio.WithEntropy(func() float64 { return s.engine.Entropy() }),
		audio.WithClock(clock),
		audio.WithSettings(audio.Settings{
			MasterVolume: cfg.Settings.MasterVolume,
			Muted:        cfg.Settings.Muted,
		}),
		audio.WithLogger(logger),
	)
	s.fx = fx.NewRouter(
		fx.WithClock(clock),
		fx.WithReduceMotion(cfg.Settings.ReduceMotion),
		fx.WithLogger(logger),
	)

	bus := event.NewBus()
	bus.Subscribe(s.audio)
	bus.Subscribe(s.collector)

	s.engine = engine.New(
		engine.WithSeed(cfg.Simulate.Seed),
		engine.WithClock(clock),
		engine.WithBinder(binder.New(bus, s.fx, binder.WithLogger(logger))),
		engine.WithPersister(store.NewSlotSaver(st)),
		engine.WithLogger(logger),
		engine.WithContent(story.Load(cfg.Content.Story, cfg.Content.Corruption, logger)),
		engine.WithSlot(cfg.SaveSlot()),
		engine.WithFrameInterval(cfg.Simulate.FrameInterval()),
	)
	s.engine.SetSurfaceSize(surfaceWidth, surfaceHeight)
	return s, nil
}

// resume loads the slot's save and moves the clock past its last
// interaction so timers keep running forward.
func (s *simulation) resume(ctx context.Context) error {
	if err := s.engine.Load(ctx, s.cfg.SaveSlot()); err != nil {
		return err
	}
	s.clock.catchUp(s.engine.Snapshot().LastInteraction)
	s.logger.Info("resumed save", "slot", s.cfg.Slot, "entropy", s.engine.Entropy())
	return nil
}

func (s *simulation) run(ctx context.Context) (RunResult, error) {
	frame := s.cfg.Simulate.FrameInterval()
	start := s.clock.Now()
	result := RunResult{Slot: s.cfg.SaveSlot()}

	s.logger.Info("simulation starting",
		"slot", s.cfg.Slot, "frames", s.cfg.Simulate.Frames, "seed", s.cfg.Simulate.Seed)

	for result.Frames < s.cfg.Simulate.Frames {
		if ctx.Err() != nil {
			result.Interrupted = true
			break
		}
		now := s.clock.advance(frame)
		s.player.act(s.engine, frame, now)
		s.engine.Step(now)
		s.fx.Sweep(now)
		result.Frames++

		over := s.engine.RunOver()
		if result.Frames%s.cfg.Simulate.SampleEvery == 0 || over {
			if err := s.sample(result.Frames, now.Sub(start)); err != nil {
				return result, err
			}
		}
		if over {
			s.logger.Info("run ended", "frame", result.Frames)
			break
		}
	}

	if err := s.engine.Flush(context.WithoutCancel(ctx)); err != nil {
		return result, fmt.Errorf("saving: %w", err)
	}

	state := s.engine.Snapshot()
	result.SimulatedMs = s.clock.Now().Sub(start).Milliseconds()
	result.Clicks = s.player.clicks
	result.Entropy = state.Entropy
	result.Tier = domain.TierOf(state.Entropy)
	result.Season = state.Season
	result.SeasonCount = state.SeasonCount
	result.Seeds = len(state.PersistentSeeds)
	result.Gods = len(state.PersistentGods)
	result.Stats = state.Stats
	result.Ending = state.Ending
	result.ActiveLoops = s.audio.ActiveLoops()
	result.Effects = s.fx.Active()
	result.TelemetryRows = s.telemetry.Rows()

	s.logger.Info("simulation stopped", "frames", result.Frames, "entropy", result.Entropy)
	return result, nil
}

func (s *simulation) sample(frame int, elapsed time.Duration) error {
	smp := telemetry.FromState(frame, elapsed, s.engine.Snapshot())
	s.collector.Drain(&smp)
	return s.telemetry.Write(smp)
}

func printRun(w io.Writer, r RunResult) {
	fmt.Fprintf(w, "Simulated %d frames (%.1fs) in slot %s", r.Frames, float64(r.SimulatedMs)/1000, r.Slot)
	if r.Interrupted {
		fmt.Fprint(w, " (interrupted)")
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  entropy   %.1f (%s)\n", r.Entropy, r.Tier)
	fmt.Fprintf(w, "  season    %s (%d cycles)\n", r.Season, r.SeasonCount)
	fmt.Fprintf(w, "  garden    %d seeds, %d gods, %d clicks\n", r.Seeds, r.Gods, r.Clicks)
	fmt.Fprintf(w, "  stats     awakened %d, harvested %d, starved %d, omens %d\n",
		r.Stats.Awakened, r.Stats.Harvested, r.Stats.Starved, r.Stats.OmenCount)
	if r.Ending != nil {
		fmt.Fprintf(w, "  ending    %s (score %.0f)\n", r.Ending.Type, r.Ending.Score)
	}
	if len(r.ActiveLoops) > 0 {
		fmt.Fprintf(w, "  loops     %v\n", r.ActiveLoops)
	}
	if len(r.Effects) > 0 {
		fmt.Fprintf(w, "  effects   %v\n", r.Effects)
	}
	if r.TelemetryRows > 0 {
		fmt.Fprintf(w, "  telemetry %d rows\n", r.TelemetryRows)
	}
}
