package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/sarchlab/cachesim/config"
	"github.com/sarchlab/cachesim/datarecording"
	"github.com/sarchlab/cachesim/mem/trace"
	"github.com/sarchlab/cachesim/sim/hooking"
	"github.com/sarchlab/cachesim/sim/timing"
	"github.com/sarchlab/cachesim/simulation"
	"github.com/sarchlab/cachesim/workload"
)

type runOptions struct {
	tracePath string
	preset    string
	interval  time.Duration
	record    string
}

var runOpts runOptions

var runCmd = &cobra.Command{
	Use:   "run [trace-file]",
	Short: "Run a trace to the end and print a summary",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		opts := runOpts
		if len(args) == 1 {
			opts.tracePath = args[0]
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		return runSimulation(ctx, c, opts, logger, cmd.OutOrStdout())
	},
}

func init() {
	runCmd.Flags().StringVarP(&runOpts.preset, "preset", "p", "",
		"run a built-in example instead of a trace file")
	runCmd.Flags().DurationVar(&runOpts.interval, "interval", 0,
		"step once per interval instead of running at full speed")
	runCmd.Flags().StringVar(&runOpts.record, "record", "",
		"record every step into <name>.sqlite3")

	rootCmd.AddCommand(runCmd)
}

// loadWorkload returns the trace text and the L1 configuration the workload
// asks for, if any.
func loadWorkload(opts runOptions) (string, *workload.Example, error) {
	switch {
	case opts.tracePath != "" && opts.preset != "":
		return "", nil, errors.New("give either a trace file or a preset")
	case opts.preset != "":
		e, err := workload.Preset(opts.preset)
		if err != nil {
			return "", nil, err
		}

		return e.Trace, &e, nil
	case opts.tracePath != "":
		b, err := os.ReadFile(opts.tracePath)
		if err != nil {
			return "", nil, err
		}

		return string(b), nil, nil
	default:
		return "", nil, errors.New("no trace file or preset given")
	}
}

func runSimulation(
	ctx context.Context,
	c *config.Config,
	opts runOptions,
	logger *slog.Logger,
	out io.Writer,
) error {
	text, example, err := loadWorkload(opts)
	if err != nil {
		return err
	}

	hc := c.Hierarchy()
	if example != nil && example.Config != nil {
		hc.L1 = *example.Config
		hc.L2 = nil
	}

	var scheduler timing.Scheduler = timing.NewManualScheduler()
	if opts.interval > 0 {
		scheduler = timing.NewWallClockScheduler()
	}

	sim := simulation.MakeBuilder().
		WithConfig(hc).
		WithScheduler(scheduler).
		WithLogger(logger).
		Build()

	counter := trace.NewStepCounter()
	sim.AcceptHook(counter)
	sim.AcceptHook(trace.NewLogTracer(logger))

	recordPath := opts.record
	if recordPath == "" {
		recordPath = c.Record.Path
	}

	var runRecorder *datarecording.RunRecorder

	if recordPath != "" {
		recorder := datarecording.New(recordPath)
		defer func() {
			recorder.Flush()
			if err := recorder.Close(); err != nil {
				logger.Warn("failed to close recording", "error", err)
			}
		}()

		runRecorder = datarecording.NewRunRecorder(recorder)
		sim.AcceptHook(trace.NewDBTracer(recorder, runRecorder.RunID()))
	}

	for _, e := range sim.LoadTrace(text) {
		fmt.Fprintf(out, "skipping %v\n", e)
	}

	if runRecorder != nil {
		runRecorder.Start(runProperties(opts, hc))
		defer runRecorder.End()
	}

	if opts.interval > 0 {
		if err := play(ctx, sim, opts.interval); err != nil {
			return err
		}
	} else {
		sim.RunAll()
	}

	printSummary(out, sim, counter)

	return nil
}

func runProperties(opts runOptions, hc simulation.Config) map[string]string {
	l2 := hc.L2Config()

	return map[string]string{
		"trace":          opts.tracePath,
		"preset":         opts.preset,
		"seed":           strconv.FormatInt(hc.Seed, 10),
		"l1_size":        strconv.FormatUint(hc.L1.SizeBytes, 10),
		"l1_block_size":  strconv.FormatUint(hc.L1.BlockSizeBytes, 10),
		"l1_ways":        strconv.FormatUint(hc.L1.Associativity, 10),
		"l1_replacement": string(hc.L1.Policy),
		"l2_size":        strconv.FormatUint(l2.SizeBytes, 10),
		"l2_ways":        strconv.FormatUint(l2.Associativity, 10),
	}
}

// play runs the simulator in real time until it finishes or ctx ends.
func play(
	ctx context.Context,
	sim *simulation.Simulator,
	interval time.Duration,
) error {
	done := make(chan struct{})

	var once sync.Once

	sim.AcceptHook(&hooking.HookFunc{F: func(hc hooking.HookCtx) {
		if hc.Pos == simulation.HookPosStatus &&
			hc.Item.(simulation.Status) == simulation.Finished {
			once.Do(func() { close(done) })
		}
	}})

	if !sim.Play(interval) {
		return nil
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		sim.Pause()
		return ctx.Err()
	}
}

func printSummary(
	out io.Writer,
	sim *simulation.Simulator,
	counter *trace.StepCounter,
) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	fmt.Fprintf(w, "steps\t%d\n\n", sim.StepIndex())

	fmt.Fprintln(w, "level\taccesses\thits\tmisses\thit rate\t"+
		"compulsory\tcapacity\tconflict\twritebacks")

	for i, s := range sim.Stats() {
		fmt.Fprintf(w, "L%d\t%d\t%d\t%d\t%.2f%%\t%d\t%d\t%d\t%d\n",
			i+1, s.Accesses, s.Hits, s.Misses, s.HitRate()*100,
			s.CompulsoryMisses, s.CapacityMisses, s.ConflictMisses,
			s.Writebacks)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "served by\tsteps")

	for _, name := range counter.Names() {
		fmt.Fprintf(w, "%s\t%d\n", name, counter.Count(name))
	}

	fmt.Fprintf(w, "\nenergy\t%.2f pJ\n", counter.TotalEnergy())

	_ = w.Flush()
}
