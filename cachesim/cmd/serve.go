package cmd

import (
	"os"
	"os/signal"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/sarchlab/cachesim/activity"
	"github.com/sarchlab/cachesim/mem/trace"
	"github.com/sarchlab/cachesim/monitoring"
	"github.com/sarchlab/cachesim/simulation"
	"github.com/sarchlab/cachesim/workload"
)

var (
	servePort   int
	serveOpen   bool
	servePreset string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the simulator over HTTP until interrupted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		if cmd.Flags().Changed("port") {
			c.Monitor.Port = servePort
		}

		if cmd.Flags().Changed("open") {
			c.Monitor.OpenBrowser = serveOpen
		}

		sim := simulation.MakeBuilder().
			WithConfig(c.Hierarchy()).
			WithLogger(logger).
			Build()
		sim.AcceptHook(trace.NewLogTracer(logger))

		if servePreset != "" {
			e, err := workload.Preset(servePreset)
			if err != nil {
				return err
			}

			sim.LoadTrace(e.Trace)
		}

		monitor := monitoring.NewMonitor(sim).
			WithLogger(logger).
			WithPortNumber(c.Monitor.Port)

		if c.Activity.Path != "" {
			store, err := activity.Open(c.Activity.Path)
			if err != nil {
				return err
			}
			defer store.Close()

			monitor.WithActivityStore(store)
		}

		url, err := monitor.StartServer()
		if err != nil {
			return err
		}

		cmd.Printf("Monitoring simulation with %s\n", url)

		if c.Monitor.OpenBrowser {
			if err := browser.OpenURL(url); err != nil {
				logger.Warn("failed to open browser", "error", err)
			}
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		<-ctx.Done()
		sim.Pause()

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0,
		"port of the monitor, 0 picks a free one")
	serveCmd.Flags().BoolVar(&serveOpen, "open", false,
		"open the monitor in a browser")
	serveCmd.Flags().StringVarP(&servePreset, "preset", "p", "",
		"load a built-in example on start")

	rootCmd.AddCommand(serveCmd)
}
