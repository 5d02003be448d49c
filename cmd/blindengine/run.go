package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/AaronLay10/BlindEngine/internal/api"
	"github.com/AaronLay10/BlindEngine/internal/backend"
	"github.com/AaronLay10/BlindEngine/internal/config"
	"github.com/AaronLay10/BlindEngine/internal/events"
	"github.com/AaronLay10/BlindEngine/internal/metrics"
	"github.com/AaronLay10/BlindEngine/internal/mqtt"
	"github.com/AaronLay10/BlindEngine/internal/orchestrator"
	"github.com/AaronLay10/BlindEngine/internal/pattern"
	"github.com/AaronLay10/BlindEngine/internal/simulator"
	"github.com/AaronLay10/BlindEngine/internal/storage/postgres"
	"github.com/AaronLay10/BlindEngine/internal/types"
)

func newRunCmd() *cobra.Command {
	var (
		configPath  string
		patternPath string
		serve       bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one verification session against the simulated executor",
		Long: `Run one computation round hidden among trap test rounds and print the verdict.

Example:
  $ blindengine run --config engine.yaml --serve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if configPath != "" {
				var err error
				if cfg, err = config.LoadEngineConfig(configPath); err != nil {
					return err
				}
			}
			if patternPath != "" {
				cfg.Session.Pattern = patternPath
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runSession(ctx, cmd.OutOrStdout(), cfg, serve)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to engine.yaml")
	cmd.Flags().StringVar(&patternPath, "pattern", "", "pattern JSON file, overrides session.pattern")
	cmd.Flags().BoolVar(&serve, "serve", false, "keep the API server running after the session")
	return cmd
}

func runSession(ctx context.Context, out io.Writer, cfg *config.EngineConfig, serve bool) error {
	if cfg.PatternPath() == "" {
		return fmt.Errorf("no pattern: set session.pattern or --pattern")
	}
	p, err := pattern.Load(cfg.PatternPath())
	if err != nil {
		return err
	}
	inputs, err := cfg.InputStates()
	if err != nil {
		return err
	}
	factory, err := backendFactory(cfg.Noise, cfg.Session.Seed)
	if err != nil {
		return err
	}
	creds, err := cfg.ResolveCredentials()
	if err != nil {
		return err
	}

	api.SetEngineName(cfg.EngineID())
	api.InitAlerts(cfg.Alerts.WebhookURL)
	reg := prometheus.DefaultRegisterer
	api.InitMetrics(reg)
	opts := []orchestrator.SessionOption{orchestrator.WithMetrics(metrics.Default())}

	if cfg.Postgres.Enabled {
		pg, err := postgres.New(postgres.Options{
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			User:     cfg.Postgres.User,
			Database: cfg.Postgres.Database,
			Password: creds.PostgresPassword,
			SSLMode:  cfg.Postgres.SSLMode,
			EngineID: cfg.EngineID(),
		})
		if err != nil {
			api.SetPostgresState(false, true)
			events.Emit("error", "system.error", "postgres unavailable", map[string]interface{}{"error": err.Error()})
		} else {
			defer pg.Close()
			events.SetPostgresClient(pg)
			api.SetPostgresState(true, true)
			api.SetLedger(pg)
			opts = append(opts, orchestrator.WithReporter(pg))
		}
	}

	if cfg.MQTT.Enabled {
		topics := mqtt.Topics{Prefix: cfg.MQTT.TopicPrefix}
		mc := mqtt.NewClient(mqtt.Options{
			URL:      cfg.MQTT.URL,
			ClientID: cfg.MQTT.ClientID,
			Username: cfg.MQTT.Username,
			Password: creds.MQTTPassword,
			Topics:   topics,
		})
		connected := mc.Start()
		api.SetMQTTState(connected, true)
		if connected {
			defer mc.Disconnect()
			events.AddSink(mqtt.NewEventSink(mc, topics))
			defer events.ClearSinks()
			opts = append(opts, orchestrator.WithReporter(mqtt.NewReportPublisher(mc, topics)))

			monitor := mqtt.NewMonitor(0)
			if err := monitor.Listen(mc, topics); err != nil {
				events.Logger().Warn().Err(err).Msg("executor heartbeats unavailable")
			} else {
				monitor.Start(5 * time.Second)
				defer monitor.Stop()
				defer func() {
					events.Logger().Info().Strs("executors", monitor.Capable(p.Nodes())).Msg("executors able to host the pattern")
				}()
			}
		}
	}

	if serve {
		if err := api.InitAuth(); err != nil {
			return err
		}
		if err := api.InitTLS(); err != nil {
			return err
		}
		api.Start(cfg.APIPort())
		stopMonitor := make(chan struct{})
		defer close(stopMonitor)
		api.StartAlertMonitor(10*time.Second, stopMonitor)
	}

	session, err := orchestrator.NewSession(p, orchestrator.SessionConfig{
		TestRounds:  cfg.Session.TestRounds,
		Parallelism: cfg.Session.Parallelism,
		Threshold:   cfg.Session.Threshold,
		Flags:       cfg.Secrets.Flags(),
		InputStates: inputs,
		Seed:        cfg.Session.Seed,
	}, factory, opts...)
	if err != nil {
		return err
	}
	api.SetEngineReady(true)

	report, err := session.Run(ctx)
	if err != nil {
		return err
	}
	printReport(out, report, cfg.Session.Threshold)
	api.AlertSessionVerdict(report, cfg.Session.Threshold)

	if serve {
		events.Logger().Info().Int("port", cfg.APIPort()).Msg("session finished, serving until interrupted")
		<-ctx.Done()
		events.Emit("info", "system.shutdown", "", nil)
		events.CloseAllSubscribers()
	}
	return nil
}

// backendFactory builds a simulated executor per round with the configured
// noise model. Seeded sessions get reproducible measurement outcomes.
func backendFactory(nc config.NoiseConfig, seed uint64) (orchestrator.BackendFactory, error) {
	var noise func(round int) simulator.Noise
	switch nc.Model {
	case "", "none":
		noise = func(int) simulator.Noise { return simulator.NoNoise{} }
	case "flip_readout":
		noise = func(int) simulator.Noise { return simulator.FlipReadout{Node: nc.Node} }
	case "depolarizing":
		noise = func(round int) simulator.Noise {
			return simulator.NewDepolarizing(nc.Probability, seed+uint64(round)+1)
		}
	default:
		return nil, fmt.Errorf("unknown noise model %q", nc.Model)
	}
	return func(round int) (backend.Backend, error) {
		opts := []simulator.Option{simulator.WithNoise(noise(round))}
		if seed != 0 {
			opts = append(opts, simulator.WithSeed(seed^uint64(round+1)<<32))
		}
		return simulator.New(opts...), nil
	}, nil
}

func printReport(w io.Writer, r *orchestrator.Report, threshold int) {
	fmt.Fprintf(w, "session %s\n", r.SessionID)
	for _, rec := range r.Rounds {
		switch rec.Kind {
		case types.RoundComputation:
			fmt.Fprintf(w, "  round %3d  computation\n", rec.Index)
		default:
			status := "ok"
			if rec.Failed {
				status = "FAILED"
			}
			fmt.Fprintf(w, "  round %3d  test  colour=%d traps=%d %s\n", rec.Index, rec.Color, rec.Traps, status)
		}
	}
	if r.Computation != nil {
		nodes := make([]int, 0, len(r.Computation.Classical))
		for n := range r.Computation.Classical {
			nodes = append(nodes, n)
		}
		sort.Ints(nodes)
		fmt.Fprint(w, "  outcomes:")
		for _, n := range nodes {
			bit := 0
			if r.Computation.Classical[n] {
				bit = 1
			}
			fmt.Fprintf(w, " %d=%d", n, bit)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "failed rounds: %d (threshold %d)\nverdict: %s\n", r.FailedRounds, threshold, r.Verdict)
}
