package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/AaronLay10/BlindEngine/internal/config"
	"github.com/AaronLay10/BlindEngine/internal/mqtt"
)

func newWatchCmd() *cobra.Command {
	var (
		configPath string
		sessionID  string
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow round reports published over MQTT",
		Long: `Subscribe to a session's round reports, or to every session when --session
is omitted, and print them as they arrive.

Example:
  $ MQTT_URL=tcp://broker:1883 blindengine watch --session 1f0c...`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if configPath != "" {
				var err error
				if cfg, err = config.LoadEngineConfig(configPath); err != nil {
					return err
				}
			}
			password, err := config.ResolveSecret(config.EnvMQTTPassword)
			if err != nil {
				return err
			}
			topics := mqtt.Topics{Prefix: cfg.MQTT.TopicPrefix}
			mc := mqtt.NewClient(mqtt.Options{
				URL:      cfg.MQTT.URL,
				ClientID: cfg.MQTT.ClientID + "-watch",
				Username: cfg.MQTT.Username,
				Password: password,
				Topics:   topics,
			})
			if err := mc.Connect(); err != nil {
				return err
			}
			defer mc.Disconnect()

			out := cmd.OutOrStdout()
			w := mqtt.NewReportWatcher(mc, topics)
			if err := w.Watch(sessionID, func(rep mqtt.RoundReport) {
				fmt.Fprintf(out, "%s  %s\n", rep.SessionID, formatReport(rep))
			}); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to engine.yaml")
	cmd.Flags().StringVar(&sessionID, "session", "", "session id, empty for all sessions")
	return cmd
}

// formatReport renders a broker report. The broker never learns which rounds
// were tests, so only the verdict and timing are shown.
func formatReport(rep mqtt.RoundReport) string {
	verdict := "ok"
	if rep.Failed {
		verdict = "FAILED"
	}
	return fmt.Sprintf("round %3d  %s  %dms", rep.Index, verdict, rep.DurationMS)
}
