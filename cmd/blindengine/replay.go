package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/AaronLay10/BlindEngine/internal/config"
	"github.com/AaronLay10/BlindEngine/internal/orchestrator"
	"github.com/AaronLay10/BlindEngine/internal/storage/postgres"
	"github.com/AaronLay10/BlindEngine/internal/types"
)

func newReplayCmd() *cobra.Command {
	var (
		configPath string
		sessionID  string
		threshold  int
		limit      int
	)
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Rebuild a past session's verdict from the rounds ledger",
		Long: `Load a session's rounds from PostgreSQL and recompute its tally.

Example:
  $ blindengine replay --session 1f0c... --threshold 1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if sessionID == "" {
				return fmt.Errorf("--session is required")
			}
			cfg := config.Default()
			if configPath != "" {
				var err error
				if cfg, err = config.LoadEngineConfig(configPath); err != nil {
					return err
				}
			}
			if !cmd.Flags().Changed("threshold") {
				threshold = cfg.Session.Threshold
			}
			password, err := config.ResolveSecret(config.EnvPostgresPassword)
			if err != nil {
				return err
			}
			pg, err := postgres.New(postgres.Options{
				Host:     cfg.Postgres.Host,
				Port:     cfg.Postgres.Port,
				User:     cfg.Postgres.User,
				Database: cfg.Postgres.Database,
				Password: password,
				SSLMode:  cfg.Postgres.SSLMode,
				EngineID: cfg.EngineID(),
			})
			if err != nil {
				return err
			}
			defer pg.Close()
			return replay(cmd.OutOrStdout(), pg, sessionID, threshold, limit)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to engine.yaml")
	cmd.Flags().StringVar(&sessionID, "session", "", "session id")
	cmd.Flags().IntVar(&threshold, "threshold", 0, "failed test rounds tolerated, defaults to session.threshold")
	cmd.Flags().IntVar(&limit, "limit", orchestrator.DefaultRestoreLimit, "maximum rounds to load")
	return cmd
}

func replay(w io.Writer, ledger orchestrator.RoundLedger, sessionID string, threshold, limit int) error {
	summary, rows, err := orchestrator.RestoreSession(ledger, sessionID, threshold, limit)
	if err != nil {
		return err
	}
	if summary == nil {
		return fmt.Errorf("session %s not found", sessionID)
	}
	orchestrator.EmitRestored(summary)
	for _, rec := range rows {
		fmt.Fprintln(w, formatRecord(rec))
	}
	fmt.Fprintf(w, "rounds: %d (test %d), failed: %d, threshold: %d\nverdict: %s\n",
		summary.Rounds, summary.TestRounds, summary.FailedRounds, summary.Threshold, summary.Verdict)
	return nil
}

func formatRecord(rec types.RoundRecord) string {
	if rec.Kind == types.RoundComputation {
		return fmt.Sprintf("round %3d  computation  %dms", rec.Index, rec.DurationMS)
	}
	status := "ok"
	if rec.Failed {
		status = "FAILED"
	}
	return fmt.Sprintf("round %3d  test  colour=%d parities=%v %s", rec.Index, rec.Color, rec.Parities, status)
}
