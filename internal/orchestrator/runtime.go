package orchestrator

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	errorsmod "cosmossdk.io/errors"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/AaronLay10/BlindEngine/internal/backend"
	"github.com/AaronLay10/BlindEngine/internal/canvas"
	"github.com/AaronLay10/BlindEngine/internal/events"
	"github.com/AaronLay10/BlindEngine/internal/graph"
	"github.com/AaronLay10/BlindEngine/internal/metrics"
	"github.com/AaronLay10/BlindEngine/internal/pattern"
	"github.com/AaronLay10/BlindEngine/internal/quantum"
	"github.com/AaronLay10/BlindEngine/internal/rng"
	"github.com/AaronLay10/BlindEngine/internal/secrets"
	"github.com/AaronLay10/BlindEngine/internal/types"
)

// BackendFactory returns a fresh executor for one round.
type BackendFactory func(round int) (backend.Backend, error)

// SessionConfig controls one verification session.
type SessionConfig struct {
	TestRounds  int
	Parallelism int
	// Threshold is the number of failed test rounds still accepted.
	Threshold   int
	Flags       secrets.Flags
	InputStates []quantum.BasicState
	Colorer     graph.Colorer
	// Seed makes the session reproducible; zero uses OS randomness.
	Seed uint64
}

// Session runs one computation round hidden among test rounds.
type Session struct {
	id         string
	pattern    *pattern.Pattern
	cfg        SessionConfig
	coloring   graph.Coloring
	colors     []int
	newBackend BackendFactory
	reporters  []RoundReporter
	metrics    *metrics.SessionMetrics
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithSessionID overrides the generated session id.
func WithSessionID(id string) SessionOption {
	return func(s *Session) { s.id = id }
}

// WithReporter adds a sink for finished rounds.
func WithReporter(r RoundReporter) SessionOption {
	return func(s *Session) { s.reporters = append(s.reporters, r) }
}

// WithMetrics records rounds and verdicts on m.
func WithMetrics(m *metrics.SessionMetrics) SessionOption {
	return func(s *Session) { s.metrics = m }
}

// NewSession validates cfg and colours the pattern's graph.
func NewSession(p *pattern.Pattern, cfg SessionConfig, factory BackendFactory, opts ...SessionOption) (*Session, error) {
	if factory == nil {
		return nil, errorsmod.Wrap(types.ErrInvalidSession, "no backend factory")
	}
	if cfg.TestRounds < 0 || cfg.Threshold < 0 {
		return nil, errorsmod.Wrapf(types.ErrInvalidSession, "test_rounds=%d threshold=%d", cfg.TestRounds, cfg.Threshold)
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = 1
	}
	if cfg.Colorer == nil {
		cfg.Colorer = graph.GreedyLargestFirst{}
	}
	if (cfg.Flags.A || cfg.Flags.Theta) && !p.Measurements().OnlyPlane(quantum.PlaneXY) {
		return nil, errorsmod.Wrap(types.ErrUnsupportedPlane, "a and theta secrets need every measurement in the XY plane")
	}

	s := &Session{
		id:         uuid.NewString(),
		pattern:    p,
		cfg:        cfg,
		newBackend: factory,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.coloring = cfg.Colorer.Color(p.Graph())
	if err := s.coloring.Validate(p.Graph()); err != nil {
		return nil, err
	}
	seen := make(map[int]bool)
	for _, col := range s.coloring {
		if !seen[col] {
			seen[col] = true
			s.colors = append(s.colors, col)
		}
	}
	return s, nil
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Colors returns the number of colour classes, i.e. distinct canvases.
func (s *Session) Colors() int { return len(s.colors) }

// Report is the outcome of a session.
type Report struct {
	SessionID    string
	Rounds       []types.RoundRecord
	Computation  *Outcome
	FailedRounds int
	Verdict      types.Verdict
}

// Summary returns the ledger-style tally of r.
func (r *Report) Summary(threshold int) types.SessionSummary {
	return summarize(r.SessionID, r.Rounds, threshold)
}

type roundPlan struct {
	index int
	kind  types.RoundKind
	color int
	src   *rand.Rand
}

// Run executes every round and returns the report. Rounds run up to
// Parallelism at a time, each with its own client, canvas and backend.
func (s *Session) Run(ctx context.Context) (*Report, error) {
	plans := s.plan()

	events.Emit("info", "session.started", "", map[string]interface{}{
		"session_id":  s.id,
		"rounds":      len(plans),
		"test_rounds": s.cfg.TestRounds,
		"colors":      len(s.colors),
		"parallelism": s.cfg.Parallelism,
	})

	records := make([]types.RoundRecord, len(plans))
	var (
		mu      sync.Mutex
		outcome *Outcome
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Parallelism)
	for _, pl := range plans {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rec, out, err := s.runRound(pl)
			if err != nil {
				events.Emit("error", "round.failed", err.Error(), map[string]interface{}{
					"session_id": s.id,
					"round":      pl.index,
					"kind":       string(pl.kind),
				})
				return err
			}
			records[pl.index] = rec
			if out != nil {
				mu.Lock()
				outcome = out
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		events.Emit("error", "session.failed", err.Error(), map[string]interface{}{"session_id": s.id})
		return nil, err
	}

	report := &Report{SessionID: s.id, Rounds: records, Computation: outcome}
	for _, rec := range records {
		if rec.Failed {
			report.FailedRounds++
		}
	}
	report.Verdict = types.Decide(report.FailedRounds, s.cfg.Threshold)
	s.metrics.ObserveSession(report.Verdict)

	level := "info"
	if report.Verdict == types.VerdictReject {
		level = "warn"
	}
	events.Emit(level, "session.completed", "", map[string]interface{}{
		"session_id":    s.id,
		"failed_rounds": report.FailedRounds,
		"threshold":     s.cfg.Threshold,
		"verdict":       string(report.Verdict),
	})
	return report, nil
}

// plan places the computation round uniformly among the test rounds and
// draws a colour for each test round. Randomness is drawn here, on one
// goroutine, and handed to each round as its own generator.
func (s *Session) plan() []roundPlan {
	master := rng.NewSecure()
	if s.cfg.Seed != 0 {
		master = rng.NewSeeded(s.cfg.Seed)
	}
	total := s.cfg.TestRounds + 1
	compIdx := master.IntN(total)

	plans := make([]roundPlan, total)
	for i := range plans {
		pl := roundPlan{index: i, kind: types.RoundTest, color: -1}
		if i == compIdx {
			pl.kind = types.RoundComputation
		} else {
			pl.color = s.colors[master.IntN(len(s.colors))]
		}
		pl.src = rng.Derive(master)
		plans[i] = pl
	}
	return plans
}

func (s *Session) runRound(pl roundPlan) (types.RoundRecord, *Outcome, error) {
	if s.metrics != nil {
		s.metrics.RoundsActive.Inc()
		defer s.metrics.RoundsActive.Dec()
	}
	start := time.Now()
	events.Emit("debug", "round.started", "", map[string]interface{}{
		"session_id": s.id,
		"round":      pl.index,
	})

	b, err := s.newBackend(pl.index)
	if err != nil {
		return types.RoundRecord{}, nil, errorsmod.Wrapf(types.ErrBackend, "round %d: %v", pl.index, err)
	}
	client, err := NewClient(s.pattern,
		WithSecrets(s.cfg.Flags),
		WithSource(pl.src),
		WithInputStates(s.cfg.InputStates),
	)
	if err != nil {
		return types.RoundRecord{}, nil, err
	}

	rec := types.RoundRecord{
		SessionID: s.id,
		Index:     pl.index,
		Kind:      pl.kind,
		Color:     pl.color,
	}
	var outcome *Outcome
	switch pl.kind {
	case types.RoundComputation:
		outcome, err = client.DelegatePattern(b)
		if err != nil {
			return types.RoundRecord{}, nil, err
		}
	case types.RoundTest:
		cv, err := canvas.ForColor(s.pattern.Graph(), s.coloring, pl.color, pl.src)
		if err != nil {
			return types.RoundRecord{}, nil, err
		}
		events.Emit("debug", "canvas.built", "", map[string]interface{}{
			"session_id": s.id,
			"round":      pl.index,
			"color":      pl.color,
			"traps":      len(cv.Traps()),
		})
		parities, err := client.DelegateTestRun(cv, b)
		if err != nil {
			return types.RoundRecord{}, nil, err
		}
		rec.Traps = len(parities)
		rec.Parities = parities
		for i, p := range parities {
			if p == 0 {
				continue
			}
			rec.Failed = true
			events.Emit("warn", "trap.failed", "", map[string]interface{}{
				"session_id": s.id,
				"round":      pl.index,
				"trap":       i,
			})
		}
	}

	elapsed := time.Since(start)
	rec.DurationMS = elapsed.Milliseconds()
	rec.CompletedAt = time.Now().UTC()

	events.Emit("info", "round.completed", "", map[string]interface{}{
		"session_id":  s.id,
		"round":       rec.Index,
		"kind":        string(rec.Kind),
		"traps":       rec.Traps,
		"failed":      rec.Failed,
		"duration_ms": rec.DurationMS,
	})
	s.report(rec)
	s.metrics.ObserveRound(rec, elapsed)
	return rec, outcome, nil
}
