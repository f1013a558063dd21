package optimizer

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"adMarginLab/business/margin"
	"adMarginLab/domain"
	"adMarginLab/pkg/logger"
	"adMarginLab/pkg/metrics"

	"github.com/google/uuid"
)

const (
	StateKey  = "optimizer_state.json"
	RunPrefix = "runs/"

	maxHistoryPerEndpoint = 100
)

// BlobStore is the persistence collaborator: a key-value blob interface.
// Get reports absence via the bool, not an error, since a missing state key
// is the normal first-run signal.
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, data []byte) error
	List(ctx context.Context, prefix string) ([]string, error)
}

// ObservationSource supplies the raw per-arm rows for one cycle, already
// materialized; fetching strategy (DB, API, mock) lives behind it.
type ObservationSource interface {
	Fetch(ctx context.Context) ([]domain.ArmObservation, error)
}

// Service orchestrates one decision cycle across all endpoints and layers
// cooldown and step-cap safety rules over the raw verdicts.
type Service struct {
	store    BlobStore
	source   ObservationSource
	cfgRepo  margin.ConfigRepository
	defaults margin.Config

	now      func() time.Time
	newRunID func() string
}

func NewService(
	store BlobStore,
	source ObservationSource,
	cfgRepo margin.ConfigRepository,
	defaults margin.Config,
) *Service {
	return &Service{
		store:    store,
		source:   source,
		cfgRepo:  cfgRepo,
		defaults: defaults,
		now:      time.Now,
		newRunID: uuid.NewString,
	}
}

// RunCycle executes one full cycle: load state, snapshot the data source,
// decide per endpoint, persist state, append a run log. Per-endpoint
// failures are isolated; a state-write failure withholds the state change
// but still records the decision in the run log.
func (s *Service) RunCycle(ctx context.Context) (*domain.RunLog, error) {
	started := s.now()

	state, err := s.loadState(ctx)
	if err != nil {
		return nil, fmt.Errorf("load optimizer state: %w", err)
	}

	rows, err := s.source.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch observations: %w", err)
	}

	snaps, dataWarnings := margin.BuildSnapshots(rows)

	run := &domain.RunLog{
		RunID:      s.newRunID(),
		Timestamp:  started.UTC(),
		StateSaved: true,
	}

	dirty := false
	for _, snap := range snaps {
		er, mutated := s.processEndpoint(ctx, state, snap, dataWarnings[snap.EndpointID])
		run.Endpoints = append(run.Endpoints, er)
		if mutated {
			dirty = true
		}

		metrics.DecisionsTotal.WithLabelValues(er.EndpointID, er.Action, string(er.Verdict.Basis)).Inc()
		metrics.CurrentMargin.WithLabelValues(er.EndpointID).Set(er.NextMargin)
	}

	if dirty {
		state.UpdatedAt = started.UTC()
		if err := s.saveState(ctx, state); err != nil {
			// Do not pretend the change is durable; next cycle re-derives it
			// from the same inputs.
			logger.Error("optimizer state write failed", "error", err)
			run.StateSaved = false
		}
	}

	if err := s.writeRunLog(ctx, run); err != nil {
		logger.Warn("run log write failed", "run_id", run.RunID, "error", err)
	}

	metrics.CyclesTotal.Inc()
	metrics.CycleDuration.Observe(s.now().Sub(started).Seconds())

	logger.Info("optimizer cycle complete",
		"run_id", run.RunID,
		"endpoints", len(run.Endpoints),
		"state_saved", run.StateSaved,
		"duration", s.now().Sub(started).String(),
	)

	return run, nil
}

func (s *Service) processEndpoint(
	ctx context.Context,
	state *domain.OptimizerState,
	snap domain.EndpointSnapshot,
	dataWarnings []string,
) (domain.EndpointRun, bool) {

	er := domain.EndpointRun{
		EndpointID:   snap.EndpointID,
		Snapshot:     margin.Summarize(snap),
		DataWarnings: dataWarnings,
	}

	cfg := margin.ResolveConfig(ctx, s.cfgRepo, s.defaults, snap.EndpointID)
	if err := cfg.Validate(snap.EndpointID); err != nil {
		er.Action = domain.ActionError
		er.Reason = err.Error()
		logger.Error("endpoint config invalid", "endpoint", snap.EndpointID, "error", err)
		return er, false
	}

	es, created := s.ensureEndpoint(state, snap.EndpointID, cfg)
	er.CurrentMargin = es.CurrentMargin
	er.NextMargin = es.CurrentMargin

	verdict, sigState, warns, err := margin.Decide(cfg, snap, es.Significance)
	er.DataWarnings = append(er.DataWarnings, warns...)
	if err != nil {
		er.Action = domain.ActionError
		er.Reason = err.Error()
		logger.Error("endpoint decision failed", "endpoint", snap.EndpointID, "error", err)
		return er, created
	}
	er.Verdict = verdict

	hash := margin.SnapshotHash(snap)
	if es.LastSnapshotHash == hash {
		// Same window reprocessed: decision is reproduced for the log but
		// state stays exactly as it is.
		er.Action = domain.ActionHeld
		er.Reason = "no-new-data"
		return er, created
	}

	es.LastSnapshotHash = hash
	es.Significance = sigState

	now := s.now()
	action, reason := s.applyVerdict(es, cfg, snap, verdict, now)
	er.Action = action
	er.Reason = reason
	er.NextMargin = es.CurrentMargin

	es.History = append(es.History, domain.DecisionRecord{
		Timestamp: now.UTC(),
		ArmID:     verdict.ArmID,
		Margin:    es.CurrentMargin,
		Action:    action,
		Basis:     verdict.Basis,
		Reason:    reason,
	})
	if len(es.History) > maxHistoryPerEndpoint {
		es.History = es.History[len(es.History)-maxHistoryPerEndpoint:]
	}

	return er, true
}

// applyVerdict layers the loop's safety rules over the raw verdict and
// mutates the endpoint state accordingly.
func (s *Service) applyVerdict(
	es *domain.EndpointState,
	cfg margin.Config,
	snap domain.EndpointSnapshot,
	verdict domain.Verdict,
	now time.Time,
) (action, reason string) {

	switch verdict.Status {
	case domain.VerdictInsufficientData:
		return domain.ActionNoData, verdict.Reason

	case domain.VerdictNoWinner:
		// Status quo holds; shrink the exploration step like a failed
		// hill-climb probe.
		es.Step = halveStep(es.Step, cfg.MinStep)
		return domain.ActionHeld, verdict.Reason

	case domain.VerdictRecommend:
		target, ok := armMargin(snap, verdict.ArmID)
		if !ok {
			return domain.ActionHeld, "recommended arm missing from snapshot"
		}

		if now.Before(es.CooldownUntil) {
			return domain.ActionHeld, "cooldown"
		}

		delta := target - es.CurrentMargin
		if delta == 0 {
			es.ActiveArmID = verdict.ArmID
			return domain.ActionHeld, "already at recommended margin"
		}

		if delta > cfg.MaxStepPoints {
			delta = cfg.MaxStepPoints
		} else if delta < -cfg.MaxStepPoints {
			delta = -cfg.MaxStepPoints
		}

		es.CurrentMargin += delta
		es.ActiveArmID = verdict.ArmID
		es.LastChange = now.UTC()
		es.CooldownUntil = now.Add(cfg.Cooldown).UTC()
		es.Step = cfg.InitialStep
		return domain.ActionChanged, ""
	}

	return domain.ActionHeld, "unknown verdict"
}

func (s *Service) ensureEndpoint(state *domain.OptimizerState, endpointID string, cfg margin.Config) (*domain.EndpointState, bool) {
	if es, ok := state.Endpoints[endpointID]; ok {
		return es, false
	}
	es := &domain.EndpointState{
		CurrentMargin: cfg.BaselineMargin,
		Step:          cfg.InitialStep,
	}
	state.Endpoints[endpointID] = es
	return es, true
}

func armMargin(snap domain.EndpointSnapshot, armID string) (float64, bool) {
	if snap.Control.ArmID == armID {
		return snap.Control.Margin, true
	}
	for _, c := range snap.Challengers {
		if c.ArmID == armID {
			return c.Margin, true
		}
	}
	return 0, false
}

func halveStep(step, minStep float64) float64 {
	half := step / 2
	if half < minStep {
		return minStep
	}
	return half
}

// State loads the persisted optimizer state; a fresh empty state is
// returned when none exists yet.
func (s *Service) State(ctx context.Context) (*domain.OptimizerState, error) {
	return s.loadState(ctx)
}

// Runs returns up to limit of the most recent run logs, newest first.
func (s *Service) Runs(ctx context.Context, limit int) ([]domain.RunLog, error) {
	keys, err := s.store.List(ctx, RunPrefix)
	if err != nil {
		return nil, fmt.Errorf("list run logs: %w", err)
	}
	// Keys embed an RFC3339 timestamp, so lexical order is chronological.
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	if limit > 0 && len(keys) > limit {
		keys = keys[:limit]
	}

	logs := make([]domain.RunLog, 0, len(keys))
	for _, key := range keys {
		raw, ok, err := s.store.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("read run log %s: %w", key, err)
		}
		if !ok {
			continue
		}
		var rl domain.RunLog
		if err := json.Unmarshal(raw, &rl); err != nil {
			logger.Warn("skipping unreadable run log", "key", key, "error", err)
			continue
		}
		logs = append(logs, rl)
	}
	return logs, nil
}

// DryRun computes the verdict for one endpoint from current data without
// touching persisted state.
func (s *Service) DryRun(ctx context.Context, endpointID string) (domain.Verdict, error) {
	state, err := s.loadState(ctx)
	if err != nil {
		return domain.Verdict{}, fmt.Errorf("load optimizer state: %w", err)
	}

	rows, err := s.source.Fetch(ctx)
	if err != nil {
		return domain.Verdict{}, fmt.Errorf("fetch observations: %w", err)
	}

	snaps, _ := margin.BuildSnapshots(rows)
	for _, snap := range snaps {
		if snap.EndpointID != endpointID {
			continue
		}
		cfg := margin.ResolveConfig(ctx, s.cfgRepo, s.defaults, endpointID)
		if err := cfg.Validate(endpointID); err != nil {
			return domain.Verdict{}, err
		}
		var prior *domain.SignificanceState
		if es, ok := state.Endpoints[endpointID]; ok {
			prior = es.Significance
		}
		verdict, _, _, err := margin.Decide(cfg, snap, prior)
		return verdict, err
	}

	return domain.Verdict{}, fmt.Errorf("no observations for endpoint %q", endpointID)
}

func (s *Service) loadState(ctx context.Context) (*domain.OptimizerState, error) {
	raw, ok, err := s.store.Get(ctx, StateKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return domain.NewOptimizerState(), nil
	}
	var state domain.OptimizerState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("unmarshal state: %w", err)
	}
	if state.Endpoints == nil {
		state.Endpoints = make(map[string]*domain.EndpointState)
	}
	return &state, nil
}

func (s *Service) saveState(ctx context.Context, state *domain.OptimizerState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	return s.store.Put(ctx, StateKey, raw)
}

func (s *Service) writeRunLog(ctx context.Context, run *domain.RunLog) error {
	raw, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshal run log: %w", err)
	}
	key := fmt.Sprintf("%s%s.json", RunPrefix, run.Timestamp.UTC().Format("2006-01-02T15-04-05Z"))
	return s.store.Put(ctx, key, raw)
}
