package margin

import (
	"fmt"
	"math/rand"
	"testing"

	"adMarginLab/domain"
)

func sigTestConfig() Config {
	cfg := DefaultConfig()
	cfg.MinImpressions = 0
	cfg.MinProfit = -1e9
	cfg.MinBuckets = 6
	cfg.MinLooks = 2
	cfg.BootstrapIters = 300
	return cfg
}

// sigSnapshot builds a bucketed two-arm snapshot from per-hour revenues,
// with zero cost so bucket profit equals revenue.
func sigSnapshot(endpointID string, controlRev, challRev []float64) domain.EndpointSnapshot {
	mkBuckets := func(armID string, isControl bool, revs []float64) []domain.ArmObservation {
		out := make([]domain.ArmObservation, len(revs))
		for i, r := range revs {
			out[i] = domain.ArmObservation{
				EndpointID:  endpointID,
				ArmID:       armID,
				IsControl:   isControl,
				Impressions: 10_000,
				Responses:   12_000,
				Revenue:     r,
				BucketStart: hour(i),
			}
		}
		return out
	}

	cb := mkBuckets("control", true, controlRev)
	xb := mkBuckets("x", false, challRev)

	return domain.EndpointSnapshot{
		EndpointID:  endpointID,
		Granularity: domain.GranularityBucketed,
		Control:     Aggregate(cb),
		Challengers: []domain.ArmObservation{Aggregate(xb)},
		Buckets: map[string][]domain.ArmObservation{
			"control": cb,
			"x":       xb,
		},
	}
}

func constSeries(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestEvaluateSignificance_DetectsClearEffect(t *testing.T) {
	cfg := sigTestConfig()
	var state *domain.SignificanceState
	var verdict domain.Verdict

	// Challenger earns a flat +5 per bucket; the second look (minimum) must
	// already call it.
	for n := 6; n <= 8; n++ {
		snap := sigSnapshot("ep", constSeries(n, 100), constSeries(n, 105))
		verdict, state = EvaluateSignificance(cfg, snap, state, []string{"x"})
		if state.Phase == domain.PhaseSignificant {
			break
		}
	}

	if state.Phase != domain.PhaseSignificant {
		t.Fatalf("phase = %s, want %s", state.Phase, domain.PhaseSignificant)
	}
	if verdict.Status != domain.VerdictRecommend || verdict.ArmID != "x" {
		t.Fatalf("verdict = %+v, want recommend x", verdict)
	}
	if verdict.Basis != domain.BasisStatistical {
		t.Fatalf("basis = %s, want %s", verdict.Basis, domain.BasisStatistical)
	}
	if state.Looks < cfg.MinLooks {
		t.Fatalf("looks = %d, winner declared before min looks %d", state.Looks, cfg.MinLooks)
	}
}

func TestEvaluateSignificance_SignificantIsSticky(t *testing.T) {
	cfg := sigTestConfig()
	var state *domain.SignificanceState

	for n := 6; n <= 8; n++ {
		snap := sigSnapshot("ep", constSeries(n, 100), constSeries(n, 105))
		_, state = EvaluateSignificance(cfg, snap, state, []string{"x"})
	}
	if state.Phase != domain.PhaseSignificant {
		t.Fatalf("setup: phase = %s, want significant", state.Phase)
	}
	looks := state.Looks

	// Even a later window where the effect vanished keeps the verdict.
	snap := sigSnapshot("ep", constSeries(20, 100), constSeries(20, 100))
	verdict, state := EvaluateSignificance(cfg, snap, state, []string{"x"})

	if verdict.Status != domain.VerdictRecommend || verdict.ArmID != "x" {
		t.Fatalf("sticky verdict = %+v, want recommend x", verdict)
	}
	if state.Looks != looks {
		t.Fatalf("looks moved from %d to %d after terminal phase", looks, state.Looks)
	}
}

func TestEvaluateSignificance_StopsAtMaxLooks(t *testing.T) {
	cfg := sigTestConfig()
	cfg.MaxLooks = 3

	var state *domain.SignificanceState
	var verdict domain.Verdict
	for n := 6; n <= 8; n++ {
		snap := sigSnapshot("ep", constSeries(n, 100), constSeries(n, 100))
		verdict, state = EvaluateSignificance(cfg, snap, state, []string{"x"})
	}

	if state.Phase != domain.PhaseStoppedNoDiff {
		t.Fatalf("phase = %s, want %s", state.Phase, domain.PhaseStoppedNoDiff)
	}
	if verdict.Status != domain.VerdictRecommend || verdict.ArmID != "control" {
		t.Fatalf("verdict = %+v, want recommend control", verdict)
	}
	if verdict.Reason != ReasonNoSignificantDifference {
		t.Fatalf("reason = %q, want %q", verdict.Reason, ReasonNoSignificantDifference)
	}

	// Terminal and sticky.
	snap := sigSnapshot("ep", constSeries(9, 100), constSeries(9, 100))
	verdict, state = EvaluateSignificance(cfg, snap, state, []string{"x"})
	if state.Phase != domain.PhaseStoppedNoDiff || verdict.ArmID != "control" {
		t.Fatalf("stopped phase not sticky: %+v / %+v", state, verdict)
	}
}

func TestEvaluateSignificance_SameWindowSpendsNoLook(t *testing.T) {
	cfg := sigTestConfig()
	snap := sigSnapshot("ep", constSeries(6, 100), constSeries(6, 100))

	_, state := EvaluateSignificance(cfg, snap, nil, []string{"x"})
	if state.Looks != 1 {
		t.Fatalf("looks = %d after first window, want 1", state.Looks)
	}

	verdict, state := EvaluateSignificance(cfg, snap, state, []string{"x"})
	if state.Looks != 1 {
		t.Fatalf("looks = %d after reprocessing same window, want 1", state.Looks)
	}
	if verdict.Status != domain.VerdictInsufficientData {
		t.Fatalf("verdict = %+v, want insufficient_data", verdict)
	}
}

func TestEvaluateSignificance_AggregateAndShortWindows(t *testing.T) {
	cfg := sigTestConfig()

	agg := domain.EndpointSnapshot{
		EndpointID:  "ep",
		Granularity: domain.GranularityAggregate,
		Control:     domain.ArmObservation{ArmID: "control", IsControl: true, Impressions: 100_000, Revenue: 500},
	}
	verdict, state := EvaluateSignificance(cfg, agg, nil, []string{"x"})
	if verdict.Status != domain.VerdictInsufficientData || state.Looks != 0 {
		t.Fatalf("aggregate snapshot: verdict = %+v looks = %d, want insufficient and 0", verdict, state.Looks)
	}

	short := sigSnapshot("ep", constSeries(3, 100), constSeries(3, 105))
	verdict, state = EvaluateSignificance(cfg, short, nil, []string{"x"})
	if verdict.Status != domain.VerdictInsufficientData || state.Looks != 0 {
		t.Fatalf("short window: verdict = %+v looks = %d, want insufficient and 0", verdict, state.Looks)
	}
	if state.BucketsSeen != 3 {
		t.Fatalf("buckets seen = %d, want 3", state.BucketsSeen)
	}
}

// With no true difference, the sequential test must flag a winner at no more
// than the configured alpha rate, hourly peeking included.
func TestEvaluateSignificance_FalsePositiveRateUnderNull(t *testing.T) {
	cfg := sigTestConfig()
	cfg.MinBuckets = 12
	cfg.MinLooks = 3

	const trials = 150
	falsePositives := 0

	for trial := 0; trial < trials; trial++ {
		rng := rand.New(rand.NewSource(int64(1000 + trial)))
		controlRev := make([]float64, 0, 24)
		challRev := make([]float64, 0, 24)

		var state *domain.SignificanceState
		endpoint := fmt.Sprintf("ep-%d", trial)

		for n := 0; n < 24; n++ {
			controlRev = append(controlRev, 100+rng.NormFloat64())
			challRev = append(challRev, 100+rng.NormFloat64())
			if len(controlRev) < cfg.MinBuckets {
				continue
			}
			snap := sigSnapshot(endpoint, controlRev, challRev)
			_, state = EvaluateSignificance(cfg, snap, state, []string{"x"})
			if state.Phase == domain.PhaseSignificant {
				falsePositives++
				break
			}
		}
	}

	limit := int(cfg.Alpha * float64(trials))
	if falsePositives > limit {
		t.Fatalf("false positives = %d of %d trials, want <= %d", falsePositives, trials, limit)
	}
}
