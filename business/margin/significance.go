package margin

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"sort"

	"adMarginLab/domain"
)

const ReasonNoSignificantDifference = "no-significant-difference"

// EvaluateSignificance runs at most one look of the sequential test against
// the accumulated buckets. The test resamples whole buckets (not raw events)
// with replacement to estimate the profit-delta distribution per surviving
// challenger, and spends alpha evenly across the allowed looks so hourly
// peeking cannot inflate the false-positive rate past the configured level.
//
// Verdict semantics: SIGNIFICANT and STOPPED_NO_DIFFERENCE are terminal and
// sticky; anything else is insufficient_data while the test keeps
// accumulating. A look is only consumed when the window actually grew and
// clears the minimum bucket floor, so reprocessing the same hour is a no-op.
func EvaluateSignificance(
	cfg Config,
	snap domain.EndpointSnapshot,
	prior *domain.SignificanceState,
	survivors []string,
) (domain.Verdict, *domain.SignificanceState) {

	state := &domain.SignificanceState{Phase: domain.PhaseAccumulating}
	if prior != nil {
		cp := *prior
		state = &cp
	}

	switch state.Phase {
	case domain.PhaseSignificant:
		return domain.Verdict{
			Status: domain.VerdictRecommend,
			ArmID:  state.WinnerArmID,
			Basis:  domain.BasisStatistical,
		}, state
	case domain.PhaseStoppedNoDiff:
		return domain.Verdict{
			Status: domain.VerdictRecommend,
			ArmID:  snap.Control.ArmID,
			Basis:  domain.BasisStatistical,
			Reason: ReasonNoSignificantDifference,
		}, state
	}

	insufficient := domain.Verdict{Status: domain.VerdictInsufficientData}

	if snap.Granularity == domain.GranularityAggregate || len(snap.Buckets) == 0 {
		return insufficient, state
	}

	controlBuckets := snap.Buckets[snap.Control.ArmID]
	n := len(controlBuckets)

	// No new bucket since the last look: do not spend alpha again.
	if n <= state.BucketsSeen {
		return insufficient, state
	}
	state.BucketsSeen = n

	if n < cfg.MinBuckets {
		return insufficient, state
	}

	state.Looks++
	alphaLook := cfg.Alpha / float64(cfg.MaxLooks)

	var (
		winner     string
		winnerMean float64
	)

	for _, armID := range survivors {
		buckets := snap.Buckets[armID]
		if len(buckets) == 0 {
			continue
		}

		agg := Aggregate(buckets)
		if agg.Impressions < cfg.MinImpressions || agg.Revenue-agg.Cost < cfg.MinProfit {
			continue
		}

		pairs := n
		if len(buckets) < pairs {
			pairs = len(buckets)
		}
		if pairs < cfg.MinBuckets {
			continue
		}

		deltas := make([]float64, pairs)
		var mean float64
		for i := 0; i < pairs; i++ {
			d := (buckets[i].Revenue - buckets[i].Cost) -
				(controlBuckets[i].Revenue - controlBuckets[i].Cost)
			deltas[i] = d
			mean += d
		}
		mean /= float64(pairs)

		lower, _ := bootstrapCI(deltas, cfg.BootstrapIters, alphaLook, lookSeed(snap.EndpointID, armID, state.Looks))
		if lower > 0 && state.Looks >= cfg.MinLooks {
			if winner == "" || mean > winnerMean {
				winner = armID
				winnerMean = mean
			}
		}
	}

	if winner != "" {
		state.Phase = domain.PhaseSignificant
		state.WinnerArmID = winner
		return domain.Verdict{
			Status: domain.VerdictRecommend,
			ArmID:  winner,
			Basis:  domain.BasisStatistical,
		}, state
	}

	if state.Looks >= cfg.MaxLooks {
		state.Phase = domain.PhaseStoppedNoDiff
		return domain.Verdict{
			Status: domain.VerdictRecommend,
			ArmID:  snap.Control.ArmID,
			Basis:  domain.BasisStatistical,
			Reason: ReasonNoSignificantDifference,
		}, state
	}

	return insufficient, state
}

// bootstrapCI estimates a two-sided (1-alpha) confidence interval for the
// mean of deltas by resampling with replacement. The seed is derived from
// the endpoint, arm and look number so the same look over the same data
// always produces the same interval.
func bootstrapCI(deltas []float64, iters int, alpha float64, seed int64) (lower, upper float64) {
	rng := rand.New(rand.NewSource(seed))
	n := len(deltas)
	means := make([]float64, iters)
	for b := 0; b < iters; b++ {
		var sum float64
		for i := 0; i < n; i++ {
			sum += deltas[rng.Intn(n)]
		}
		means[b] = sum / float64(n)
	}
	sort.Float64s(means)
	return quantile(means, alpha/2), quantile(means, 1-alpha/2)
}

func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(q * float64(len(sorted)-1))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func lookSeed(endpointID, armID string, look int) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(fmt.Sprintf("%s|%s|%d", endpointID, armID, look)))
	return int64(h.Sum64())
}
