package margin

import (
	"time"

	"adMarginLab/domain"
)

// Derive turns raw counters into normalized KPIs. Total: with zero
// impressions every per-1k metric and the fill rate are 0, never NaN, so
// downstream comparisons stay well defined.
func Derive(o domain.ArmObservation) domain.ArmMetrics {
	profit := o.Revenue - o.Cost

	if o.Impressions <= 0 {
		return domain.ArmMetrics{Profit: profit}
	}

	impr := float64(o.Impressions)
	revPer1K := o.Revenue / impr * 1000.0

	m := domain.ArmMetrics{
		Profit:       profit,
		ProfitPer1K:  profit / impr * 1000.0,
		RevenuePer1K: revPer1K,
		CostPer1K:    o.Cost / impr * 1000.0,
		SRPM:         revPer1K,
	}
	if o.Impressions > 0 {
		m.FillRate = float64(o.Responses) / impr
	}
	return m
}

// SRPMRatio is the arm's sRPM relative to the reference rate (typically the
// control arm's revenue per 1k). A non-positive reference means the guardrail
// has nothing to protect, so every arm passes.
func SRPMRatio(m domain.ArmMetrics, refRevPer1K float64) float64 {
	if refRevPer1K <= 0 {
		return 1.0
	}
	return m.SRPM / refRevPer1K
}

// Aggregate sums bucketed rows for one arm into a single observation. The
// identity fields are taken from the first row.
func Aggregate(rows []domain.ArmObservation) domain.ArmObservation {
	if len(rows) == 0 {
		return domain.ArmObservation{}
	}
	agg := rows[0]
	agg.BucketStart = time.Time{}
	agg.Impressions = 0
	agg.Responses = 0
	agg.Revenue = 0
	agg.Cost = 0
	for _, r := range rows {
		agg.Impressions += r.Impressions
		agg.Responses += r.Responses
		agg.Revenue += r.Revenue
		agg.Cost += r.Cost
	}
	return agg
}
