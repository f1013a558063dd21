package margin

import (
	"math"
	"testing"
	"time"

	"adMarginLab/domain"
)

func hour(n int) time.Time {
	return time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC).Add(time.Duration(n) * time.Hour)
}

func TestDerive_Basic(t *testing.T) {
	m := Derive(domain.ArmObservation{
		Impressions: 100_000,
		Responses:   150_000,
		Revenue:     500,
		Cost:        50,
	})

	if m.Profit != 450 {
		t.Fatalf("profit = %v, want 450", m.Profit)
	}
	if m.RevenuePer1K != 5.0 {
		t.Fatalf("revenue per 1k = %v, want 5.0", m.RevenuePer1K)
	}
	if m.SRPM != m.RevenuePer1K {
		t.Fatalf("srpm = %v, want same as revenue per 1k %v", m.SRPM, m.RevenuePer1K)
	}
	if m.CostPer1K != 0.5 {
		t.Fatalf("cost per 1k = %v, want 0.5", m.CostPer1K)
	}
	if m.ProfitPer1K != 4.5 {
		t.Fatalf("profit per 1k = %v, want 4.5", m.ProfitPer1K)
	}
	if m.FillRate != 1.5 {
		t.Fatalf("fill rate = %v, want 1.5", m.FillRate)
	}
}

func TestDerive_ZeroImpressionsIsTotal(t *testing.T) {
	cases := []domain.ArmObservation{
		{},
		{Revenue: 12.5, Cost: 3.5},
		{Responses: 900, Revenue: 1, Cost: 2},
	}

	for _, o := range cases {
		m := Derive(o)
		if m.Profit != o.Revenue-o.Cost {
			t.Fatalf("profit = %v, want %v", m.Profit, o.Revenue-o.Cost)
		}
		for name, v := range map[string]float64{
			"profit_per_1k":  m.ProfitPer1K,
			"revenue_per_1k": m.RevenuePer1K,
			"cost_per_1k":    m.CostPer1K,
			"fill_rate":      m.FillRate,
			"srpm":           m.SRPM,
		} {
			if v != 0 {
				t.Fatalf("%s = %v with zero impressions, want 0", name, v)
			}
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Fatalf("%s = %v, must be finite", name, v)
			}
		}
	}
}

func TestSRPMRatio_NonPositiveReferencePasses(t *testing.T) {
	m := domain.ArmMetrics{SRPM: 3.2}
	if r := SRPMRatio(m, 0); r != 1.0 {
		t.Fatalf("ratio with zero reference = %v, want 1.0", r)
	}
	if r := SRPMRatio(m, -1); r != 1.0 {
		t.Fatalf("ratio with negative reference = %v, want 1.0", r)
	}
	if r := SRPMRatio(m, 4.0); r != 0.8 {
		t.Fatalf("ratio = %v, want 0.8", r)
	}
}

func TestAggregate_SumsCountersAndDropsBucket(t *testing.T) {
	rows := []domain.ArmObservation{
		{EndpointID: "ep", ArmID: "a", Impressions: 1000, Responses: 1200, Revenue: 5, Cost: 2, BucketStart: hour(0)},
		{EndpointID: "ep", ArmID: "a", Impressions: 2000, Responses: 2500, Revenue: 9, Cost: 3, BucketStart: hour(1)},
	}

	agg := Aggregate(rows)
	if agg.Impressions != 3000 || agg.Responses != 3700 {
		t.Fatalf("counters = %d/%d, want 3000/3700", agg.Impressions, agg.Responses)
	}
	if agg.Revenue != 14 || agg.Cost != 5 {
		t.Fatalf("revenue/cost = %v/%v, want 14/5", agg.Revenue, agg.Cost)
	}
	if !agg.BucketStart.IsZero() {
		t.Fatalf("aggregate kept bucket start %v, want zero", agg.BucketStart)
	}
	if agg.EndpointID != "ep" || agg.ArmID != "a" {
		t.Fatalf("identity fields lost: %+v", agg)
	}
}
