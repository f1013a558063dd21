// Package mockdata is the default observation source when no database is
// configured. It generates plausible hourly arm data deterministically, so
// repeated fetches inside the same hour return identical rows and the
// optimizer's idempotence holds end to end.
package mockdata

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"
	"time"

	"adMarginLab/domain"
)

type arm struct {
	id        string
	isControl bool
	margin    float64
}

var defaultArms = []arm{
	{id: "low_margin", isControl: true, margin: 35},
	{id: "mid_margin", margin: 40},
	{id: "high_margin", margin: 45},
}

type Source struct {
	endpoints []string
	lookback  int // hours

	now func() time.Time
}

func NewSource(endpoints []string, lookbackHours int) *Source {
	if len(endpoints) == 0 {
		endpoints = []string{"endpoint-1"}
	}
	if lookbackHours <= 0 {
		lookbackHours = 24
	}
	return &Source{
		endpoints: endpoints,
		lookback:  lookbackHours,
		now:       time.Now,
	}
}

// Fetch returns one bucketed row per arm per trailing hour.
func (s *Source) Fetch(ctx context.Context) ([]domain.ArmObservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	end := s.now().UTC().Truncate(time.Hour)
	rows := make([]domain.ArmObservation, 0, len(s.endpoints)*len(defaultArms)*s.lookback)

	for _, endpoint := range s.endpoints {
		for _, a := range defaultArms {
			for h := s.lookback; h > 0; h-- {
				bucket := end.Add(-time.Duration(h) * time.Hour)
				rows = append(rows, s.bucketRow(endpoint, a, bucket))
			}
		}
	}

	return rows, nil
}

func (s *Source) bucketRow(endpoint string, a arm, bucket time.Time) domain.ArmObservation {
	rng := rand.New(rand.NewSource(rowSeed(endpoint, a.id, bucket)))
	noise := func() float64 { return 1 + (rng.Float64()-0.5)*0.06 }

	// Higher margin nudges supply performance down a little, mirroring the
	// tradeoff the optimizer exists to navigate.
	penalty := (a.margin - 35) / 100

	responses := 12000 * noise()
	impressions := 8000 * (1 - 0.4*penalty) * noise()
	revPer1K := 4.5 * (1 - 0.3*penalty) * noise()
	revenue := impressions / 1000 * revPer1K
	cost := revenue * (1 - a.margin/100)

	return domain.ArmObservation{
		EndpointID:  endpoint,
		ArmID:       a.id,
		IsControl:   a.isControl,
		Margin:      a.margin,
		Impressions: int64(impressions),
		Responses:   int64(responses),
		Revenue:     revenue,
		Cost:        cost,
		BucketStart: bucket,
	}
}

func rowSeed(endpoint, armID string, bucket time.Time) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(fmt.Sprintf("%s|%s|%d", endpoint, armID, bucket.Unix())))
	return int64(h.Sum64())
}
