package margin

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"

	"adMarginLab/domain"
)

// BuildSnapshots groups raw observations into one snapshot per endpoint.
// Malformed rows are dropped and reported per endpoint instead of aborting
// the cycle. Challengers and buckets are ordered deterministically.
func BuildSnapshots(rows []domain.ArmObservation) ([]domain.EndpointSnapshot, map[string][]string) {
	warnings := make(map[string][]string)
	byEndpoint := make(map[string]map[string][]domain.ArmObservation)

	for _, r := range rows {
		if err := validateObservation(r); err != nil {
			if r.EndpointID != "" {
				warnings[r.EndpointID] = append(warnings[r.EndpointID], err.Error())
			}
			continue
		}
		arms, ok := byEndpoint[r.EndpointID]
		if !ok {
			arms = make(map[string][]domain.ArmObservation)
			byEndpoint[r.EndpointID] = arms
		}
		arms[r.ArmID] = append(arms[r.ArmID], r)
	}

	endpointIDs := make([]string, 0, len(byEndpoint))
	for id := range byEndpoint {
		endpointIDs = append(endpointIDs, id)
	}
	sort.Strings(endpointIDs)

	snaps := make([]domain.EndpointSnapshot, 0, len(endpointIDs))
	for _, endpointID := range endpointIDs {
		arms := byEndpoint[endpointID]

		snap := domain.EndpointSnapshot{
			EndpointID:  endpointID,
			Granularity: domain.GranularityAggregate,
		}

		armIDs := make([]string, 0, len(arms))
		for id := range arms {
			armIDs = append(armIDs, id)
		}
		sort.Strings(armIDs)

		buckets := make(map[string][]domain.ArmObservation)
		for _, armID := range armIDs {
			obs := arms[armID]
			sort.Slice(obs, func(i, j int) bool {
				return obs[i].BucketStart.Before(obs[j].BucketStart)
			})

			agg := obs[0]
			bucketed := len(obs) > 1 || !obs[0].BucketStart.IsZero()
			if bucketed {
				agg = Aggregate(obs)
				buckets[armID] = obs
				snap.Granularity = domain.GranularityBucketed
			}

			if agg.IsControl {
				snap.Control = agg
			} else {
				snap.Challengers = append(snap.Challengers, agg)
			}
		}
		if len(buckets) > 0 {
			snap.Buckets = buckets
		}

		snaps = append(snaps, snap)
	}

	return snaps, warnings
}

func validateObservation(o domain.ArmObservation) error {
	switch {
	case o.EndpointID == "":
		return &DataError{ArmID: o.ArmID, Field: "endpoint_id", Detail: "empty"}
	case o.ArmID == "":
		return &DataError{ArmID: o.ArmID, Field: "arm_id", Detail: "empty"}
	case o.Impressions < 0:
		return &DataError{ArmID: o.ArmID, Field: "impressions", Detail: "negative"}
	case o.Responses < 0:
		return &DataError{ArmID: o.ArmID, Field: "responses", Detail: "negative"}
	case o.Revenue < 0:
		return &DataError{ArmID: o.ArmID, Field: "revenue", Detail: "negative"}
	case o.Cost < 0:
		return &DataError{ArmID: o.ArmID, Field: "cost", Detail: "negative"}
	}
	return nil
}

// SnapshotHash fingerprints a snapshot so a cycle re-run over identical data
// can be recognized and skipped without mutating state.
func SnapshotHash(snap domain.EndpointSnapshot) string {
	raw, err := json.Marshal(snap)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// Summarize condenses a snapshot for the run log.
func Summarize(snap domain.EndpointSnapshot) domain.SnapshotSummary {
	s := domain.SnapshotSummary{Arms: 1 + len(snap.Challengers)}
	if snap.Control.ArmID == "" {
		s.Arms = len(snap.Challengers)
	}
	s.Impressions = snap.Control.Impressions
	s.Profit = snap.Control.Revenue - snap.Control.Cost
	for _, c := range snap.Challengers {
		s.Impressions += c.Impressions
		s.Profit += c.Revenue - c.Cost
	}
	for _, b := range snap.Buckets {
		if len(b) > s.Buckets {
			s.Buckets = len(b)
		}
	}
	return s
}
