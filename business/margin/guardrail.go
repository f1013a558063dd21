package margin

import "adMarginLab/domain"

// Candidate pairs an arm id with its derived KPIs for selection.
type Candidate struct {
	ArmID   string
	Metrics domain.ArmMetrics
}

const ReasonAllFailedGuardrail = "all-failed-guardrail"

// Select filters challengers by the sRPM guardrail against control and picks
// the most profitable survivor; when every challenger fails the guardrail the
// status quo wins and the verdict says so. Ties break on higher sRPM, then
// lowest arm id, keeping the selection reproducible for identical inputs.
// The verdict never claims more than guardrail-only confidence: this stage
// has no variance information.
func Select(controlID string, control domain.ArmMetrics, challengers []Candidate, guardrailRatio float64) domain.Verdict {
	var survivors []Candidate
	for _, c := range challengers {
		if SRPMRatio(c.Metrics, control.RevenuePer1K) < guardrailRatio {
			continue
		}
		survivors = append(survivors, c)
	}

	if len(survivors) == 0 {
		return domain.Verdict{
			Status: domain.VerdictNoWinner,
			ArmID:  controlID,
			Basis:  domain.BasisGuardrailOnly,
			Reason: ReasonAllFailedGuardrail,
		}
	}

	best := survivors[0]
	for _, c := range survivors[1:] {
		if better(c, best) {
			best = c
		}
	}

	return domain.Verdict{
		Status: domain.VerdictRecommend,
		ArmID:  best.ArmID,
		Basis:  domain.BasisGuardrailOnly,
	}
}

// SurvivorIDs returns the challenger arms that pass the guardrail, in input
// order. The significance stage only ever compares these against control.
func SurvivorIDs(control domain.ArmMetrics, challengers []Candidate, guardrailRatio float64) []string {
	var ids []string
	for _, c := range challengers {
		if SRPMRatio(c.Metrics, control.RevenuePer1K) >= guardrailRatio {
			ids = append(ids, c.ArmID)
		}
	}
	return ids
}

func better(a, b Candidate) bool {
	if a.Metrics.Profit != b.Metrics.Profit {
		return a.Metrics.Profit > b.Metrics.Profit
	}
	if a.Metrics.SRPM != b.Metrics.SRPM {
		return a.Metrics.SRPM > b.Metrics.SRPM
	}
	return a.ArmID < b.ArmID
}
