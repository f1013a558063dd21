package margin

import (
	"fmt"

	"adMarginLab/domain"
)

// Decide produces one recommendation for an endpoint. The guardrail stage
// always runs; when bucketed data exists the sequential test runs on top of
// it and its terminal verdicts override the guardrail pick. While the test
// is still accumulating the guardrail verdict stands, explicitly marked
// guardrail-only so callers can act more conservatively on it.
//
// Arms below the volume floor are excluded before selection and reported in
// the returned warnings; low volume is an expected steady state, not an
// error.
func Decide(
	cfg Config,
	snap domain.EndpointSnapshot,
	prior *domain.SignificanceState,
) (domain.Verdict, *domain.SignificanceState, []string, error) {

	if snap.Control.ArmID == "" {
		return domain.Verdict{}, prior, nil,
			&ConfigError{EndpointID: snap.EndpointID, Detail: "no control arm in snapshot"}
	}

	var warnings []string

	control := Derive(snap.Control)
	if belowFloor(cfg, snap.Control) {
		warnings = append(warnings, floorWarning(snap.Control))
		return domain.Verdict{
			Status: domain.VerdictInsufficientData,
			Reason: "control below volume floor",
		}, prior, warnings, nil
	}

	var challengers []Candidate
	for _, obs := range snap.Challengers {
		if belowFloor(cfg, obs) {
			warnings = append(warnings, floorWarning(obs))
			continue
		}
		challengers = append(challengers, Candidate{ArmID: obs.ArmID, Metrics: Derive(obs)})
	}

	guardrailVerdict := Select(snap.Control.ArmID, control, challengers, cfg.GuardrailRatio)

	if snap.Granularity == domain.GranularityAggregate {
		return guardrailVerdict, prior, warnings, nil
	}

	survivors := SurvivorIDs(control, challengers, cfg.GuardrailRatio)
	sigVerdict, sigState := EvaluateSignificance(cfg, snap, prior, survivors)
	if sigVerdict.Status == domain.VerdictRecommend {
		return sigVerdict, sigState, warnings, nil
	}

	return guardrailVerdict, sigState, warnings, nil
}

func belowFloor(cfg Config, o domain.ArmObservation) bool {
	return o.Impressions < cfg.MinImpressions || o.Revenue-o.Cost < cfg.MinProfit
}

func floorWarning(o domain.ArmObservation) string {
	return fmt.Sprintf("arm %q below volume floor: impressions=%d profit=%.4f",
		o.ArmID, o.Impressions, o.Revenue-o.Cost)
}
