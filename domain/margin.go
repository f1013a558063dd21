package domain

import "time"

// Granularity describes how fine-grained the observations for an endpoint are.
type Granularity string

const (
	GranularityAggregate Granularity = "aggregate"
	GranularityBucketed  Granularity = "bucketed"
	GranularityEvent     Granularity = "event"
)

// ArmObservation is one row of raw counters for a margin arm on an endpoint.
// A zero BucketStart marks a fully aggregated row; otherwise the row covers
// one time bucket.
type ArmObservation struct {
	EndpointID  string    `json:"endpoint_id"`
	ArmID       string    `json:"arm_id"`
	IsControl   bool      `json:"is_control"`
	Margin      float64   `json:"margin"` // percent this arm runs at
	Impressions int64     `json:"impressions"`
	Responses   int64     `json:"responses"`
	Revenue     float64   `json:"revenue"`
	Cost        float64   `json:"cost"`
	BucketStart time.Time `json:"bucket_start,omitempty"`
}

// ArmMetrics holds the KPIs derived from one ArmObservation (or an
// aggregate of several buckets). SRPM is revenue per 1k impressions, the
// supply-side performance metric the guardrail compares against control.
type ArmMetrics struct {
	Profit       float64 `json:"profit"`
	ProfitPer1K  float64 `json:"profit_per_1k"`
	RevenuePer1K float64 `json:"revenue_per_1k"`
	CostPer1K    float64 `json:"cost_per_1k"`
	FillRate     float64 `json:"fill_rate"`
	SRPM         float64 `json:"srpm"`
}

// EndpointSnapshot is the per-endpoint input to one decision cycle.
// Control and Challengers are aggregates over the whole window; Buckets
// carries the per-bucket rows (keyed by arm id, ordered by bucket start)
// when granularity allows significance testing.
type EndpointSnapshot struct {
	EndpointID  string                      `json:"endpoint_id"`
	Granularity Granularity                 `json:"granularity"`
	Control     ArmObservation              `json:"control"`
	Challengers []ArmObservation            `json:"challengers"`
	Buckets     map[string][]ArmObservation `json:"buckets,omitempty"`
}

type VerdictStatus string

const (
	VerdictInsufficientData VerdictStatus = "insufficient_data"
	VerdictNoWinner         VerdictStatus = "no_winner"
	VerdictRecommend        VerdictStatus = "recommend"
)

type ConfidenceBasis string

const (
	BasisGuardrailOnly ConfidenceBasis = "guardrail-only"
	BasisStatistical   ConfidenceBasis = "statistical"
)

// Verdict is the outcome of one decision for one endpoint.
type Verdict struct {
	Status VerdictStatus   `json:"status"`
	ArmID  string          `json:"arm_id,omitempty"`
	Basis  ConfidenceBasis `json:"basis,omitempty"`
	Reason string          `json:"reason,omitempty"`
}
