package domain

import "time"

// SignificancePhase is the state of the sequential test for one endpoint.
type SignificancePhase string

const (
	PhaseAccumulating  SignificancePhase = "accumulating"
	PhaseSignificant   SignificancePhase = "significant"
	PhaseStoppedNoDiff SignificancePhase = "stopped_no_difference"
)

// SignificanceState is the persisted state machine of the sequential test.
// Looks counts how many alpha-spending looks have been consumed; BucketsSeen
// is the control bucket count at the last look, so reprocessing the same
// window does not consume another look.
type SignificanceState struct {
	Phase       SignificancePhase `json:"phase"`
	Looks       int               `json:"looks"`
	BucketsSeen int               `json:"buckets_seen"`
	WinnerArmID string            `json:"winner_arm_id,omitempty"`
}

// DecisionRecord is one entry in an endpoint's decision history.
type DecisionRecord struct {
	Timestamp time.Time       `json:"timestamp"`
	ArmID     string          `json:"arm_id"`
	Margin    float64         `json:"margin"`
	Action    string          `json:"action"`
	Basis     ConfidenceBasis `json:"basis,omitempty"`
	Reason    string          `json:"reason,omitempty"`
}

// EndpointState is the mutable per-endpoint slice of OptimizerState.
type EndpointState struct {
	CurrentMargin    float64            `json:"current_margin"`
	ActiveArmID      string             `json:"active_arm_id,omitempty"`
	Step             float64            `json:"step"`
	LastChange       time.Time          `json:"last_change,omitempty"`
	CooldownUntil    time.Time          `json:"cooldown_until,omitempty"`
	LastSnapshotHash string             `json:"last_snapshot_hash,omitempty"`
	Significance     *SignificanceState `json:"significance,omitempty"`
	History          []DecisionRecord   `json:"history,omitempty"`
}

// OptimizerState is the single persisted mutable entity, owned by the
// optimizer loop and overwritten once per cycle.
type OptimizerState struct {
	Endpoints map[string]*EndpointState `json:"endpoints"`
	UpdatedAt time.Time                 `json:"updated_at"`
}

func NewOptimizerState() *OptimizerState {
	return &OptimizerState{Endpoints: make(map[string]*EndpointState)}
}

// SnapshotSummary is the compact snapshot description stored in run logs.
type SnapshotSummary struct {
	Arms        int     `json:"arms"`
	Buckets     int     `json:"buckets"`
	Impressions int64   `json:"impressions"`
	Profit      float64 `json:"profit"`
}

const (
	ActionChanged = "changed"
	ActionHeld    = "held"
	ActionNoData  = "no-data"
	ActionError   = "error"
)

// EndpointRun is the per-endpoint section of a run log.
type EndpointRun struct {
	EndpointID    string          `json:"endpoint_id"`
	Snapshot      SnapshotSummary `json:"snapshot"`
	Verdict       Verdict         `json:"verdict"`
	Action        string          `json:"action"`
	CurrentMargin float64         `json:"current_margin"`
	NextMargin    float64         `json:"next_margin"`
	Reason        string          `json:"reason,omitempty"`
	DataWarnings  []string        `json:"data_warnings,omitempty"`
}

// RunLog is the immutable record of one optimizer cycle.
type RunLog struct {
	RunID      string        `json:"run_id"`
	Timestamp  time.Time     `json:"timestamp"`
	Endpoints  []EndpointRun `json:"endpoints"`
	StateSaved bool          `json:"state_saved"`
}
