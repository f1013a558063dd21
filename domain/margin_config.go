package domain

// EndpointConfig is the externally supplied per-endpoint tuning surface.
// Stored in the endpoint_configs table; zero-valued fields fall back to the
// service defaults when the engine config is assembled.
type EndpointConfig struct {
	EndpointID string `json:"endpoint_id" gorm:"column:endpoint_id;primaryKey"`

	GuardrailRatio float64 `json:"guardrail_ratio" gorm:"column:guardrail_ratio"`

	// minimum volume floors per arm
	MinImpressions int64   `json:"min_impressions" gorm:"column:min_impressions"`
	MinProfit      float64 `json:"min_profit" gorm:"column:min_profit"`

	// loop safety rules
	CooldownSeconds int64   `json:"cooldown_seconds" gorm:"column:cooldown_seconds"`
	MaxStepPoints   float64 `json:"max_step_points" gorm:"column:max_step_points"`
	BaselineMargin  float64 `json:"baseline_margin" gorm:"column:baseline_margin"`
	InitialStep     float64 `json:"initial_step" gorm:"column:initial_step"`
	MinStep         float64 `json:"min_step" gorm:"column:min_step"`

	// sequential test
	Alpha          float64 `json:"alpha" gorm:"column:alpha"`
	MinLooks       int     `json:"min_looks" gorm:"column:min_looks"`
	MaxLooks       int     `json:"max_looks" gorm:"column:max_looks"`
	MinBuckets     int     `json:"min_buckets" gorm:"column:min_buckets"`
	BootstrapIters int     `json:"bootstrap_iters" gorm:"column:bootstrap_iters"`
}
