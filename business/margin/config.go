package margin

import (
	"context"
	"time"

	"adMarginLab/domain"
)

// Config is the fully resolved engine configuration for one endpoint.
type Config struct {
	GuardrailRatio float64

	MinImpressions int64
	MinProfit      float64

	Cooldown       time.Duration
	MaxStepPoints  float64
	BaselineMargin float64
	InitialStep    float64
	MinStep        float64

	Alpha          float64
	MinLooks       int
	MaxLooks       int
	MinBuckets     int
	BootstrapIters int
}

const (
	defaultGuardrailRatio = 0.90
	defaultMinImpressions = 50_000
	defaultMinProfit      = 50.0
	defaultCooldown       = 24 * time.Hour
	defaultMaxStepPoints  = 5.0
	defaultBaselineMargin = 35.0
	defaultInitialStep    = 1.0
	defaultMinStep        = 0.25
	defaultAlpha          = 0.05
	defaultMinLooks       = 3
	defaultMaxLooks       = 168
	defaultMinBuckets     = 6
	defaultBootstrapIters = 400
)

func DefaultConfig() Config {
	return Config{
		GuardrailRatio: defaultGuardrailRatio,
		MinImpressions: defaultMinImpressions,
		MinProfit:      defaultMinProfit,
		Cooldown:       defaultCooldown,
		MaxStepPoints:  defaultMaxStepPoints,
		BaselineMargin: defaultBaselineMargin,
		InitialStep:    defaultInitialStep,
		MinStep:        defaultMinStep,
		Alpha:          defaultAlpha,
		MinLooks:       defaultMinLooks,
		MaxLooks:       defaultMaxLooks,
		MinBuckets:     defaultMinBuckets,
		BootstrapIters: defaultBootstrapIters,
	}
}

// ConfigRepository reads per-endpoint overrides from storage.
type ConfigRepository interface {
	GetConfig(ctx context.Context, endpointID string) (domain.EndpointConfig, bool, error)
	UpsertConfig(ctx context.Context, cfg domain.EndpointConfig) error
}

// ResolveConfig merges a stored per-endpoint config over the defaults.
// Zero-valued override fields keep the default, so a sparse row only
// changes what it names.
func ResolveConfig(ctx context.Context, repo ConfigRepository, defaults Config, endpointID string) Config {
	if repo == nil {
		return defaults
	}
	stored, ok, err := repo.GetConfig(ctx, endpointID)
	if err != nil || !ok {
		return defaults
	}

	cfg := defaults
	if stored.GuardrailRatio > 0 {
		cfg.GuardrailRatio = stored.GuardrailRatio
	}
	if stored.MinImpressions > 0 {
		cfg.MinImpressions = stored.MinImpressions
	}
	if stored.MinProfit > 0 {
		cfg.MinProfit = stored.MinProfit
	}
	if stored.CooldownSeconds > 0 {
		cfg.Cooldown = time.Duration(stored.CooldownSeconds) * time.Second
	}
	if stored.MaxStepPoints > 0 {
		cfg.MaxStepPoints = stored.MaxStepPoints
	}
	if stored.BaselineMargin > 0 {
		cfg.BaselineMargin = stored.BaselineMargin
	}
	if stored.InitialStep > 0 {
		cfg.InitialStep = stored.InitialStep
	}
	if stored.MinStep > 0 {
		cfg.MinStep = stored.MinStep
	}
	if stored.Alpha > 0 {
		cfg.Alpha = stored.Alpha
	}
	if stored.MinLooks > 0 {
		cfg.MinLooks = stored.MinLooks
	}
	if stored.MaxLooks > 0 {
		cfg.MaxLooks = stored.MaxLooks
	}
	if stored.MinBuckets > 0 {
		cfg.MinBuckets = stored.MinBuckets
	}
	if stored.BootstrapIters > 0 {
		cfg.BootstrapIters = stored.BootstrapIters
	}
	return cfg
}

// Validate rejects configurations the engine cannot act on safely.
func (c Config) Validate(endpointID string) error {
	if c.GuardrailRatio <= 0 || c.GuardrailRatio > 1 {
		return &ConfigError{EndpointID: endpointID, Detail: "guardrail ratio must be in (0,1]"}
	}
	if c.Alpha <= 0 || c.Alpha >= 1 {
		return &ConfigError{EndpointID: endpointID, Detail: "alpha must be in (0,1)"}
	}
	if c.MaxLooks < c.MinLooks || c.MaxLooks <= 0 {
		return &ConfigError{EndpointID: endpointID, Detail: "max looks must be >= min looks and > 0"}
	}
	if c.MaxStepPoints <= 0 {
		return &ConfigError{EndpointID: endpointID, Detail: "max step must be positive"}
	}
	if c.BootstrapIters <= 0 {
		return &ConfigError{EndpointID: endpointID, Detail: "bootstrap iterations must be positive"}
	}
	return nil
}
