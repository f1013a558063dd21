package margin

import (
	"context"
	"testing"
	"time"

	"adMarginLab/domain"
)

type fakeConfigRepo struct {
	cfg domain.EndpointConfig
	ok  bool
	err error
}

func (r *fakeConfigRepo) GetConfig(ctx context.Context, endpointID string) (domain.EndpointConfig, bool, error) {
	return r.cfg, r.ok, r.err
}

func (r *fakeConfigRepo) UpsertConfig(ctx context.Context, cfg domain.EndpointConfig) error {
	return nil
}

func TestResolveConfig_SparseOverride(t *testing.T) {
	defaults := DefaultConfig()
	repo := &fakeConfigRepo{
		cfg: domain.EndpointConfig{
			EndpointID:      "ep",
			GuardrailRatio:  0.95,
			CooldownSeconds: 3600,
		},
		ok: true,
	}

	cfg := ResolveConfig(context.Background(), repo, defaults, "ep")
	if cfg.GuardrailRatio != 0.95 {
		t.Fatalf("guardrail = %v, want 0.95", cfg.GuardrailRatio)
	}
	if cfg.Cooldown != time.Hour {
		t.Fatalf("cooldown = %v, want 1h", cfg.Cooldown)
	}
	// Unset fields keep the defaults.
	if cfg.Alpha != defaults.Alpha || cfg.MinBuckets != defaults.MinBuckets {
		t.Fatalf("defaults not preserved: %+v", cfg)
	}
}

func TestResolveConfig_FallsBackToDefaults(t *testing.T) {
	defaults := DefaultConfig()

	if cfg := ResolveConfig(context.Background(), nil, defaults, "ep"); cfg != defaults {
		t.Fatalf("nil repo: got %+v, want defaults", cfg)
	}
	if cfg := ResolveConfig(context.Background(), &fakeConfigRepo{}, defaults, "ep"); cfg != defaults {
		t.Fatalf("missing row: got %+v, want defaults", cfg)
	}
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate("ep"); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}

	bad := []func(*Config){
		func(c *Config) { c.GuardrailRatio = 0 },
		func(c *Config) { c.GuardrailRatio = 1.5 },
		func(c *Config) { c.Alpha = 0 },
		func(c *Config) { c.Alpha = 1 },
		func(c *Config) { c.MaxLooks = c.MinLooks - 1 },
		func(c *Config) { c.MaxStepPoints = 0 },
		func(c *Config) { c.BootstrapIters = 0 },
	}
	for i, mutate := range bad {
		cfg := DefaultConfig()
		mutate(&cfg)
		if err := cfg.Validate("ep"); err == nil {
			t.Fatalf("case %d: expected validation error for %+v", i, cfg)
		}
	}
}
