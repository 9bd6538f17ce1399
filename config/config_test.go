package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/guardkit/resilience"
)

func TestConfigApplyDefaults(t *testing.T) {
	t.Run("empty environment defaults to development", func(t *testing.T) {
		cfg := Config{Service: "svc"}
		cfg.ApplyDefaults()
		if cfg.Environment != "development" {
			t.Errorf("expected 'development', got %q", cfg.Environment)
		}
		if cfg.Logging.Level != "info" {
			t.Errorf("expected logging level 'info', got %q", cfg.Logging.Level)
		}
	})

	t.Run("guard sections get sensible defaults", func(t *testing.T) {
		cfg := Config{
			Service: "svc",
			Guards: map[string]GuardSettings{
				"payments": {
					Retry:          &RetrySettings{},
					CircuitBreaker: &BreakerSettings{},
					Throttle:       &ThrottleSettings{RefillRate: 5},
				},
			},
		}
		cfg.ApplyDefaults()

		g := cfg.Guards["payments"]
		if g.Retry.MaxAttempts != 3 || g.Retry.Backoff != "exponential" || g.Retry.Jitter != "full" {
			t.Errorf("unexpected retry defaults: %+v", g.Retry)
		}
		if g.CircuitBreaker.FailureThreshold != 5 || g.CircuitBreaker.Timeout != 30*time.Second {
			t.Errorf("unexpected breaker defaults: %+v", g.CircuitBreaker)
		}
		if g.Throttle.Capacity != 20 || g.Throttle.Tokens != 1 {
			t.Errorf("unexpected throttle defaults: %+v", g.Throttle)
		}
	})
}

func TestConfigValidate(t *testing.T) {
	valid := Config{Service: "svc", Environment: "production"}
	valid.ApplyDefaults()
	if err := valid.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}

	tests := []struct {
		name   string
		cfg    Config
		errMsg string
	}{
		{
			"missing service",
			Config{Environment: "production"},
			"service is required",
		},
		{
			"invalid environment",
			Config{Service: "svc", Environment: "invalid"},
			"environment must be one of",
		},
		{
			"zero bulkhead capacity",
			Config{
				Service:     "svc",
				Environment: "production",
				Guards: map[string]GuardSettings{
					"db": {Bulkhead: &BulkheadSettings{MaxConcurrent: 0}},
				},
			},
			"max_concurrent must be greater than 0",
		},
		{
			"unknown backoff name",
			Config{
				Service:     "svc",
				Environment: "production",
				Guards: map[string]GuardSettings{
					"db": {Retry: &RetrySettings{MaxAttempts: 3, Backoff: "fibonacci"}},
				},
			},
			"backoff must be one of",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.cfg.Logging.ApplyDefaults()
			err := tc.cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.errMsg) {
				t.Errorf("expected error containing %q, got %q", tc.errMsg, err.Error())
			}
		})
	}
}

func TestLoadWithYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")

	yamlContent := `
service: orders-api
environment: staging
logging:
  level: debug
guards:
  payments:
    timeout: 2s
    circuit_breaker:
      failure_threshold: 4
    retry:
      max_attempts: 5
      backoff: linear
      base_delay: 50ms
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	var cfg Config
	if err := Load("orders-api", &cfg, WithConfigFile(configPath)); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Service != "orders-api" {
		t.Errorf("expected service 'orders-api', got %q", cfg.Service)
	}
	if cfg.Environment != "staging" {
		t.Errorf("expected environment 'staging', got %q", cfg.Environment)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected logging level 'debug', got %q", cfg.Logging.Level)
	}

	g, ok := cfg.Guards["payments"]
	if !ok {
		t.Fatal("expected guards.payments to be present")
	}
	if g.Timeout != 2*time.Second {
		t.Errorf("expected timeout 2s, got %s", g.Timeout)
	}
	if g.CircuitBreaker == nil || g.CircuitBreaker.FailureThreshold != 4 {
		t.Errorf("unexpected breaker settings: %+v", g.CircuitBreaker)
	}
	if g.Retry == nil || g.Retry.MaxAttempts != 5 || g.Retry.Backoff != "linear" {
		t.Errorf("unexpected retry settings: %+v", g.Retry)
	}
}

func TestLoadMissingFile(t *testing.T) {
	var cfg Config
	// A missing file leaves the config empty rather than failing.
	if err := Load("nonexistent", &cfg, WithConfigFile("/nonexistent/path.yml")); err != nil {
		t.Fatalf("expected Load to succeed with missing file, got %v", err)
	}
}

func TestGuardSettingsGuardConfig(t *testing.T) {
	g := GuardSettings{
		Timeout:  time.Second,
		Throttle: &ThrottleSettings{Capacity: 5, RefillRate: 1, Tokens: 1},
		Bulkhead: &BulkheadSettings{MaxConcurrent: 2, MaxQueue: 1},
		CircuitBreaker: &BreakerSettings{
			FailureThreshold: 3,
			SuccessThreshold: 1,
			Timeout:          10 * time.Second,
			Window:           time.Minute,
		},
		Retry: &RetrySettings{MaxAttempts: 4, Backoff: "constant", BaseDelay: 10 * time.Millisecond, Jitter: "none"},
	}

	cfg := g.GuardConfig("payments")
	if cfg.Name != "payments" {
		t.Errorf("expected name 'payments', got %q", cfg.Name)
	}
	if cfg.Timeout != time.Second {
		t.Errorf("expected timeout 1s, got %s", cfg.Timeout)
	}
	if cfg.Throttle == nil || cfg.Throttle.Capacity != 5 {
		t.Errorf("unexpected throttle config: %+v", cfg.Throttle)
	}
	if cfg.Bulkhead == nil || cfg.Bulkhead.MaxConcurrent != 2 || cfg.Bulkhead.MaxQueue != 1 {
		t.Errorf("unexpected bulkhead config: %+v", cfg.Bulkhead)
	}
	if cfg.CircuitBreaker == nil || cfg.CircuitBreaker.FailureThreshold != 3 {
		t.Errorf("unexpected breaker config: %+v", cfg.CircuitBreaker)
	}
	if cfg.Retry == nil || cfg.Retry.MaxAttempts != 4 {
		t.Errorf("unexpected retry policy: %+v", cfg.Retry)
	}
	if _, ok := cfg.Retry.Backoff.(resilience.ConstantBackoff); !ok {
		t.Errorf("expected ConstantBackoff, got %T", cfg.Retry.Backoff)
	}
	if _, ok := cfg.Retry.Jitter.(resilience.NoJitter); !ok {
		t.Errorf("expected NoJitter, got %T", cfg.Retry.Jitter)
	}
}

func TestConfigGuard(t *testing.T) {
	cfg := Config{
		Service: "svc",
		Guards: map[string]GuardSettings{
			"db": {Bulkhead: &BulkheadSettings{MaxConcurrent: 2}},
		},
	}

	if g := cfg.Guard("db"); g == nil {
		t.Error("expected a guard for configured dependency")
	}
	if g := cfg.Guard("unknown"); g != nil {
		t.Error("expected nil guard for unknown dependency")
	}
}

type mockFS struct {
	files map[string]bool
}

func (m *mockFS) Exists(path string) bool  { return m.files[path] }
func (m *mockFS) LoadEnv(path string) error { return nil }

func TestFindFile(t *testing.T) {
	fs := &mockFS{files: map[string]bool{
		"./config/config.yml": true,
	}}

	got := findFile(fs, configSearchPaths("my-svc"))
	if got != "./config/config.yml" {
		t.Errorf("expected ./config/config.yml, got %q", got)
	}

	if got := findFile(&mockFS{}, configSearchPaths("my-svc")); got != "" {
		t.Errorf("expected empty result with no files, got %q", got)
	}
}

func TestEnvKeyVariants(t *testing.T) {
	variants := envKeyVariants("GUARDS_PAYMENTS_TIMEOUT")

	want := map[string]bool{
		"guards_payments_timeout": false,
		"guards.payments.timeout": false,
		"guards.payments_timeout": false,
	}
	for _, v := range variants {
		if _, ok := want[v]; ok {
			want[v] = true
		}
	}
	for k, found := range want {
		if !found {
			t.Errorf("expected variant %q in %v", k, variants)
		}
	}
}

func TestLoaderOptions(t *testing.T) {
	var lc LoaderConfig
	WithFileSystem(&mockFS{})(&lc)
	WithConfigFile("/path/config.yml")(&lc)
	WithEnvFile("/path/.env")(&lc)

	if lc.FileSystem == nil {
		t.Error("expected FileSystem to be set")
	}
	if lc.ConfigFile != "/path/config.yml" {
		t.Errorf("expected config file path, got %q", lc.ConfigFile)
	}
	if lc.EnvFile != "/path/.env" {
		t.Errorf("expected env file path, got %q", lc.EnvFile)
	}
}
