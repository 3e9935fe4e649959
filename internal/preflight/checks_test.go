package preflight

import (
	"context"
	"errors"
	"strings"
	"testing"

	"roadmaptracker/internal/config"
)

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

func statusOf(results []CheckResult, name string) string {
	for _, r := range results {
		if r.Name == name {
			return r.Status
		}
	}
	return ""
}

func TestRunAll(t *testing.T) {
	strong := strings.Repeat("s", minJWTSecretLength)

	tests := []struct {
		name         string
		cfg          config.Config
		mongo        Pinger
		redis        Pinger
		expectStatus map[string]string
		expectFail   bool
	}{
		{
			name:  "production fully configured",
			cfg:   config.Config{Environment: "production", JWTSecret: strong, ProviderSecret: "p"},
			mongo: fakePinger{},
			redis: fakePinger{},
			expectStatus: map[string]string{
				"Roadmap Store": "pass", "Token Revocation": "pass", "JWT Secret": "pass", "Identity Provider": "pass",
			},
		},
		{
			name: "development defaults",
			cfg:  config.Config{Environment: "development"},
			expectStatus: map[string]string{
				"Roadmap Store": "warning", "Token Revocation": "warning", "JWT Secret": "warning", "Identity Provider": "warning",
			},
		},
		{
			name:         "production without mongo",
			cfg:          config.Config{Environment: "production", JWTSecret: strong},
			expectStatus: map[string]string{"Roadmap Store": "fail"},
			expectFail:   true,
		},
		{
			name:         "production without jwt secret",
			cfg:          config.Config{Environment: "production"},
			mongo:        fakePinger{},
			expectStatus: map[string]string{"JWT Secret": "fail"},
			expectFail:   true,
		},
		{
			name:         "short jwt secret",
			cfg:          config.Config{Environment: "development", JWTSecret: "short"},
			expectStatus: map[string]string{"JWT Secret": "warning"},
		},
		{
			name:         "mongo unreachable",
			cfg:          config.Config{Environment: "development"},
			mongo:        fakePinger{err: errors.New("connection refused")},
			expectStatus: map[string]string{"Roadmap Store": "fail"},
			expectFail:   true,
		},
		{
			name:         "redis unreachable",
			cfg:          config.Config{Environment: "development"},
			redis:        fakePinger{err: errors.New("connection refused")},
			expectStatus: map[string]string{"Token Revocation": "fail"},
			expectFail:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			results := NewChecker(&cfg, tt.mongo, tt.redis).RunAll(context.Background())

			if len(results) != 4 {
				t.Fatalf("expected 4 results, got %d", len(results))
			}
			for name, want := range tt.expectStatus {
				if got := statusOf(results, name); got != want {
					t.Errorf("%s: expected %q, got %q", name, want, got)
				}
			}
			if HasFailures(results) != tt.expectFail {
				t.Errorf("HasFailures = %v, want %v", HasFailures(results), tt.expectFail)
			}
		})
	}
}

func TestHasFailures(t *testing.T) {
	if HasFailures(nil) {
		t.Error("no results should not be a failure")
	}
	if !HasFailures([]CheckResult{{Status: "pass"}, {Status: "fail"}}) {
		t.Error("expected failure")
	}
	if HasFailures([]CheckResult{{Status: "warning"}}) {
		t.Error("warnings are not failures")
	}
}
