package preflight

import (
	"context"
	"fmt"
	"log"
	"time"

	"roadmaptracker/internal/config"
)

// Minimum HS256 secret length accepted without a warning
const minJWTSecretLength = 32

// Pinger is a backing store that can be probed
type Pinger interface {
	Ping(ctx context.Context) error
}

// CheckResult represents the result of a preflight check
type CheckResult struct {
	Name    string
	Status  string // "pass", "fail", "warning"
	Message string
	Error   error
}

// Checker performs pre-flight checks before server starts
type Checker struct {
	cfg     *config.Config
	mongo   Pinger // nil when running on the in-memory store
	redis   Pinger // nil when revocation is disabled
	timeout time.Duration
}

// NewChecker creates a new preflight checker
func NewChecker(cfg *config.Config, mongo, redis Pinger) *Checker {
	return &Checker{cfg: cfg, mongo: mongo, redis: redis, timeout: 5 * time.Second}
}

// RunAll runs all preflight checks and returns results
func (c *Checker) RunAll(ctx context.Context) []CheckResult {
	log.Println("🔍 Running pre-flight checks...")

	results := []CheckResult{
		c.checkStore(ctx),
		c.checkRevocation(ctx),
		c.checkJWTSecret(),
		c.checkProviderSecret(),
	}

	passed := 0
	failed := 0
	warnings := 0

	for _, result := range results {
		switch result.Status {
		case "pass":
			log.Printf("   ✅ %s: %s", result.Name, result.Message)
			passed++
		case "fail":
			log.Printf("   ❌ %s: %s", result.Name, result.Message)
			if result.Error != nil {
				log.Printf("      Error: %v", result.Error)
			}
			failed++
		case "warning":
			log.Printf("   ⚠️  %s: %s", result.Name, result.Message)
			warnings++
		}
	}

	log.Printf("📊 Pre-flight summary: %d passed, %d failed, %d warnings", passed, failed, warnings)

	return results
}

// HasFailures returns true if any check failed
func HasFailures(results []CheckResult) bool {
	for _, result := range results {
		if result.Status == "fail" {
			return true
		}
	}
	return false
}

// checkStore verifies the roadmap store is reachable
func (c *Checker) checkStore(ctx context.Context) CheckResult {
	const name = "Roadmap Store"
	if c.mongo == nil {
		if c.cfg.IsProduction() {
			return CheckResult{Name: name, Status: "fail", Message: "MongoDB is required in production"}
		}
		return CheckResult{Name: name, Status: "warning", Message: "Using the in-memory store (data is lost on restart)"}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if err := c.mongo.Ping(ctx); err != nil {
		return CheckResult{Name: name, Status: "fail", Message: "Cannot reach MongoDB", Error: err}
	}
	return CheckResult{Name: name, Status: "pass", Message: "MongoDB connection successful"}
}

// checkRevocation verifies the sign-out revocation store
func (c *Checker) checkRevocation(ctx context.Context) CheckResult {
	const name = "Token Revocation"
	if c.redis == nil {
		return CheckResult{Name: name, Status: "warning", Message: "Redis not configured, signed-out tokens stay valid until they expire"}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if err := c.redis.Ping(ctx); err != nil {
		return CheckResult{Name: name, Status: "fail", Message: "Cannot reach Redis", Error: err}
	}
	return CheckResult{Name: name, Status: "pass", Message: "Redis connection successful"}
}

func (c *Checker) checkJWTSecret() CheckResult {
	const name = "JWT Secret"
	switch {
	case c.cfg.JWTSecret == "" && c.cfg.IsProduction():
		return CheckResult{Name: name, Status: "fail", Message: "JWT_SECRET is required in production"}
	case c.cfg.JWTSecret == "":
		return CheckResult{Name: name, Status: "warning", Message: "JWT_SECRET not set, authentication is bypassed"}
	case len(c.cfg.JWTSecret) < minJWTSecretLength:
		return CheckResult{Name: name, Status: "warning", Message: fmt.Sprintf("JWT_SECRET is shorter than %d characters", minJWTSecretLength)}
	}
	return CheckResult{Name: name, Status: "pass", Message: "JWT secret configured"}
}

func (c *Checker) checkProviderSecret() CheckResult {
	const name = "Identity Provider"
	if c.cfg.ProviderSecret == "" {
		return CheckResult{Name: name, Status: "warning", Message: "PROVIDER_SECRET not set, sign-in is disabled"}
	}
	return CheckResult{Name: name, Status: "pass", Message: "Provider bridge secret configured"}
}
