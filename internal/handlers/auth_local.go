package handlers

import (
	"context"
	"crypto/subtle"
	"errors"
	"log"
	"time"

	"roadmaptracker/internal/middleware"
	"roadmaptracker/internal/models"
	"roadmaptracker/internal/services"
	"roadmaptracker/pkg/auth"

	"github.com/gofiber/fiber/v2"
)

// ProviderSecretHeader authenticates the identity provider bridge on sign-in
const ProviderSecretHeader = "X-Provider-Secret"

// TokenRevoker records signed-out token ids until they would have expired anyway
type TokenRevoker interface {
	RevokeToken(ctx context.Context, tokenID string, ttl time.Duration) error
}

// LocalAuthHandler handles sign-in, sign-out and the current user profile
type LocalAuthHandler struct {
	jwtAuth        *auth.LocalJWTAuth
	userService    *services.UserService
	revoker        TokenRevoker
	metrics        *services.Metrics
	providerSecret string
}

// NewLocalAuthHandler creates a new local auth handler. revoker and metrics may be nil.
func NewLocalAuthHandler(jwtAuth *auth.LocalJWTAuth, userService *services.UserService, revoker TokenRevoker, metrics *services.Metrics, providerSecret string) *LocalAuthHandler {
	return &LocalAuthHandler{
		jwtAuth:        jwtAuth,
		userService:    userService,
		revoker:        revoker,
		metrics:        metrics,
		providerSecret: providerSecret,
	}
}

// AuthResponse is the response for a successful sign-in
type AuthResponse struct {
	AccessToken string             `json:"accessToken"`
	ExpiresAt   time.Time          `json:"expiresAt"`
	User        models.UserProfile `json:"user"`
}

// SignIn upserts the user asserted by the identity provider and issues an access token
// POST /api/auth/signin
func (h *LocalAuthHandler) SignIn(c *fiber.Ctx) error {
	if h.jwtAuth == nil || h.providerSecret == "" {
		return fail(c, fiber.StatusServiceUnavailable, "Sign-in is not configured")
	}

	presented := c.Get(ProviderSecretHeader)
	if subtle.ConstantTimeCompare([]byte(presented), []byte(h.providerSecret)) != 1 {
		h.metrics.ObserveSignIn(services.ErrUnauthenticated)
		log.Printf("⚠️  Sign-in rejected: bad provider secret from %s", c.IP())
		return fail(c, fiber.StatusUnauthorized, "Invalid provider credentials")
	}

	var profile models.ProviderProfile
	if err := c.BodyParser(&profile); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	user, err := h.userService.SignIn(c.UserContext(), profile)
	h.metrics.ObserveSignIn(err)
	if err != nil {
		if errors.Is(err, services.ErrIdentityPersistence) {
			return fail(c, fiber.StatusInternalServerError, "Sign-in failed: unable to save user")
		}
		return failWith(c, err)
	}

	token, expiresAt, err := h.jwtAuth.GenerateAccessToken(auth.Identity{
		Email: user.Email,
		Name:  user.Name,
		Image: user.Image,
	})
	if err != nil {
		log.Printf("❌ Failed to issue token for %s: %v", user.Email, err)
		return fail(c, fiber.StatusInternalServerError, "Failed to issue token")
	}

	log.Printf("✅ User signed in: %s", user.Email)
	return respond(c, fiber.StatusOK, AuthResponse{
		AccessToken: token,
		ExpiresAt:   expiresAt,
		User:        user.Profile(),
	})
}

// SignOut revokes the presented token
// POST /api/auth/signout
func (h *LocalAuthHandler) SignOut(c *fiber.Ctx) error {
	if _, ok := callerEmail(c); !ok {
		return unauthenticated(c)
	}

	tokenID, remaining := middleware.TokenRemaining(c)
	if h.revoker != nil && tokenID != "" {
		if err := h.revoker.RevokeToken(c.UserContext(), tokenID, remaining); err != nil {
			log.Printf("❌ Failed to revoke token: %v", err)
			return fail(c, fiber.StatusInternalServerError, "Failed to sign out")
		}
	}

	return respond(c, fiber.StatusOK, fiber.Map{"signedOut": true})
}

// Me returns the caller's profile. Callers without a user record get the bare-email profile.
// GET /api/auth/me
func (h *LocalAuthHandler) Me(c *fiber.Ctx) error {
	email, ok := callerEmail(c)
	if !ok {
		return unauthenticated(c)
	}

	user, err := h.userService.GetByEmail(c.UserContext(), email)
	if errors.Is(err, services.ErrNotFound) {
		return respond(c, fiber.StatusOK, models.FallbackProfile(email))
	}
	if err != nil {
		return failWith(c, err)
	}
	return respond(c, fiber.StatusOK, user.Profile())
}
