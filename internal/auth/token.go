package auth

import (
	"context"
	"encoding/json"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/spec-kit/admissions-service/internal/cache"
	"github.com/spec-kit/admissions-service/internal/domain"
)

// TokenService issues signed session tokens, validates them against the
// session cache and blacklist, and revokes them.
type TokenService struct {
	secret   []byte
	ttl      time.Duration
	sessions cache.SessionCache
	now      func() time.Time
}

// NewTokenService builds a service with the given signing secret and session
// lifetime. The clock is injectable for deterministic expiry tests; pass nil
// to use time.Now.
func NewTokenService(secret string, ttl time.Duration, sessions cache.SessionCache, now func() time.Time) *TokenService {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	if now == nil {
		now = time.Now
	}
	return &TokenService{secret: []byte(secret), ttl: ttl, sessions: sessions, now: now}
}

// Claims describes the JWT payload. The registered ID claim carries the
// session identifier used as the session-record cache key.
type Claims struct {
	Email string          `json:"email"`
	Role  domain.RoleName `json:"role"`
	jwt.RegisteredClaims
}

// Issue signs a token for the principal and stores the session record.
// Every call generates a fresh session identifier, so repeated calls with
// the same principal yield independent tokens.
func (ts *TokenService) Issue(ctx context.Context, principal domain.SessionPrincipal) (string, time.Time, error) {
	now := ts.now()
	expiresAt := now.Add(ts.ttl)
	sessionID := uuid.NewString()

	claims := &Claims{
		Email: principal.Email,
		Role:  principal.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			Subject:   principal.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(ts.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	snapshot, err := json.Marshal(principal)
	if err != nil {
		return "", time.Time{}, err
	}
	if err := ts.sessions.Set(ctx, cache.SessionKey(sessionID), snapshot, ts.ttl); err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

// Verify checks a raw token and returns the session principal. The checks
// run in a fixed order, each a hard failure point: signature, blacklist,
// session existence, embedded expiry. A forged token can never reach the
// session lookup.
func (ts *TokenService) Verify(ctx context.Context, raw string) (*domain.SessionPrincipal, error) {
	claims, err := ts.parse(raw)
	if err != nil {
		return nil, ErrMalformedToken
	}

	revoked, err := ts.sessions.Exists(ctx, cache.BlacklistKey(raw))
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrTokenRevoked
	}

	snapshot, err := ts.sessions.Get(ctx, cache.SessionKey(claims.ID))
	if err == cache.ErrCacheMiss {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	// The cache TTL should already have evicted the session, but the
	// embedded expiry must not rely on cache behavior alone.
	if claims.ExpiresAt == nil || ts.now().After(claims.ExpiresAt.Time) {
		return nil, ErrTokenExpired
	}

	var principal domain.SessionPrincipal
	if err := json.Unmarshal(snapshot, &principal); err != nil {
		return nil, ErrSessionNotFound
	}
	return &principal, nil
}

// Revoke blacklists the exact raw token string. The blacklist entry TTL is
// the larger of the requested window and the token's remaining validity, so
// a revoked token cannot become valid again before its natural expiry.
// Revoking an unparseable or already-expired token is a no-op success.
func (ts *TokenService) Revoke(ctx context.Context, raw string, remaining time.Duration) error {
	claims, err := ts.parse(raw)
	if err != nil {
		return nil
	}

	ttl := remaining
	if claims.ExpiresAt != nil {
		natural := claims.ExpiresAt.Time.Sub(ts.now())
		if natural <= 0 {
			return nil
		}
		if natural > ttl {
			ttl = natural
		}
	}
	if ttl <= 0 {
		return nil
	}

	return ts.sessions.Set(ctx, cache.BlacklistKey(raw), []byte("revoked"), ttl)
}

// SessionTTL returns the configured session lifetime.
func (ts *TokenService) SessionTTL() time.Duration {
	return ts.ttl
}

// parse validates signature and structure only. Claims validation is
// disabled so Verify can order the blacklist check before the expiry check.
func (ts *TokenService) parse(raw string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(raw, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, ErrMalformedToken
		}
		return ts.secret, nil
	}, jwt.WithoutClaimsValidation())
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || claims.ID == "" {
		return nil, ErrMalformedToken
	}
	return claims, nil
}
