package auth

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

type contextKey string

const identityKey contextKey = "identity"

// DevIdentityHeader carries the identity id when the server runs with
// header-based development auth.
const DevIdentityHeader = "X-Identity-ID"

// Identity is an authenticated principal issued by the identity provider.
// ID is the token subject; TokenID and ExpiresAt are empty for header
// identities.
type Identity struct {
	ID        string
	TokenID   string
	ExpiresAt time.Time
}

// Mode selects how bearer tokens are verified.
type Mode string

const (
	ModeDevelopment Mode = "development"
	ModeSecret      Mode = "secret"
	ModeJWKS        Mode = "jwks"
)

// KeySource resolves the verification key for a token's kid.
type KeySource interface {
	Key(ctx context.Context, kid string) (any, error)
}

type Config struct {
	Mode        Mode
	Secret      []byte
	Issuer      string
	Audience    string
	Keys        KeySource
	Revocations *RevocationStore
	Logger      zerolog.Logger
}

// Authenticate attaches the caller's identity to the request context when a
// valid credential is present. It never rejects a request: a missing or
// invalid credential leaves the request anonymous and the access guard
// decides what an anonymous caller may see.
func Authenticate(cfg Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			id, ok := cfg.identify(req.Context(), req.Header.Get("Authorization"), req.Header.Get(DevIdentityHeader))
			if ok {
				c.SetRequest(req.WithContext(WithIdentity(req.Context(), id)))
			}
			return next(c)
		}
	}
}

func (cfg Config) identify(ctx context.Context, authHeader, devHeader string) (Identity, bool) {
	if cfg.Mode == ModeDevelopment && authHeader == "" {
		if devHeader = strings.TrimSpace(devHeader); devHeader != "" {
			return Identity{ID: devHeader}, true
		}
		return Identity{}, false
	}
	if authHeader == "" {
		return Identity{}, false
	}

	scheme, raw, found := strings.Cut(authHeader, " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		cfg.Logger.Debug().Msg("ignoring non-bearer authorization header")
		return Identity{}, false
	}

	claims, err := cfg.parse(ctx, strings.TrimSpace(raw))
	if err != nil {
		cfg.Logger.Debug().Err(err).Msg("rejecting bearer token")
		return Identity{}, false
	}
	if claims.Subject == "" {
		return Identity{}, false
	}
	if cfg.Revocations != nil && claims.ID != "" && cfg.Revocations.IsRevoked(claims.ID) {
		return Identity{}, false
	}

	id := Identity{ID: claims.Subject, TokenID: claims.ID}
	if claims.ExpiresAt != nil {
		id.ExpiresAt = claims.ExpiresAt.Time
	}
	return id, true
}

func (cfg Config) parse(ctx context.Context, raw string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithExpirationRequired()}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}

	claims := &Claims{}
	var keyFunc jwt.Keyfunc
	switch {
	case cfg.Mode == ModeJWKS && cfg.Keys != nil:
		opts = append(opts, jwt.WithValidMethods([]string{"RS256"}))
		keyFunc = func(t *jwt.Token) (interface{}, error) {
			kid, _ := t.Header["kid"].(string)
			if kid == "" {
				return nil, errNoKid
			}
			return cfg.Keys.Key(ctx, kid)
		}
	case len(cfg.Secret) > 0:
		opts = append(opts, jwt.WithValidMethods([]string{"HS256"}))
		keyFunc = func(*jwt.Token) (interface{}, error) { return cfg.Secret, nil }
	default:
		return nil, errNoVerifier
	}

	if _, err := jwt.ParseWithClaims(raw, claims, keyFunc, opts...); err != nil {
		return nil, err
	}
	return claims, nil
}

// WithIdentity returns ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// CurrentIdentity returns the identity attached by Authenticate.
func CurrentIdentity(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok && id.ID != ""
}

// IdentityIDFromContext returns the identity id or "" for anonymous requests.
func IdentityIDFromContext(ctx context.Context) string {
	id, _ := CurrentIdentity(ctx)
	return id.ID
}
