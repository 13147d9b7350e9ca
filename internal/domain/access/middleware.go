package access

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/healthhub/portal/internal/domain/identity"
	"github.com/healthhub/portal/internal/platform/apperr"
	"github.com/healthhub/portal/internal/platform/auth"
	"github.com/healthhub/portal/internal/platform/middleware"
)

// Guard builds per-request sessions and enforces route requirements.
type Guard struct {
	resolver ActorResolver
	notifier ChangeNotifier
	timeout  time.Duration
	logger   zerolog.Logger
}

func NewGuard(resolver ActorResolver, notifier ChangeNotifier, timeout time.Duration, logger zerolog.Logger) *Guard {
	return &Guard{resolver: resolver, notifier: notifier, timeout: timeout, logger: logger}
}

// Sessions attaches a Session for the authenticated identity, if any, to
// every request. Profile resolution is deferred to the first Require.
func (g *Guard) Sessions() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			s := NewSession(auth.IdentityIDFromContext(req.Context()), g.resolver, g.notifier, g.timeout)
			c.SetRequest(req.WithContext(WithSession(req.Context(), s)))
			return next(c)
		}
	}
}

// Require guards a group or route with the given roles; no roles admits
// any authenticated caller. On Allow the resolved actor is placed in the
// request context.
func (g *Guard) Require(roles ...identity.Role) echo.MiddlewareFunc {
	req := RequireRoles(roles...)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			s, ok := SessionFromContext(ctx)
			if !ok {
				s = NewSession(auth.IdentityIDFromContext(ctx), g.resolver, g.notifier, g.timeout)
				ctx = WithSession(ctx, s)
			}
			_ = s.Init(ctx)

			d := s.Decide(req)
			if !d.Allowed() {
				return g.reject(c, d)
			}

			actor := s.Actor()
			c.Set(middleware.ActorRoleKey, string(actor.Profile.Role))
			c.SetRequest(c.Request().WithContext(identity.WithActor(ctx, actor)))
			return next(c)
		}
	}
}

type redirectBody struct {
	Decision string `json:"decision"`
	Redirect string `json:"redirect"`
}

func (g *Guard) reject(c echo.Context, d Decision) error {
	switch d.Kind {
	case RedirectToLogin:
		c.Response().Header().Set(echo.HeaderLocation, d.Path)
		return c.JSON(http.StatusUnauthorized, redirectBody{Decision: d.Kind.String(), Redirect: d.Path})
	case RedirectTo:
		c.Response().Header().Set(echo.HeaderLocation, d.Path)
		return c.JSON(http.StatusForbidden, redirectBody{Decision: d.Kind.String(), Redirect: d.Path})
	case Error:
		g.logger.Error().Err(d.Err).
			Str("request_id", middleware.RequestIDFrom(c)).
			Str("kind", apperr.KindOf(d.Err).String()).
			Msg("profile resolution failed")
		return errorResponse(d.Err)
	default:
		// Defer cannot survive Init; treat it as unavailable.
		return echo.NewHTTPError(http.StatusServiceUnavailable, "profile not ready")
	}
}

// errorResponse maps a failed resolution: transient store errors are 503,
// everything else 500.
func errorResponse(err error) *echo.HTTPError {
	status := http.StatusInternalServerError
	if apperr.KindOf(err) == apperr.KindTransient {
		status = http.StatusServiceUnavailable
	}
	return echo.NewHTTPError(status, map[string]string{
		"error": err.Error(),
		"kind":  apperr.KindOf(err).String(),
	})
}
