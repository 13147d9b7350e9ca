package access

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/healthhub/portal/internal/domain/identity"
	"github.com/healthhub/portal/internal/platform/apperr"
	"github.com/healthhub/portal/internal/platform/auth"
)

// PatientLookup loads the patient record shown on /me.
type PatientLookup interface {
	GetPatient(ctx context.Context, id uuid.UUID) (*identity.Patient, error)
}

type Handler struct {
	guard       *Guard
	revocations *auth.RevocationStore
	patients    PatientLookup
	logger      zerolog.Logger
}

func NewHandler(guard *Guard, revocations *auth.RevocationStore, logger zerolog.Logger) *Handler {
	return &Handler{guard: guard, revocations: revocations, logger: logger}
}

// WithPatients makes /me include the caller's patient record.
func (h *Handler) WithPatients(p PatientLookup) *Handler {
	h.patients = p
	return h
}

// RegisterRoutes mounts the decision endpoint and sign-out publicly and /me
// behind any-role authentication.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/access/decision", h.Decision)
	api.POST("/session/signout", h.Signout)
	api.GET("/me", h.Me, h.guard.Require())
}

type decisionResponse struct {
	Path     string `json:"path"`
	Decision string `json:"decision"`
	Allow    bool   `json:"allow"`
	Redirect string `json:"redirect,omitempty"`
	Error    string `json:"error,omitempty"`
	Kind     string `json:"kind,omitempty"`
}

// Decision reports the guard outcome for a presentation path. The outcome
// is always 200; the decision itself is in the body.
func (h *Handler) Decision(c echo.Context) error {
	path := c.QueryParam("path")
	if path == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "path is required")
	}
	ctx := c.Request().Context()
	s, ok := SessionFromContext(ctx)
	if !ok {
		s = NewSession(auth.IdentityIDFromContext(ctx), h.guard.resolver, h.guard.notifier, h.guard.timeout)
	}

	req := RequirementFor(path)
	if req != nil {
		_ = s.Init(ctx)
	}
	d := s.Decide(req)

	resp := decisionResponse{Path: path, Decision: d.Kind.String(), Allow: d.Allowed()}
	switch d.Kind {
	case RedirectToLogin, RedirectTo:
		resp.Redirect = d.Path
	case Error:
		resp.Error = d.Err.Error()
		resp.Kind = apperr.KindOf(d.Err).String()
	}
	return c.JSON(http.StatusOK, resp)
}

type meResponse struct {
	*identity.Actor
	Patient       *identity.Patient `json:"patient,omitempty"`
	DashboardPath string            `json:"dashboard_path"`
}

func (h *Handler) Me(c echo.Context) error {
	actor, ok := identity.ActorFromContext(c.Request().Context())
	if !ok {
		return apperr.ToHTTP(apperr.ErrAuthRequired)
	}
	path, err := PathFor(actor.Profile.Role)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	resp := meResponse{Actor: actor, DashboardPath: path}
	if h.patients != nil && actor.PatientID != nil {
		p, err := h.patients.GetPatient(c.Request().Context(), *actor.PatientID)
		if err != nil {
			return apperr.ToHTTP(err)
		}
		resp.Patient = p
	}
	return c.JSON(http.StatusOK, resp)
}

// Signout ends the caller's session: the bearer token is revoked until it
// expires and the session is torn down. Anonymous callers get 204 too.
func (h *Handler) Signout(c echo.Context) error {
	ctx := c.Request().Context()
	id, ok := auth.CurrentIdentity(ctx)
	if !ok {
		return c.NoContent(http.StatusNoContent)
	}
	if h.revocations != nil && id.TokenID != "" {
		h.revocations.Revoke(id.TokenID, id.ExpiresAt)
	}
	if s, ok := SessionFromContext(ctx); ok {
		s.Teardown()
	} else if h.guard.notifier != nil {
		h.guard.notifier.Notify(id.ID)
	}
	h.logger.Info().Str("identity_id", id.ID).Msg("session signed out")
	return c.NoContent(http.StatusNoContent)
}
