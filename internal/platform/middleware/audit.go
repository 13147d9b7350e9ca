package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/healthhub/portal/internal/platform/auth"
)

// ActorRoleKey is the echo context key under which the access guard stores
// the caller's resolved role.
const ActorRoleKey = "actor_role"

// AuditEntry records who touched which portal resource.
type AuditEntry struct {
	IdentityID string
	Role       string
	Resource   string
	ResourceID string
	Action     string // read, create, update
	Method     string
	Path       string
	IPAddress  string
	UserAgent  string
	RequestID  string
	StatusCode int
	Timestamp  time.Time
}

// AuditRecorder persists audit entries somewhere other than the log.
type AuditRecorder interface {
	RecordAccess(entry AuditEntry) error
}

type AuditRecorderFunc func(entry AuditEntry) error

func (f AuditRecorderFunc) RecordAccess(entry AuditEntry) error {
	return f(entry)
}

// Audit logs every /api/v1 access after the handler has run, so the entry
// carries the final status and the role the guard resolved. Recorder
// failures are logged and never fail the request.
func Audit(logger zerolog.Logger, recorder AuditRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if !strings.HasPrefix(req.URL.Path, "/api/v1/") {
				return next(c)
			}

			err := next(c)

			entry := AuditEntry{
				IdentityID: auth.IdentityIDFromContext(req.Context()),
				Method:     req.Method,
				Path:       req.URL.Path,
				Action:     methodToAction(req.Method),
				IPAddress:  c.RealIP(),
				UserAgent:  req.UserAgent(),
				RequestID:  RequestIDFrom(c),
				StatusCode: c.Response().Status,
				Timestamp:  time.Now().UTC(),
			}
			if he, ok := err.(*echo.HTTPError); ok {
				entry.StatusCode = he.Code
			}
			entry.Role, _ = c.Get(ActorRoleKey).(string)
			entry.Resource = resourceFromRoute(c.Path())
			entry.ResourceID = c.Param("id")

			if recorder != nil {
				if recErr := recorder.RecordAccess(entry); recErr != nil {
					logger.Error().Err(recErr).
						Str("request_id", entry.RequestID).
						Msg("failed to record audit entry")
				}
			}

			logger.Info().
				Str("type", "audit").
				Str("request_id", entry.RequestID).
				Str("identity_id", entry.IdentityID).
				Str("role", entry.Role).
				Str("resource", entry.Resource).
				Str("resource_id", entry.ResourceID).
				Str("action", entry.Action).
				Str("method", entry.Method).
				Str("path", entry.Path).
				Str("remote_ip", entry.IPAddress).
				Int("status", entry.StatusCode).
				Msg("portal_access")

			return err
		}
	}
}

func methodToAction(method string) string {
	switch method {
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return "read"
	}
}

// resourceFromRoute picks the resource name out of a route template:
// /api/v1/patient/appointments/:id/cancel -> appointments,
// /api/v1/me -> me.
func resourceFromRoute(route string) string {
	rest := strings.TrimPrefix(route, "/api/v1/")
	if rest == route {
		return "unknown"
	}
	for _, seg := range strings.Split(rest, "/") {
		switch {
		case seg == "", strings.HasPrefix(seg, ":"):
			continue
		case seg == "patient", seg == "doctor", seg == "admin":
			continue
		default:
			return seg
		}
	}
	return "unknown"
}
