package identity

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/healthhub/portal/internal/platform/apperr"
	"github.com/healthhub/portal/pkg/pagination"
)

type Handler struct {
	resolver *Resolver
}

func NewHandler(resolver *Resolver) *Handler {
	return &Handler{resolver: resolver}
}

// RegisterRoutes mounts the doctor picker at the api root behind
// patientOnly and the user directory on the already guarded admin group.
func (h *Handler) RegisterRoutes(api, admin *echo.Group, patientOnly echo.MiddlewareFunc) {
	api.GET("/doctors", h.ListDoctors, patientOnly)
	admin.GET("/users", h.ListUsers)
	admin.POST("/users", h.RegisterUser)
}

func (h *Handler) ListDoctors(c echo.Context) error {
	doctors, err := h.resolver.ListDoctors(c.Request().Context())
	if err != nil {
		return apperr.ToHTTP(err)
	}
	if doctors == nil {
		doctors = []*DoctorListing{}
	}
	return c.JSON(http.StatusOK, doctors)
}

type usersResponse struct {
	*pagination.Response
	Counts RoleCounts `json:"counts"`
}

// ListUsers returns a page of profiles, newest first, with role counts over
// all profiles.
func (h *Handler) ListUsers(c echo.Context) error {
	ctx := c.Request().Context()
	pg := pagination.FromContext(c)

	page, total, err := h.resolver.ListProfiles(ctx, pg.Limit, pg.Offset)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	all, err := h.resolver.AllProfiles(ctx)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	if page == nil {
		page = []*Profile{}
	}
	return c.JSON(http.StatusOK, usersResponse{
		Response: pagination.NewResponse(page, total, pg.Limit, pg.Offset).WithLinks(c.Path()),
		Counts:   CountRoles(all),
	})
}

func (h *Handler) RegisterUser(c echo.Context) error {
	var reg Registration
	if err := c.Bind(&reg); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	actor, err := h.resolver.Register(c.Request().Context(), reg)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, actor)
}
