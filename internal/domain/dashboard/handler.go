package dashboard

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/healthhub/portal/internal/domain/identity"
	"github.com/healthhub/portal/internal/platform/apperr"
)

type Handler struct {
	agg *Aggregator
}

func NewHandler(agg *Aggregator) *Handler {
	return &Handler{agg: agg}
}

// RegisterRoutes mounts one dashboard endpoint on each role group.
func (h *Handler) RegisterRoutes(groups ...*echo.Group) {
	for _, g := range groups {
		g.GET("/dashboard", h.Get)
	}
}

func (h *Handler) Get(c echo.Context) error {
	actor, ok := identity.ActorFromContext(c.Request().Context())
	if !ok {
		return apperr.ToHTTP(apperr.ErrAuthRequired)
	}
	snap, err := h.agg.For(c.Request().Context(), actor)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, snap)
}
