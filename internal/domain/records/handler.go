package records

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/healthhub/portal/internal/domain/identity"
	"github.com/healthhub/portal/internal/platform/apperr"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(patient, doctor *echo.Group) {
	patient.GET("/records", h.ListPatientRecords)
	doctor.POST("/records", h.AddRecord)
}

func (h *Handler) AddRecord(c echo.Context) error {
	actor, ok := identity.ActorFromContext(c.Request().Context())
	if !ok {
		return apperr.ToHTTP(apperr.ErrAuthRequired)
	}
	var req AddRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	rec, err := h.svc.Add(c.Request().Context(), actor, req)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, rec)
}

func (h *Handler) ListPatientRecords(c echo.Context) error {
	actor, ok := identity.ActorFromContext(c.Request().Context())
	if !ok {
		return apperr.ToHTTP(apperr.ErrAuthRequired)
	}
	items, err := h.svc.ListForPatient(c.Request().Context(), actor)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	if items == nil {
		items = []*PatientRecord{}
	}
	return c.JSON(http.StatusOK, items)
}
