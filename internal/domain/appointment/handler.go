package appointment

import (
	"context"
	"net/http"

	"github.com/google/uuid"
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

// RegisterRoutes mounts patient and doctor endpoints on groups the access
// guard has already restricted to those roles.
func (h *Handler) RegisterRoutes(patient, doctor *echo.Group) {
	patient.GET("/appointments", h.ListPatientAppointments)
	patient.POST("/appointments", h.Book)
	patient.POST("/appointments/:id/cancel", h.Cancel)

	doctor.GET("/appointments", h.ListDoctorAppointments)
	doctor.POST("/appointments/:id/complete", h.Complete)
	doctor.POST("/appointments/:id/cancel", h.Cancel)
	doctor.GET("/patients", h.ListDoctorPatients)
}

func actorOf(c echo.Context) (*identity.Actor, error) {
	actor, ok := identity.ActorFromContext(c.Request().Context())
	if !ok {
		return nil, apperr.ToHTTP(apperr.ErrAuthRequired)
	}
	return actor, nil
}

func (h *Handler) Book(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	var req BookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	a, err := h.svc.Book(c.Request().Context(), actor, req)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) Complete(c echo.Context) error {
	return h.transition(c, h.svc.Complete)
}

func (h *Handler) Cancel(c echo.Context) error {
	return h.transition(c, h.svc.Cancel)
}

type transitionFunc func(ctx context.Context, actor *identity.Actor, id uuid.UUID) (*Appointment, error)

func (h *Handler) transition(c echo.Context, fn transitionFunc) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, err := fn(c.Request().Context(), actor, id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) ListPatientAppointments(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	items, err := h.svc.ListForPatient(c.Request().Context(), actor)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	if items == nil {
		items = []*PatientAppointment{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) ListDoctorAppointments(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	items, err := h.svc.ListForDoctor(c.Request().Context(), actor)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	if items == nil {
		items = []*DoctorAppointment{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) ListDoctorPatients(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	items, err := h.svc.ListDoctorPatients(c.Request().Context(), actor)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	if items == nil {
		items = []*DoctorPatient{}
	}
	return c.JSON(http.StatusOK, items)
}
