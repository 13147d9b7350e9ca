package billing

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/healthhub/portal/internal/domain/identity"
	"github.com/healthhub/portal/internal/platform/apperr"
)

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the patient's bill list and the admin billing
// endpoints on groups already restricted to those roles.
func (h *Handler) RegisterRoutes(patient, admin *echo.Group) {
	patient.GET("/bills", h.ListPatientBills)

	admin.GET("/bills", h.ListBills)
	admin.POST("/bills", h.CreateBill)
	admin.GET("/bills/export", h.ExportBills)
	admin.POST("/bills/:id/pay", h.MarkPaid)
}

func actorOf(c echo.Context) (*identity.Actor, error) {
	actor, ok := identity.ActorFromContext(c.Request().Context())
	if !ok {
		return nil, apperr.ToHTTP(apperr.ErrAuthRequired)
	}
	return actor, nil
}

type billsResponse struct {
	Bills  []*AdminBill `json:"bills"`
	Totals Totals       `json:"totals"`
}

func (h *Handler) ListBills(c echo.Context) error {
	bills, err := h.svc.ListAll(c.Request().Context())
	if err != nil {
		return apperr.ToHTTP(err)
	}
	if bills == nil {
		bills = []*AdminBill{}
	}
	plain := make([]*Bill, len(bills))
	for i, b := range bills {
		plain[i] = &b.Bill
	}
	return c.JSON(http.StatusOK, billsResponse{Bills: bills, Totals: Summarize(plain, h.svc.Today())})
}

func (h *Handler) CreateBill(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	b, err := h.svc.Create(c.Request().Context(), actor, req)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, b)
}

func (h *Handler) MarkPaid(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	b, err := h.svc.MarkPaid(c.Request().Context(), actor, id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, b)
}

func (h *Handler) ExportBills(c echo.Context) error {
	var buf bytes.Buffer
	if err := h.svc.Export(c.Request().Context(), &buf); err != nil {
		return apperr.ToHTTP(err)
	}
	filename := fmt.Sprintf("bills-%s.xlsx", h.svc.Today())
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Blob(http.StatusOK, xlsxMIME, buf.Bytes())
}

func (h *Handler) ListPatientBills(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	bills, err := h.svc.ListForPatient(c.Request().Context(), actor)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	if bills == nil {
		bills = []*Bill{}
	}
	return c.JSON(http.StatusOK, bills)
}
