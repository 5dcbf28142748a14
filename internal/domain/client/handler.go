package client

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/nutriplan/nutriplan/internal/platform/apperr"
	"github.com/nutriplan/nutriplan/internal/platform/auth"
	"github.com/nutriplan/nutriplan/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	// Readable by the owning dietitian and the client itself
	api.GET("/clients/:id", h.GetClient)
	api.GET("/clients/:id/tdee", h.GetTDEE)

	dietitians := api.Group("", auth.RequireKind(auth.KindDietitian))
	dietitians.GET("/clients", h.ListClients)
	dietitians.POST("/clients", h.CreateClient)
	dietitians.DELETE("/clients/:id", h.DeactivateClient)
	dietitians.POST("/clients/:id/physical-details", h.AddPhysicalDetails)
	dietitians.POST("/clients/:id/medical-details", h.AddMedicalDetails)
}

func parseClientID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid client id")
	}
	return id, nil
}

func (h *Handler) ListClients(c echo.Context) error {
	caller, err := auth.MustIdentity(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	includeInactive, _ := strconv.ParseBool(c.QueryParam("include_inactive"))

	items, total, err := h.svc.Roster(c.Request().Context(), caller.ID, includeInactive, pg.Limit, pg.Offset)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) CreateClient(c echo.Context) error {
	caller, err := auth.MustIdentity(c)
	if err != nil {
		return err
	}
	var in CreateClientInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	created, err := h.svc.CreateClient(c.Request().Context(), caller.ID, in)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) GetClient(c echo.Context) error {
	caller, err := auth.MustIdentity(c)
	if err != nil {
		return err
	}
	id, err := parseClientID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	cl, err := h.svc.Authorize(ctx, caller, id)
	if err != nil {
		return apperr.HTTPError(err)
	}
	details, err := h.svc.Details(ctx, cl)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, details)
}

func (h *Handler) DeactivateClient(c echo.Context) error {
	caller, err := auth.MustIdentity(c)
	if err != nil {
		return err
	}
	id, err := parseClientID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Deactivate(c.Request().Context(), caller, id); err != nil {
		return apperr.HTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) AddPhysicalDetails(c echo.Context) error {
	caller, err := auth.MustIdentity(c)
	if err != nil {
		return err
	}
	id, err := parseClientID(c)
	if err != nil {
		return err
	}
	var in PhysicalInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	ctx := c.Request().Context()
	if _, err := h.svc.AuthorizeOwner(ctx, caller, id); err != nil {
		return apperr.HTTPError(err)
	}
	p, err := h.svc.AddPhysical(ctx, caller.ID, id, in)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) AddMedicalDetails(c echo.Context) error {
	caller, err := auth.MustIdentity(c)
	if err != nil {
		return err
	}
	id, err := parseClientID(c)
	if err != nil {
		return err
	}
	var in MedicalInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	ctx := c.Request().Context()
	if _, err := h.svc.AuthorizeOwner(ctx, caller, id); err != nil {
		return apperr.HTTPError(err)
	}
	m, err := h.svc.AddMedical(ctx, caller.ID, id, in)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *Handler) GetTDEE(c echo.Context) error {
	caller, err := auth.MustIdentity(c)
	if err != nil {
		return err
	}
	id, err := parseClientID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if _, err := h.svc.Authorize(ctx, caller, id); err != nil {
		return apperr.HTTPError(err)
	}
	est, err := h.svc.Estimate(ctx, id)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, est)
}
