package account

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nutriplan/nutriplan/internal/domain/client"
	"github.com/nutriplan/nutriplan/internal/platform/apperr"
)

// Registrar creates dietitian accounts. client.Service implements it.
type Registrar interface {
	RegisterDietitian(ctx context.Context, in client.RegisterDietitianInput) (*client.Dietitian, error)
}

type Handler struct {
	svc       *Service
	registrar Registrar
}

func NewHandler(svc *Service, registrar Registrar) *Handler {
	return &Handler{svc: svc, registrar: registrar}
}

// RegisterRoutes mounts the public auth endpoints.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/auth/login", h.Login)
	api.POST("/auth/register", h.Register)
}

func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	resp, err := h.svc.Login(c.Request().Context(), req, c.RealIP())
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) Register(c echo.Context) error {
	var in client.RegisterDietitianInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	d, err := h.registrar.RegisterDietitian(c.Request().Context(), in)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusCreated, d)
}
