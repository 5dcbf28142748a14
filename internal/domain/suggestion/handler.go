package suggestion

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/nutriplan/nutriplan/internal/domain/client"
	"github.com/nutriplan/nutriplan/internal/platform/apperr"
	"github.com/nutriplan/nutriplan/internal/platform/auth"
)

// ClientAccess decides whether a caller may act on a client.
type ClientAccess interface {
	Authorize(ctx context.Context, caller auth.Identity, clientID uuid.UUID) (*client.Client, error)
}

type Handler struct {
	svc    *Service
	access ClientAccess
}

func NewHandler(svc *Service, access ClientAccess) *Handler {
	return &Handler{svc: svc, access: access}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/suggestions", h.Suggest)
}

func (h *Handler) Suggest(c echo.Context) error {
	caller, err := auth.MustIdentity(c)
	if err != nil {
		return err
	}
	var req Request
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.MealID == uuid.Nil || req.ItemID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "mealID and itemID are required")
	}

	var clientID uuid.UUID
	switch {
	case req.ClientID != "":
		clientID, err = uuid.Parse(req.ClientID)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid client_id")
		}
	case caller.IsClient():
		clientID = caller.ID
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "client_id is required")
	}

	ctx := c.Request().Context()
	if _, err := h.access.Authorize(ctx, caller, clientID); err != nil {
		return apperr.HTTPError(err)
	}
	res, err := h.svc.Suggest(ctx, clientID, req.MealID, req.ItemID)
	if errors.Is(err, ErrEngine) {
		return echo.NewHTTPError(http.StatusBadGateway, "suggestion engine unavailable").SetInternal(err)
	}
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, res)
}
