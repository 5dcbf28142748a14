package catalog

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nutriplan/nutriplan/internal/platform/apperr"
	"github.com/nutriplan/nutriplan/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the catalog on an authenticated group.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/items", h.ListItems)
	api.GET("/dropdown_items", h.DropdownItems)
}

// ListItems returns every item, or one page when limit or offset is given.
func (h *Handler) ListItems(c echo.Context) error {
	ctx := c.Request().Context()
	if c.QueryParam("limit") == "" && c.QueryParam("offset") == "" {
		items, err := h.svc.ListAll(ctx)
		if err != nil {
			return apperr.HTTPError(err)
		}
		return c.JSON(http.StatusOK, items)
	}

	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(ctx, pg.Limit, pg.Offset)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) DropdownItems(c echo.Context) error {
	items, err := h.svc.Dropdown(c.Request().Context())
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, items)
}
