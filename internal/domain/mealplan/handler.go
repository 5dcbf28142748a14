package mealplan

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/nutriplan/nutriplan/internal/domain/client"
	"github.com/nutriplan/nutriplan/internal/platform/apperr"
	"github.com/nutriplan/nutriplan/internal/platform/auth"
)

// ClientAccess decides whether a caller may act on a client.
// client.Service implements it.
type ClientAccess interface {
	Authorize(ctx context.Context, caller auth.Identity, clientID uuid.UUID) (*client.Client, error)
	AuthorizeOwner(ctx context.Context, caller auth.Identity, clientID uuid.UUID) (*client.Client, error)
}

type Handler struct {
	svc    *Service
	access ClientAccess
}

func NewHandler(svc *Service, access ClientAccess) *Handler {
	return &Handler{svc: svc, access: access}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/meals", h.GetMeals)
	api.GET("/meals/available-dates", h.GetAvailableDates)
	api.GET("/meals/summary", h.GetSummary)
	api.GET("/meal-views/:mealId", h.GetMealView)
	api.POST("/feedback/manual", h.ManualFeedback)
	api.POST("/feedback/llm", h.LLMFeedback)

	dietitians := api.Group("", auth.RequireKind(auth.KindDietitian))
	dietitians.POST("/meal-plans", h.CreatePlan)
}

// resolveClient picks the client a request is about: the client_id given,
// or the caller itself when it is a client. The caller must be allowed to
// read that client.
func (h *Handler) resolveClient(c echo.Context, raw string) (uuid.UUID, error) {
	caller, err := auth.MustIdentity(c)
	if err != nil {
		return uuid.Nil, err
	}
	var clientID uuid.UUID
	switch {
	case raw != "":
		clientID, err = uuid.Parse(raw)
		if err != nil {
			return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid client_id")
		}
	case caller.IsClient():
		clientID = caller.ID
	default:
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "client_id is required")
	}
	if _, err := h.access.Authorize(c.Request().Context(), caller, clientID); err != nil {
		return uuid.Nil, apperr.HTTPError(err)
	}
	return clientID, nil
}

func (h *Handler) GetMeals(c echo.Context) error {
	clientID, err := h.resolveClient(c, c.QueryParam("client_id"))
	if err != nil {
		return err
	}
	date, err := h.svc.ParseDate(c.QueryParam("plan_date"))
	if err != nil {
		return apperr.HTTPError(err)
	}
	plan, err := h.svc.GetDailyPlan(c.Request().Context(), clientID, date)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"success": true, "data": plan})
}

func (h *Handler) GetAvailableDates(c echo.Context) error {
	clientID, err := h.resolveClient(c, c.QueryParam("client_id"))
	if err != nil {
		return err
	}
	dates, err := h.svc.ListAvailableDates(c.Request().Context(), clientID)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"success": true, "dates": dates})
}

func (h *Handler) GetSummary(c echo.Context) error {
	clientID, err := h.resolveClient(c, c.QueryParam("client_id"))
	if err != nil {
		return err
	}
	date, err := h.svc.ParseDate(c.QueryParam("plan_date"))
	if err != nil {
		return apperr.HTTPError(err)
	}
	sum, err := h.svc.DailySummary(c.Request().Context(), clientID, date)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, sum)
}

func (h *Handler) GetMealView(c echo.Context) error {
	caller, err := auth.MustIdentity(c)
	if err != nil {
		return err
	}
	mealID, err := uuid.Parse(c.Param("mealId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid meal id")
	}
	ctx := c.Request().Context()
	owner, err := h.svc.MealOwner(ctx, mealID)
	if err != nil {
		return apperr.HTTPError(err)
	}
	if _, err := h.access.Authorize(ctx, caller, owner); err != nil {
		return apperr.HTTPError(apperr.NotFound("meal"))
	}
	view, err := h.svc.GetMealView(ctx, mealID)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *Handler) CreatePlan(c echo.Context) error {
	caller, err := auth.MustIdentity(c)
	if err != nil {
		return err
	}
	var in PlanInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if in.ClientID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "client_id is required")
	}
	ctx := c.Request().Context()
	if _, err := h.access.AuthorizeOwner(ctx, caller, in.ClientID); err != nil {
		return apperr.HTTPError(err)
	}
	plan, err := h.svc.CreateOrReplacePlan(ctx, in)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusCreated, plan)
}

// manualFeedbackRequest accepts changedItem either as text or as a list of
// {itemName, portion}; the mobile app sends the list as changedItems.
type manualFeedbackRequest struct {
	ClientID     string             `json:"client_id"`
	MealID       uuid.UUID          `json:"mealID"`
	ItemID       uuid.UUID          `json:"itemID"`
	IsFollowed   *bool              `json:"isFollowed"`
	ChangedItem  json.RawMessage    `json:"changedItem"`
	ChangedItems []ChangedItemInput `json:"changedItems"`
}

func (r *manualFeedbackRequest) changedText() (string, error) {
	raw := bytes.TrimSpace(r.ChangedItem)
	if len(raw) > 0 && !bytes.Equal(raw, []byte("null")) {
		if raw[0] == '"' {
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				return "", apperr.Validation("changedItem must be text or a list")
			}
			return s, nil
		}
		var list []ChangedItemInput
		if err := json.Unmarshal(raw, &list); err != nil {
			return "", apperr.Validation("changedItem must be text or a list")
		}
		return CanonicalChangedItems(list)
	}
	if len(r.ChangedItems) > 0 {
		return CanonicalChangedItems(r.ChangedItems)
	}
	return "", nil
}

func (h *Handler) ManualFeedback(c echo.Context) error {
	var req manualFeedbackRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.MealID == uuid.Nil || req.ItemID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "mealID and itemID are required")
	}
	if req.IsFollowed == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "isFollowed is required")
	}
	changed, err := req.changedText()
	if err != nil {
		return apperr.HTTPError(err)
	}
	clientID, err := h.resolveClient(c, req.ClientID)
	if err != nil {
		return err
	}

	view, err := h.svc.RecordManualFeedback(c.Request().Context(), clientID, req.MealID, req.ItemID, *req.IsFollowed, changed)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Feedback successfully saved",
		"item":    view,
	})
}

type llmFeedbackRequest struct {
	ClientID string             `json:"client_id"`
	MealID   uuid.UUID          `json:"mealID"`
	ItemID   uuid.UUID          `json:"itemID"`
	Accepted AcceptedSuggestion `json:"accepted_suggestion"`
}

func (h *Handler) LLMFeedback(c echo.Context) error {
	var req llmFeedbackRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.MealID == uuid.Nil || req.ItemID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "mealID and itemID are required")
	}
	clientID, err := h.resolveClient(c, req.ClientID)
	if err != nil {
		return err
	}

	view, err := h.svc.RecordLLMFeedback(c.Request().Context(), clientID, req.MealID, req.ItemID, req.Accepted)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Suggestion recorded",
		"item":    view,
	})
}
