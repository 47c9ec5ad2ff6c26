package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/restoran/internal/logging"
	authmw "github.com/Skotchmaster/restoran/internal/middleware/auth"
	"github.com/Skotchmaster/restoran/internal/service"
	"github.com/Skotchmaster/restoran/internal/transport"
)

type ReviewHandler struct {
	Svc *service.ReviewService
}

func (h *ReviewHandler) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "review.list")

	dishID, err := parseOptionalID(c, "dish_id")
	if err != nil {
		return fail(l, "list_reviews_failed", err)
	}
	list, err := h.Svc.List(ctx, dishID, page(c))
	if err != nil {
		return fail(l, "list_reviews_failed", err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *ReviewHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "review.get")

	id, err := parseID(c, "id")
	if err != nil {
		return fail(l, "get_review_failed", err)
	}
	rev, err := h.Svc.Get(ctx, id)
	if err != nil {
		return fail(l, "get_review_failed", err)
	}
	return c.JSON(http.StatusOK, rev)
}

func (h *ReviewHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "review.create")

	acc, err := authmw.AccountFrom(c)
	if err != nil {
		return err
	}
	var req transport.CreateReviewRequest
	if err := bind(c, &req); err != nil {
		return fail(l, "create_review_failed", err)
	}

	rev, err := h.Svc.Create(ctx, acc, req)
	if err != nil {
		return fail(l, "create_review_failed", err)
	}

	l.Info("create_review_success", "review_id", rev.ID)
	return c.JSON(http.StatusCreated, rev)
}

func (h *ReviewHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "review.delete")

	acc, err := authmw.AccountFrom(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return fail(l, "delete_review_failed", err)
	}
	if err := h.Svc.Delete(ctx, acc, id); err != nil {
		return fail(l, "delete_review_failed", err)
	}
	return c.NoContent(http.StatusNoContent)
}
