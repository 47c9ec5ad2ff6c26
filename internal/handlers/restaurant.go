package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/restoran/internal/logging"
	authmw "github.com/Skotchmaster/restoran/internal/middleware/auth"
	"github.com/Skotchmaster/restoran/internal/service"
	"github.com/Skotchmaster/restoran/internal/transport"
)

type CatalogHandler struct {
	Svc *service.CatalogService
}

func (h *CatalogHandler) GetRestaurant(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "restaurant.get")

	id, err := parseID(c, "id")
	if err != nil {
		return fail(l, "get_restaurant_failed", err)
	}
	rest, err := h.Svc.GetRestaurant(ctx, id)
	if err != nil {
		return fail(l, "get_restaurant_failed", err)
	}
	return c.JSON(http.StatusOK, rest)
}

func (h *CatalogHandler) ListRestaurants(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "restaurant.list")

	list, err := h.Svc.ListRestaurants(ctx, page(c))
	if err != nil {
		return fail(l, "list_restaurants_failed", err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *CatalogHandler) CreateRestaurant(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "restaurant.create")

	acc, err := authmw.AccountFrom(c)
	if err != nil {
		return err
	}
	var req transport.CreateRestaurantRequest
	if err := bind(c, &req); err != nil {
		return fail(l, "create_restaurant_failed", err)
	}

	rest, err := h.Svc.CreateRestaurant(ctx, acc, req)
	if err != nil {
		return fail(l, "create_restaurant_failed", err)
	}

	l.Info("create_restaurant_success", "restaurant_id", rest.ID)
	return c.JSON(http.StatusCreated, rest)
}

func (h *CatalogHandler) PatchRestaurant(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "restaurant.patch")

	acc, err := authmw.AccountFrom(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return fail(l, "patch_restaurant_failed", err)
	}
	var req transport.PatchRestaurantRequest
	if err := bind(c, &req); err != nil {
		return fail(l, "patch_restaurant_failed", err)
	}

	rest, err := h.Svc.PatchRestaurant(ctx, acc, id, req)
	if err != nil {
		return fail(l, "patch_restaurant_failed", err)
	}
	return c.JSON(http.StatusOK, rest)
}

func (h *CatalogHandler) DeleteRestaurant(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "restaurant.delete")

	acc, err := authmw.AccountFrom(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return fail(l, "delete_restaurant_failed", err)
	}
	if err := h.Svc.DeleteRestaurant(ctx, acc, id); err != nil {
		return fail(l, "delete_restaurant_failed", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CatalogHandler) ListCategories(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.list")

	items, err := h.Svc.ListCategories(ctx)
	if err != nil {
		return fail(l, "list_categories_failed", err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *CatalogHandler) CreateCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.create")

	var req transport.CreateCategoryRequest
	if err := bind(c, &req); err != nil {
		return fail(l, "create_category_failed", err)
	}
	cat, err := h.Svc.CreateCategory(ctx, req)
	if err != nil {
		return fail(l, "create_category_failed", err)
	}
	return c.JSON(http.StatusCreated, cat)
}

func (h *CatalogHandler) DeleteCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.delete")

	id, err := parseID(c, "id")
	if err != nil {
		return fail(l, "delete_category_failed", err)
	}
	if err := h.Svc.DeleteCategory(ctx, id); err != nil {
		return fail(l, "delete_category_failed", err)
	}
	return c.NoContent(http.StatusNoContent)
}
