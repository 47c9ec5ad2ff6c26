package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/restoran/internal/logging"
	authmw "github.com/Skotchmaster/restoran/internal/middleware/auth"
	"github.com/Skotchmaster/restoran/internal/transport"
)

func (h *CatalogHandler) ListDishes(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "dish.list")

	restaurantID, err := parseOptionalID(c, "restaurant_id")
	if err != nil {
		return fail(l, "list_dishes_failed", err)
	}
	categoryID, err := parseOptionalID(c, "category_id")
	if err != nil {
		return fail(l, "list_dishes_failed", err)
	}

	filter := transport.DishFilter{
		Name:         c.QueryParam("name"),
		RestaurantID: restaurantID,
		CategoryID:   categoryID,
	}
	list, err := h.Svc.ListDishes(ctx, filter, page(c))
	if err != nil {
		return fail(l, "list_dishes_failed", err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *CatalogHandler) GetDish(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "dish.get")

	id, err := parseID(c, "id")
	if err != nil {
		return fail(l, "get_dish_failed", err)
	}
	dish, err := h.Svc.GetDish(ctx, id)
	if err != nil {
		return fail(l, "get_dish_failed", err)
	}
	return c.JSON(http.StatusOK, dish)
}

func (h *CatalogHandler) CreateDish(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "dish.create")

	acc, err := authmw.AccountFrom(c)
	if err != nil {
		return err
	}
	var req transport.CreateDishRequest
	if err := bind(c, &req); err != nil {
		return fail(l, "create_dish_failed", err)
	}

	dish, err := h.Svc.CreateDish(ctx, acc, req)
	if err != nil {
		return fail(l, "create_dish_failed", err)
	}

	l.Info("create_dish_success", "dish_id", dish.ID)
	return c.JSON(http.StatusCreated, dish)
}

func (h *CatalogHandler) PatchDish(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "dish.patch")

	acc, err := authmw.AccountFrom(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return fail(l, "patch_dish_failed", err)
	}
	var req transport.PatchDishRequest
	if err := bind(c, &req); err != nil {
		return fail(l, "patch_dish_failed", err)
	}

	dish, err := h.Svc.PatchDish(ctx, acc, id, req)
	if err != nil {
		return fail(l, "patch_dish_failed", err)
	}
	return c.JSON(http.StatusOK, dish)
}

func (h *CatalogHandler) DeleteDish(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "dish.delete")

	acc, err := authmw.AccountFrom(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return fail(l, "delete_dish_failed", err)
	}
	if err := h.Svc.DeleteDish(ctx, acc, id); err != nil {
		return fail(l, "delete_dish_failed", err)
	}
	return c.NoContent(http.StatusNoContent)
}
