package service

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/restoran/internal/apperr"
	"github.com/Skotchmaster/restoran/internal/logging"
	"github.com/Skotchmaster/restoran/internal/models"
	"github.com/Skotchmaster/restoran/internal/repo"
	"github.com/Skotchmaster/restoran/internal/transport"
	"github.com/Skotchmaster/restoran/internal/util"
)

type CatalogService struct {
	Repo   *repo.GormRepo
	Events EventPublisher
}

func validRating(r *float64) bool {
	return r == nil || (*r >= 0 && *r <= 5)
}

func (s *CatalogService) GetRestaurant(ctx context.Context, id uint) (*models.Restaurant, error) {
	rest, err := s.Repo.GetRestaurant(ctx, id)
	if err != nil {
		return nil, storeError(ctx, "get_restaurant", err, "restaurant not found")
	}
	return rest, nil
}

func (s *CatalogService) ListRestaurants(ctx context.Context, p util.Page) (util.List[models.Restaurant], error) {
	total, items, err := s.Repo.ListRestaurants(ctx, p.Offset(), p.Size)
	if err != nil {
		return util.List[models.Restaurant]{}, storeError(ctx, "list_restaurants", err, "")
	}
	return util.NewList(items, p, total), nil
}

func (s *CatalogService) CreateRestaurant(ctx context.Context, actor *models.Account, req transport.CreateRestaurantRequest) (*models.Restaurant, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperr.Validation("name is required")
	}
	if !validRating(req.Rating) {
		return nil, apperr.Validation("rating must be between 0 and 5")
	}

	ownerID := actor.ID
	rest := &models.Restaurant{
		Name:        name,
		Description: req.Description,
		City:        req.City,
		Address:     req.Address,
		Rating:      req.Rating,
		OwnerID:     &ownerID,
	}
	if err := s.Repo.CreateRestaurant(ctx, rest); err != nil {
		return nil, storeError(ctx, "create_restaurant", err, "")
	}

	publish(ctx, s.Events, TopicCatalogEvents, Event{Type: EventRestaurantCreated, UserID: actor.ID, EntityID: rest.ID})
	return rest, nil
}

func (s *CatalogService) managedRestaurant(ctx context.Context, actor *models.Account, id uint) (*models.Restaurant, error) {
	rest, err := s.Repo.GetRestaurant(ctx, id)
	if err != nil {
		return nil, storeError(ctx, "get_restaurant", err, "restaurant not found")
	}
	if !canManage(actor, rest.OwnerID) {
		logging.FromContext(ctx).Warn("restaurant_access_denied", "status", 403, "restaurant_id", id, "user_id", actor.ID)
		return nil, apperr.Forbidden("only the owner or an admin can manage this restaurant")
	}
	return rest, nil
}

func (s *CatalogService) PatchRestaurant(ctx context.Context, actor *models.Account, id uint, req transport.PatchRestaurantRequest) (*models.Restaurant, error) {
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return nil, apperr.Validation("name cannot be empty")
	}
	if !validRating(req.Rating) {
		return nil, apperr.Validation("rating must be between 0 and 5")
	}
	if _, err := s.managedRestaurant(ctx, actor, id); err != nil {
		return nil, err
	}

	rest, err := s.Repo.PatchRestaurant(ctx, id, req)
	if err != nil {
		return nil, storeError(ctx, "patch_restaurant", err, "restaurant not found")
	}
	return rest, nil
}

func (s *CatalogService) DeleteRestaurant(ctx context.Context, actor *models.Account, id uint) error {
	if _, err := s.managedRestaurant(ctx, actor, id); err != nil {
		return err
	}
	if err := s.Repo.DeleteRestaurant(ctx, id); err != nil {
		return storeError(ctx, "delete_restaurant", err, "restaurant not found")
	}
	return nil
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	items, err := s.Repo.ListCategories(ctx)
	if err != nil {
		return nil, storeError(ctx, "list_categories", err, "")
	}
	if items == nil {
		items = []models.Category{}
	}
	return items, nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, req transport.CreateCategoryRequest) (*models.Category, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperr.Validation("name is required")
	}

	cat := &models.Category{Name: name, Description: req.Description}
	if err := s.Repo.CreateCategory(ctx, cat); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, apperr.Validation("category already exists")
		}
		return nil, storeError(ctx, "create_category", err, "")
	}
	return cat, nil
}

func (s *CatalogService) DeleteCategory(ctx context.Context, id uint) error {
	if err := s.Repo.DeleteCategory(ctx, id); err != nil {
		if errors.Is(err, repo.ErrInvalidReference) {
			return apperr.Validation("category is still used by dishes")
		}
		return storeError(ctx, "delete_category", err, "category not found")
	}
	return nil
}

func (s *CatalogService) GetDish(ctx context.Context, id uint) (*models.Dish, error) {
	dish, err := s.Repo.GetDish(ctx, id)
	if err != nil {
		return nil, storeError(ctx, "get_dish", err, "dish not found")
	}
	return dish, nil
}

func (s *CatalogService) ListDishes(ctx context.Context, f transport.DishFilter, p util.Page) (util.List[models.Dish], error) {
	total, items, err := s.Repo.ListDishes(ctx, f, p.Offset(), p.Size)
	if err != nil {
		return util.List[models.Dish]{}, storeError(ctx, "list_dishes", err, "")
	}
	return util.NewList(items, p, total), nil
}

func (s *CatalogService) requireCategory(ctx context.Context, id uint) error {
	if _, err := s.Repo.GetCategory(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.Validation("unknown category")
		}
		return storeError(ctx, "get_category", err, "")
	}
	return nil
}

func (s *CatalogService) CreateDish(ctx context.Context, actor *models.Account, req transport.CreateDishRequest) (*models.Dish, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperr.Validation("name is required")
	}
	if req.Price < 0 {
		return nil, apperr.Validation("price cannot be negative")
	}

	rest, err := s.Repo.GetRestaurant(ctx, req.RestaurantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Validation("unknown restaurant")
		}
		return nil, storeError(ctx, "get_restaurant", err, "")
	}
	if !canManage(actor, rest.OwnerID) {
		return nil, apperr.Forbidden("only the restaurant owner or an admin can add dishes")
	}
	if err := s.requireCategory(ctx, req.CategoryID); err != nil {
		return nil, err
	}

	available := true
	if req.IsAvailable != nil {
		available = *req.IsAvailable
	}
	dish := &models.Dish{
		RestaurantID: rest.ID,
		CategoryID:   req.CategoryID,
		Name:         name,
		Price:        req.Price,
		ImageURL:     req.ImageURL,
		IsAvailable:  available,
	}
	if err := s.Repo.CreateDish(ctx, dish); err != nil {
		if errors.Is(err, repo.ErrInvalidReference) {
			return nil, apperr.Validation("unknown restaurant or category")
		}
		return nil, storeError(ctx, "create_dish", err, "")
	}
	return dish, nil
}

func (s *CatalogService) managedDish(ctx context.Context, actor *models.Account, id uint) (*models.Dish, error) {
	dish, err := s.Repo.GetDish(ctx, id)
	if err != nil {
		return nil, storeError(ctx, "get_dish", err, "dish not found")
	}
	if _, err := s.managedRestaurant(ctx, actor, dish.RestaurantID); err != nil {
		return nil, err
	}
	return dish, nil
}

func (s *CatalogService) PatchDish(ctx context.Context, actor *models.Account, id uint, req transport.PatchDishRequest) (*models.Dish, error) {
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return nil, apperr.Validation("name cannot be empty")
	}
	if req.Price != nil && *req.Price < 0 {
		return nil, apperr.Validation("price cannot be negative")
	}
	if _, err := s.managedDish(ctx, actor, id); err != nil {
		return nil, err
	}
	if req.CategoryID != nil {
		if err := s.requireCategory(ctx, *req.CategoryID); err != nil {
			return nil, err
		}
	}

	dish, err := s.Repo.PatchDish(ctx, id, req)
	if err != nil {
		if errors.Is(err, repo.ErrInvalidReference) {
			return nil, apperr.Validation("unknown category")
		}
		return nil, storeError(ctx, "patch_dish", err, "dish not found")
	}
	return dish, nil
}

func (s *CatalogService) DeleteDish(ctx context.Context, actor *models.Account, id uint) error {
	if _, err := s.managedDish(ctx, actor, id); err != nil {
		return err
	}
	if err := s.Repo.DeleteDish(ctx, id); err != nil {
		return storeError(ctx, "delete_dish", err, "dish not found")
	}
	return nil
}
