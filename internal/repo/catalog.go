package repo

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/restoran/internal/models"
	"github.com/Skotchmaster/restoran/internal/transport"
)

func (r *GormRepo) GetRestaurant(ctx context.Context, id uint) (*models.Restaurant, error) {
	var rest models.Restaurant
	if err := r.DB.WithContext(ctx).First(&rest, id).Error; err != nil {
		return nil, fmt.Errorf("find restaurant %d: %w", id, err)
	}
	return &rest, nil
}

func (r *GormRepo) ListRestaurants(ctx context.Context, offset, limit int) (int64, []models.Restaurant, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Restaurant{}).Count(&total).Error; err != nil {
		return 0, nil, fmt.Errorf("count restaurants: %w", err)
	}

	var items []models.Restaurant
	if err := r.DB.WithContext(ctx).Order("id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, fmt.Errorf("list restaurants: %w", err)
	}
	return total, items, nil
}

func (r *GormRepo) CreateRestaurant(ctx context.Context, rest *models.Restaurant) error {
	if err := r.DB.WithContext(ctx).Omit(clause.Associations).Create(rest).Error; err != nil {
		return fmt.Errorf("create restaurant: %w", translate(err))
	}
	return nil
}

func (r *GormRepo) PatchRestaurant(ctx context.Context, id uint, req transport.PatchRestaurantRequest) (*models.Restaurant, error) {
	var rest models.Restaurant
	if err := r.DB.WithContext(ctx).First(&rest, id).Error; err != nil {
		return nil, fmt.Errorf("find restaurant %d: %w", id, err)
	}

	if req.Name != nil {
		rest.Name = *req.Name
	}
	if req.Description != nil {
		rest.Description = *req.Description
	}
	if req.City != nil {
		rest.City = *req.City
	}
	if req.Address != nil {
		rest.Address = *req.Address
	}
	if req.Rating != nil {
		rest.Rating = req.Rating
	}

	if err := r.DB.WithContext(ctx).Omit(clause.Associations).Save(&rest).Error; err != nil {
		return nil, fmt.Errorf("save restaurant %d: %w", id, translate(err))
	}
	return &rest, nil
}

func (r *GormRepo) DeleteRestaurant(ctx context.Context, id uint) error {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dishes := tx.Model(&models.Dish{}).Select("id").Where("restaurant_id = ?", id)
		if err := tx.Where("dish_id IN (?)", dishes).Delete(&models.Review{}).Error; err != nil {
			return err
		}
		if err := tx.Where("restaurant_id = ?", id).Delete(&models.Dish{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Restaurant{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete restaurant %d: %w", id, err)
	}
	return nil
}

func (r *GormRepo) ListCategories(ctx context.Context) ([]models.Category, error) {
	var items []models.Category
	if err := r.DB.WithContext(ctx).Order("id ASC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return items, nil
}

func (r *GormRepo) GetCategory(ctx context.Context, id uint) (*models.Category, error) {
	var cat models.Category
	if err := r.DB.WithContext(ctx).First(&cat, id).Error; err != nil {
		return nil, fmt.Errorf("find category %d: %w", id, err)
	}
	return &cat, nil
}

func (r *GormRepo) CreateCategory(ctx context.Context, cat *models.Category) error {
	if err := r.DB.WithContext(ctx).Create(cat).Error; err != nil {
		return fmt.Errorf("create category %q: %w", cat.Name, translate(err))
	}
	return nil
}

// DeleteCategory fails with ErrInvalidReference while dishes still use it.
func (r *GormRepo) DeleteCategory(ctx context.Context, id uint) error {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var inUse int64
		if err := tx.Model(&models.Dish{}).Where("category_id = ?", id).Count(&inUse).Error; err != nil {
			return err
		}
		if inUse > 0 {
			return ErrInvalidReference
		}
		res := tx.Delete(&models.Category{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete category %d: %w", id, translate(err))
	}
	return nil
}

func (r *GormRepo) GetDish(ctx context.Context, id uint) (*models.Dish, error) {
	var dish models.Dish
	if err := r.DB.WithContext(ctx).First(&dish, id).Error; err != nil {
		return nil, fmt.Errorf("find dish %d: %w", id, err)
	}
	return &dish, nil
}

func (r *GormRepo) ListDishes(ctx context.Context, f transport.DishFilter, offset, limit int) (int64, []models.Dish, error) {
	q := r.DB.WithContext(ctx).Model(&models.Dish{})
	if name := strings.TrimSpace(f.Name); name != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(name)+"%")
	}
	if f.RestaurantID != 0 {
		q = q.Where("restaurant_id = ?", f.RestaurantID)
	}
	if f.CategoryID != 0 {
		q = q.Where("category_id = ?", f.CategoryID)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return 0, nil, fmt.Errorf("count dishes: %w", err)
	}

	var items []models.Dish
	if err := q.Session(&gorm.Session{}).Order("id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, fmt.Errorf("list dishes: %w", err)
	}
	return total, items, nil
}

func (r *GormRepo) CreateDish(ctx context.Context, dish *models.Dish) error {
	if err := r.DB.WithContext(ctx).Omit(clause.Associations).Create(dish).Error; err != nil {
		return fmt.Errorf("create dish: %w", translate(err))
	}
	return nil
}

func (r *GormRepo) PatchDish(ctx context.Context, id uint, req transport.PatchDishRequest) (*models.Dish, error) {
	var dish models.Dish
	if err := r.DB.WithContext(ctx).First(&dish, id).Error; err != nil {
		return nil, fmt.Errorf("find dish %d: %w", id, err)
	}

	if req.CategoryID != nil {
		dish.CategoryID = *req.CategoryID
	}
	if req.Name != nil {
		dish.Name = *req.Name
	}
	if req.Price != nil {
		dish.Price = *req.Price
	}
	if req.ImageURL != nil {
		dish.ImageURL = *req.ImageURL
	}
	if req.IsAvailable != nil {
		dish.IsAvailable = *req.IsAvailable
	}

	if err := r.DB.WithContext(ctx).Omit(clause.Associations).Save(&dish).Error; err != nil {
		return nil, fmt.Errorf("save dish %d: %w", id, translate(err))
	}
	return &dish, nil
}

func (r *GormRepo) DeleteDish(ctx context.Context, id uint) error {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("dish_id = ?", id).Delete(&models.Review{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Dish{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete dish %d: %w", id, err)
	}
	return nil
}

func (r *GormRepo) GetReview(ctx context.Context, id uint) (*models.Review, error) {
	var rev models.Review
	if err := r.DB.WithContext(ctx).First(&rev, id).Error; err != nil {
		return nil, fmt.Errorf("find review %d: %w", id, err)
	}
	return &rev, nil
}

func (r *GormRepo) ListReviews(ctx context.Context, dishID uint, offset, limit int) (int64, []models.Review, error) {
	q := r.DB.WithContext(ctx).Model(&models.Review{})
	if dishID != 0 {
		q = q.Where("dish_id = ?", dishID)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return 0, nil, fmt.Errorf("count reviews: %w", err)
	}

	var items []models.Review
	if err := q.Session(&gorm.Session{}).Order("id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, fmt.Errorf("list reviews: %w", err)
	}
	return total, items, nil
}

func (r *GormRepo) CreateReview(ctx context.Context, rev *models.Review) error {
	if err := r.DB.WithContext(ctx).Omit(clause.Associations).Create(rev).Error; err != nil {
		return fmt.Errorf("create review: %w", translate(err))
	}
	return nil
}

func (r *GormRepo) DeleteReview(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&models.Review{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete review %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("delete review %d: %w", id, gorm.ErrRecordNotFound)
	}
	return nil
}
