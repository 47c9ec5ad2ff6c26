package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Skotchmaster/restoran/internal/apperr"
	"github.com/Skotchmaster/restoran/internal/models"
	"github.com/Skotchmaster/restoran/internal/repo"
	"github.com/Skotchmaster/restoran/internal/transport"
	"github.com/Skotchmaster/restoran/internal/util"
)

type ReviewService struct {
	Repo   *repo.GormRepo
	Events EventPublisher
}

func (s *ReviewService) Get(ctx context.Context, id uint) (*models.Review, error) {
	rev, err := s.Repo.GetReview(ctx, id)
	if err != nil {
		return nil, storeError(ctx, "get_review", err, "review not found")
	}
	return rev, nil
}

func (s *ReviewService) List(ctx context.Context, dishID uint, p util.Page) (util.List[models.Review], error) {
	total, items, err := s.Repo.ListReviews(ctx, dishID, p.Offset(), p.Size)
	if err != nil {
		return util.List[models.Review]{}, storeError(ctx, "list_reviews", err, "")
	}
	return util.NewList(items, p, total), nil
}

func (s *ReviewService) Create(ctx context.Context, actor *models.Account, req transport.CreateReviewRequest) (*models.Review, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, apperr.Validation("rating must be between 1 and 5")
	}
	if _, err := s.Repo.GetDish(ctx, req.DishID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Validation("unknown dish")
		}
		return nil, storeError(ctx, "get_dish", err, "")
	}

	rev := &models.Review{
		UserID:  actor.ID,
		DishID:  req.DishID,
		Rating:  req.Rating,
		Comment: req.Comment,
	}
	if err := s.Repo.CreateReview(ctx, rev); err != nil {
		if errors.Is(err, repo.ErrInvalidReference) {
			return nil, apperr.Validation("unknown dish")
		}
		return nil, storeError(ctx, "create_review", err, "")
	}

	publish(ctx, s.Events, TopicReviewEvents, Event{Type: EventReviewCreated, UserID: actor.ID, EntityID: rev.ID})
	return rev, nil
}

// Delete is allowed for the author and for admins.
func (s *ReviewService) Delete(ctx context.Context, actor *models.Account, id uint) error {
	rev, err := s.Repo.GetReview(ctx, id)
	if err != nil {
		return storeError(ctx, "get_review", err, "review not found")
	}
	if !canManage(actor, &rev.UserID) {
		return apperr.Forbidden("only the author or an admin can delete this review")
	}
	if err := s.Repo.DeleteReview(ctx, id); err != nil {
		return storeError(ctx, "delete_review", err, "review not found")
	}
	return nil
}
