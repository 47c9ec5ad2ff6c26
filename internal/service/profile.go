package service

import (
	"context"

	"github.com/Skotchmaster/restoran/internal/apperr"
	"github.com/Skotchmaster/restoran/internal/models"
	"github.com/Skotchmaster/restoran/internal/repo"
	"github.com/Skotchmaster/restoran/internal/transport"
)

type ProfileService struct {
	Repo *repo.GormRepo
}

func (s *ProfileService) Get(ctx context.Context, userID uint) (*models.Profile, error) {
	p, err := s.Repo.GetProfile(ctx, userID)
	if err != nil {
		return nil, storeError(ctx, "get_profile", err, "profile not found")
	}
	return p, nil
}

func (s *ProfileService) Update(ctx context.Context, userID uint, req transport.UpdateProfileRequest) (*models.Profile, error) {
	if req.ContactEmail != nil && *req.ContactEmail != "" && !validEmail(*req.ContactEmail) {
		return nil, apperr.Validation("invalid contact email")
	}

	p, err := s.Repo.UpdateProfile(ctx, userID, req)
	if err != nil {
		return nil, storeError(ctx, "update_profile", err, "profile not found")
	}
	return p, nil
}
