package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"dinein-backend/internal/domains/menu/model"
	"dinein-backend/internal/domains/menu/repository"
	"dinein-backend/pkg/logger"
)

type menuService struct {
	repo repository.MenuRepository
}

func NewMenuService(repo repository.MenuRepository) MenuService {
	return &menuService{repo: repo}
}

func (s *menuService) GetItem(ctx context.Context, id uuid.UUID) (*model.MenuItem, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *menuService) GetItems(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.MenuItem, error) {
	return s.repo.FindByIDs(ctx, ids)
}

func (s *menuService) ListItems(ctx context.Context, category string, onlyAvailable bool) ([]*model.MenuItem, error) {
	return s.repo.List(ctx, category, onlyAvailable)
}

func (s *menuService) CreateItem(ctx context.Context, req *model.CreateMenuItemRequest) (*model.MenuItem, error) {
	// Step 1: Validate input
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// Step 2: Build entity with defaults
	available := true
	if req.IsAvailable != nil {
		available = *req.IsAvailable
	}
	item := &model.MenuItem{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		ImageURL:    req.ImageURL,
		Category:    req.Category,
		IsAvailable: available,
	}

	// Step 3: Persist
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("create menu item: %w", err)
	}

	logger.Info("menu item created", map[string]interface{}{
		"item_id": item.ID.String(),
		"name":    item.Name,
	})
	return item, nil
}

func (s *menuService) UpdateItem(ctx context.Context, id uuid.UUID, req *model.UpdateMenuItemRequest) (*model.MenuItem, error) {
	// Step 1: Validate input
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// Step 2: Load current state
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Step 3: Apply partial update
	if req.Name != nil {
		item.Name = *req.Name
	}
	if req.Description != nil {
		item.Description = req.Description
	}
	if req.Price != nil {
		item.Price = *req.Price
	}
	if req.ImageURL != nil {
		item.ImageURL = req.ImageURL
	}
	if req.Category != nil {
		item.Category = *req.Category
	}
	if req.IsAvailable != nil {
		item.IsAvailable = *req.IsAvailable
	}

	// Step 4: Persist
	if err := s.repo.Update(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *menuService) DeleteItem(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}
