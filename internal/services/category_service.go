package services

import (
	"context"
	"errors"

	"github.com/jaydeesquared/FlagIt/internal/models"
	"github.com/jaydeesquared/FlagIt/internal/store"
	"github.com/jaydeesquared/FlagIt/internal/utils"
)

type CategoryService interface {
	Create(ctx context.Context, name, color string) (*models.Category, error)
	List(ctx context.Context) ([]models.Category, error)
	Delete(ctx context.Context, id uint) error
}

type categoryService struct {
	categories store.CategoryStore
}

func NewCategoryService(stores store.Stores) CategoryService {
	return &categoryService{categories: stores.Categories}
}

func (s *categoryService) Create(ctx context.Context, name, color string) (*models.Category, error) {
	const op = "CategoryService.Create"

	if name == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "name is required", nil)
	}
	if color == "" {
		color = "gray"
	}
	if _, err := s.categories.GetByName(ctx, name); err == nil {
		return nil, utils.E(utils.CodeConflict, op, "category name already exists", nil)
	} else if !errors.Is(err, utils.ErrNotFound) && !utils.IsCode(err, utils.CodeNotFound) {
		return nil, utils.E(utils.CodeInternal, op, "failed to check category name", err)
	}

	cat := &models.Category{Name: name, Color: color}
	if err := s.categories.Insert(ctx, cat); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to insert category", err)
	}
	return cat, nil
}

func (s *categoryService) List(ctx context.Context) ([]models.Category, error) {
	const op = "CategoryService.List"

	rows, err := s.categories.List(ctx)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list categories", err)
	}
	return rows, nil
}

func (s *categoryService) Delete(ctx context.Context, id uint) error {
	const op = "CategoryService.Delete"

	if err := s.categories.Delete(ctx, id); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return utils.E(utils.CodeNotFound, op, "category not found", err)
		}
		return utils.E(utils.CodeInternal, op, "failed to delete category", err)
	}
	return nil
}
