package service

import (
	"context"
	"errors"
	"strings"

	"anoa.com/campusfeedback/internal/entity"
	"anoa.com/campusfeedback/internal/modules/category/dto"
	"anoa.com/campusfeedback/internal/modules/category/repository"
	"anoa.com/campusfeedback/pkg/apperror"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"gorm.io/gorm"
)

type CategoryService interface {
	CreateCategory(ctx context.Context, req dto.CreateCategoryRequest) (*dto.CategoryResponse, error)
	GetActiveCategories(ctx context.Context) ([]dto.CategoryResponse, error)
	DeactivateCategory(ctx context.Context, id uuid.UUID) error
	// ResolveActive returns the active category with id, or CATEGORY_NOT_FOUND.
	ResolveActive(ctx context.Context, id uuid.UUID) (*entity.RatingCategory, error)
}

type categoryService struct {
	repo      repository.CategoryRepository
	sanitizer *bluemonday.Policy
}

func NewCategoryService(repo repository.CategoryRepository) CategoryService {
	return &categoryService{repo: repo, sanitizer: bluemonday.StrictPolicy()}
}

func toResponse(c *entity.RatingCategory) dto.CategoryResponse {
	return dto.CategoryResponse{ID: c.ID, Name: c.Name, Description: c.Description}
}

func (s *categoryService) CreateCategory(ctx context.Context, req dto.CreateCategoryRequest) (*dto.CategoryResponse, error) {
	name := strings.TrimSpace(s.sanitizer.Sanitize(req.Name))
	if name == "" {
		return nil, apperror.Validation(apperror.CodeValidation, "category name is required")
	}

	if existing, err := s.repo.FindByName(ctx, name); err == nil && existing != nil {
		return nil, apperror.Conflict(apperror.CodeCategoryExists, "a rating category with this name already exists")
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.Internal(err)
	}

	category := &entity.RatingCategory{
		Name:        name,
		Description: strings.TrimSpace(s.sanitizer.Sanitize(req.Description)),
		IsActive:    true,
	}
	if err := s.repo.Create(ctx, category); err != nil {
		if errors.Is(err, repository.ErrNameTaken) {
			return nil, apperror.Conflict(apperror.CodeCategoryExists, "a rating category with this name already exists")
		}
		return nil, apperror.Internal(err)
	}

	res := toResponse(category)
	return &res, nil
}

func (s *categoryService) GetActiveCategories(ctx context.Context) ([]dto.CategoryResponse, error) {
	categories, err := s.repo.FindActive(ctx)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	out := make([]dto.CategoryResponse, 0, len(categories))
	for i := range categories {
		out = append(out, toResponse(&categories[i]))
	}
	return out, nil
}

func (s *categoryService) DeactivateCategory(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Deactivate(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound(apperror.CodeCategoryNotFound, "rating category not found")
		}
		return apperror.Internal(err)
	}
	return nil
}

func (s *categoryService) ResolveActive(ctx context.Context, id uuid.UUID) (*entity.RatingCategory, error) {
	category, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound(apperror.CodeCategoryNotFound, "rating category not found")
		}
		return nil, apperror.Internal(err)
	}
	if !category.IsActive {
		return nil, apperror.NotFound(apperror.CodeCategoryNotFound, "rating category not found")
	}
	return category, nil
}
