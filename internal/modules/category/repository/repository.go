package repository

import (
	"context"
	"errors"

	"anoa.com/campusfeedback/internal/entity"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var ErrNameTaken = errors.New("rating category name already exists")

type CategoryRepository interface {
	Create(ctx context.Context, category *entity.RatingCategory) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.RatingCategory, error)
	FindByName(ctx context.Context, name string) (*entity.RatingCategory, error)
	FindActive(ctx context.Context) ([]entity.RatingCategory, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type categoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) Create(ctx context.Context, category *entity.RatingCategory) error {
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrNameTaken
		}
		return err
	}
	return nil
}

func (r *categoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.RatingCategory, error) {
	var category entity.RatingCategory
	if err := r.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) FindByName(ctx context.Context, name string) (*entity.RatingCategory, error) {
	var category entity.RatingCategory
	if err := r.db.WithContext(ctx).Where("LOWER(name) = LOWER(?)", name).First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) FindActive(ctx context.Context) ([]entity.RatingCategory, error) {
	var categories []entity.RatingCategory
	err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("name asc").Find(&categories).Error
	return categories, err
}

func (r *categoryRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&entity.RatingCategory{}).Where("id = ?", id).Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
