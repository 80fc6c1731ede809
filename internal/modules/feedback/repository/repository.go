package repository

import (
	"context"

	"anoa.com/campusfeedback/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	SortRecent       = "recent"
	SortMostLiked    = "mostLiked"
	SortHighestRated = "highestRated"
)

type FeedFilter struct {
	Category      *entity.FeedbackCategory
	IncludeHidden bool
	Sort          string
	Limit         int
	Skip          int
}

type FeedbackRepository interface {
	Create(ctx context.Context, feedback *entity.Feedback) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Feedback, error)
	List(ctx context.Context, filter FeedFilter) ([]entity.Feedback, int64, error)
	// UpdateContent saves content and, when ratings is non-nil, replaces the
	// ratings. Moderation fields are never written here.
	UpdateContent(ctx context.Context, feedback *entity.Feedback, ratings []entity.Rating) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountByVisibility(ctx context.Context) (visible int64, hidden int64, err error)
}

type feedbackRepository struct {
	db *gorm.DB
}

func NewFeedbackRepository(db *gorm.DB) FeedbackRepository {
	return &feedbackRepository{db: db}
}

func (r *feedbackRepository) Create(ctx context.Context, feedback *entity.Feedback) error {
	return r.db.WithContext(ctx).Create(feedback).Error
}

func (r *feedbackRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Feedback, error) {
	var feedback entity.Feedback
	if err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Ratings").
		First(&feedback, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &feedback, nil
}

func (r *feedbackRepository) List(ctx context.Context, filter FeedFilter) ([]entity.Feedback, int64, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		if !filter.IncludeHidden {
			db = db.Where("is_hidden = ?", false)
		}
		if filter.Category != nil {
			db = db.Where("category = ?", *filter.Category)
		}
		return db
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&entity.Feedback{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := r.db.WithContext(ctx).Scopes(scope)
	switch filter.Sort {
	case SortMostLiked:
		query = query.Order("like_count desc").Order("created_at desc")
	case SortHighestRated:
		query = query.Order("average_rating desc").Order("created_at desc")
	default:
		query = query.Order("created_at desc")
	}

	var items []entity.Feedback
	err := query.
		Preload("Author").
		Preload("Ratings").
		Limit(filter.Limit).
		Offset(filter.Skip).
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *feedbackRepository) UpdateContent(ctx context.Context, feedback *entity.Feedback, ratings []entity.Rating) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if ratings != nil {
			if err := tx.Where("feedback_id = ?", feedback.ID).Delete(&entity.Rating{}).Error; err != nil {
				return err
			}
			for i := range ratings {
				ratings[i].ID = 0
				ratings[i].FeedbackID = feedback.ID
			}
			if len(ratings) > 0 {
				if err := tx.Create(&ratings).Error; err != nil {
					return err
				}
			}
			feedback.Ratings = ratings
		}

		return tx.Model(&entity.Feedback{}).
			Where("id = ?", feedback.ID).
			Updates(map[string]any{
				"content":        feedback.Content,
				"average_rating": feedback.AverageRating,
				"updated_at":     gorm.Expr("NOW()"),
			}).Error
	})
}

func (r *feedbackRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&entity.Feedback{}, "id = ?", id).Error
}

func (r *feedbackRepository) CountByVisibility(ctx context.Context) (int64, int64, error) {
	var visible, hidden int64
	if err := r.db.WithContext(ctx).Model(&entity.Feedback{}).Where("is_hidden = ?", false).Count(&visible).Error; err != nil {
		return 0, 0, err
	}
	if err := r.db.WithContext(ctx).Model(&entity.Feedback{}).Where("is_hidden = ?", true).Count(&hidden).Error; err != nil {
		return 0, 0, err
	}
	return visible, hidden, nil
}
