package repository

import (
	"context"
	"errors"

	"anoa.com/campusfeedback/internal/entity"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrAlreadyLiked = errors.New("feedback already liked")
	ErrNotLiked     = errors.New("feedback not liked")
)

type LikeRepository interface {
	// Create stores the like and bumps the post's like counter atomically.
	Create(ctx context.Context, like *entity.Like) error
	Delete(ctx context.Context, feedbackID, userID uuid.UUID) error
	LikedFeedbackIDs(ctx context.Context, userID uuid.UUID, feedbackIDs []uuid.UUID) (map[uuid.UUID]bool, error)
}

type CommentRepository interface {
	Create(ctx context.Context, comment *entity.Comment) error
	ListByFeedback(ctx context.Context, feedbackID uuid.UUID) ([]entity.Comment, error)
}

type likeRepository struct {
	db *gorm.DB
}

func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &likeRepository{db: db}
}

func (r *likeRepository) Create(ctx context.Context, like *entity.Like) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(like).Error; err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "idx_likes_unique" {
				return ErrAlreadyLiked
			}
			return err
		}
		return tx.Model(&entity.Feedback{}).
			Where("id = ?", like.FeedbackID).
			UpdateColumn("like_count", gorm.Expr("like_count + 1")).Error
	})
}

func (r *likeRepository) Delete(ctx context.Context, feedbackID, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("feedback_id = ? AND user_id = ?", feedbackID, userID).Delete(&entity.Like{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotLiked
		}
		return tx.Model(&entity.Feedback{}).
			Where("id = ? AND like_count > 0", feedbackID).
			UpdateColumn("like_count", gorm.Expr("like_count - 1")).Error
	})
}

func (r *likeRepository) LikedFeedbackIDs(ctx context.Context, userID uuid.UUID, feedbackIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	liked := make(map[uuid.UUID]bool)
	if len(feedbackIDs) == 0 {
		return liked, nil
	}

	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&entity.Like{}).
		Where("user_id = ? AND feedback_id IN ?", userID, feedbackIDs).
		Pluck("feedback_id", &ids).Error; err != nil {
		return nil, err
	}

	for _, id := range ids {
		liked[id] = true
	}
	return liked, nil
}

type commentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *entity.Comment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(comment).Error; err != nil {
			return err
		}
		return tx.Model(&entity.Feedback{}).
			Where("id = ?", comment.FeedbackID).
			UpdateColumn("comment_count", gorm.Expr("comment_count + 1")).Error
	})
}

func (r *commentRepository) ListByFeedback(ctx context.Context, feedbackID uuid.UUID) ([]entity.Comment, error) {
	var comments []entity.Comment
	err := r.db.WithContext(ctx).
		Where("feedback_id = ?", feedbackID).
		Order("created_at asc").
		Find(&comments).Error
	return comments, err
}
