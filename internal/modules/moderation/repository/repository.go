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
	ErrAlreadyFlagged = errors.New("feedback already has a pending flag")
	ErrFlagNotPending = errors.New("flag is no longer pending")
)

// Resolution is everything one admin decision writes.
type Resolution struct {
	Flag *entity.Flag
	// Restore un-hides the flagged post.
	Restore bool
	// Author, when set, has its suspension and ban state saved.
	Author *entity.User
}

type FlagRepository interface {
	// CreateAndHide inserts a pending flag and hides its post in one
	// transaction.
	CreateAndHide(ctx context.Context, flag *entity.Flag) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Flag, error)
	ListPending(ctx context.Context) ([]entity.Flag, error)
	// Resolve applies r atomically. It fails with ErrFlagNotPending when the
	// flag was resolved concurrently.
	Resolve(ctx context.Context, r Resolution) error
	CountPending(ctx context.Context) (int64, error)
}

type flagRepository struct {
	db *gorm.DB
}

func NewFlagRepository(db *gorm.DB) FlagRepository {
	return &flagRepository{db: db}
}

func (r *flagRepository) CreateAndHide(ctx context.Context, flag *entity.Flag) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&entity.Feedback{}).
			Where("id = ? AND is_flagged = ?", flag.FeedbackID, false).
			Updates(map[string]any{
				"is_flagged":    true,
				"is_hidden":     true,
				"flagged_by_id": flag.FlaggedByID,
				"flag_reason":   flag.Reason,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyFlagged
		}

		if err := tx.Omit("Feedback", "FlaggedBy", "ReviewedBy").Create(flag).Error; err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "idx_flags_one_pending" {
				return ErrAlreadyFlagged
			}
			return err
		}
		return nil
	})
}

func (r *flagRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Flag, error) {
	var flag entity.Flag
	if err := r.db.WithContext(ctx).
		Preload("Feedback").
		Preload("Feedback.Author").
		Preload("FlaggedBy").
		Preload("ReviewedBy").
		First(&flag, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &flag, nil
}

func (r *flagRepository) ListPending(ctx context.Context) ([]entity.Flag, error) {
	var flags []entity.Flag
	err := r.db.WithContext(ctx).
		Preload("Feedback").
		Preload("Feedback.Author").
		Preload("FlaggedBy").
		Where("status = ?", entity.FlagPending).
		Order("created_at desc").
		Find(&flags).Error
	return flags, err
}

func (r *flagRepository) Resolve(ctx context.Context, res Resolution) error {
	flag := res.Flag
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		upd := tx.Model(&entity.Flag{}).
			Where("id = ? AND status = ?", flag.ID, entity.FlagPending).
			Updates(map[string]any{
				"status":         flag.Status,
				"admin_action":   flag.AdminAction,
				"admin_notes":    flag.AdminNotes,
				"reviewed_by_id": flag.ReviewedByID,
				"reviewed_at":    flag.ReviewedAt,
			})
		if upd.Error != nil {
			return upd.Error
		}
		if upd.RowsAffected == 0 {
			return ErrFlagNotPending
		}

		if res.Restore {
			if err := tx.Model(&entity.Feedback{}).
				Where("id = ?", flag.FeedbackID).
				Updates(map[string]any{
					"is_flagged":    false,
					"is_hidden":     false,
					"flagged_by_id": nil,
					"flag_reason":   nil,
				}).Error; err != nil {
				return err
			}
		}

		if res.Author != nil {
			if err := tx.Model(&entity.User{}).
				Where("id = ?", res.Author.ID).
				Updates(map[string]any{
					"is_suspended":        res.Author.IsSuspended,
					"suspension_end_date": res.Author.SuspensionEndDate,
					"is_banned":           res.Author.IsBanned,
				}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *flagRepository) CountPending(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Flag{}).Where("status = ?", entity.FlagPending).Count(&count).Error
	return count, err
}
