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
	ErrEmailTaken           = errors.New("email already registered")
	ErrAnonymousHandleTaken = errors.New("anonymous handle already taken")
	ErrOAuthIDTaken         = errors.New("oauth account already linked")
	ErrApprovalNotPending   = errors.New("approval already decided")
)

// Filter narrows List. Zero values mean no constraint.
type Filter struct {
	Role           *entity.Role
	ApprovalStatus *entity.ApprovalStatus
}

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindByOAuthID(ctx context.Context, provider, oauthID string) (*entity.User, error)
	// The writers below touch only their own columns, so they never undo a
	// concurrent ban or suspension.
	UpdateDisplayName(ctx context.Context, id uuid.UUID, displayName string) error
	LinkOAuth(ctx context.Context, id uuid.UUID, provider, oauthID string) error
	// DecideApproval moves a pending account to status. It fails with
	// ErrApprovalNotPending when the account was decided concurrently.
	DecideApproval(ctx context.Context, id uuid.UUID, status entity.ApprovalStatus) error
	List(ctx context.Context, filter Filter) ([]entity.User, error)
	CountByRole(ctx context.Context) (map[entity.Role]int64, error)
	CountPendingFaculty(ctx context.Context) (int64, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return classifyUniqueViolation(err)
	}
	return nil
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	var user entity.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	var user entity.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByOAuthID(ctx context.Context, provider, oauthID string) (*entity.User, error) {
	var user entity.User
	if err := r.db.WithContext(ctx).
		Where("oauth_provider = ? AND oauth_id = ?", provider, oauthID).
		First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) UpdateDisplayName(ctx context.Context, id uuid.UUID, displayName string) error {
	res := r.db.WithContext(ctx).
		Model(&entity.User{}).
		Where("id = ?", id).
		Update("display_name", displayName)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *userRepository) LinkOAuth(ctx context.Context, id uuid.UUID, provider, oauthID string) error {
	res := r.db.WithContext(ctx).
		Model(&entity.User{}).
		Where("id = ?", id).
		Updates(map[string]any{"oauth_provider": provider, "oauth_id": oauthID})
	if res.Error != nil {
		return classifyUniqueViolation(res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *userRepository) DecideApproval(ctx context.Context, id uuid.UUID, status entity.ApprovalStatus) error {
	res := r.db.WithContext(ctx).
		Model(&entity.User{}).
		Where("id = ? AND approval_status = ?", id, entity.ApprovalPending).
		Update("approval_status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrApprovalNotPending
	}
	return nil
}

func (r *userRepository) List(ctx context.Context, filter Filter) ([]entity.User, error) {
	var users []entity.User
	query := r.db.WithContext(ctx).Model(&entity.User{})

	if filter.Role != nil {
		query = query.Where("role = ?", *filter.Role)
	}
	if filter.ApprovalStatus != nil {
		query = query.Where("approval_status = ?", *filter.ApprovalStatus)
	}

	if err := query.Order("created_at desc").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) CountByRole(ctx context.Context) (map[entity.Role]int64, error) {
	var rows []struct {
		Role  entity.Role
		Total int64
	}
	if err := r.db.WithContext(ctx).
		Model(&entity.User{}).
		Select("role, count(*) as total").
		Group("role").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[entity.Role]int64, len(entity.Roles))
	for _, role := range entity.Roles {
		counts[role] = 0
	}
	for _, row := range rows {
		counts[row.Role] = row.Total
	}
	return counts, nil
}

func (r *userRepository) CountPendingFaculty(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.User{}).
		Where("role = ? AND approval_status = ?", entity.RoleFaculty, entity.ApprovalPending).
		Count(&count).Error
	return count, err
}

func classifyUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return err
	}

	switch pgErr.ConstraintName {
	case "idx_users_anonymous_handle":
		return ErrAnonymousHandleTaken
	case "idx_users_email":
		return ErrEmailTaken
	case "idx_users_oauth_id":
		return ErrOAuthIDTaken
	default:
		return err
	}
}
