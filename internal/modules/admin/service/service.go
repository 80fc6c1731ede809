package service

import (
	"context"
	"errors"

	"anoa.com/campusfeedback/internal/entity"
	accessService "anoa.com/campusfeedback/internal/modules/access/service"
	"anoa.com/campusfeedback/internal/modules/admin/dto"
	anonDto "anoa.com/campusfeedback/internal/modules/anonymity/dto"
	anonymity "anoa.com/campusfeedback/internal/modules/anonymity/service"
	userRepo "anoa.com/campusfeedback/internal/modules/user/repository"
	"anoa.com/campusfeedback/pkg/apperror"
	"anoa.com/campusfeedback/pkg/metrics"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type Notifier interface {
	Create(ctx context.Context, userID uuid.UUID, kind entity.NotificationType, title, message string, relatedID *uuid.UUID) error
}

type FlagCounter interface {
	CountPending(ctx context.Context) (int64, error)
}

type PostCounter interface {
	CountByVisibility(ctx context.Context) (visible int64, hidden int64, err error)
}

type AdminService interface {
	ListPendingFaculty(ctx context.Context, admin *entity.User) (*dto.UserList, error)
	ApproveFaculty(ctx context.Context, admin *entity.User, id uuid.UUID) (*anonDto.SafeUser, error)
	RejectFaculty(ctx context.Context, admin *entity.User, id uuid.UUID) (*anonDto.SafeUser, error)
	ListUsers(ctx context.Context, admin *entity.User, query dto.ListUsersQuery) (*dto.UserList, error)
	Stats(ctx context.Context, admin *entity.User) (*dto.Stats, error)
}

type adminService struct {
	users    userRepo.UserRepository
	flags    FlagCounter
	posts    PostCounter
	notifier Notifier
}

func NewAdminService(users userRepo.UserRepository, flags FlagCounter, posts PostCounter, notifier Notifier) AdminService {
	return &adminService{users: users, flags: flags, posts: posts, notifier: notifier}
}

func (s *adminService) list(ctx context.Context, admin *entity.User, filter userRepo.Filter) (*dto.UserList, error) {
	users, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return &dto.UserList{Users: anonymity.ProjectUsers(users, admin), Total: len(users)}, nil
}

func (s *adminService) ListPendingFaculty(ctx context.Context, admin *entity.User) (*dto.UserList, error) {
	if err := accessService.Authorize(admin, entity.RoleAdmin); err != nil {
		return nil, err
	}
	role, status := entity.RoleFaculty, entity.ApprovalPending
	return s.list(ctx, admin, userRepo.Filter{Role: &role, ApprovalStatus: &status})
}

func (s *adminService) ListUsers(ctx context.Context, admin *entity.User, query dto.ListUsersQuery) (*dto.UserList, error) {
	if err := accessService.Authorize(admin, entity.RoleAdmin); err != nil {
		return nil, err
	}

	var filter userRepo.Filter
	if query.Role != "" {
		role := entity.Role(query.Role)
		if !role.Valid() {
			return nil, apperror.Validation(apperror.CodeValidation, "role must be one of student, faculty, admin")
		}
		filter.Role = &role
	}
	return s.list(ctx, admin, filter)
}

func (s *adminService) ApproveFaculty(ctx context.Context, admin *entity.User, id uuid.UUID) (*anonDto.SafeUser, error) {
	return s.decide(ctx, admin, id, entity.ApprovalApproved)
}

func (s *adminService) RejectFaculty(ctx context.Context, admin *entity.User, id uuid.UUID) (*anonDto.SafeUser, error) {
	return s.decide(ctx, admin, id, entity.ApprovalRejected)
}

// decide moves a pending faculty account to its terminal approval state and
// tells the account holder.
func (s *adminService) decide(ctx context.Context, admin *entity.User, id uuid.UUID, outcome entity.ApprovalStatus) (*anonDto.SafeUser, error) {
	if err := accessService.Authorize(admin, entity.RoleAdmin); err != nil {
		return nil, err
	}

	faculty, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound(apperror.CodeFacultyNotFound, "faculty member not found")
		}
		return nil, apperror.Internal(err)
	}
	if faculty.Role != entity.RoleFaculty {
		return nil, apperror.Validation(apperror.CodeNotFaculty, "user is not a faculty member")
	}
	if faculty.ApprovalStatus != entity.ApprovalPending {
		return nil, apperror.Conflict(apperror.CodeApprovalNotPending, "faculty account has already been reviewed").
			WithDetail("approval_status", faculty.ApprovalStatus)
	}

	if err := s.users.DecideApproval(ctx, faculty.ID, outcome); err != nil {
		if errors.Is(err, userRepo.ErrApprovalNotPending) {
			return nil, apperror.Conflict(apperror.CodeApprovalNotPending, "faculty account has already been reviewed")
		}
		return nil, apperror.Internal(err)
	}
	faculty.ApprovalStatus = outcome

	kind, title, message := entity.NotificationApproval, "Account Approved",
		"Your faculty account has been approved. You can now access the system."
	if outcome == entity.ApprovalRejected {
		kind, title, message = entity.NotificationRejection, "Account Rejected",
			"Your faculty account registration has been rejected. Please contact administration for more information."
	}
	if err := s.notifier.Create(ctx, faculty.ID, kind, title, message, nil); err != nil {
		metrics.NotificationsFailed.WithLabelValues(string(kind)).Inc()
		log.Warn().Err(err).Str("faculty_id", faculty.ID.String()).Msg("approval notification not recorded")
	}

	log.Info().
		Str("faculty_id", faculty.ID.String()).
		Str("admin_id", admin.ID.String()).
		Str("outcome", string(outcome)).
		Msg("faculty approval decided")

	view := anonymity.ProjectUser(faculty, admin)
	return &view, nil
}

func (s *adminService) Stats(ctx context.Context, admin *entity.User) (*dto.Stats, error) {
	if err := accessService.Authorize(admin, entity.RoleAdmin); err != nil {
		return nil, err
	}

	byRole, err := s.users.CountByRole(ctx)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	pendingFaculty, err := s.users.CountPendingFaculty(ctx)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	pendingFlags, err := s.flags.CountPending(ctx)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	visible, hidden, err := s.posts.CountByVisibility(ctx)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	return &dto.Stats{
		UsersByRole:    byRole,
		PendingFaculty: pendingFaculty,
		PendingFlags:   pendingFlags,
		Posts:          dto.PostStats{Visible: visible, Hidden: hidden},
	}, nil
}
