package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"anoa.com/campusfeedback/internal/entity"
	accessService "anoa.com/campusfeedback/internal/modules/access/service"
	anonDto "anoa.com/campusfeedback/internal/modules/anonymity/dto"
	anonymity "anoa.com/campusfeedback/internal/modules/anonymity/service"
	"anoa.com/campusfeedback/internal/modules/moderation/dto"
	"anoa.com/campusfeedback/internal/modules/moderation/repository"
	userRepo "anoa.com/campusfeedback/internal/modules/user/repository"
	"anoa.com/campusfeedback/pkg/apperror"
	"anoa.com/campusfeedback/pkg/clock"
	"anoa.com/campusfeedback/pkg/metrics"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const (
	DefaultSuspensionDays = 7
	MaxSuspensionDays     = 365
)

// Policy holds the tunable limits of disciplinary actions.
type Policy struct {
	DefaultSuspensionDays int
	MaxSuspensionDays     int
}

type PostFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Feedback, error)
}

type UserLister interface {
	List(ctx context.Context, filter userRepo.Filter) ([]entity.User, error)
}

// Notifier records a notification for one user.
type Notifier interface {
	Create(ctx context.Context, userID uuid.UUID, kind entity.NotificationType, title, message string, relatedID *uuid.UUID) error
}

type ModerationService interface {
	FlagPost(ctx context.Context, actor *entity.User, feedbackID uuid.UUID, input dto.FlagInput) (*dto.FlagResult, error)
	ListPending(ctx context.Context, admin *entity.User) (*dto.PendingFlags, error)
	Dismiss(ctx context.Context, admin *entity.User, flagID uuid.UUID, input dto.ResolveInput) (*anonDto.AdminFlagView, error)
	Suspend(ctx context.Context, admin *entity.User, flagID uuid.UUID, input dto.SuspendInput) (*anonDto.AdminFlagView, error)
	Ban(ctx context.Context, admin *entity.User, flagID uuid.UUID, input dto.ResolveInput) (*anonDto.AdminFlagView, error)
}

type moderationService struct {
	flags     repository.FlagRepository
	posts     PostFinder
	users     UserLister
	notifier  Notifier
	clock     clock.Clock
	policy    Policy
	sanitizer *bluemonday.Policy
}

func NewModerationService(flags repository.FlagRepository, posts PostFinder, users UserLister, notifier Notifier, clk clock.Clock, policy Policy) ModerationService {
	if clk == nil {
		clk = clock.Real()
	}
	if policy.DefaultSuspensionDays <= 0 {
		policy.DefaultSuspensionDays = DefaultSuspensionDays
	}
	if policy.MaxSuspensionDays <= 0 {
		policy.MaxSuspensionDays = MaxSuspensionDays
	}
	return &moderationService{
		flags:     flags,
		posts:     posts,
		users:     users,
		notifier:  notifier,
		clock:     clk,
		policy:    policy,
		sanitizer: bluemonday.StrictPolicy(),
	}
}

func (s *moderationService) clean(raw string) string {
	return strings.TrimSpace(s.sanitizer.Sanitize(raw))
}

func (s *moderationService) FlagPost(ctx context.Context, actor *entity.User, feedbackID uuid.UUID, input dto.FlagInput) (*dto.FlagResult, error) {
	if err := accessService.Authorize(actor, entity.RoleFaculty, entity.RoleAdmin); err != nil {
		return nil, err
	}

	reason := s.clean(input.Reason)
	if reason == "" {
		return nil, apperror.Validation(apperror.CodeMissingReason, "flag reason is required")
	}

	post, err := s.posts.FindByID(ctx, feedbackID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound(apperror.CodeFeedbackNotFound, "feedback not found")
		}
		return nil, apperror.Internal(err)
	}
	if post.IsFlagged {
		return nil, alreadyFlagged()
	}

	flag := &entity.Flag{
		FeedbackID:  post.ID,
		FlaggedByID: actor.ID,
		Reason:      reason,
		Status:      entity.FlagPending,
		AdminAction: entity.ActionNone,
	}
	if err := s.flags.CreateAndHide(ctx, flag); err != nil {
		if errors.Is(err, repository.ErrAlreadyFlagged) {
			return nil, alreadyFlagged()
		}
		return nil, apperror.Internal(err)
	}
	metrics.FlagsCreated.Inc()

	log.Info().
		Str("flag_id", flag.ID.String()).
		Str("feedback_id", post.ID.String()).
		Str("flagged_by", actor.ID.String()).
		Msg("feedback flagged and hidden")

	result := &dto.FlagResult{FlagID: flag.ID, FeedbackID: post.ID, Status: flag.Status}

	adminRole := entity.RoleAdmin
	admins, err := s.users.List(ctx, userRepo.Filter{Role: &adminRole})
	if err != nil {
		log.Error().Err(err).Str("flag_id", flag.ID.String()).Msg("could not load admins for flag notification")
		return result, nil
	}

	message := fmt.Sprintf("A post has been flagged by %s for: %s", actor.ResolveDisplayName(), reason)
	for _, admin := range admins {
		if s.notify(ctx, admin.ID, entity.NotificationFlag, "New Flagged Post", message, post.ID) {
			result.AdminsNotified++
		} else {
			result.NotifyFailed++
		}
	}
	return result, nil
}

func alreadyFlagged() error {
	return apperror.Conflict(apperror.CodeAlreadyFlagged, "this post has already been flagged")
}

// notify records one notification. Failures are logged and counted but never
// fail the surrounding action.
func (s *moderationService) notify(ctx context.Context, userID uuid.UUID, kind entity.NotificationType, title, message string, related uuid.UUID) bool {
	if err := s.notifier.Create(ctx, userID, kind, title, message, &related); err != nil {
		metrics.NotificationsFailed.WithLabelValues(string(kind)).Inc()
		log.Warn().Err(err).
			Str("recipient_id", userID.String()).
			Str("type", string(kind)).
			Msg("notification not recorded")
		return false
	}
	return true
}

func (s *moderationService) ListPending(ctx context.Context, admin *entity.User) (*dto.PendingFlags, error) {
	if err := accessService.Authorize(admin, entity.RoleAdmin); err != nil {
		return nil, err
	}

	flags, err := s.flags.ListPending(ctx)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	views := make([]anonDto.AdminFlagView, 0, len(flags))
	for i := range flags {
		view, err := anonymity.ProjectFlagForAdmin(&flags[i], admin)
		if err != nil {
			return nil, err
		}
		views = append(views, *view)
	}
	return &dto.PendingFlags{Flags: views, Total: len(views)}, nil
}

func flagNotPending() error {
	return apperror.Conflict(apperror.CodeFlagNotPending, "flag has already been resolved")
}

func (s *moderationService) loadPending(ctx context.Context, id uuid.UUID) (*entity.Flag, error) {
	flag, err := s.flags.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound(apperror.CodeFlagNotFound, "flag not found")
		}
		return nil, apperror.Internal(err)
	}
	if !flag.IsPending() {
		return nil, flagNotPending()
	}
	return flag, nil
}

// studentAuthor resolves the author of the flagged post. Disciplinary
// remedies only apply to students.
func studentAuthor(flag *entity.Flag) (*entity.User, error) {
	if flag.Feedback == nil {
		return nil, apperror.NotFound(apperror.CodeFeedbackNotFound, "flagged feedback no longer exists")
	}
	author := flag.Feedback.Author
	if author == nil {
		return nil, apperror.NotFound(apperror.CodeUserNotFound, "author of the flagged feedback not found")
	}
	if author.Role != entity.RoleStudent {
		return nil, apperror.Validation(apperror.CodeNotStudent, "only student accounts can be disciplined")
	}
	return author, nil
}

func (s *moderationService) notes(raw *string) *string {
	if raw == nil {
		return nil
	}
	v := s.clean(*raw)
	if v == "" {
		return nil
	}
	return &v
}

// resolve stamps the decision on flag and persists it together with its side
// effects.
func (s *moderationService) resolve(ctx context.Context, admin *entity.User, flag *entity.Flag, action entity.AdminAction, notes *string, res repository.Resolution) error {
	if err := flag.Resolve(action, admin.ID, s.clock.Now(), s.notes(notes)); err != nil {
		if errors.Is(err, entity.ErrFlagResolved) {
			return flagNotPending()
		}
		return apperror.Internal(err)
	}

	res.Flag = flag
	if err := s.flags.Resolve(ctx, res); err != nil {
		if errors.Is(err, repository.ErrFlagNotPending) {
			return flagNotPending()
		}
		return apperror.Internal(err)
	}
	flag.ReviewedBy = admin

	metrics.ModerationActions.WithLabelValues(string(action)).Inc()
	log.Info().
		Str("flag_id", flag.ID.String()).
		Str("admin_id", admin.ID.String()).
		Str("action", string(action)).
		Msg("flag resolved")
	return nil
}

func (s *moderationService) Dismiss(ctx context.Context, admin *entity.User, flagID uuid.UUID, input dto.ResolveInput) (*anonDto.AdminFlagView, error) {
	if err := accessService.Authorize(admin, entity.RoleAdmin); err != nil {
		return nil, err
	}

	flag, err := s.loadPending(ctx, flagID)
	if err != nil {
		return nil, err
	}

	if err := s.resolve(ctx, admin, flag, entity.ActionDismissed, input.AdminNotes, repository.Resolution{Restore: true}); err != nil {
		return nil, err
	}
	if flag.Feedback != nil {
		flag.Feedback.Restore()
	}

	s.notify(ctx, flag.FlaggedByID, entity.NotificationModeration, "Flag Dismissed",
		"The post you flagged has been reviewed and restored.", flag.FeedbackID)

	return anonymity.ProjectFlagForAdmin(flag, admin)
}

func (s *moderationService) suspensionDays(days *int) (int, error) {
	if days == nil {
		return s.policy.DefaultSuspensionDays, nil
	}
	if *days < 1 || *days > s.policy.MaxSuspensionDays {
		return 0, apperror.Validation(apperror.CodeInvalidSuspensionDays,
			fmt.Sprintf("suspension days must be between 1 and %d", s.policy.MaxSuspensionDays))
	}
	return *days, nil
}

func (s *moderationService) Suspend(ctx context.Context, admin *entity.User, flagID uuid.UUID, input dto.SuspendInput) (*anonDto.AdminFlagView, error) {
	if err := accessService.Authorize(admin, entity.RoleAdmin); err != nil {
		return nil, err
	}

	days, err := s.suspensionDays(input.Days)
	if err != nil {
		return nil, err
	}

	flag, err := s.loadPending(ctx, flagID)
	if err != nil {
		return nil, err
	}
	author, err := studentAuthor(flag)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	end := now.Add(time.Duration(days) * 24 * time.Hour)
	// A running suspension that ends later is never shortened.
	if author.SuspensionActive(now) && author.SuspensionEndDate.After(end) {
		end = *author.SuspensionEndDate
	}
	updated := *author
	updated.IsSuspended = true
	updated.SuspensionEndDate = &end

	if err := s.resolve(ctx, admin, flag, entity.ActionSuspended, input.AdminNotes, repository.Resolution{Author: &updated}); err != nil {
		return nil, err
	}
	flag.Feedback.Author = &updated

	s.notify(ctx, flag.FlaggedByID, entity.NotificationModeration, "User Suspended",
		fmt.Sprintf("The user who posted the flagged content has been suspended for %d days.", days), flag.FeedbackID)

	return anonymity.ProjectFlagForAdmin(flag, admin)
}

func (s *moderationService) Ban(ctx context.Context, admin *entity.User, flagID uuid.UUID, input dto.ResolveInput) (*anonDto.AdminFlagView, error) {
	if err := accessService.Authorize(admin, entity.RoleAdmin); err != nil {
		return nil, err
	}

	flag, err := s.loadPending(ctx, flagID)
	if err != nil {
		return nil, err
	}
	author, err := studentAuthor(flag)
	if err != nil {
		return nil, err
	}

	updated := *author
	updated.IsBanned = true

	if err := s.resolve(ctx, admin, flag, entity.ActionBanned, input.AdminNotes, repository.Resolution{Author: &updated}); err != nil {
		return nil, err
	}
	flag.Feedback.Author = &updated

	s.notify(ctx, flag.FlaggedByID, entity.NotificationModeration, "User Banned",
		"The user who posted the flagged content has been permanently banned.", flag.FeedbackID)

	return anonymity.ProjectFlagForAdmin(flag, admin)
}
