package service

import (
	"context"

	"anoa.com/campusfeedback/internal/entity"
	"anoa.com/campusfeedback/internal/modules/notification/dto"
	notifRepo "anoa.com/campusfeedback/internal/modules/notification/repository"
	"anoa.com/campusfeedback/pkg/apperror"
	"github.com/google/uuid"
)

const defaultListLimit = 20

// NotificationService is the append-only sink for moderation and approval
// events.
type NotificationService interface {
	Create(ctx context.Context, userID uuid.UUID, kind entity.NotificationType, title, message string, relatedID *uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID, query dto.ListQuery) (*dto.NotificationList, error)
}

type notificationService struct {
	repo notifRepo.NotificationRepository
}

func NewNotificationService(repo notifRepo.NotificationRepository) NotificationService {
	return &notificationService{repo: repo}
}

func (s *notificationService) Create(ctx context.Context, userID uuid.UUID, kind entity.NotificationType, title, message string, relatedID *uuid.UUID) error {
	notification := &entity.Notification{
		UserID:    userID,
		Type:      kind,
		Title:     title,
		Message:   message,
		RelatedID: relatedID,
	}
	return s.repo.Create(ctx, notification)
}

func (s *notificationService) List(ctx context.Context, userID uuid.UUID, query dto.ListQuery) (*dto.NotificationList, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	items, total, err := s.repo.ListByUser(ctx, userID, limit, query.Skip)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if items == nil {
		items = []entity.Notification{}
	}

	return &dto.NotificationList{
		Notifications: items,
		Total:         total,
		Limit:         limit,
		Skip:          query.Skip,
	}, nil
}
