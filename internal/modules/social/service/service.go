package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"anoa.com/campusfeedback/internal/entity"
	anonDto "anoa.com/campusfeedback/internal/modules/anonymity/dto"
	anonymity "anoa.com/campusfeedback/internal/modules/anonymity/service"
	feedbackService "anoa.com/campusfeedback/internal/modules/feedback/service"
	"anoa.com/campusfeedback/internal/modules/social/dto"
	"anoa.com/campusfeedback/internal/modules/social/repository"
	"anoa.com/campusfeedback/pkg/apperror"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
)

const MaxCommentLength = 300

// PostLoader resolves a post the requester is allowed to see.
type PostLoader interface {
	LoadVisible(ctx context.Context, requester *entity.User, id uuid.UUID) (*entity.Feedback, error)
}

var _ PostLoader = (feedbackService.FeedbackService)(nil)

type SocialService interface {
	Like(ctx context.Context, user *entity.User, feedbackID uuid.UUID) (*dto.LikeResponse, error)
	Unlike(ctx context.Context, user *entity.User, feedbackID uuid.UUID) (*dto.LikeResponse, error)
	AddComment(ctx context.Context, user *entity.User, feedbackID uuid.UUID, input dto.CreateCommentInput) (*anonDto.SafeComment, error)
	ListComments(ctx context.Context, requester *entity.User, feedbackID uuid.UUID) (*dto.CommentList, error)
}

type socialService struct {
	posts     PostLoader
	likes     repository.LikeRepository
	comments  repository.CommentRepository
	sanitizer *bluemonday.Policy
}

func NewSocialService(posts PostLoader, likes repository.LikeRepository, comments repository.CommentRepository) SocialService {
	return &socialService{
		posts:     posts,
		likes:     likes,
		comments:  comments,
		sanitizer: bluemonday.StrictPolicy(),
	}
}

func (s *socialService) Like(ctx context.Context, user *entity.User, feedbackID uuid.UUID) (*dto.LikeResponse, error) {
	post, err := s.posts.LoadVisible(ctx, user, feedbackID)
	if err != nil {
		return nil, err
	}

	if err := s.likes.Create(ctx, &entity.Like{FeedbackID: post.ID, UserID: user.ID}); err != nil {
		if errors.Is(err, repository.ErrAlreadyLiked) {
			return nil, apperror.Conflict(apperror.CodeAlreadyLiked, "you have already liked this feedback")
		}
		return nil, apperror.Internal(err)
	}

	return &dto.LikeResponse{FeedbackID: post.ID, Liked: true, LikeCount: post.LikeCount + 1}, nil
}

func (s *socialService) Unlike(ctx context.Context, user *entity.User, feedbackID uuid.UUID) (*dto.LikeResponse, error) {
	post, err := s.posts.LoadVisible(ctx, user, feedbackID)
	if err != nil {
		return nil, err
	}

	if err := s.likes.Delete(ctx, post.ID, user.ID); err != nil {
		if errors.Is(err, repository.ErrNotLiked) {
			return nil, apperror.Conflict(apperror.CodeNotLiked, "you have not liked this feedback")
		}
		return nil, apperror.Internal(err)
	}

	count := post.LikeCount - 1
	if count < 0 {
		count = 0
	}
	return &dto.LikeResponse{FeedbackID: post.ID, Liked: false, LikeCount: count}, nil
}

func (s *socialService) AddComment(ctx context.Context, user *entity.User, feedbackID uuid.UUID, input dto.CreateCommentInput) (*anonDto.SafeComment, error) {
	content := strings.TrimSpace(s.sanitizer.Sanitize(input.Content))
	if content == "" {
		return nil, apperror.Validation(apperror.CodeEmptyContent, "comment cannot be empty")
	}
	if utf8.RuneCountInString(content) > MaxCommentLength {
		return nil, apperror.Validation(apperror.CodeValidation,
			fmt.Sprintf("comment cannot exceed %d characters", MaxCommentLength))
	}

	post, err := s.posts.LoadVisible(ctx, user, feedbackID)
	if err != nil {
		return nil, err
	}

	comment := &entity.Comment{
		FeedbackID:    post.ID,
		AuthorID:      user.ID,
		AuthorDisplay: user.ResolveDisplayName(),
		Content:       content,
	}
	if user.Role == entity.RoleStudent && user.AnonymousHandle != nil {
		handle := *user.AnonymousHandle
		comment.AuthorAnonymousHandle = &handle
	}

	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, apperror.Internal(err)
	}

	view := anonymity.ProjectComment(comment)
	return &view, nil
}

func (s *socialService) ListComments(ctx context.Context, requester *entity.User, feedbackID uuid.UUID) (*dto.CommentList, error) {
	post, err := s.posts.LoadVisible(ctx, requester, feedbackID)
	if err != nil {
		return nil, err
	}

	comments, err := s.comments.ListByFeedback(ctx, post.ID)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	return &dto.CommentList{
		Comments: anonymity.ProjectComments(comments),
		Total:    len(comments),
	}, nil
}
