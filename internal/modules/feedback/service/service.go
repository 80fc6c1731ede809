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
	"anoa.com/campusfeedback/internal/modules/feedback/dto"
	"anoa.com/campusfeedback/internal/modules/feedback/repository"
	"anoa.com/campusfeedback/pkg/apperror"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const (
	MaxContentLength = 500
	maxRatings       = 10
	defaultFeedLimit = 20
	maxFeedLimit     = 50
)

// CategoryResolver looks up an active rating category.
type CategoryResolver interface {
	ResolveActive(ctx context.Context, id uuid.UUID) (*entity.RatingCategory, error)
}

type FeedbackService interface {
	CreatePost(ctx context.Context, author *entity.User, input dto.CreateFeedbackInput) (*anonDto.SafePost, error)
	ListFeed(ctx context.Context, requester *entity.User, query dto.FeedQuery) (*dto.FeedResponse, error)
	GetPost(ctx context.Context, requester *entity.User, id uuid.UUID) (*anonDto.SafePost, error)
	UpdatePost(ctx context.Context, actor *entity.User, id uuid.UUID, input dto.UpdateFeedbackInput) (*anonDto.SafePost, error)
	DeletePost(ctx context.Context, actor *entity.User, id uuid.UUID) error
	// LoadVisible returns the post if requester may see it, else
	// FEEDBACK_NOT_FOUND.
	LoadVisible(ctx context.Context, requester *entity.User, id uuid.UUID) (*entity.Feedback, error)
}

type feedbackService struct {
	repo       repository.FeedbackRepository
	categories CategoryResolver
	projector  *anonymity.Projector
	sanitizer  *bluemonday.Policy
}

func NewFeedbackService(repo repository.FeedbackRepository, categories CategoryResolver, projector *anonymity.Projector) FeedbackService {
	return &feedbackService{
		repo:       repo,
		categories: categories,
		projector:  projector,
		sanitizer:  bluemonday.StrictPolicy(),
	}
}

func notFound() error {
	return apperror.NotFound(apperror.CodeFeedbackNotFound, "feedback not found")
}

func (s *feedbackService) cleanContent(raw string) (string, error) {
	content := strings.TrimSpace(s.sanitizer.Sanitize(raw))
	if content == "" {
		return "", apperror.Validation(apperror.CodeEmptyContent, "feedback content cannot be empty")
	}
	if utf8.RuneCountInString(content) > MaxContentLength {
		return "", apperror.Validation(apperror.CodeValidation,
			fmt.Sprintf("feedback content cannot exceed %d characters", MaxContentLength))
	}
	return content, nil
}

func (s *feedbackService) buildRatings(ctx context.Context, inputs []dto.RatingInput) ([]entity.Rating, error) {
	if len(inputs) > maxRatings {
		return nil, apperror.Validation(apperror.CodeInvalidRating, fmt.Sprintf("at most %d ratings are allowed", maxRatings))
	}

	ratings := make([]entity.Rating, 0, len(inputs))
	for _, in := range inputs {
		if in.Value < entity.MinRating || in.Value > entity.MaxRating {
			return nil, apperror.Validation(apperror.CodeInvalidRating,
				fmt.Sprintf("rating values must be between %d and %d", entity.MinRating, entity.MaxRating))
		}

		rating := entity.Rating{Value: in.Value}
		switch {
		case in.CategoryID != nil:
			id, err := uuid.Parse(*in.CategoryID)
			if err != nil {
				return nil, apperror.Validation(apperror.CodeInvalidRating, "invalid rating category id")
			}
			category, err := s.categories.ResolveActive(ctx, id)
			if err != nil {
				return nil, err
			}
			rating.CategoryID = &category.ID
			rating.CategoryName = category.Name
		case strings.TrimSpace(in.CategoryName) != "":
			rating.CategoryName = strings.TrimSpace(s.sanitizer.Sanitize(in.CategoryName))
		default:
			return nil, apperror.Validation(apperror.CodeInvalidRating, "each rating needs a category")
		}
		ratings = append(ratings, rating)
	}
	return ratings, nil
}

func (s *feedbackService) CreatePost(ctx context.Context, author *entity.User, input dto.CreateFeedbackInput) (*anonDto.SafePost, error) {
	content, err := s.cleanContent(input.Content)
	if err != nil {
		return nil, err
	}

	category := entity.FeedbackCategory(input.Category)
	if input.Category == "" {
		category = entity.CategoryGeneral
	}
	if !category.Valid() {
		return nil, apperror.Validation(apperror.CodeValidation, "category must be one of general, faculty, course, facility")
	}

	ratings, err := s.buildRatings(ctx, input.Ratings)
	if err != nil {
		return nil, err
	}

	post := &entity.Feedback{
		AuthorID:       author.ID,
		Content:        content,
		Category:       category,
		TargetCourse:   trimmed(input.TargetCourse),
		TargetFacility: trimmed(input.TargetFacility),
		Ratings:        ratings,
	}
	if input.TargetFacultyID != nil {
		id, err := uuid.Parse(*input.TargetFacultyID)
		if err != nil {
			return nil, apperror.Validation(apperror.CodeValidation, "invalid target faculty id")
		}
		post.TargetFacultyID = &id
	}
	if author.Role == entity.RoleStudent && author.AnonymousHandle != nil {
		handle := *author.AnonymousHandle
		post.AuthorAnonymousHandle = &handle
	}
	post.RecomputeAverage()

	if err := s.repo.Create(ctx, post); err != nil {
		return nil, apperror.Internal(err)
	}
	post.Author = author

	log.Info().Str("feedback_id", post.ID.String()).Str("category", string(category)).Msg("feedback created")

	view, err := s.projector.ProjectPost(ctx, post, author)
	if err != nil {
		return nil, err
	}
	return &view, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func (s *feedbackService) ListFeed(ctx context.Context, requester *entity.User, query dto.FeedQuery) (*dto.FeedResponse, error) {
	filter := repository.FeedFilter{
		IncludeHidden: requester != nil && requester.Role == entity.RoleAdmin,
		Sort:          repository.SortRecent,
		Limit:         query.Limit,
		Skip:          query.Skip,
	}

	if query.Category != "" && query.Category != "all" {
		category := entity.FeedbackCategory(query.Category)
		if !category.Valid() {
			return nil, apperror.Validation(apperror.CodeValidation, "unknown category filter")
		}
		filter.Category = &category
	}

	switch query.Sort {
	case "", repository.SortRecent:
	case repository.SortMostLiked, repository.SortHighestRated:
		filter.Sort = query.Sort
	default:
		return nil, apperror.Validation(apperror.CodeValidation, "sort must be one of recent, mostLiked, highestRated")
	}

	if filter.Limit <= 0 {
		filter.Limit = defaultFeedLimit
	}
	if filter.Limit > maxFeedLimit {
		filter.Limit = maxFeedLimit
	}
	if filter.Skip < 0 {
		filter.Skip = 0
	}

	posts, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	views, err := s.projector.ProjectPosts(ctx, posts, requester)
	if err != nil {
		return nil, err
	}

	return &dto.FeedResponse{
		Feedback: views,
		Pagination: dto.Pagination{
			Total:   total,
			Limit:   filter.Limit,
			Skip:    filter.Skip,
			HasMore: int64(filter.Skip+len(views)) < total,
		},
	}, nil
}

func (s *feedbackService) LoadVisible(ctx context.Context, requester *entity.User, id uuid.UUID) (*entity.Feedback, error) {
	post, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound()
		}
		return nil, apperror.Internal(err)
	}
	if !post.VisibleTo(requester) {
		return nil, notFound()
	}
	return post, nil
}

func (s *feedbackService) GetPost(ctx context.Context, requester *entity.User, id uuid.UUID) (*anonDto.SafePost, error) {
	post, err := s.LoadVisible(ctx, requester, id)
	if err != nil {
		return nil, err
	}

	view, err := s.projector.ProjectPost(ctx, post, requester)
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// loadForChange finds a post the actor wants to edit or delete. Authors can
// still reach their own hidden posts here.
func (s *feedbackService) loadForChange(ctx context.Context, actor *entity.User, id uuid.UUID) (*entity.Feedback, error) {
	post, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound()
		}
		return nil, apperror.Internal(err)
	}

	isAuthor := post.AuthorID == actor.ID
	if !isAuthor && !post.VisibleTo(actor) {
		return nil, notFound()
	}
	if !isAuthor && actor.Role != entity.RoleAdmin {
		return nil, apperror.Forbidden(apperror.CodeForbidden, "only the author or an admin can change this feedback")
	}
	return post, nil
}

func (s *feedbackService) UpdatePost(ctx context.Context, actor *entity.User, id uuid.UUID, input dto.UpdateFeedbackInput) (*anonDto.SafePost, error) {
	post, err := s.loadForChange(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if post.IsFlagged && actor.Role != entity.RoleAdmin {
		return nil, apperror.Conflict(apperror.CodeFeedbackUnderReview, "feedback is under moderation review and cannot be edited")
	}

	if input.Content != nil {
		content, err := s.cleanContent(*input.Content)
		if err != nil {
			return nil, err
		}
		post.Content = content
	}

	var ratings []entity.Rating
	if input.Ratings != nil {
		ratings, err = s.buildRatings(ctx, *input.Ratings)
		if err != nil {
			return nil, err
		}
		post.Ratings = ratings
		post.RecomputeAverage()
	}

	if err := s.repo.UpdateContent(ctx, post, ratings); err != nil {
		return nil, apperror.Internal(err)
	}

	view, err := s.projector.ProjectPost(ctx, post, actor)
	if err != nil {
		return nil, err
	}
	return &view, nil
}

func (s *feedbackService) DeletePost(ctx context.Context, actor *entity.User, id uuid.UUID) error {
	post, err := s.loadForChange(ctx, actor, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, post.ID); err != nil {
		return apperror.Internal(err)
	}

	log.Info().
		Str("feedback_id", post.ID.String()).
		Str("actor_id", actor.ID.String()).
		Msg("feedback deleted")
	return nil
}
