package service

import (
	"context"
	"fmt"

	"anoa.com/campusfeedback/internal/entity"
	accessService "anoa.com/campusfeedback/internal/modules/access/service"
	"anoa.com/campusfeedback/internal/modules/anonymity/dto"
	"anoa.com/campusfeedback/pkg/apperror"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// LikeLookup answers which of a set of posts a user has liked.
type LikeLookup interface {
	LikedFeedbackIDs(ctx context.Context, userID uuid.UUID, feedbackIDs []uuid.UUID) (map[uuid.UUID]bool, error)
}

// Projector turns posts into viewer-specific safe views.
type Projector struct {
	likes LikeLookup
}

func NewProjector(likes LikeLookup) *Projector {
	return &Projector{likes: likes}
}

// ProjectUser renders user for requester. Students are reduced to their
// pseudonymous fields for every requester, admins included.
func ProjectUser(user *entity.User, requester *entity.User) dto.SafeUser {
	safe := dto.SafeUser{
		ID:        user.ID,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	}

	switch user.Role {
	case entity.RoleStudent:
		safe.AnonymousHandle = user.AnonymousHandle
		safe.DisplayName = user.DisplayName
	case entity.RoleFaculty, entity.RoleAdmin:
		safe.DisplayName = user.DisplayName
		safe.Name = user.Name
		safe.ApprovalStatus = user.ApprovalStatus
		if requester != nil && (requester.ID == user.ID || requester.Role == entity.RoleAdmin) {
			safe.Email = user.Email
		}
	default:
		// unknown roles expose nothing beyond id and role
	}
	return safe
}

func ProjectUsers(users []entity.User, requester *entity.User) []dto.SafeUser {
	out := make([]dto.SafeUser, 0, len(users))
	for i := range users {
		out = append(out, ProjectUser(&users[i], requester))
	}
	return out
}

// AuthorDisplay is the single name shown for a post's author.
func AuthorDisplay(post *entity.Feedback) string {
	author := post.Author
	if author == nil {
		if post.AuthorAnonymousHandle != nil {
			return *post.AuthorAnonymousHandle
		}
		return "Unknown User"
	}

	if author.DisplayName != nil && *author.DisplayName != "" {
		return *author.DisplayName
	}

	switch author.Role {
	case entity.RoleStudent:
		if post.AuthorAnonymousHandle != nil {
			return *post.AuthorAnonymousHandle
		}
		return "Anonymous Student"
	case entity.RoleFaculty:
		return fmt.Sprintf("%s (Faculty)", author.Name)
	case entity.RoleAdmin:
		return fmt.Sprintf("%s (Admin)", author.Name)
	default:
		return "Unknown User"
	}
}

func (p *Projector) ProjectPost(ctx context.Context, post *entity.Feedback, requester *entity.User) (dto.SafePost, error) {
	views, err := p.ProjectPosts(ctx, []entity.Feedback{*post}, requester)
	if err != nil {
		return dto.SafePost{}, err
	}
	return views[0], nil
}

// ProjectPosts renders posts for requester, resolving likes in one lookup.
// A nil requester is an anonymous viewer.
func (p *Projector) ProjectPosts(ctx context.Context, posts []entity.Feedback, requester *entity.User) ([]dto.SafePost, error) {
	liked := map[uuid.UUID]bool{}
	if requester != nil && p.likes != nil && len(posts) > 0 {
		ids := make([]uuid.UUID, len(posts))
		for i := range posts {
			ids[i] = posts[i].ID
		}
		var err error
		liked, err = p.likes.LikedFeedbackIDs(ctx, requester.ID, ids)
		if err != nil {
			return nil, apperror.Internal(err)
		}
	}

	isAdmin := requester != nil && requester.Role == entity.RoleAdmin
	out := make([]dto.SafePost, 0, len(posts))
	for i := range posts {
		post := &posts[i]

		view := dto.SafePost{
			ID:              post.ID,
			AuthorDisplay:   AuthorDisplay(post),
			IsOwn:           requester != nil && requester.ID == post.AuthorID,
			Content:         post.Content,
			Category:        post.Category,
			TargetFacultyID: post.TargetFacultyID,
			TargetCourse:    post.TargetCourse,
			TargetFacility:  post.TargetFacility,
			Ratings:         projectRatings(post.Ratings),
			AverageRating:   post.AverageRating,
			LikeCount:       post.LikeCount,
			CommentCount:    post.CommentCount,
			ViewerHasLiked:  liked[post.ID],
			CreatedAt:       post.CreatedAt,
			UpdatedAt:       post.UpdatedAt,
		}
		if post.Author != nil {
			view.AuthorRole = post.Author.Role
		}
		if isAdmin {
			view.IsFlagged = post.IsFlagged
			view.IsHidden = post.IsHidden
			view.FlagReason = post.FlagReason
		}
		out = append(out, view)
	}
	return out, nil
}

func projectRatings(ratings []entity.Rating) []dto.SafeRating {
	out := make([]dto.SafeRating, 0, len(ratings))
	for _, r := range ratings {
		out = append(out, dto.SafeRating{
			CategoryID:   r.CategoryID,
			CategoryName: r.CategoryName,
			Value:        r.Value,
		})
	}
	return out
}

func ProjectComment(comment *entity.Comment) dto.SafeComment {
	return dto.SafeComment{
		ID:            comment.ID,
		AuthorDisplay: comment.AuthorDisplay,
		Content:       comment.Content,
		CreatedAt:     comment.CreatedAt,
	}
}

func ProjectComments(comments []entity.Comment) []dto.SafeComment {
	out := make([]dto.SafeComment, 0, len(comments))
	for i := range comments {
		out = append(out, ProjectComment(&comments[i]))
	}
	return out
}

// ProjectFlagForAdmin discloses the real identities behind a flag. It is the
// only path that does so; every call is written to the audit log.
func ProjectFlagForAdmin(flag *entity.Flag, requester *entity.User) (*dto.AdminFlagView, error) {
	if err := accessService.Authorize(requester, entity.RoleAdmin); err != nil {
		return nil, err
	}

	view := &dto.AdminFlagView{
		ID:          flag.ID,
		Status:      flag.Status,
		AdminAction: flag.AdminAction,
		Reason:      flag.Reason,
		AdminNotes:  flag.AdminNotes,
		ReviewedAt:  flag.ReviewedAt,
		CreatedAt:   flag.CreatedAt,
		FlaggedBy:   identity(flag.FlaggedBy),
		ReviewedBy:  identity(flag.ReviewedBy),
	}

	event := log.Info().
		Str("event", "identity_disclosure").
		Str("admin_id", requester.ID.String()).
		Str("flag_id", flag.ID.String())

	if post := flag.Feedback; post != nil {
		view.Post = &dto.FlaggedPost{
			ID:                    post.ID,
			Content:               post.Content,
			Category:              post.Category,
			AuthorAnonymousHandle: post.AuthorAnonymousHandle,
			CreatedAt:             post.CreatedAt,
		}
		view.Author = identity(post.Author)
		event = event.Str("author_id", post.AuthorID.String())
	}

	event.Msg("flag identities disclosed to admin")
	return view, nil
}

func identity(u *entity.User) *dto.Identity {
	if u == nil {
		return nil
	}
	return &dto.Identity{
		ID:              u.ID,
		Name:            u.Name,
		Email:           u.Email,
		Role:            u.Role,
		AnonymousHandle: u.AnonymousHandle,
		IsSuspended:     u.IsSuspended,
		SuspensionEnd:   u.SuspensionEndDate,
		IsBanned:        u.IsBanned,
	}
}
