package service

import (
	"context"
	"encoding/json"
	"testing"

	"anoa.com/campusfeedback/internal/entity"
	anonymity "anoa.com/campusfeedback/internal/modules/anonymity/service"
	categoryService "anoa.com/campusfeedback/internal/modules/category/service"
	feedbackService "anoa.com/campusfeedback/internal/modules/feedback/service"
	"anoa.com/campusfeedback/internal/modules/social/dto"
	"anoa.com/campusfeedback/internal/testutil"
	"anoa.com/campusfeedback/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func setup(t *testing.T) (*testutil.Store, SocialService, feedbackService.FeedbackService) {
	t.Helper()
	store := testutil.NewStore(nil)
	feed := feedbackService.NewFeedbackService(
		store.Feedback(),
		categoryService.NewCategoryService(store.Categories()),
		anonymity.NewProjector(store.Likes()),
	)
	return store, NewSocialService(feed, store.Likes(), store.Comments()), feed
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, apperror.As(err).Code)
}

func TestLikeAndUnlike(t *testing.T) {
	store, svc, feed := setup(t)
	ctx := context.Background()

	author := store.AddUser(entity.User{Email: "a@campus.edu", Role: entity.RoleStudent, AnonymousHandle: strPtr("AS_10001")})
	reader := store.AddUser(entity.User{Email: "r@campus.edu", Role: entity.RoleStudent, AnonymousHandle: strPtr("AS_10002")})
	post := store.AddFeedback(entity.Feedback{AuthorID: author.ID, Content: "hello", Category: entity.CategoryGeneral})

	res, err := svc.Like(ctx, reader, post.ID)
	require.NoError(t, err)
	assert.True(t, res.Liked)
	assert.Equal(t, 1, res.LikeCount)
	assert.Equal(t, 1, store.Post(post.ID).LikeCount)

	_, err = svc.Like(ctx, reader, post.ID)
	assertCode(t, err, apperror.CodeAlreadyLiked)
	assert.Equal(t, 1, store.Post(post.ID).LikeCount)

	view, err := feed.GetPost(ctx, reader, post.ID)
	require.NoError(t, err)
	assert.True(t, view.ViewerHasLiked)

	view, err = feed.GetPost(ctx, nil, post.ID)
	require.NoError(t, err)
	assert.False(t, view.ViewerHasLiked)

	res, err = svc.Unlike(ctx, reader, post.ID)
	require.NoError(t, err)
	assert.False(t, res.Liked)
	assert.Equal(t, 0, store.Post(post.ID).LikeCount)

	_, err = svc.Unlike(ctx, reader, post.ID)
	assertCode(t, err, apperror.CodeNotLiked)
}

func TestHiddenPostsCannotBeLikedOrCommented(t *testing.T) {
	store, svc, _ := setup(t)
	ctx := context.Background()

	author := store.AddUser(entity.User{Email: "a@campus.edu", Role: entity.RoleStudent, AnonymousHandle: strPtr("AS_10001")})
	faculty := store.AddUser(entity.User{Email: "f@campus.edu", Name: "Dr. F", Role: entity.RoleFaculty, ApprovalStatus: entity.ApprovalApproved})
	post := store.AddFeedback(entity.Feedback{AuthorID: author.ID, Content: "x", Category: entity.CategoryGeneral, IsFlagged: true, IsHidden: true})

	_, err := svc.Like(ctx, faculty, post.ID)
	assertCode(t, err, apperror.CodeFeedbackNotFound)

	_, err = svc.AddComment(ctx, faculty, post.ID, dto.CreateCommentInput{Content: "hm"})
	assertCode(t, err, apperror.CodeFeedbackNotFound)

	_, err = svc.ListComments(ctx, nil, post.ID)
	assertCode(t, err, apperror.CodeFeedbackNotFound)
}

func TestCommentsCarryDisplaySnapshotOnly(t *testing.T) {
	store, svc, _ := setup(t)
	ctx := context.Background()

	author := store.AddUser(entity.User{Email: "alice@campus.edu", Name: "Alice Real", Role: entity.RoleStudent, AnonymousHandle: strPtr("AS_10001")})
	faculty := store.AddUser(entity.User{Email: "f@campus.edu", Name: "Dr. F", Role: entity.RoleFaculty, ApprovalStatus: entity.ApprovalApproved})
	post := store.AddFeedback(entity.Feedback{AuthorID: author.ID, Content: "x", Category: entity.CategoryGeneral})

	first, err := svc.AddComment(ctx, author, post.ID, dto.CreateCommentInput{Content: " first "})
	require.NoError(t, err)
	assert.Equal(t, "AS_10001", first.AuthorDisplay)
	assert.Equal(t, "first", first.Content)

	_, err = svc.AddComment(ctx, faculty, post.ID, dto.CreateCommentInput{Content: "second"})
	require.NoError(t, err)
	assert.Equal(t, 2, store.Post(post.ID).CommentCount)

	list, err := svc.ListComments(ctx, nil, post.ID)
	require.NoError(t, err)
	require.Len(t, list.Comments, 2)
	assert.Equal(t, "first", list.Comments[0].Content)
	assert.Equal(t, "Dr. F", list.Comments[1].AuthorDisplay)

	raw, err := json.Marshal(list)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "Alice Real")
	assert.NotContains(t, string(raw), "alice@campus.edu")
}

func TestCommentValidation(t *testing.T) {
	store, svc, _ := setup(t)
	ctx := context.Background()

	author := store.AddUser(entity.User{Email: "a@campus.edu", Role: entity.RoleStudent, AnonymousHandle: strPtr("AS_10001")})
	post := store.AddFeedback(entity.Feedback{AuthorID: author.ID, Content: "x", Category: entity.CategoryGeneral})

	_, err := svc.AddComment(ctx, author, post.ID, dto.CreateCommentInput{Content: "   "})
	assertCode(t, err, apperror.CodeEmptyContent)

	long := make([]rune, MaxCommentLength+1)
	for i := range long {
		long[i] = 'z'
	}
	_, err = svc.AddComment(ctx, author, post.ID, dto.CreateCommentInput{Content: string(long)})
	assertCode(t, err, apperror.CodeValidation)
	assert.Equal(t, 0, store.Post(post.ID).CommentCount)
}
