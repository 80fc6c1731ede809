package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"anoa.com/campusfeedback/internal/entity"
	accessService "anoa.com/campusfeedback/internal/modules/access/service"
	"anoa.com/campusfeedback/internal/modules/moderation/dto"
	notificationService "anoa.com/campusfeedback/internal/modules/notification/service"
	"anoa.com/campusfeedback/internal/testutil"
	"anoa.com/campusfeedback/pkg/apperror"
	"anoa.com/campusfeedback/pkg/clock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type moderationFixture struct {
	clock   *clock.Mock
	store   *testutil.Store
	svc     ModerationService
	student *entity.User
	faculty *entity.User
	admin   *entity.User
	admin2  *entity.User
	post    *entity.Feedback
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int        { return &n }

func newModerationFixture(t *testing.T) *moderationFixture {
	t.Helper()
	clk := clock.NewMock(time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC))
	store := testutil.NewStore(clk)

	f := &moderationFixture{clock: clk, store: store}
	f.svc = NewModerationService(
		store.Flags(),
		store.Feedback(),
		store.Users(),
		notificationService.NewNotificationService(store.Notifications()),
		clk,
		Policy{},
	)
	f.student = store.AddUser(entity.User{
		Email: "a@campus.edu", Name: "Student A", Role: entity.RoleStudent,
		ApprovalStatus: entity.ApprovalApproved, AnonymousHandle: strPtr("AS_10001"),
	})
	f.faculty = store.AddUser(entity.User{
		Email: "f@campus.edu", Name: "Faculty F", Role: entity.RoleFaculty, ApprovalStatus: entity.ApprovalApproved,
	})
	f.admin = store.AddUser(entity.User{Email: "admin1@campus.edu", Name: "Admin One", Role: entity.RoleAdmin, ApprovalStatus: entity.ApprovalApproved})
	f.admin2 = store.AddUser(entity.User{Email: "admin2@campus.edu", Name: "Admin Two", Role: entity.RoleAdmin, ApprovalStatus: entity.ApprovalApproved})
	f.post = store.AddFeedback(entity.Feedback{
		AuthorID: f.student.ID, AuthorAnonymousHandle: strPtr("AS_10001"), Content: "X", Category: entity.CategoryGeneral,
	})
	return f
}

func (f *moderationFixture) flag(t *testing.T) uuid.UUID {
	t.Helper()
	res, err := f.svc.FlagPost(context.Background(), f.faculty, f.post.ID, dto.FlagInput{Reason: "spam"})
	require.NoError(t, err)
	return res.FlagID
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, apperror.As(err).Code)
}

func TestFlagPostHidesAndNotifiesEveryAdmin(t *testing.T) {
	f := newModerationFixture(t)

	res, err := f.svc.FlagPost(context.Background(), f.faculty, f.post.ID, dto.FlagInput{Reason: "  spam "})
	require.NoError(t, err)
	assert.Equal(t, entity.FlagPending, res.Status)
	assert.Equal(t, 2, res.AdminsNotified)
	assert.Zero(t, res.NotifyFailed)

	post := f.store.Post(f.post.ID)
	assert.True(t, post.IsFlagged)
	assert.True(t, post.IsHidden)
	require.NotNil(t, post.FlagReason)
	assert.Equal(t, "spam", *post.FlagReason)

	for _, admin := range []*entity.User{f.admin, f.admin2} {
		notes := f.store.NotificationsFor(admin.ID)
		require.Len(t, notes, 1)
		assert.Equal(t, entity.NotificationFlag, notes[0].Type)
		assert.Equal(t, f.post.ID, *notes[0].RelatedID)
	}
	assert.Equal(t, 2, f.store.NotificationCount())

	stored := f.store.Flag(res.FlagID)
	assert.Equal(t, f.faculty.ID, stored.FlaggedByID)
	assert.Equal(t, entity.ActionNone, stored.AdminAction)
}

func TestFlagPostRejections(t *testing.T) {
	f := newModerationFixture(t)
	ctx := context.Background()

	_, err := f.svc.FlagPost(ctx, f.student, f.post.ID, dto.FlagInput{Reason: "spam"})
	assertCode(t, err, apperror.CodeForbidden)

	_, err = f.svc.FlagPost(ctx, nil, f.post.ID, dto.FlagInput{Reason: "spam"})
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	_, err = f.svc.FlagPost(ctx, f.faculty, f.post.ID, dto.FlagInput{Reason: "   "})
	assertCode(t, err, apperror.CodeMissingReason)

	_, err = f.svc.FlagPost(ctx, f.faculty, uuid.New(), dto.FlagInput{Reason: "spam"})
	assertCode(t, err, apperror.CodeFeedbackNotFound)

	assert.Empty(t, f.store.AllFlags())
	assert.False(t, f.store.Post(f.post.ID).IsHidden)
}

func TestFlaggingTwiceNeverCreatesSecondPendingFlag(t *testing.T) {
	f := newModerationFixture(t)
	f.flag(t)

	_, err := f.svc.FlagPost(context.Background(), f.admin, f.post.ID, dto.FlagInput{Reason: "again"})
	assertCode(t, err, apperror.CodeAlreadyFlagged)
	assert.Len(t, f.store.AllFlags(), 1)
	assert.Equal(t, 2, f.store.NotificationCount())
}

func TestPartialFanOutStillFlags(t *testing.T) {
	f := newModerationFixture(t)
	f.store.FailNotificationsFor[f.admin2.ID] = true

	res, err := f.svc.FlagPost(context.Background(), f.faculty, f.post.ID, dto.FlagInput{Reason: "spam"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.AdminsNotified)
	assert.Equal(t, 1, res.NotifyFailed)
	assert.True(t, f.store.Post(f.post.ID).IsHidden)
	assert.Len(t, f.store.NotificationsFor(f.admin.ID), 1)
}

func TestSuspendFromFlag(t *testing.T) {
	f := newModerationFixture(t)
	ctx := context.Background()
	flagID := f.flag(t)
	flaggedAt := f.clock.Now()

	view, err := f.svc.Suspend(ctx, f.admin, flagID, dto.SuspendInput{Days: intPtr(3), AdminNotes: strPtr("first offence")})
	require.NoError(t, err)
	assert.Equal(t, entity.FlagActioned, view.Status)
	assert.Equal(t, entity.ActionSuspended, view.AdminAction)
	require.NotNil(t, view.Author)
	assert.True(t, view.Author.IsSuspended)

	author := f.store.User(f.student.ID)
	assert.True(t, author.IsSuspended)
	require.NotNil(t, author.SuspensionEndDate)
	assert.Equal(t, flaggedAt.Add(72*time.Hour), *author.SuspensionEndDate)

	flag := f.store.Flag(flagID)
	assert.Equal(t, entity.FlagActioned, flag.Status)
	assert.Equal(t, entity.ActionSuspended, flag.AdminAction)
	assert.Equal(t, f.admin.ID, *flag.ReviewedByID)
	assert.Equal(t, "first offence", *flag.AdminNotes)

	post := f.store.Post(f.post.ID)
	assert.True(t, post.IsHidden)
	assert.True(t, post.IsFlagged)

	notes := f.store.NotificationsFor(f.faculty.ID)
	require.Len(t, notes, 1)
	assert.Equal(t, "User Suspended", notes[0].Title)
}

func TestSuspensionExpiresThroughTheGate(t *testing.T) {
	f := newModerationFixture(t)
	ctx := context.Background()
	flagID := f.flag(t)

	_, err := f.svc.Suspend(ctx, f.admin, flagID, dto.SuspendInput{Days: intPtr(3)})
	require.NoError(t, err)

	gate := accessService.NewGate(nil, f.store.Users(), nil, f.clock)
	author := f.store.User(f.student.ID)

	assertCode(t, gate.CheckLiveness(&author), apperror.CodeAccountSuspended)
	f.clock.Advance(72 * time.Hour)
	assert.NoError(t, gate.CheckLiveness(&author))
}

func TestSuspendDefaultsAndLimits(t *testing.T) {
	f := newModerationFixture(t)
	ctx := context.Background()
	flagID := f.flag(t)

	_, err := f.svc.Suspend(ctx, f.admin, flagID, dto.SuspendInput{Days: intPtr(0)})
	assertCode(t, err, apperror.CodeInvalidSuspensionDays)
	_, err = f.svc.Suspend(ctx, f.admin, flagID, dto.SuspendInput{Days: intPtr(MaxSuspensionDays + 1)})
	assertCode(t, err, apperror.CodeInvalidSuspensionDays)
	flag := f.store.Flag(flagID)
	assert.True(t, flag.IsPending())

	_, err = f.svc.Suspend(ctx, f.admin, flagID, dto.SuspendInput{})
	require.NoError(t, err)
	end := f.store.User(f.student.ID).SuspensionEndDate
	require.NotNil(t, end)
	assert.Equal(t, f.clock.Now().Add(DefaultSuspensionDays*24*time.Hour), *end)
}

func TestSuspendNeverShortensRunningSuspension(t *testing.T) {
	f := newModerationFixture(t)
	ctx := context.Background()

	longEnd := f.clock.Now().Add(30 * 24 * time.Hour)
	repeat := f.store.AddUser(entity.User{
		Email: "b@campus.edu", Name: "Student B", Role: entity.RoleStudent,
		ApprovalStatus: entity.ApprovalApproved, AnonymousHandle: strPtr("AS_20002"),
		IsSuspended: true, SuspensionEndDate: &longEnd,
	})
	post := f.store.AddFeedback(entity.Feedback{
		AuthorID: repeat.ID, AuthorAnonymousHandle: strPtr("AS_20002"), Content: "Y", Category: entity.CategoryGeneral,
	})
	res, err := f.svc.FlagPost(ctx, f.faculty, post.ID, dto.FlagInput{Reason: "spam"})
	require.NoError(t, err)

	_, err = f.svc.Suspend(ctx, f.admin, res.FlagID, dto.SuspendInput{Days: intPtr(3)})
	require.NoError(t, err)

	end := f.store.User(repeat.ID).SuspensionEndDate
	require.NotNil(t, end)
	assert.Equal(t, longEnd, *end)

	// An expired suspension is replaced by the new one.
	f.clock.Advance(31 * 24 * time.Hour)
	other := f.store.AddFeedback(entity.Feedback{
		AuthorID: repeat.ID, AuthorAnonymousHandle: strPtr("AS_20002"), Content: "Z", Category: entity.CategoryGeneral,
	})
	res, err = f.svc.FlagPost(ctx, f.faculty, other.ID, dto.FlagInput{Reason: "again"})
	require.NoError(t, err)
	_, err = f.svc.Suspend(ctx, f.admin, res.FlagID, dto.SuspendInput{Days: intPtr(3)})
	require.NoError(t, err)

	end = f.store.User(repeat.ID).SuspensionEndDate
	require.NotNil(t, end)
	assert.Equal(t, f.clock.Now().Add(72*time.Hour), *end)
}

func TestBanFromFlag(t *testing.T) {
	f := newModerationFixture(t)
	flagID := f.flag(t)

	view, err := f.svc.Ban(context.Background(), f.admin, flagID, dto.ResolveInput{})
	require.NoError(t, err)
	assert.Equal(t, entity.ActionBanned, view.AdminAction)

	author := f.store.User(f.student.ID)
	assert.True(t, author.IsBanned)
	assert.Nil(t, author.SuspensionEndDate)
	assert.True(t, f.store.Post(f.post.ID).IsHidden)
	assert.Equal(t, "User Banned", f.store.NotificationsFor(f.faculty.ID)[0].Title)
}

func TestDismissRestoresPost(t *testing.T) {
	f := newModerationFixture(t)
	flagID := f.flag(t)

	view, err := f.svc.Dismiss(context.Background(), f.admin, flagID, dto.ResolveInput{})
	require.NoError(t, err)
	assert.Equal(t, entity.FlagDismissed, view.Status)

	post := f.store.Post(f.post.ID)
	assert.False(t, post.IsHidden)
	assert.False(t, post.IsFlagged)
	assert.Nil(t, post.FlagReason)

	flag := f.store.Flag(flagID)
	assert.Equal(t, entity.FlagDismissed, flag.Status)
	assert.Equal(t, entity.ActionDismissed, flag.AdminAction)

	notes := f.store.NotificationsFor(f.faculty.ID)
	require.Len(t, notes, 1)
	assert.Equal(t, entity.NotificationModeration, notes[0].Type)

	author := f.store.User(f.student.ID)
	assert.False(t, author.IsSuspended)
	assert.False(t, author.IsBanned)
}

func TestResolvedFlagsAreTerminal(t *testing.T) {
	f := newModerationFixture(t)
	ctx := context.Background()
	flagID := f.flag(t)

	_, err := f.svc.Dismiss(ctx, f.admin, flagID, dto.ResolveInput{})
	require.NoError(t, err)

	_, err = f.svc.Dismiss(ctx, f.admin, flagID, dto.ResolveInput{})
	assertCode(t, err, apperror.CodeFlagNotPending)
	_, err = f.svc.Suspend(ctx, f.admin, flagID, dto.SuspendInput{})
	assertCode(t, err, apperror.CodeFlagNotPending)
	_, err = f.svc.Ban(ctx, f.admin, flagID, dto.ResolveInput{})
	assertCode(t, err, apperror.CodeFlagNotPending)

	assert.False(t, f.store.User(f.student.ID).IsBanned)

	_, err = f.svc.Dismiss(ctx, f.admin, uuid.New(), dto.ResolveInput{})
	assertCode(t, err, apperror.CodeFlagNotFound)
}

func TestDisciplineOnlyAppliesToStudents(t *testing.T) {
	f := newModerationFixture(t)
	ctx := context.Background()

	facultyPost := f.store.AddFeedback(entity.Feedback{AuthorID: f.faculty.ID, Content: "Y", Category: entity.CategoryGeneral})
	res, err := f.svc.FlagPost(ctx, f.admin, facultyPost.ID, dto.FlagInput{Reason: "off topic"})
	require.NoError(t, err)
	before := f.store.NotificationCount()

	_, err = f.svc.Suspend(ctx, f.admin, res.FlagID, dto.SuspendInput{Days: intPtr(3)})
	assertCode(t, err, apperror.CodeNotStudent)
	_, err = f.svc.Ban(ctx, f.admin, res.FlagID, dto.ResolveInput{})
	assertCode(t, err, apperror.CodeNotStudent)

	author := f.store.User(f.faculty.ID)
	assert.False(t, author.IsSuspended)
	assert.False(t, author.IsBanned)
	assert.Nil(t, author.SuspensionEndDate)
	flag := f.store.Flag(res.FlagID)
	assert.True(t, flag.IsPending())
	assert.True(t, f.store.Post(facultyPost.ID).IsHidden)
	assert.Equal(t, before, f.store.NotificationCount())
}

func TestOnlyAdminsResolveOrReviewFlags(t *testing.T) {
	f := newModerationFixture(t)
	ctx := context.Background()
	flagID := f.flag(t)

	_, err := f.svc.Dismiss(ctx, f.faculty, flagID, dto.ResolveInput{})
	assertCode(t, err, apperror.CodeForbidden)
	_, err = f.svc.Suspend(ctx, f.student, flagID, dto.SuspendInput{})
	assertCode(t, err, apperror.CodeForbidden)
	_, err = f.svc.ListPending(ctx, f.faculty)
	assertCode(t, err, apperror.CodeForbidden)
	flag := f.store.Flag(flagID)
	assert.True(t, flag.IsPending())
}

func TestListPendingDisclosesIdentitiesToAdmins(t *testing.T) {
	f := newModerationFixture(t)
	f.flag(t)

	pending, err := f.svc.ListPending(context.Background(), f.admin)
	require.NoError(t, err)
	require.Equal(t, 1, pending.Total)

	view := pending.Flags[0]
	require.NotNil(t, view.Author)
	assert.Equal(t, "Student A", view.Author.Name)
	assert.Equal(t, "a@campus.edu", view.Author.Email)
	require.NotNil(t, view.FlaggedBy)
	assert.Equal(t, f.faculty.ID, view.FlaggedBy.ID)

	raw, err := json.Marshal(pending)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "AS_10001")
}
