package service

import (
	"context"
	"regexp"
	"testing"
	"time"

	"anoa.com/campusfeedback/internal/entity"
	accessService "anoa.com/campusfeedback/internal/modules/access/service"
	moderationDto "anoa.com/campusfeedback/internal/modules/moderation/dto"
	moderationService "anoa.com/campusfeedback/internal/modules/moderation/service"
	notificationService "anoa.com/campusfeedback/internal/modules/notification/service"
	"anoa.com/campusfeedback/internal/modules/user/dto"
	"anoa.com/campusfeedback/internal/testutil"
	"anoa.com/campusfeedback/pkg/apperror"
	"anoa.com/campusfeedback/pkg/clock"
	"anoa.com/campusfeedback/pkg/credential"
	"anoa.com/campusfeedback/pkg/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type sequenceHandles struct {
	handles []string
	calls   int
}

func (s *sequenceHandles) Next() string {
	h := s.handles[s.calls%len(s.handles)]
	s.calls++
	return h
}

type authFixture struct {
	clock  *clock.Mock
	store  *testutil.Store
	hasher credential.Hasher
	gate   accessService.Gate
	svc    AuthService
}

func newAuthFixture(t *testing.T, handles HandleGenerator) *authFixture {
	t.Helper()
	clk := clock.NewMock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	store := testutil.NewStore(clk)
	tokens := token.NewJWTService("test-secret", time.Hour, clk)
	hasher := credential.NewBcryptHasher(bcrypt.MinCost)
	gate := accessService.NewGate(tokens, store.Users(), store.Revocations(), clk)
	cfg := NewGoogleConfig("client", "secret", "http://localhost/callback")

	return &authFixture{
		clock:  clk,
		store:  store,
		hasher: hasher,
		gate:   gate,
		svc:    NewAuthService(store.Users(), gate, tokens, hasher, handles, cfg),
	}
}

func strPtr(s string) *string { return &s }

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, apperror.As(err).Code)
}

func TestRegisterStudentGetsHandle(t *testing.T) {
	f := newAuthFixture(t, NewRandomHandleGenerator("AS_"))

	res, err := f.svc.Register(context.Background(), dto.RegisterInput{
		Email: "  Alice@Campus.EDU ", Password: "secret1", Name: "Alice",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.Equal(t, entity.RoleStudent, res.User.Role)
	require.NotNil(t, res.User.AnonymousHandle)
	assert.Regexp(t, regexp.MustCompile(`^AS_\d{5}$`), *res.User.AnonymousHandle)
	assert.Empty(t, res.User.Name)
	assert.Empty(t, res.User.Email)

	stored := f.store.User(res.User.ID)
	assert.Equal(t, "alice@campus.edu", stored.Email)
	assert.Equal(t, entity.ApprovalApproved, stored.ApprovalStatus)
	require.NotNil(t, stored.PasswordHash)
	assert.True(t, f.hasher.Verify("secret1", *stored.PasswordHash))
}

func TestRegisterFacultyIsPendingWithoutHandle(t *testing.T) {
	f := newAuthFixture(t, nil)

	res, err := f.svc.Register(context.Background(), dto.RegisterInput{
		Email: "smith@campus.edu", Password: "secret1", Name: "Dr. Smith", Role: "faculty",
	})
	require.NoError(t, err)
	assert.Equal(t, pendingFacultyMessage, res.Message)
	assert.Nil(t, res.User.AnonymousHandle)
	assert.Equal(t, entity.ApprovalPending, res.User.ApprovalStatus)

	stored := f.store.User(res.User.ID)
	assert.Nil(t, stored.AnonymousHandle)
}

func TestRegisterRejections(t *testing.T) {
	f := newAuthFixture(t, nil)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, dto.RegisterInput{Email: "a@campus.edu", Password: "secret1", Name: "A", Role: "admin"})
	assertCode(t, err, apperror.CodeInvalidRole)

	_, err = f.svc.Register(ctx, dto.RegisterInput{Email: "a@campus.edu", Password: "secret1", Name: "A", Role: "janitor"})
	assertCode(t, err, apperror.CodeInvalidRole)

	_, err = f.svc.Register(ctx, dto.RegisterInput{Email: "a@campus.edu", Password: "short", Name: "A"})
	assertCode(t, err, apperror.CodeWeakPassword)
	assert.NotEmpty(t, apperror.As(err).Details["errors"])

	_, err = f.svc.Register(ctx, dto.RegisterInput{Email: "a@campus.edu", Password: "secret1", Name: "A"})
	require.NoError(t, err)

	_, err = f.svc.Register(ctx, dto.RegisterInput{Email: "A@campus.edu", Password: "secret1", Name: "A"})
	assertCode(t, err, apperror.CodeUserExists)
}

func TestRegisterRetriesHandleCollision(t *testing.T) {
	handles := &sequenceHandles{handles: []string{"AS_10001", "AS_10001", "AS_20002"}}
	f := newAuthFixture(t, handles)
	ctx := context.Background()

	first, err := f.svc.Register(ctx, dto.RegisterInput{Email: "a@campus.edu", Password: "secret1", Name: "A"})
	require.NoError(t, err)
	assert.Equal(t, "AS_10001", *first.User.AnonymousHandle)

	second, err := f.svc.Register(ctx, dto.RegisterInput{Email: "b@campus.edu", Password: "secret1", Name: "B"})
	require.NoError(t, err)
	assert.Equal(t, "AS_20002", *second.User.AnonymousHandle)
	assert.Equal(t, 3, handles.calls)
}

func TestRegisterGivesUpAfterRepeatedCollisions(t *testing.T) {
	f := newAuthFixture(t, &sequenceHandles{handles: []string{"AS_10001"}})
	ctx := context.Background()

	_, err := f.svc.Register(ctx, dto.RegisterInput{Email: "a@campus.edu", Password: "secret1", Name: "A"})
	require.NoError(t, err)

	_, err = f.svc.Register(ctx, dto.RegisterInput{Email: "b@campus.edu", Password: "secret1", Name: "B"})
	assertCode(t, err, apperror.CodeIdentityCollision)
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestLogin(t *testing.T) {
	f := newAuthFixture(t, nil)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, dto.RegisterInput{Email: "a@campus.edu", Password: "secret1", Name: "A"})
	require.NoError(t, err)

	res, err := f.svc.Login(ctx, dto.LoginInput{Email: "A@campus.edu", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", res.TokenType)

	_, err = f.svc.Login(ctx, dto.LoginInput{Email: "a@campus.edu", Password: "wrong1"})
	assertCode(t, err, apperror.CodeInvalidCredentials)

	_, err = f.svc.Login(ctx, dto.LoginInput{Email: "nobody@campus.edu", Password: "secret1"})
	assertCode(t, err, apperror.CodeInvalidCredentials)
}

func TestLoginDenials(t *testing.T) {
	f := newAuthFixture(t, nil)
	ctx := context.Background()
	digest, err := f.hasher.Hash("secret1")
	require.NoError(t, err)
	until := f.clock.Now().Add(24 * time.Hour)

	f.store.AddUser(entity.User{Email: "banned@campus.edu", PasswordHash: &digest, Role: entity.RoleStudent, IsBanned: true})
	f.store.AddUser(entity.User{Email: "susp@campus.edu", PasswordHash: &digest, Role: entity.RoleStudent, IsSuspended: true, SuspensionEndDate: &until})
	f.store.AddUser(entity.User{Email: "fac@campus.edu", PasswordHash: &digest, Role: entity.RoleFaculty, ApprovalStatus: entity.ApprovalPending})
	f.store.AddUser(entity.User{Email: "google@campus.edu", Role: entity.RoleStudent, OAuthProvider: entity.OAuthProviderGoogle})

	_, err = f.svc.Login(ctx, dto.LoginInput{Email: "banned@campus.edu", Password: "secret1"})
	assertCode(t, err, apperror.CodeAccountBanned)

	_, err = f.svc.Login(ctx, dto.LoginInput{Email: "susp@campus.edu", Password: "secret1"})
	assertCode(t, err, apperror.CodeAccountSuspended)

	_, err = f.svc.Login(ctx, dto.LoginInput{Email: "fac@campus.edu", Password: "secret1"})
	assertCode(t, err, apperror.CodePendingApproval)

	_, err = f.svc.Login(ctx, dto.LoginInput{Email: "google@campus.edu", Password: "secret1"})
	assertCode(t, err, apperror.CodeOAuthUser)
}

func TestLogoutRevokesToken(t *testing.T) {
	f := newAuthFixture(t, nil)
	ctx := context.Background()

	res, err := f.svc.Register(ctx, dto.RegisterInput{Email: "a@campus.edu", Password: "secret1", Name: "A"})
	require.NoError(t, err)

	principal, err := f.gate.Authenticate(ctx, res.AccessToken)
	require.NoError(t, err)
	require.NoError(t, f.svc.Logout(ctx, principal))

	_, err = f.gate.Authenticate(ctx, res.AccessToken)
	assertCode(t, err, apperror.CodeInvalidToken)
}

func TestUpdateDisplayNameKeepsHandle(t *testing.T) {
	f := newAuthFixture(t, &sequenceHandles{handles: []string{"AS_10001"}})
	ctx := context.Background()

	res, err := f.svc.Register(ctx, dto.RegisterInput{Email: "a@campus.edu", Password: "secret1", Name: "A"})
	require.NoError(t, err)
	user := f.store.User(res.User.ID)

	safe, err := f.svc.UpdateDisplayName(ctx, &user, "  Night Owl ")
	require.NoError(t, err)
	assert.Equal(t, "Night Owl", *safe.DisplayName)

	stored := f.store.User(user.ID)
	assert.Equal(t, "Night Owl", *stored.DisplayName)
	assert.Equal(t, "AS_10001", *stored.AnonymousHandle)

	_, err = f.svc.UpdateDisplayName(ctx, &user, "   ")
	assertCode(t, err, apperror.CodeInvalidDisplayName)

	_, err = f.svc.UpdateDisplayName(ctx, &user, "abcdefghijabcdefghijabcdefghijabcdefghijabcdefghijX")
	assertCode(t, err, apperror.CodeInvalidDisplayName)
}

func TestUpdateDisplayNameDoesNotLiftConcurrentBan(t *testing.T) {
	f := newAuthFixture(t, &sequenceHandles{handles: []string{"AS_10001"}})
	ctx := context.Background()

	res, err := f.svc.Register(ctx, dto.RegisterInput{Email: "a@campus.edu", Password: "secret1", Name: "A"})
	require.NoError(t, err)
	principal, err := f.gate.Authenticate(ctx, res.AccessToken)
	require.NoError(t, err)

	faculty := f.store.AddUser(entity.User{Email: "f@campus.edu", Name: "F", Role: entity.RoleFaculty, ApprovalStatus: entity.ApprovalApproved})
	admin := f.store.AddUser(entity.User{Email: "admin@campus.edu", Name: "Admin", Role: entity.RoleAdmin, ApprovalStatus: entity.ApprovalApproved})
	post := f.store.AddFeedback(entity.Feedback{
		AuthorID: principal.User.ID, AuthorAnonymousHandle: principal.User.AnonymousHandle, Content: "X", Category: entity.CategoryGeneral,
	})

	moderation := moderationService.NewModerationService(
		f.store.Flags(), f.store.Feedback(), f.store.Users(),
		notificationService.NewNotificationService(f.store.Notifications()),
		f.clock, moderationService.Policy{},
	)
	flag, err := moderation.FlagPost(ctx, faculty, post.ID, moderationDto.FlagInput{Reason: "spam"})
	require.NoError(t, err)
	_, err = moderation.Ban(ctx, admin, flag.FlagID, moderationDto.ResolveInput{})
	require.NoError(t, err)

	// principal.User was loaded before the ban and still reads as live.
	require.False(t, principal.User.IsBanned)
	_, err = f.svc.UpdateDisplayName(ctx, principal.User, "Nick")
	require.NoError(t, err)

	stored := f.store.User(principal.User.ID)
	assert.True(t, stored.IsBanned)
	assert.Equal(t, "Nick", *stored.DisplayName)

	_, err = f.gate.Authenticate(ctx, res.AccessToken)
	assertCode(t, err, apperror.CodeAccountBanned)
}

func TestLinkingGoogleKeepsSuspension(t *testing.T) {
	f := newAuthFixture(t, nil)
	ctx := context.Background()

	end := f.clock.Now().Add(72 * time.Hour)
	suspended := f.store.AddUser(entity.User{
		Email: "s@campus.edu", Name: "S", Role: entity.RoleStudent, AnonymousHandle: strPtr("AS_50005"),
		IsSuspended: true, SuspensionEndDate: &end,
	})

	linked, err := f.svc.FindOrCreateFederated(ctx, dto.GoogleProfile{ID: "g-9", Email: "s@campus.edu"})
	require.NoError(t, err)
	assert.Equal(t, suspended.ID, linked.ID)

	stored := f.store.User(suspended.ID)
	assert.Equal(t, "g-9", *stored.OAuthID)
	assert.Equal(t, entity.OAuthProviderGoogle, stored.OAuthProvider)
	assert.True(t, stored.IsSuspended)
	require.NotNil(t, stored.SuspensionEndDate)
	assert.True(t, stored.SuspensionEndDate.Equal(end))
}

func TestFindOrCreateFederated(t *testing.T) {
	f := newAuthFixture(t, &sequenceHandles{handles: []string{"AS_30003"}})
	ctx := context.Background()

	created, err := f.svc.FindOrCreateFederated(ctx, dto.GoogleProfile{ID: "g-1", Email: "New@campus.edu", Name: "New Student"})
	require.NoError(t, err)
	assert.Equal(t, entity.RoleStudent, created.Role)
	assert.Equal(t, "AS_30003", *created.AnonymousHandle)
	assert.Nil(t, created.PasswordHash)

	again, err := f.svc.FindOrCreateFederated(ctx, dto.GoogleProfile{ID: "g-1", Email: "new@campus.edu"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)

	digest, err := f.hasher.Hash("secret1")
	require.NoError(t, err)
	local := f.store.AddUser(entity.User{Email: "local@campus.edu", PasswordHash: &digest, Role: entity.RoleFaculty, ApprovalStatus: entity.ApprovalApproved})

	linked, err := f.svc.FindOrCreateFederated(ctx, dto.GoogleProfile{ID: "g-2", Email: "local@campus.edu"})
	require.NoError(t, err)
	assert.Equal(t, local.ID, linked.ID)
	assert.Equal(t, "g-2", *f.store.User(local.ID).OAuthID)

	_, err = f.svc.FindOrCreateFederated(ctx, dto.GoogleProfile{ID: "", Email: "x@campus.edu"})
	assertCode(t, err, apperror.CodeValidation)
}

func TestEnsureAdmin(t *testing.T) {
	f := newAuthFixture(t, nil)
	ctx := context.Background()

	created, err := f.svc.EnsureAdmin(ctx, "", "", "")
	require.NoError(t, err)
	assert.False(t, created)

	created, err = f.svc.EnsureAdmin(ctx, "Admin@campus.edu", "admin123", "")
	require.NoError(t, err)
	assert.True(t, created)

	res, err := f.svc.Login(ctx, dto.LoginInput{Email: "admin@campus.edu", Password: "admin123"})
	require.NoError(t, err)
	assert.Equal(t, entity.RoleAdmin, res.User.Role)
	assert.Nil(t, res.User.AnonymousHandle)

	created, err = f.svc.EnsureAdmin(ctx, "other@campus.edu", "admin123", "Other")
	require.NoError(t, err)
	assert.False(t, created)
}

func TestGoogleLoginURL(t *testing.T) {
	f := newAuthFixture(t, nil)
	url := f.svc.GoogleLoginURL("state-123")
	assert.Contains(t, url, "accounts.google.com")
	assert.Contains(t, url, "state=state-123")
}
