package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"anoa.com/campusfeedback/internal/entity"
	accessService "anoa.com/campusfeedback/internal/modules/access/service"
	anonDto "anoa.com/campusfeedback/internal/modules/anonymity/dto"
	anonymity "anoa.com/campusfeedback/internal/modules/anonymity/service"
	"anoa.com/campusfeedback/internal/modules/user/dto"
	"anoa.com/campusfeedback/internal/modules/user/repository"
	"anoa.com/campusfeedback/pkg/apperror"
	"anoa.com/campusfeedback/pkg/credential"
	"anoa.com/campusfeedback/pkg/token"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"gorm.io/gorm"
)

const (
	googleUserInfoURL     = "https://www.googleapis.com/oauth2/v2/userinfo"
	maxDisplayNameLength  = 50
	pendingFacultyMessage = "Registration successful. Your faculty account is pending admin approval."
)

type AuthService interface {
	Register(ctx context.Context, input dto.RegisterInput) (*dto.AuthResponse, error)
	Login(ctx context.Context, input dto.LoginInput) (*dto.AuthResponse, error)
	Logout(ctx context.Context, principal *accessService.Principal) error
	Me(user *entity.User) anonDto.SafeUser
	UpdateDisplayName(ctx context.Context, user *entity.User, displayName string) (*anonDto.SafeUser, error)
	GoogleLoginURL(state string) string
	GoogleCallback(ctx context.Context, code string) (*dto.AuthResponse, error)
	FindOrCreateFederated(ctx context.Context, profile dto.GoogleProfile) (*entity.User, error)
	EnsureAdmin(ctx context.Context, email, password, name string) (bool, error)
}

type authService struct {
	repo         repository.UserRepository
	gate         accessService.Gate
	tokens       token.Service
	hasher       credential.Hasher
	handles      HandleGenerator
	googleConfig *oauth2.Config
	sanitizer    *bluemonday.Policy
}

// NewGoogleConfig builds the OAuth client configuration for Google sign-in.
func NewGoogleConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}
}

func NewAuthService(
	repo repository.UserRepository,
	gate accessService.Gate,
	tokens token.Service,
	hasher credential.Hasher,
	handles HandleGenerator,
	googleConfig *oauth2.Config,
) AuthService {
	if handles == nil {
		handles = NewRandomHandleGenerator(DefaultHandlePrefix)
	}
	return &authService{
		repo:         repo,
		gate:         gate,
		tokens:       tokens,
		hasher:       hasher,
		handles:      handles,
		googleConfig: googleConfig,
		sanitizer:    bluemonday.StrictPolicy(),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func parseSelfServiceRole(raw string) (entity.Role, error) {
	if raw == "" {
		return entity.RoleStudent, nil
	}
	role := entity.Role(strings.ToLower(raw))
	switch role {
	case entity.RoleStudent, entity.RoleFaculty:
		return role, nil
	case entity.RoleAdmin:
		return "", apperror.Validation(apperror.CodeInvalidRole, "admin accounts cannot be self-registered")
	default:
		return "", apperror.Validation(apperror.CodeInvalidRole, "role must be student or faculty")
	}
}

func weakPassword(problems []error) error {
	messages := make([]string, len(problems))
	for i, p := range problems {
		messages[i] = p.Error()
	}
	return apperror.Validation(apperror.CodeWeakPassword, "password does not meet requirements").
		WithDetail("errors", messages)
}

func (s *authService) Register(ctx context.Context, input dto.RegisterInput) (*dto.AuthResponse, error) {
	role, err := parseSelfServiceRole(input.Role)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperror.Validation(apperror.CodeValidation, "name is required")
	}
	if problems := credential.ValidatePassword(input.Password); len(problems) > 0 {
		return nil, weakPassword(problems)
	}

	email := normalizeEmail(input.Email)
	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, apperror.Conflict(apperror.CodeUserExists, "a user with this email already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.Internal(err)
	}

	digest, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	user := &entity.User{
		Email:          email,
		PasswordHash:   &digest,
		Name:           name,
		Role:           role,
		ApprovalStatus: entity.DefaultApproval(role),
		OAuthProvider:  entity.OAuthProviderLocal,
	}
	if err := s.create(ctx, user); err != nil {
		return nil, err
	}

	log.Info().Str("user_id", user.ID.String()).Str("role", string(role)).Msg("user registered")

	message := "Registration successful"
	if role == entity.RoleFaculty {
		message = pendingFacultyMessage
	}
	return s.buildAuthResponse(user, message)
}

// create inserts user, drawing a fresh anonymous handle for students until
// one is free.
func (s *authService) create(ctx context.Context, user *entity.User) error {
	if user.Role != entity.RoleStudent {
		user.AnonymousHandle = nil
		return s.insert(ctx, user)
	}

	for attempt := 1; attempt <= maxHandleAttempts; attempt++ {
		handle := s.handles.Next()
		user.AnonymousHandle = &handle

		err := s.insert(ctx, user)
		if !apperror.HasCode(err, apperror.CodeIdentityCollision) {
			return err
		}
		log.Debug().Int("attempt", attempt).Str("handle", handle).Msg("anonymous handle collision, retrying")
	}

	user.AnonymousHandle = nil
	return apperror.Conflict(apperror.CodeIdentityCollision, "could not assign a unique anonymous handle, please retry")
}

func (s *authService) insert(ctx context.Context, user *entity.User) error {
	err := s.repo.Create(ctx, user)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrAnonymousHandleTaken):
		return apperror.Conflict(apperror.CodeIdentityCollision, "anonymous handle already taken")
	case errors.Is(err, repository.ErrEmailTaken), errors.Is(err, repository.ErrOAuthIDTaken):
		return apperror.Conflict(apperror.CodeUserExists, "a user with this email already exists")
	default:
		return apperror.Internal(err)
	}
}

func (s *authService) Login(ctx context.Context, input dto.LoginInput) (*dto.AuthResponse, error) {
	user, err := s.repo.FindByEmail(ctx, normalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Unauthorized(apperror.CodeInvalidCredentials, "invalid email or password")
		}
		return nil, apperror.Internal(err)
	}

	if user.PasswordHash == nil {
		return nil, apperror.Validation(apperror.CodeOAuthUser, "this account uses Google sign-in")
	}
	if !s.hasher.Verify(input.Password, *user.PasswordHash) {
		return nil, apperror.Unauthorized(apperror.CodeInvalidCredentials, "invalid email or password")
	}

	if err := s.gate.CheckLiveness(user); err != nil {
		return nil, err
	}

	return s.buildAuthResponse(user, "Login successful")
}

func (s *authService) Logout(ctx context.Context, principal *accessService.Principal) error {
	return s.gate.Revoke(ctx, principal)
}

func (s *authService) Me(user *entity.User) anonDto.SafeUser {
	return anonymity.ProjectUser(user, user)
}

func (s *authService) UpdateDisplayName(ctx context.Context, user *entity.User, displayName string) (*anonDto.SafeUser, error) {
	name := strings.TrimSpace(s.sanitizer.Sanitize(displayName))
	if name == "" || utf8.RuneCountInString(name) > maxDisplayNameLength {
		return nil, apperror.Validation(apperror.CodeInvalidDisplayName,
			fmt.Sprintf("display name must be 1-%d characters", maxDisplayNameLength))
	}

	if err := s.repo.UpdateDisplayName(ctx, user.ID, name); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound(apperror.CodeUserNotFound, "user not found")
		}
		return nil, apperror.Internal(err)
	}
	user.DisplayName = &name

	safe := anonymity.ProjectUser(user, user)
	return &safe, nil
}

func (s *authService) GoogleLoginURL(state string) string {
	return s.googleConfig.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

func (s *authService) GoogleCallback(ctx context.Context, code string) (*dto.AuthResponse, error) {
	tok, err := s.googleConfig.Exchange(ctx, code)
	if err != nil {
		return nil, apperror.Unauthorized(apperror.CodeInvalidCredentials, "failed to exchange google authorization code")
	}

	resp, err := s.googleConfig.Client(ctx, tok).Get(googleUserInfoURL)
	if err != nil {
		return nil, apperror.Internal(fmt.Errorf("failed to get google user info: %w", err))
	}
	defer resp.Body.Close()

	var profile dto.GoogleProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, apperror.Internal(fmt.Errorf("failed to decode google user info: %w", err))
	}

	user, err := s.FindOrCreateFederated(ctx, profile)
	if err != nil {
		return nil, err
	}
	if err := s.gate.CheckLiveness(user); err != nil {
		return nil, err
	}
	return s.buildAuthResponse(user, "Login successful")
}

// FindOrCreateFederated resolves a Google profile to an account: by Google
// id, else by linking the account with the same email, else by creating a
// new student.
func (s *authService) FindOrCreateFederated(ctx context.Context, profile dto.GoogleProfile) (*entity.User, error) {
	if profile.ID == "" || profile.Email == "" {
		return nil, apperror.Validation(apperror.CodeValidation, "google profile is missing id or email")
	}

	user, err := s.repo.FindByOAuthID(ctx, entity.OAuthProviderGoogle, profile.ID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.Internal(err)
	}

	email := normalizeEmail(profile.Email)
	user, err = s.repo.FindByEmail(ctx, email)
	if err == nil {
		if err := s.repo.LinkOAuth(ctx, user.ID, entity.OAuthProviderGoogle, profile.ID); err != nil {
			if errors.Is(err, repository.ErrOAuthIDTaken) {
				return nil, apperror.Conflict(apperror.CodeUserExists, "google account is already linked to another user")
			}
			return nil, apperror.Internal(err)
		}
		oauthID := profile.ID
		user.OAuthID = &oauthID
		user.OAuthProvider = entity.OAuthProviderGoogle
		log.Info().Str("user_id", user.ID.String()).Msg("linked google account")
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.Internal(err)
	}

	name := strings.TrimSpace(profile.Name)
	if name == "" {
		name = strings.Split(email, "@")[0]
	}
	oauthID := profile.ID
	user = &entity.User{
		Email:          email,
		Name:           name,
		Role:           entity.RoleStudent,
		ApprovalStatus: entity.DefaultApproval(entity.RoleStudent),
		OAuthProvider:  entity.OAuthProviderGoogle,
		OAuthID:        &oauthID,
	}
	if err := s.create(ctx, user); err != nil {
		return nil, err
	}
	log.Info().Str("user_id", user.ID.String()).Msg("user registered via google")
	return user, nil
}

// EnsureAdmin creates the bootstrap admin when no admin exists yet. It
// reports whether an account was created.
func (s *authService) EnsureAdmin(ctx context.Context, email, password, name string) (bool, error) {
	role := entity.RoleAdmin
	admins, err := s.repo.List(ctx, repository.Filter{Role: &role})
	if err != nil {
		return false, err
	}
	if len(admins) > 0 {
		return false, nil
	}
	if email == "" || password == "" {
		log.Warn().Msg("no admin account exists and ADMIN_EMAIL/ADMIN_PASSWORD are not set")
		return false, nil
	}

	digest, err := s.hasher.Hash(password)
	if err != nil {
		return false, err
	}
	if name == "" {
		name = "System Administrator"
	}

	admin := &entity.User{
		Email:          normalizeEmail(email),
		PasswordHash:   &digest,
		Name:           name,
		Role:           entity.RoleAdmin,
		ApprovalStatus: entity.ApprovalApproved,
		OAuthProvider:  entity.OAuthProviderLocal,
	}
	if err := s.create(ctx, admin); err != nil {
		return false, err
	}
	return true, nil
}

func (s *authService) buildAuthResponse(user *entity.User, message string) (*dto.AuthResponse, error) {
	raw, claims, err := s.tokens.Issue(user.ID, user.Email, string(user.Role), string(user.ApprovalStatus))
	if err != nil {
		return nil, apperror.Internal(err)
	}

	return &dto.AuthResponse{
		AccessToken: raw,
		TokenType:   "Bearer",
		ExpiresIn:   claims.ExpiresAt.Unix(),
		User:        anonymity.ProjectUser(user, user),
		Message:     message,
	}, nil
}
