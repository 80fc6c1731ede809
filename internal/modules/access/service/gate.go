package service

import (
	"context"
	"errors"
	"time"

	"anoa.com/campusfeedback/internal/entity"
	"anoa.com/campusfeedback/internal/modules/access/repository"
	"anoa.com/campusfeedback/pkg/apperror"
	"anoa.com/campusfeedback/pkg/clock"
	"anoa.com/campusfeedback/pkg/metrics"
	"anoa.com/campusfeedback/pkg/token"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Principal is an authenticated, live account plus the token it presented.
type Principal struct {
	User      *entity.User
	TokenID   string
	ExpiresAt time.Time
}

// UserFinder is the slice of the user store the gate needs.
type UserFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
}

// Gate resolves bearer credentials into principals.
type Gate interface {
	// Authenticate returns a live principal or the precise denial.
	Authenticate(ctx context.Context, raw string) (*Principal, error)
	// AuthenticateOptional never fails; any denial yields nil (anonymous).
	AuthenticateOptional(ctx context.Context, raw string) *Principal
	// CheckLiveness maps the account's liveness to a denial error, or nil.
	CheckLiveness(user *entity.User) error
	Revoke(ctx context.Context, principal *Principal) error
}

type gate struct {
	tokens      token.Service
	users       UserFinder
	revocations repository.RevocationStore
	clock       clock.Clock
}

func NewGate(tokens token.Service, users UserFinder, revocations repository.RevocationStore, clk clock.Clock) Gate {
	if clk == nil {
		clk = clock.Real()
	}
	return &gate{
		tokens:      tokens,
		users:       users,
		revocations: revocations,
		clock:       clk,
	}
}

func (g *gate) Authenticate(ctx context.Context, raw string) (*Principal, error) {
	principal, err := g.authenticate(ctx, raw)
	if err != nil {
		metrics.AccessDenied.WithLabelValues(apperror.As(err).Code).Inc()
		return nil, err
	}
	return principal, nil
}

func (g *gate) authenticate(ctx context.Context, raw string) (*Principal, error) {
	if raw == "" {
		return nil, apperror.Unauthorized(apperror.CodeNoToken, "no token provided")
	}

	claims, err := g.tokens.Verify(raw)
	if err != nil {
		return nil, err
	}

	if g.revocations != nil {
		revoked, err := g.revocations.IsRevoked(ctx, claims.ID)
		if err != nil {
			// Fail open while the revocation store is unreachable.
			log.Warn().Err(err).Str("jti", claims.ID).Msg("token revocation check failed")
		} else if revoked {
			return nil, apperror.Unauthorized(apperror.CodeInvalidToken, "token has been revoked")
		}
	}

	userID, err := claims.UserID()
	if err != nil {
		return nil, apperror.Unauthorized(apperror.CodeInvalidToken, "invalid token subject")
	}

	user, err := g.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Unauthorized(apperror.CodeUserNotFound, "user not found")
		}
		return nil, apperror.Internal(err)
	}

	if err := g.CheckLiveness(user); err != nil {
		return nil, err
	}

	principal := &Principal{User: user, TokenID: claims.ID}
	if claims.ExpiresAt != nil {
		principal.ExpiresAt = claims.ExpiresAt.Time
	}
	return principal, nil
}

func (g *gate) AuthenticateOptional(ctx context.Context, raw string) *Principal {
	if raw == "" {
		return nil
	}
	principal, err := g.authenticate(ctx, raw)
	if err != nil {
		return nil
	}
	return principal
}

func (g *gate) CheckLiveness(user *entity.User) error {
	switch user.Liveness(g.clock.Now()) {
	case entity.Live:
		return nil
	case entity.Banned:
		return apperror.Forbidden(apperror.CodeAccountBanned, "your account has been banned")
	case entity.Suspended:
		return apperror.Forbidden(apperror.CodeAccountSuspended, "your account is suspended").
			WithDetail("suspended_until", user.SuspensionEndDate.UTC())
	case entity.AwaitingApproval:
		if user.ApprovalStatus == entity.ApprovalRejected {
			return apperror.Forbidden(apperror.CodePendingApproval, "your faculty account was not approved")
		}
		return apperror.Forbidden(apperror.CodePendingApproval, "your account is pending admin approval")
	default:
		return apperror.Forbidden(apperror.CodeForbidden, "account cannot access the system")
	}
}

func (g *gate) Revoke(ctx context.Context, principal *Principal) error {
	if g.revocations == nil || principal == nil {
		return nil
	}
	if err := g.revocations.Revoke(ctx, principal.TokenID, principal.ExpiresAt); err != nil {
		return apperror.Internal(err)
	}
	return nil
}

// HasAnyRole reports whether user holds one of roles. A nil user holds none.
func HasAnyRole(user *entity.User, roles ...entity.Role) bool {
	if user == nil {
		return false
	}
	for _, role := range roles {
		if user.Role == role {
			return true
		}
	}
	return false
}

// Authorize is HasAnyRole as an error.
func Authorize(user *entity.User, roles ...entity.Role) error {
	if user == nil {
		return apperror.Unauthorized(apperror.CodeUnauthorized, "authentication required")
	}
	if !HasAnyRole(user, roles...) {
		return apperror.Forbidden(apperror.CodeForbidden, "insufficient permissions")
	}
	return nil
}
