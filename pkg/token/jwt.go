package token

import (
	"errors"
	"fmt"
	"time"

	"anoa.com/campusfeedback/pkg/apperror"
	"anoa.com/campusfeedback/pkg/clock"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is what a bearer token asserts about its holder. Only the subject
// is trusted for identity; role and approval are informational.
type Claims struct {
	Email          string `json:"email"`
	Role           string `json:"role"`
	ApprovalStatus string `json:"approval_status"`
	jwt.RegisteredClaims
}

// UserID parses the subject as a user id.
func (c *Claims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// Service issues and verifies bearer tokens.
type Service interface {
	Issue(subject uuid.UUID, email, role, approvalStatus string) (string, *Claims, error)
	Verify(raw string) (*Claims, error)
}

type jwtService struct {
	secret []byte
	ttl    time.Duration
	clock  clock.Clock
}

func NewJWTService(secret string, ttl time.Duration, clk clock.Clock) Service {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if clk == nil {
		clk = clock.Real()
	}
	return &jwtService{secret: []byte(secret), ttl: ttl, clock: clk}
}

func (s *jwtService) Issue(subject uuid.UUID, email, role, approvalStatus string) (string, *Claims, error) {
	now := s.clock.Now()
	claims := &Claims{
		Email:          email,
		Role:           role,
		ApprovalStatus: approvalStatus,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

func (s *jwtService) Verify(raw string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.clock.Now), jwt.WithExpirationRequired())

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperror.Unauthorized(apperror.CodeTokenExpired, "token has expired")
		}
		return nil, apperror.Unauthorized(apperror.CodeInvalidToken, "invalid token")
	}
	if !parsed.Valid {
		return nil, apperror.Unauthorized(apperror.CodeInvalidToken, "invalid token")
	}
	if _, err := claims.UserID(); err != nil {
		return nil, apperror.Unauthorized(apperror.CodeInvalidToken, "invalid token subject")
	}

	return claims, nil
}
