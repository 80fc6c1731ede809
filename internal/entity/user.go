package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is the closed set of principal kinds.
type Role string

const (
	RoleStudent Role = "student"
	RoleFaculty Role = "faculty"
	RoleAdmin   Role = "admin"
)

// Roles lists every role. Switches over Role must cover all of them.
var Roles = []Role{RoleStudent, RoleFaculty, RoleAdmin}

func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleFaculty, RoleAdmin:
		return true
	}
	return false
}

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

const (
	OAuthProviderLocal  = "local"
	OAuthProviderGoogle = "google"
)

type User struct {
	ID                uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Email             string         `gorm:"size:255;uniqueIndex:idx_users_email;not null" json:"-"`
	PasswordHash      *string        `gorm:"size:255" json:"-"`
	Name              string         `gorm:"size:100;not null" json:"-"`
	Role              Role           `gorm:"size:20;not null;index:idx_users_role_approval,priority:1"`
	ApprovalStatus    ApprovalStatus `gorm:"size:20;not null;index:idx_users_role_approval,priority:2"`
	AnonymousHandle   *string        `gorm:"size:32;uniqueIndex:idx_users_anonymous_handle"`
	DisplayName       *string        `gorm:"size:50"`
	OAuthProvider     string         `gorm:"column:oauth_provider;size:20;not null;default:local" json:"-"`
	OAuthID           *string        `gorm:"column:oauth_id;size:100;uniqueIndex:idx_users_oauth_id" json:"-"`
	IsSuspended       bool           `gorm:"not null;default:false"`
	SuspensionEndDate *time.Time
	IsBanned          bool      `gorm:"not null;default:false"`
	CreatedAt         time.Time `gorm:"autoCreateTime"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime"`
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == uuid.Nil {
		u.ID, err = uuid.NewV7()
	}
	return
}

// Liveness is the outcome of an access check.
type Liveness int

const (
	Live Liveness = iota
	Banned
	Suspended
	AwaitingApproval
)

// Liveness evaluates whether the account may act at now. Suspension expires
// by comparison alone; nothing clears the flag in the background.
func (u *User) Liveness(now time.Time) Liveness {
	if u.IsBanned {
		return Banned
	}
	if u.SuspensionActive(now) {
		return Suspended
	}
	if u.Role == RoleFaculty && u.ApprovalStatus != ApprovalApproved {
		return AwaitingApproval
	}
	return Live
}

// CanAccess reports whether the account may act at now.
func (u *User) CanAccess(now time.Time) bool {
	return u.Liveness(now) == Live
}

func (u *User) SuspensionActive(now time.Time) bool {
	return u.IsSuspended && u.SuspensionEndDate != nil && now.Before(*u.SuspensionEndDate)
}

// ResolveDisplayName picks the name shown for the user: the chosen display
// name, else the anonymous handle for students, else the legal name.
func (u *User) ResolveDisplayName() string {
	if u.DisplayName != nil && *u.DisplayName != "" {
		return *u.DisplayName
	}

	switch u.Role {
	case RoleStudent:
		if u.AnonymousHandle != nil {
			return *u.AnonymousHandle
		}
		return "Anonymous Student"
	case RoleFaculty, RoleAdmin:
		return u.Name
	default:
		return "Unknown User"
	}
}

// DefaultApproval is the approval state a new account of role starts in.
func DefaultApproval(role Role) ApprovalStatus {
	switch role {
	case RoleFaculty:
		return ApprovalPending
	case RoleStudent, RoleAdmin:
		return ApprovalApproved
	default:
		return ApprovalPending
	}
}
