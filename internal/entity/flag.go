package entity

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FlagStatus string

const (
	FlagPending   FlagStatus = "pending"
	FlagDismissed FlagStatus = "dismissed"
	FlagActioned  FlagStatus = "actioned"
)

type AdminAction string

const (
	ActionNone      AdminAction = "none"
	ActionDismissed AdminAction = "dismissed"
	ActionSuspended AdminAction = "suspended"
	ActionBanned    AdminAction = "banned"
)

var ErrFlagResolved = errors.New("flag already resolved")

// Flag is a report against a post. At most one pending flag exists per post;
// the partial unique index enforces it in the store.
type Flag struct {
	ID           uuid.UUID   `gorm:"type:uuid;primaryKey"`
	FeedbackID   uuid.UUID   `gorm:"type:uuid;not null;index;uniqueIndex:idx_flags_one_pending,where:status = 'pending'"`
	Feedback     *Feedback   `gorm:"foreignKey:FeedbackID;constraint:OnDelete:CASCADE"`
	FlaggedByID  uuid.UUID   `gorm:"type:uuid;not null;index"`
	FlaggedBy    *User       `gorm:"foreignKey:FlaggedByID;constraint:OnDelete:CASCADE"`
	Reason       string      `gorm:"size:500;not null"`
	Status       FlagStatus  `gorm:"size:20;not null;default:pending;index:idx_flags_status_created,priority:1"`
	AdminAction  AdminAction `gorm:"size:20;not null;default:none"`
	AdminNotes   *string     `gorm:"size:1000"`
	ReviewedByID *uuid.UUID  `gorm:"type:uuid"`
	ReviewedBy   *User       `gorm:"foreignKey:ReviewedByID;constraint:OnDelete:SET NULL"`
	ReviewedAt   *time.Time
	CreatedAt    time.Time `gorm:"autoCreateTime;index:idx_flags_status_created,priority:2"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

func (f *Flag) BeforeCreate(tx *gorm.DB) (err error) {
	if f.ID == uuid.Nil {
		f.ID, err = uuid.NewV7()
	}
	return
}

func (f *Flag) IsPending() bool {
	return f.Status == FlagPending
}

// Resolve moves a pending flag to its terminal state for action. Dismissal
// ends in dismissed, any disciplinary remedy ends in actioned.
func (f *Flag) Resolve(action AdminAction, reviewer uuid.UUID, at time.Time, notes *string) error {
	if !f.IsPending() {
		return ErrFlagResolved
	}

	switch action {
	case ActionDismissed:
		f.Status = FlagDismissed
	case ActionSuspended, ActionBanned:
		f.Status = FlagActioned
	default:
		return errors.New("unsupported admin action")
	}

	f.AdminAction = action
	f.ReviewedByID = &reviewer
	f.ReviewedAt = &at
	if notes != nil {
		f.AdminNotes = notes
	}
	return nil
}
