package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FeedbackCategory string

const (
	CategoryGeneral  FeedbackCategory = "general"
	CategoryFaculty  FeedbackCategory = "faculty"
	CategoryCourse   FeedbackCategory = "course"
	CategoryFacility FeedbackCategory = "facility"
)

func (c FeedbackCategory) Valid() bool {
	switch c {
	case CategoryGeneral, CategoryFaculty, CategoryCourse, CategoryFacility:
		return true
	}
	return false
}

// Feedback is a post on the board. AuthorAnonymousHandle is captured when the
// post is written and is never rewritten afterwards.
type Feedback struct {
	ID                    uuid.UUID        `gorm:"type:uuid;primaryKey"`
	AuthorID              uuid.UUID        `gorm:"type:uuid;not null;index"`
	Author                *User            `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	AuthorAnonymousHandle *string          `gorm:"size:32"`
	Content               string           `gorm:"type:text;not null"`
	Category              FeedbackCategory `gorm:"size:20;not null;default:general;index:idx_feedback_category_hidden,priority:1"`
	TargetFacultyID       *uuid.UUID       `gorm:"type:uuid;index"`
	TargetCourse          *string          `gorm:"size:200"`
	TargetFacility        *string          `gorm:"size:200"`
	Ratings               []Rating         `gorm:"foreignKey:FeedbackID;constraint:OnDelete:CASCADE"`
	AverageRating         float64          `gorm:"not null;default:0"`
	LikeCount             int              `gorm:"not null;default:0;index"`
	CommentCount          int              `gorm:"not null;default:0"`
	IsFlagged             bool             `gorm:"not null;default:false;index:idx_feedback_flag_hidden,priority:1"`
	IsHidden              bool             `gorm:"not null;default:false;index:idx_feedback_category_hidden,priority:2;index:idx_feedback_flag_hidden,priority:2"`
	FlaggedByID           *uuid.UUID       `gorm:"type:uuid"`
	FlagReason            *string          `gorm:"type:text"`
	CreatedAt             time.Time        `gorm:"autoCreateTime;index"`
	UpdatedAt             time.Time        `gorm:"autoUpdateTime"`
}

func (Feedback) TableName() string {
	return "feedback"
}

func (f *Feedback) BeforeCreate(tx *gorm.DB) (err error) {
	if f.ID == uuid.Nil {
		f.ID, err = uuid.NewV7()
	}
	return
}

// Rating is one scored aspect of a post.
type Rating struct {
	ID           uint       `gorm:"primaryKey"`
	FeedbackID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	CategoryID   *uuid.UUID `gorm:"type:uuid"`
	CategoryName string     `gorm:"size:100;not null"`
	Value        int        `gorm:"not null"`
}

const (
	MinRating = 1
	MaxRating = 5
)

// RecomputeAverage refreshes AverageRating from Ratings.
func (f *Feedback) RecomputeAverage() {
	if len(f.Ratings) == 0 {
		f.AverageRating = 0
		return
	}
	sum := 0
	for _, r := range f.Ratings {
		sum += r.Value
	}
	f.AverageRating = float64(sum) / float64(len(f.Ratings))
}

// VisibleTo reports whether viewer may see the post. Hidden posts exist only
// for admins; nil is an anonymous viewer.
func (f *Feedback) VisibleTo(viewer *User) bool {
	if !f.IsHidden {
		return true
	}
	return viewer != nil && viewer.Role == RoleAdmin
}

// MarkFlagged hides the post while a flag is pending.
func (f *Feedback) MarkFlagged(by uuid.UUID, reason string) {
	f.IsFlagged = true
	f.IsHidden = true
	f.FlaggedByID = &by
	f.FlagReason = &reason
}

// Restore makes the post visible again after a dismissed flag.
func (f *Feedback) Restore() {
	f.IsFlagged = false
	f.IsHidden = false
	f.FlaggedByID = nil
	f.FlagReason = nil
}
