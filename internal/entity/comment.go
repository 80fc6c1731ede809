package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Comment on a post. AuthorDisplay is the name resolved when the comment was
// written, so later display name changes do not rewrite history.
type Comment struct {
	ID                    uuid.UUID `gorm:"type:uuid;primaryKey"`
	FeedbackID            uuid.UUID `gorm:"type:uuid;not null;index:idx_comments_feedback_created,priority:1"`
	Feedback              *Feedback `gorm:"foreignKey:FeedbackID;constraint:OnDelete:CASCADE"`
	AuthorID              uuid.UUID `gorm:"type:uuid;not null;index"`
	Author                *User     `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	AuthorAnonymousHandle *string   `gorm:"size:32"`
	AuthorDisplay         string    `gorm:"size:100;not null"`
	Content               string    `gorm:"type:text;not null"`
	CreatedAt             time.Time `gorm:"autoCreateTime;index:idx_comments_feedback_created,priority:2"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID, err = uuid.NewV7()
	}
	return
}
