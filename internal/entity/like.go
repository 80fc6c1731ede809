package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Like struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FeedbackID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_likes_unique,priority:1" json:"feedback_id"`
	Feedback   *Feedback `gorm:"foreignKey:FeedbackID;constraint:OnDelete:CASCADE" json:"-"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_likes_unique,priority:2;index" json:"user_id"`
	User       *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (l *Like) BeforeCreate(tx *gorm.DB) (err error) {
	if l.ID == uuid.Nil {
		l.ID, err = uuid.NewV7()
	}
	return
}
