// Package dto holds the only shapes in which users, posts and comments leave
// the service. None of them can carry a student's legal name or email.
package dto

import (
	"time"

	"anoa.com/campusfeedback/internal/entity"
	"github.com/google/uuid"
)

// SafeUser is a user as seen by another principal. Name and Email are only
// filled for faculty and admin accounts.
type SafeUser struct {
	ID              uuid.UUID             `json:"id"`
	Role            entity.Role           `json:"role"`
	AnonymousHandle *string               `json:"anonymous_handle,omitempty"`
	DisplayName     *string               `json:"display_name,omitempty"`
	Name            string                `json:"name,omitempty"`
	Email           string                `json:"email,omitempty"`
	ApprovalStatus  entity.ApprovalStatus `json:"approval_status,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
}

type SafeRating struct {
	CategoryID   *uuid.UUID `json:"category_id,omitempty"`
	CategoryName string     `json:"category_name"`
	Value        int        `json:"value"`
}

type SafePost struct {
	ID              uuid.UUID               `json:"id"`
	AuthorDisplay   string                  `json:"author_display"`
	AuthorRole      entity.Role             `json:"author_role,omitempty"`
	IsOwn           bool                    `json:"is_own"`
	Content         string                  `json:"content"`
	Category        entity.FeedbackCategory `json:"category"`
	TargetFacultyID *uuid.UUID              `json:"target_faculty_id,omitempty"`
	TargetCourse    *string                 `json:"target_course,omitempty"`
	TargetFacility  *string                 `json:"target_facility,omitempty"`
	Ratings         []SafeRating            `json:"ratings"`
	AverageRating   float64                 `json:"average_rating"`
	LikeCount       int                     `json:"like_count"`
	CommentCount    int                     `json:"comment_count"`
	ViewerHasLiked  bool                    `json:"viewer_has_liked"`
	IsFlagged       bool                    `json:"is_flagged,omitempty"`
	IsHidden        bool                    `json:"is_hidden,omitempty"`
	FlagReason      *string                 `json:"flag_reason,omitempty"`
	CreatedAt       time.Time               `json:"created_at"`
	UpdatedAt       time.Time               `json:"updated_at"`
}

type SafeComment struct {
	ID            uuid.UUID `json:"id"`
	AuthorDisplay string    `json:"author_display"`
	Content       string    `json:"content"`
	CreatedAt     time.Time `json:"created_at"`
}

// Identity is a real identity. It only appears inside AdminFlagView.
type Identity struct {
	ID              uuid.UUID   `json:"id"`
	Name            string      `json:"name"`
	Email           string      `json:"email"`
	Role            entity.Role `json:"role"`
	AnonymousHandle *string     `json:"anonymous_handle,omitempty"`
	IsSuspended     bool        `json:"is_suspended"`
	SuspensionEnd   *time.Time  `json:"suspension_end_date,omitempty"`
	IsBanned        bool        `json:"is_banned"`
}

type FlaggedPost struct {
	ID                    uuid.UUID               `json:"id"`
	Content               string                  `json:"content"`
	Category              entity.FeedbackCategory `json:"category"`
	AuthorAnonymousHandle *string                 `json:"author_anonymous_handle,omitempty"`
	CreatedAt             time.Time               `json:"created_at"`
}

// AdminFlagView is a flag under administrative review, with the identities
// of the post's author and the flagger disclosed.
type AdminFlagView struct {
	ID          uuid.UUID          `json:"id"`
	Status      entity.FlagStatus  `json:"status"`
	AdminAction entity.AdminAction `json:"admin_action"`
	Reason      string             `json:"reason"`
	AdminNotes  *string            `json:"admin_notes,omitempty"`
	Post        *FlaggedPost       `json:"post,omitempty"`
	Author      *Identity          `json:"author,omitempty"`
	FlaggedBy   *Identity          `json:"flagged_by,omitempty"`
	ReviewedBy  *Identity          `json:"reviewed_by,omitempty"`
	ReviewedAt  *time.Time         `json:"reviewed_at,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}
