package dto

import (
	anonDto "anoa.com/campusfeedback/internal/modules/anonymity/dto"
	"github.com/google/uuid"
)

type CreateCommentInput struct {
	Content string `json:"content" binding:"required"`
}

type LikeResponse struct {
	FeedbackID uuid.UUID `json:"feedbackId"`
	Liked      bool      `json:"liked"`
	LikeCount  int       `json:"likeCount"`
}

type CommentList struct {
	Comments []anonDto.SafeComment `json:"comments"`
	Total    int                   `json:"total"`
}

type FeedbackIDRequest struct {
	ID string `uri:"id" binding:"required,uuid"`
}
