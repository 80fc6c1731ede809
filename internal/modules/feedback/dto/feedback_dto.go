package dto

import (
	anonDto "anoa.com/campusfeedback/internal/modules/anonymity/dto"
)

type RatingInput struct {
	CategoryID   *string `json:"categoryId" binding:"omitempty,uuid"`
	CategoryName string  `json:"categoryName" binding:"max=100"`
	Value        int     `json:"value"`
}

type CreateFeedbackInput struct {
	Content         string        `json:"content" binding:"required"`
	Category        string        `json:"category"`
	TargetFacultyID *string       `json:"targetFacultyId" binding:"omitempty,uuid"`
	TargetCourse    *string       `json:"targetCourse" binding:"omitempty,max=200"`
	TargetFacility  *string       `json:"targetFacility" binding:"omitempty,max=200"`
	Ratings         []RatingInput `json:"ratings" binding:"omitempty,max=10,dive"`
}

// UpdateFeedbackInput leaves a field unchanged when it is absent.
type UpdateFeedbackInput struct {
	Content *string        `json:"content"`
	Ratings *[]RatingInput `json:"ratings"`
}

type FeedQuery struct {
	Category string `form:"category"`
	Sort     string `form:"sort"`
	Limit    int    `form:"limit"`
	Skip     int    `form:"skip"`
}

type Pagination struct {
	Total   int64 `json:"total"`
	Limit   int   `json:"limit"`
	Skip    int   `json:"skip"`
	HasMore bool  `json:"hasMore"`
}

type FeedResponse struct {
	Feedback   []anonDto.SafePost `json:"feedback"`
	Pagination Pagination         `json:"pagination"`
}
