package dto

type FeedbackIDRequest struct {
	ID string `uri:"id" binding:"required,uuid"`
}
