package handler

import (
	"net/http"

	"anoa.com/campusfeedback/internal/middleware"
	"anoa.com/campusfeedback/internal/modules/feedback/dto"
	feedback "anoa.com/campusfeedback/internal/modules/feedback/service"
	"anoa.com/campusfeedback/pkg/response"
	"anoa.com/campusfeedback/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type FeedbackHandler struct {
	service feedback.FeedbackService
}

func NewFeedbackHandler(service feedback.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{service: service}
}

// feedbackID binds the :id path parameter.
func feedbackID(c *gin.Context) (uuid.UUID, bool) {
	var req dto.FeedbackIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.ResponseError(c, validator.BindingError(err))
		return uuid.Nil, false
	}
	return uuid.MustParse(req.ID), true
}

func (h *FeedbackHandler) CreateFeedback(c *gin.Context) {
	var input dto.CreateFeedbackInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.ResponseError(c, validator.BindingError(err))
		return
	}

	post, err := h.service.CreatePost(c.Request.Context(), middleware.CurrentUser(c), input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, post, "feedback created")
}

func (h *FeedbackHandler) ListFeedback(c *gin.Context) {
	var query dto.FeedQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.ResponseError(c, validator.BindingError(err))
		return
	}

	feed, err := h.service.ListFeed(c.Request.Context(), middleware.CurrentUser(c), query)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Success(c, http.StatusOK, feed, "")
}

func (h *FeedbackHandler) GetFeedback(c *gin.Context) {
	id, ok := feedbackID(c)
	if !ok {
		return
	}

	post, err := h.service.GetPost(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Success(c, http.StatusOK, post, "")
}

func (h *FeedbackHandler) UpdateFeedback(c *gin.Context) {
	id, ok := feedbackID(c)
	if !ok {
		return
	}

	var input dto.UpdateFeedbackInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.ResponseError(c, validator.BindingError(err))
		return
	}

	post, err := h.service.UpdatePost(c.Request.Context(), middleware.CurrentUser(c), id, input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Success(c, http.StatusOK, post, "feedback updated")
}

func (h *FeedbackHandler) DeleteFeedback(c *gin.Context) {
	id, ok := feedbackID(c)
	if !ok {
		return
	}

	if err := h.service.DeletePost(c.Request.Context(), middleware.CurrentUser(c), id); err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Success(c, http.StatusOK, nil, "feedback deleted")
}
