package handler

import (
	"net/http"

	"anoa.com/campusfeedback/internal/middleware"
	"anoa.com/campusfeedback/internal/modules/social/dto"
	social "anoa.com/campusfeedback/internal/modules/social/service"
	"anoa.com/campusfeedback/pkg/response"
	"anoa.com/campusfeedback/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type SocialHandler struct {
	service social.SocialService
}

func NewSocialHandler(service social.SocialService) *SocialHandler {
	return &SocialHandler{service: service}
}

func bindFeedbackID(c *gin.Context) (uuid.UUID, bool) {
	var req dto.FeedbackIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.ResponseError(c, validator.BindingError(err))
		return uuid.Nil, false
	}
	return uuid.MustParse(req.ID), true
}

func (h *SocialHandler) Like(c *gin.Context) {
	id, ok := bindFeedbackID(c)
	if !ok {
		return
	}

	res, err := h.service.Like(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Success(c, http.StatusOK, res, "feedback liked")
}

func (h *SocialHandler) Unlike(c *gin.Context) {
	id, ok := bindFeedbackID(c)
	if !ok {
		return
	}

	res, err := h.service.Unlike(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Success(c, http.StatusOK, res, "like removed")
}

func (h *SocialHandler) AddComment(c *gin.Context) {
	id, ok := bindFeedbackID(c)
	if !ok {
		return
	}

	var input dto.CreateCommentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.ResponseError(c, validator.BindingError(err))
		return
	}

	comment, err := h.service.AddComment(c.Request.Context(), middleware.CurrentUser(c), id, input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, comment, "comment added")
}

func (h *SocialHandler) ListComments(c *gin.Context) {
	id, ok := bindFeedbackID(c)
	if !ok {
		return
	}

	comments, err := h.service.ListComments(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Success(c, http.StatusOK, comments, "")
}
