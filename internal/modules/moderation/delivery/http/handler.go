package handler

import (
	"net/http"

	"anoa.com/campusfeedback/internal/middleware"
	"anoa.com/campusfeedback/internal/modules/moderation/dto"
	moderation "anoa.com/campusfeedback/internal/modules/moderation/service"
	"anoa.com/campusfeedback/pkg/response"
	"anoa.com/campusfeedback/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ModerationHandler struct {
	service moderation.ModerationService
}

func NewModerationHandler(service moderation.ModerationService) *ModerationHandler {
	return &ModerationHandler{service: service}
}

func bindID(c *gin.Context, req any) bool {
	if err := c.ShouldBindUri(req); err != nil {
		response.ResponseError(c, validator.BindingError(err))
		return false
	}
	return true
}

// bindBody binds an optional JSON body. An empty body keeps the zero value.
func bindBody(c *gin.Context, input any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(input); err != nil {
		response.ResponseError(c, validator.BindingError(err))
		return false
	}
	return true
}

func (h *ModerationHandler) FlagFeedback(c *gin.Context) {
	var req dto.FeedbackIDRequest
	if !bindID(c, &req) {
		return
	}

	var input dto.FlagInput
	if !bindBody(c, &input) {
		return
	}

	res, err := h.service.FlagPost(c.Request.Context(), middleware.CurrentUser(c), uuid.MustParse(req.ID), input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, res, "post flagged successfully and hidden from feed")
}

func (h *ModerationHandler) ListPendingFlags(c *gin.Context) {
	flags, err := h.service.ListPending(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Success(c, http.StatusOK, flags, "")
}

func (h *ModerationHandler) DismissFlag(c *gin.Context) {
	var req dto.FlagIDRequest
	if !bindID(c, &req) {
		return
	}

	var input dto.ResolveInput
	if !bindBody(c, &input) {
		return
	}

	view, err := h.service.Dismiss(c.Request.Context(), middleware.CurrentUser(c), uuid.MustParse(req.ID), input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Success(c, http.StatusOK, view, "flag dismissed and post restored")
}

func (h *ModerationHandler) SuspendAuthor(c *gin.Context) {
	var req dto.FlagIDRequest
	if !bindID(c, &req) {
		return
	}

	var input dto.SuspendInput
	if !bindBody(c, &input) {
		return
	}

	view, err := h.service.Suspend(c.Request.Context(), middleware.CurrentUser(c), uuid.MustParse(req.ID), input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Success(c, http.StatusOK, view, "student suspended")
}

func (h *ModerationHandler) BanAuthor(c *gin.Context) {
	var req dto.FlagIDRequest
	if !bindID(c, &req) {
		return
	}

	var input dto.ResolveInput
	if !bindBody(c, &input) {
		return
	}

	view, err := h.service.Ban(c.Request.Context(), middleware.CurrentUser(c), uuid.MustParse(req.ID), input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Success(c, http.StatusOK, view, "student banned permanently")
}
