package handler

import (
	"net/http"

	"anoa.com/campusfeedback/internal/middleware"
	"anoa.com/campusfeedback/internal/modules/notification/dto"
	notification "anoa.com/campusfeedback/internal/modules/notification/service"
	"anoa.com/campusfeedback/pkg/response"
	"anoa.com/campusfeedback/pkg/validator"
	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	service notification.NotificationService
}

func NewNotificationHandler(service notification.NotificationService) *NotificationHandler {
	return &NotificationHandler{service: service}
}

func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	var query dto.ListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.ResponseError(c, validator.BindingError(err))
		return
	}

	list, err := h.service.List(c.Request.Context(), middleware.CurrentUser(c).ID, query)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Success(c, http.StatusOK, list, "")
}
