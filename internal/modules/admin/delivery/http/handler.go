package handler

import (
	"net/http"

	"anoa.com/campusfeedback/internal/middleware"
	"anoa.com/campusfeedback/internal/modules/admin/dto"
	admin "anoa.com/campusfeedback/internal/modules/admin/service"
	"anoa.com/campusfeedback/pkg/response"
	"anoa.com/campusfeedback/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AdminHandler struct {
	adminService admin.AdminService
}

func NewAdminHandler(adminService admin.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

func (h *AdminHandler) ListPendingFaculty(c *gin.Context) {
	users, err := h.adminService.ListPendingFaculty(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Success(c, http.StatusOK, users, "")
}

func (h *AdminHandler) ApproveFaculty(c *gin.Context) {
	var req dto.UserIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.ResponseError(c, validator.BindingError(err))
		return
	}

	user, err := h.adminService.ApproveFaculty(c.Request.Context(), middleware.CurrentUser(c), uuid.MustParse(req.ID))
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Success(c, http.StatusOK, user, "faculty approved successfully")
}

func (h *AdminHandler) RejectFaculty(c *gin.Context) {
	var req dto.UserIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.ResponseError(c, validator.BindingError(err))
		return
	}

	user, err := h.adminService.RejectFaculty(c.Request.Context(), middleware.CurrentUser(c), uuid.MustParse(req.ID))
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Success(c, http.StatusOK, user, "faculty rejected successfully")
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	var query dto.ListUsersQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.ResponseError(c, validator.BindingError(err))
		return
	}

	users, err := h.adminService.ListUsers(c.Request.Context(), middleware.CurrentUser(c), query)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Success(c, http.StatusOK, users, "")
}

func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.adminService.Stats(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Success(c, http.StatusOK, stats, "")
}
