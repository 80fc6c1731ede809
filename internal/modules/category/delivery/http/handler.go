package handler

import (
	"net/http"

	"anoa.com/campusfeedback/internal/modules/category/dto"
	category "anoa.com/campusfeedback/internal/modules/category/service"
	"anoa.com/campusfeedback/pkg/response"
	"anoa.com/campusfeedback/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CategoryHandler struct {
	service category.CategoryService
}

func NewCategoryHandler(service category.CategoryService) *CategoryHandler {
	return &CategoryHandler{service: service}
}

func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	var req dto.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ResponseError(c, validator.BindingError(err))
		return
	}

	created, err := h.service.CreateCategory(c.Request.Context(), req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, created, "category created successfully")
}

func (h *CategoryHandler) GetActiveCategories(c *gin.Context) {
	categories, err := h.service.GetActiveCategories(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Success(c, http.StatusOK, categories, "")
}

func (h *CategoryHandler) DeactivateCategory(c *gin.Context) {
	var req dto.CategoryIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.ResponseError(c, validator.BindingError(err))
		return
	}

	if err := h.service.DeactivateCategory(c.Request.Context(), uuid.MustParse(req.ID)); err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Success(c, http.StatusOK, nil, "category deactivated successfully")
}
