package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"stockly/internal/models/request_models"
	"stockly/internal/services"
	"stockly/pkg/utils"
)

type CategoryController struct {
	categoryService services.CategoryServiceInterface
}

func NewCategoryController(categoryService services.CategoryServiceInterface) *CategoryController {
	return &CategoryController{
		categoryService: categoryService,
	}
}

// Create godoc
// @Summary Create a category
// @Description Creates a category, consuming one category slot of the caller's quota
// @Tags Categories
// @Accept json
// @Produce json
// @Param request body request_models.CreateCategoryRequest true "Category payload"
// @Success 200 {object} utils.APIResponse
// @Failure 403 {object} utils.APIResponse
// @Security BearerAuth
// @Router /categories [post]
func (cc *CategoryController) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req request_models.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}

	category, err := cc.categoryService.CreateCategory(c.Request.Context(), userID, req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, category, "Category created successfully")
}

// List godoc
// @Summary List the caller's categories
// @Tags Categories
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /categories [get]
func (cc *CategoryController) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	categories, err := cc.categoryService.ListCategories(c.Request.Context(), userID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, categories, "Categories fetched successfully")
}

// Update godoc
// @Summary Update a category
// @Tags Categories
// @Accept json
// @Produce json
// @Param id path string true "Category id"
// @Param request body request_models.UpdateCategoryRequest true "Category payload"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /categories/{id} [put]
func (cc *CategoryController) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	categoryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid category id")
		return
	}

	var req request_models.UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}

	category, err := cc.categoryService.UpdateCategory(c.Request.Context(), userID, categoryID, req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, category, "Category updated successfully")
}

// Delete godoc
// @Summary Delete a category
// @Description Deletes a category and releases its quota slot
// @Tags Categories
// @Produce json
// @Param id path string true "Category id"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /categories/{id} [delete]
func (cc *CategoryController) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	categoryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid category id")
		return
	}

	if err := cc.categoryService.DeleteCategory(c.Request.Context(), userID, categoryID); err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, nil, "Category deleted successfully")
}
