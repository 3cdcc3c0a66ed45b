package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"stockly/internal/models/request_models"
	"stockly/internal/services"
	"stockly/pkg/utils"
)

type ProductController struct {
	productService services.ProductServiceInterface
}

func NewProductController(productService services.ProductServiceInterface) *ProductController {
	return &ProductController{
		productService: productService,
	}
}

// Create godoc
// @Summary Create a product
// @Description Creates a product, consuming one product slot of the caller's quota
// @Tags Products
// @Accept json
// @Produce json
// @Param request body request_models.CreateProductRequest true "Product payload"
// @Success 200 {object} utils.APIResponse
// @Failure 403 {object} utils.APIResponse
// @Security BearerAuth
// @Router /products [post]
func (p *ProductController) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req request_models.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}

	product, err := p.productService.CreateProduct(c.Request.Context(), userID, req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, product, "Product created successfully")
}

// Get godoc
// @Summary Get a product by id
// @Tags Products
// @Produce json
// @Param id path string true "Product id"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /products/{id} [get]
func (p *ProductController) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid product id")
		return
	}

	product, err := p.productService.GetProduct(c.Request.Context(), userID, productID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, product, "Product fetched successfully")
}

// List godoc
// @Summary List the caller's products
// @Tags Products
// @Produce json
// @Param page query int false "Page (default 1)"
// @Param page_size query int false "Page size (default 20)"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /products [get]
func (p *ProductController) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	products, err := p.productService.ListProducts(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, products, "Products fetched successfully")
}

// Update godoc
// @Summary Update a product
// @Tags Products
// @Accept json
// @Produce json
// @Param id path string true "Product id"
// @Param request body request_models.UpdateProductRequest true "Product payload"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /products/{id} [put]
func (p *ProductController) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid product id")
		return
	}

	var req request_models.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}

	product, err := p.productService.UpdateProduct(c.Request.Context(), userID, productID, req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, product, "Product updated successfully")
}

// Delete godoc
// @Summary Delete a product
// @Description Deletes a product and releases its quota slot
// @Tags Products
// @Produce json
// @Param id path string true "Product id"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /products/{id} [delete]
func (p *ProductController) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid product id")
		return
	}

	if err := p.productService.DeleteProduct(c.Request.Context(), userID, productID); err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, nil, "Product deleted successfully")
}

// Export godoc
// @Summary Export products as CSV
// @Description Streams the caller's full product list as a CSV file. Requires the csv_export feature
// @Tags Products
// @Produce text/csv
// @Success 200 {string} string "CSV payload"
// @Failure 403 {object} utils.APIResponse
// @Security BearerAuth
// @Router /products/export [get]
func (p *ProductController) Export(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	payload, err := p.productService.ExportCSV(c.Request.Context(), userID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=products.csv")
	c.Data(http.StatusOK, "text/csv", payload)
}
