package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pfinbooks/bookkeeper_app/internal/core/domain"
	portssvc "github.com/pfinbooks/bookkeeper_app/internal/core/ports/services"
	"github.com/pfinbooks/bookkeeper_app/internal/dto"
	"github.com/pfinbooks/bookkeeper_app/internal/middleware"
)

// categoryHandler handles HTTP requests related to categories.
type categoryHandler struct {
	categorySvc portssvc.CategorySvcFacade
}

func newCategoryHandler(categorySvc portssvc.CategorySvcFacade) *categoryHandler {
	return &categoryHandler{categorySvc: categorySvc}
}

// registerCategoryRoutes registers routes related to categories.
func registerCategoryRoutes(rg *gin.RouterGroup, categorySvc portssvc.CategorySvcFacade) {
	h := newCategoryHandler(categorySvc)

	categories := rg.Group("/categories")
	{
		categories.POST("", h.createCategory)
		categories.GET("", h.listCategories)
		categories.GET("/tree", h.getCategoryTree)
		categories.GET("/:id", h.getCategory)
		categories.PUT("/:id", h.updateCategory)
		categories.DELETE("/:id", h.deleteCategory)
	}
}

// categoryTypeFilter parses the optional ?type= query parameter.
func categoryTypeFilter(c *gin.Context) (*domain.CategoryType, bool) {
	raw := c.Query("type")
	if raw == "" {
		return nil, true
	}
	t := domain.CategoryType(raw)
	if t != domain.IncomeCategory && t != domain.ExpenseCategory {
		return nil, false
	}
	return &t, true
}

func (h *categoryHandler) createCategory(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req dto.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	category, err := h.categorySvc.CreateCategory(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, logger, err, "Failed to create category")
		return
	}
	c.JSON(http.StatusCreated, dto.ToCategoryResponse(category))
}

func (h *categoryHandler) getCategory(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	category, err := h.categorySvc.GetCategoryByID(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve category")
		return
	}
	c.JSON(http.StatusOK, dto.ToCategoryResponse(category))
}

func (h *categoryHandler) listCategories(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	categoryType, ok := categoryTypeFilter(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "type must be income or expense"})
		return
	}

	categories, err := h.categorySvc.ListCategories(c.Request.Context(), userID, categoryType)
	if err != nil {
		respondError(c, logger, err, "Failed to list categories")
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": dto.ToListCategoryResponse(categories)})
}

func (h *categoryHandler) getCategoryTree(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	categoryType, ok := categoryTypeFilter(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "type must be income or expense"})
		return
	}

	tree, err := h.categorySvc.GetCategoryTree(c.Request.Context(), userID, categoryType)
	if err != nil {
		respondError(c, logger, err, "Failed to build category tree")
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": tree})
}

func (h *categoryHandler) updateCategory(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req dto.UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	category, err := h.categorySvc.UpdateCategory(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		respondError(c, logger, err, "Failed to update category")
		return
	}
	c.JSON(http.StatusOK, dto.ToCategoryResponse(category))
}

func (h *categoryHandler) deleteCategory(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if err := h.categorySvc.DeleteCategory(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondError(c, logger, err, "Failed to delete category")
		return
	}
	c.Status(http.StatusNoContent)
}
