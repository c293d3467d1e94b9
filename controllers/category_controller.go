package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/engforum/engforum/models"
	"github.com/engforum/engforum/utils"
)

// CategoryController exposes the fixed category registry.
type CategoryController struct {
	registry *models.CategoryRegistry
}

// NewCategoryController creates a CategoryController over registry.
func NewCategoryController(registry *models.CategoryRegistry) *CategoryController {
	return &CategoryController{registry: registry}
}

// List returns every category in display order.
func (c *CategoryController) List(ctx *gin.Context) {
	utils.Success(ctx, gin.H{"items": c.registry.ListAll()})
}

// Get returns one category by id.
func (c *CategoryController) Get(ctx *gin.Context) {
	cat, ok := c.registry.GetByID(ctx.Param("id"))
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40410, "category not found")
		return
	}
	utils.Success(ctx, gin.H{"category": cat})
}
