package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/cppla/blog/dto"
	"github.com/cppla/blog/services"
	"github.com/cppla/blog/utils"
)

// CategoryController exposes category CRUD and the per-category post listing.
type CategoryController struct {
	categories *services.CategoryService
	posts      *services.PostService
}

func NewCategoryController(categories *services.CategoryService, posts *services.PostService) *CategoryController {
	return &CategoryController{categories: categories, posts: posts}
}

func (c *CategoryController) CreateCategory(ctx *gin.Context) {
	var req dto.CategoryRequest
	if !bindJSON(ctx, &req) {
		return
	}
	res, err := c.categories.Create(ctx.Request.Context(), req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Created(ctx, res)
}

func (c *CategoryController) ListCategories(ctx *gin.Context) {
	res, err := c.categories.List(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, res)
}

func (c *CategoryController) GetCategory(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	res, err := c.categories.Get(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, res)
}

func (c *CategoryController) UpdateCategory(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	var req dto.CategoryRequest
	if !bindJSON(ctx, &req) {
		return
	}
	res, err := c.categories.Update(ctx.Request.Context(), id, req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, res)
}

func (c *CategoryController) DeleteCategory(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	res, err := c.categories.Delete(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, res)
}

// ListCategoryPosts lists the posts filed under a category.
func (c *CategoryController) ListCategoryPosts(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	res, err := c.posts.ListByCategory(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, res)
}
