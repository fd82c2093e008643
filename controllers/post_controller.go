package controllers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/blog/dto"
	"github.com/cppla/blog/metrics"
	"github.com/cppla/blog/services"
	"github.com/cppla/blog/utils"
)

const (
	// postCachePrefix covers both list pages and post details
	postCachePrefix     = "cache:post"
	postListCachePrefix = "cache:posts:list:"
	postDetailCacheKey  = "cache:post:detail:%d"
)

// PostController manages CRUD operations for posts.
type PostController struct {
	posts *services.PostService
}

// NewPostController creates a new PostController instance.
func NewPostController(posts *services.PostService) *PostController {
	return &PostController{posts: posts}
}

// CreatePost allows admins to create new posts.
func (p *PostController) CreatePost(ctx *gin.Context) {
	var req dto.PostRequest
	if !bindJSON(ctx, &req) {
		return
	}
	res, err := p.posts.Create(ctx.Request.Context(), req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.InvalidateByPrefix(ctx.Request.Context(), postCachePrefix)
	utils.Created(ctx, res)
}

// ListPosts returns one page of posts; whole envelopes are cached per page and sort.
func (p *PostController) ListPosts(ctx *gin.Context) {
	var q dto.PostPageQuery
	if err := ctx.ShouldBindQuery(&q); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40003, "invalid pagination parameters")
		return
	}

	dir := "desc"
	if strings.EqualFold(q.SortDir, "asc") {
		dir = "asc"
	}
	cacheKey := fmt.Sprintf("%spage=%d:size=%d:sort=%s:dir=%s", postListCachePrefix, q.Page, q.Size, q.SortBy, dir)
	if serveCached(ctx, cacheKey) {
		return
	}

	res, err := p.posts.List(ctx.Request.Context(), q)
	if err != nil {
		respondError(ctx, err)
		return
	}
	storeAndSucceed(ctx, cacheKey, res)
}

// GetPost returns a single post with comments.
func (p *PostController) GetPost(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	cacheKey := fmt.Sprintf(postDetailCacheKey, id)
	if serveCached(ctx, cacheKey) {
		return
	}

	res, err := p.posts.Get(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	storeAndSucceed(ctx, cacheKey, res)
}

// UpdatePost replaces the editable fields of a post.
func (p *PostController) UpdatePost(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	var req dto.PostRequest
	if !bindJSON(ctx, &req) {
		return
	}
	res, err := p.posts.Update(ctx.Request.Context(), id, req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.InvalidateByPrefix(ctx.Request.Context(), postCachePrefix)
	utils.Success(ctx, res)
}

// DeletePost removes a post and its comments, returning the deleted post.
func (p *PostController) DeletePost(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	res, err := p.posts.Delete(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.InvalidateByPrefix(ctx.Request.Context(), postCachePrefix)
	utils.Success(ctx, res)
}

func serveCached(ctx *gin.Context, key string) bool {
	b, ok := utils.CacheGetBytes(ctx.Request.Context(), key)
	metrics.RecordCacheLookup(ok)
	if !ok {
		return false
	}
	ctx.Data(http.StatusOK, "application/json; charset=utf-8", b)
	return true
}

func storeAndSucceed(ctx *gin.Context, key string, data interface{}) {
	utils.CacheSetJSON(ctx.Request.Context(), key, utils.JSONResponse{Code: 0, Message: "success", Data: data}, utils.CacheTTL())
	utils.Success(ctx, data)
}
