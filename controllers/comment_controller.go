package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/cppla/blog/dto"
	"github.com/cppla/blog/services"
	"github.com/cppla/blog/utils"
)

// CommentController serves comments nested under /posts/:id/comments.
type CommentController struct {
	comments *services.CommentService
}

func NewCommentController(comments *services.CommentService) *CommentController {
	return &CommentController{comments: comments}
}

func (c *CommentController) CreateComment(ctx *gin.Context) {
	postID, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	var req dto.CommentRequest
	if !bindJSON(ctx, &req) {
		return
	}
	res, err := c.comments.Create(ctx.Request.Context(), postID, req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	// 评论嵌在帖子详情与列表里
	utils.InvalidateByPrefix(ctx.Request.Context(), postCachePrefix)
	utils.Created(ctx, res)
}

func (c *CommentController) ListComments(ctx *gin.Context) {
	postID, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	res, err := c.comments.ListByPost(ctx.Request.Context(), postID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, res)
}

func (c *CommentController) GetComment(ctx *gin.Context) {
	postID, commentID, ok := commentPath(ctx)
	if !ok {
		return
	}
	res, err := c.comments.Get(ctx.Request.Context(), postID, commentID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, res)
}

func (c *CommentController) UpdateComment(ctx *gin.Context) {
	postID, commentID, ok := commentPath(ctx)
	if !ok {
		return
	}
	var req dto.CommentRequest
	if !bindJSON(ctx, &req) {
		return
	}
	res, err := c.comments.Update(ctx.Request.Context(), postID, commentID, req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.InvalidateByPrefix(ctx.Request.Context(), postCachePrefix)
	utils.Success(ctx, res)
}

func (c *CommentController) DeleteComment(ctx *gin.Context) {
	postID, commentID, ok := commentPath(ctx)
	if !ok {
		return
	}
	res, err := c.comments.Delete(ctx.Request.Context(), postID, commentID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.InvalidateByPrefix(ctx.Request.Context(), postCachePrefix)
	utils.Success(ctx, res)
}

func commentPath(ctx *gin.Context) (uint, uint, bool) {
	postID, ok := parseID(ctx, "id")
	if !ok {
		return 0, 0, false
	}
	commentID, ok := parseID(ctx, "commentId")
	if !ok {
		return 0, 0, false
	}
	return postID, commentID, true
}
