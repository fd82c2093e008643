package dto

import (
	"time"

	"github.com/cppla/blog/models"
)

type PostRequest struct {
	Title       string `json:"title" binding:"required,min=2,max=255"`
	Description string `json:"description" binding:"required,min=5,max=512"`
	Content     string `json:"content" binding:"required"`
	CategoryID  uint   `json:"category_id" binding:"required"`
}

type PostResponse struct {
	ID          uint              `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Content     string            `json:"content"`
	CategoryID  uint              `json:"category_id"`
	Comments    []CommentResponse `json:"comments"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// PostPageQuery carries the paging parameters of GET /api/posts.
type PostPageQuery struct {
	Page    int    `form:"page,default=0"`
	Size    int    `form:"size,default=10"`
	SortBy  string `form:"sortBy,default=id"`
	SortDir string `form:"sortDir,default=asc"`
}

// PostPageResponse is one page of posts plus paging metadata.
type PostPageResponse struct {
	Content       []PostResponse `json:"content"`
	Page          int            `json:"page"`
	Size          int            `json:"size"`
	TotalElements int64          `json:"total_elements"`
	TotalPages    int            `json:"total_pages"`
	Last          bool           `json:"last"`
}

func ToPostResponse(p *models.Post) PostResponse {
	return PostResponse{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Content:     p.Content,
		CategoryID:  p.CategoryID,
		Comments:    ToCommentResponses(p.Comments),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func ToPostResponses(list []models.Post) []PostResponse {
	out := make([]PostResponse, 0, len(list))
	for i := range list {
		out = append(out, ToPostResponse(&list[i]))
	}
	return out
}
