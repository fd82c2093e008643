package dto

import (
	"time"

	"github.com/cppla/blog/models"
)

type CategoryRequest struct {
	Name        string `json:"name" binding:"required,min=3,max=128"`
	Description string `json:"description" binding:"required,min=5,max=512"`
}

type CategoryResponse struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func ToCategoryResponse(c *models.Category) CategoryResponse {
	return CategoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func ToCategoryResponses(list []models.Category) []CategoryResponse {
	out := make([]CategoryResponse, 0, len(list))
	for i := range list {
		out = append(out, ToCategoryResponse(&list[i]))
	}
	return out
}
