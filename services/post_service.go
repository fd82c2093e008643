package services

import (
	"context"
	"errors"
	"strings"

	"github.com/cppla/blog/dto"
	"github.com/cppla/blog/metrics"
	"github.com/cppla/blog/models"
	"github.com/cppla/blog/repository"
	"github.com/cppla/blog/utils"
)

const maxPageSize = 100

// sortColumns maps accepted sortBy values onto post columns.
var sortColumns = map[string]string{
	"id":          "id",
	"title":       "title",
	"description": "description",
	"content":     "content",
	"categoryId":  "category_id",
	"createdAt":   "created_at",
	"updatedAt":   "updated_at",
}

// PostService manages posts.
type PostService struct {
	posts      PostStore
	categories CategoryStore
}

func NewPostService(posts PostStore, categories CategoryStore) *PostService {
	return &PostService{posts: posts, categories: categories}
}

func (s *PostService) Create(ctx context.Context, req dto.PostRequest) (dto.PostResponse, error) {
	if err := s.requireCategory(ctx, req.CategoryID); err != nil {
		return dto.PostResponse{}, err
	}
	p := models.Post{}
	if err := applyPost(&p, req); err != nil {
		return dto.PostResponse{}, err
	}
	if err := s.posts.Create(ctx, &p); err != nil {
		return dto.PostResponse{}, err
	}
	metrics.RecordWrite("post", "create")
	return dto.ToPostResponse(&p), nil
}

func (s *PostService) Get(ctx context.Context, id uint) (dto.PostResponse, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return dto.PostResponse{}, err
	}
	return dto.ToPostResponse(p), nil
}

// List returns one page of posts ordered by the requested column.
func (s *PostService) List(ctx context.Context, q dto.PostPageQuery) (dto.PostPageResponse, error) {
	if q.Page < 0 {
		return dto.PostPageResponse{}, badRequest("page must not be negative")
	}
	if q.Size < 1 || q.Size > maxPageSize {
		return dto.PostPageResponse{}, badRequest("size must be between 1 and %d", maxPageSize)
	}
	column, ok := sortColumns[q.SortBy]
	if !ok {
		return dto.PostPageResponse{}, badRequest("unsupported sort field %q", q.SortBy)
	}

	posts, total, err := s.posts.FindPage(ctx, repository.PageQuery{
		Page:   q.Page,
		Size:   q.Size,
		Column: column,
		Desc:   !strings.EqualFold(q.SortDir, "asc"),
	})
	if err != nil {
		return dto.PostPageResponse{}, err
	}

	totalPages := int((total + int64(q.Size) - 1) / int64(q.Size))
	return dto.PostPageResponse{
		Content:       dto.ToPostResponses(posts),
		Page:          q.Page,
		Size:          q.Size,
		TotalElements: total,
		TotalPages:    totalPages,
		Last:          q.Page+1 >= totalPages,
	}, nil
}

// ListByCategory lists the posts filed under an existing category.
func (s *PostService) ListByCategory(ctx context.Context, categoryID uint) ([]dto.PostResponse, error) {
	if err := s.requireCategory(ctx, categoryID); err != nil {
		return nil, err
	}
	posts, err := s.posts.FindByCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	return dto.ToPostResponses(posts), nil
}

func (s *PostService) Update(ctx context.Context, id uint, req dto.PostRequest) (dto.PostResponse, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return dto.PostResponse{}, err
	}
	if err := s.requireCategory(ctx, req.CategoryID); err != nil {
		return dto.PostResponse{}, err
	}
	if err := applyPost(p, req); err != nil {
		return dto.PostResponse{}, err
	}
	if err := s.posts.Update(ctx, p); err != nil {
		return dto.PostResponse{}, err
	}
	metrics.RecordWrite("post", "update")
	return dto.ToPostResponse(p), nil
}

// Delete removes the post with its comments and returns it as it was.
func (s *PostService) Delete(ctx context.Context, id uint) (dto.PostResponse, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return dto.PostResponse{}, err
	}
	if err := s.posts.Delete(ctx, id); err != nil {
		return dto.PostResponse{}, err
	}
	metrics.RecordWrite("post", "delete")
	return dto.ToPostResponse(p), nil
}

func (s *PostService) load(ctx context.Context, id uint) (*models.Post, error) {
	p, err := s.posts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("Post", "id", id)
		}
		return nil, err
	}
	return p, nil
}

func (s *PostService) requireCategory(ctx context.Context, id uint) error {
	ok, err := s.categories.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return notFound("Category", "id", id)
	}
	return nil
}

func applyPost(p *models.Post, req dto.PostRequest) error {
	title := utils.SanitizeText(strings.TrimSpace(req.Title))
	if title == "" {
		return badRequest("title cannot be empty")
	}
	content := utils.Sanitize(req.Content)
	if strings.TrimSpace(content) == "" {
		return badRequest("content cannot be empty")
	}
	p.Title = title
	p.Description = utils.Sanitize(strings.TrimSpace(req.Description))
	p.Content = content
	p.CategoryID = req.CategoryID
	return nil
}
