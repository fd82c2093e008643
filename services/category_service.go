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

// CategoryService manages categories.
type CategoryService struct {
	categories CategoryStore
}

func NewCategoryService(categories CategoryStore) *CategoryService {
	return &CategoryService{categories: categories}
}

func (s *CategoryService) Create(ctx context.Context, req dto.CategoryRequest) (dto.CategoryResponse, error) {
	c := models.Category{}
	if err := applyCategory(&c, req); err != nil {
		return dto.CategoryResponse{}, err
	}
	if err := s.categories.Create(ctx, &c); err != nil {
		return dto.CategoryResponse{}, err
	}
	metrics.RecordWrite("category", "create")
	return dto.ToCategoryResponse(&c), nil
}

func (s *CategoryService) Get(ctx context.Context, id uint) (dto.CategoryResponse, error) {
	c, err := s.load(ctx, id)
	if err != nil {
		return dto.CategoryResponse{}, err
	}
	return dto.ToCategoryResponse(c), nil
}

func (s *CategoryService) List(ctx context.Context) ([]dto.CategoryResponse, error) {
	list, err := s.categories.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return dto.ToCategoryResponses(list), nil
}

func (s *CategoryService) Update(ctx context.Context, id uint, req dto.CategoryRequest) (dto.CategoryResponse, error) {
	c, err := s.load(ctx, id)
	if err != nil {
		return dto.CategoryResponse{}, err
	}
	if err := applyCategory(c, req); err != nil {
		return dto.CategoryResponse{}, err
	}
	if err := s.categories.Update(ctx, c); err != nil {
		return dto.CategoryResponse{}, err
	}
	metrics.RecordWrite("category", "update")
	return dto.ToCategoryResponse(c), nil
}

// Delete removes an unused category and returns it as it was.
func (s *CategoryService) Delete(ctx context.Context, id uint) (dto.CategoryResponse, error) {
	c, err := s.load(ctx, id)
	if err != nil {
		return dto.CategoryResponse{}, err
	}
	n, err := s.categories.CountPosts(ctx, id)
	if err != nil {
		return dto.CategoryResponse{}, err
	}
	if n > 0 {
		return dto.CategoryResponse{}, badRequest("category still has posts")
	}
	if err := s.categories.Delete(ctx, id); err != nil {
		return dto.CategoryResponse{}, err
	}
	metrics.RecordWrite("category", "delete")
	return dto.ToCategoryResponse(c), nil
}

func (s *CategoryService) load(ctx context.Context, id uint) (*models.Category, error) {
	c, err := s.categories.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("Category", "id", id)
		}
		return nil, err
	}
	return c, nil
}

func applyCategory(c *models.Category, req dto.CategoryRequest) error {
	name := utils.SanitizeText(strings.TrimSpace(req.Name))
	if name == "" {
		return badRequest("name cannot be empty")
	}
	c.Name = name
	c.Description = utils.Sanitize(strings.TrimSpace(req.Description))
	return nil
}
