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

// CommentService manages comments nested under posts.
type CommentService struct {
	comments CommentStore
	posts    PostStore
}

func NewCommentService(comments CommentStore, posts PostStore) *CommentService {
	return &CommentService{comments: comments, posts: posts}
}

func (s *CommentService) Create(ctx context.Context, postID uint, req dto.CommentRequest) (dto.CommentResponse, error) {
	if err := s.requirePost(ctx, postID); err != nil {
		return dto.CommentResponse{}, err
	}
	c := models.Comment{PostID: postID}
	if err := applyComment(&c, req); err != nil {
		return dto.CommentResponse{}, err
	}
	if err := s.comments.Create(ctx, &c); err != nil {
		return dto.CommentResponse{}, err
	}
	metrics.RecordWrite("comment", "create")
	return dto.ToCommentResponse(&c), nil
}

func (s *CommentService) ListByPost(ctx context.Context, postID uint) ([]dto.CommentResponse, error) {
	if err := s.requirePost(ctx, postID); err != nil {
		return nil, err
	}
	list, err := s.comments.FindByPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	return dto.ToCommentResponses(list), nil
}

func (s *CommentService) Get(ctx context.Context, postID, commentID uint) (dto.CommentResponse, error) {
	c, err := s.resolve(ctx, postID, commentID)
	if err != nil {
		return dto.CommentResponse{}, err
	}
	return dto.ToCommentResponse(c), nil
}

func (s *CommentService) Update(ctx context.Context, postID, commentID uint, req dto.CommentRequest) (dto.CommentResponse, error) {
	c, err := s.resolve(ctx, postID, commentID)
	if err != nil {
		return dto.CommentResponse{}, err
	}
	if err := applyComment(c, req); err != nil {
		return dto.CommentResponse{}, err
	}
	if err := s.comments.Update(ctx, c); err != nil {
		return dto.CommentResponse{}, err
	}
	metrics.RecordWrite("comment", "update")
	return dto.ToCommentResponse(c), nil
}

func (s *CommentService) Delete(ctx context.Context, postID, commentID uint) (dto.CommentResponse, error) {
	c, err := s.resolve(ctx, postID, commentID)
	if err != nil {
		return dto.CommentResponse{}, err
	}
	if err := s.comments.Delete(ctx, commentID); err != nil {
		return dto.CommentResponse{}, err
	}
	metrics.RecordWrite("comment", "delete")
	return dto.ToCommentResponse(c), nil
}

// resolve loads a comment and checks it is attached to postID.
func (s *CommentService) resolve(ctx context.Context, postID, commentID uint) (*models.Comment, error) {
	if err := s.requirePost(ctx, postID); err != nil {
		return nil, err
	}
	c, err := s.comments.FindByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("Comment", "id", commentID)
		}
		return nil, err
	}
	if c.PostID != postID {
		return nil, errCommentMismatch
	}
	return c, nil
}

func (s *CommentService) requirePost(ctx context.Context, postID uint) error {
	ok, err := s.posts.Exists(ctx, postID)
	if err != nil {
		return err
	}
	if !ok {
		return notFound("Post", "id", postID)
	}
	return nil
}

func applyComment(c *models.Comment, req dto.CommentRequest) error {
	name := utils.SanitizeText(strings.TrimSpace(req.Name))
	body := utils.Sanitize(req.Body)
	if name == "" {
		return badRequest("name cannot be empty")
	}
	if strings.TrimSpace(body) == "" {
		return badRequest("body cannot be empty")
	}
	c.Name = name
	c.Email = strings.TrimSpace(req.Email)
	c.Body = body
	return nil
}
