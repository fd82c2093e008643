package services

import (
	"context"

	"github.com/cppla/blog/models"
	"github.com/cppla/blog/repository"
)

// UserStore is the user persistence the auth flow needs.
type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByUsernameOrEmail(ctx context.Context, usernameOrEmail string) (*models.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

type RoleStore interface {
	FindByName(ctx context.Context, name string) (*models.Role, error)
}

type CategoryStore interface {
	Create(ctx context.Context, c *models.Category) error
	FindByID(ctx context.Context, id uint) (*models.Category, error)
	FindAll(ctx context.Context) ([]models.Category, error)
	Exists(ctx context.Context, id uint) (bool, error)
	Update(ctx context.Context, c *models.Category) error
	Delete(ctx context.Context, id uint) error
	CountPosts(ctx context.Context, id uint) (int64, error)
}

type PostStore interface {
	Create(ctx context.Context, p *models.Post) error
	FindByID(ctx context.Context, id uint) (*models.Post, error)
	Exists(ctx context.Context, id uint) (bool, error)
	FindPage(ctx context.Context, q repository.PageQuery) ([]models.Post, int64, error)
	FindByCategory(ctx context.Context, categoryID uint) ([]models.Post, error)
	Update(ctx context.Context, p *models.Post) error
	Delete(ctx context.Context, id uint) error
}

type CommentStore interface {
	Create(ctx context.Context, c *models.Comment) error
	FindByID(ctx context.Context, id uint) (*models.Comment, error)
	FindByPost(ctx context.Context, postID uint) ([]models.Comment, error)
	Update(ctx context.Context, c *models.Comment) error
	Delete(ctx context.Context, id uint) error
}

var (
	_ UserStore     = (*repository.UserRepository)(nil)
	_ RoleStore     = (*repository.RoleRepository)(nil)
	_ CategoryStore = (*repository.CategoryRepository)(nil)
	_ PostStore     = (*repository.PostRepository)(nil)
	_ CommentStore  = (*repository.CommentRepository)(nil)
)
