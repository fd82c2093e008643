package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/cppla/blog/models"
)

// UserRepository persists users and their role links.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a UserRepository over db.
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts the user and links the roles already present on u.Roles.
// A username or email collision yields ErrDuplicate.
func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	// Roles 已存在，只写关联表
	if err := r.db.WithContext(ctx).Omit("Roles.*").Create(u).Error; err != nil {
		return fmt.Errorf("create user: %w", translate(err))
	}
	return nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).Preload("Roles").Where("username = ?", username).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// FindByUsernameOrEmail matches either column, as the login form accepts both.
func (r *UserRepository) FindByUsernameOrEmail(ctx context.Context, usernameOrEmail string) (*models.User, error) {
	var u models.User
	err := r.db.WithContext(ctx).Preload("Roles").
		Where("username = ? OR email = ?", usernameOrEmail, usernameOrEmail).
		First(&u).Error
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *UserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, "username = ?", username)
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, "email = ?", email)
}

func (r *UserRepository) exists(ctx context.Context, cond string, arg interface{}) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where(cond, arg).Count(&n).Error; err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	return n > 0, nil
}
