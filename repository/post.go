package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/blog/models"
)

// PageQuery selects one page of posts. Page is zero based and Column must be a real column name.
type PageQuery struct {
	Page   int
	Size   int
	Column string
	Desc   bool
}

// PostRepository persists posts.
type PostRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a PostRepository over db.
func NewPostRepository(db *gorm.DB) *PostRepository {
	return &PostRepository{db: db}
}

func (r *PostRepository) Create(ctx context.Context, p *models.Post) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(p).Error; err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	return nil
}

// FindByID loads the post together with its comments.
func (r *PostRepository) FindByID(ctx context.Context, id uint) (*models.Post, error) {
	var p models.Post
	err := r.db.WithContext(ctx).
		Preload("Comments", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&p, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *PostRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, fmt.Errorf("count post: %w", err)
	}
	return n > 0, nil
}

// FindPage returns the requested page and the total row count.
func (r *PostRepository) FindPage(ctx context.Context, q PageQuery) ([]models.Post, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count posts: %w", err)
	}

	posts := []models.Post{}
	query := r.db.WithContext(ctx).
		Preload("Comments", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Order(clause.OrderByColumn{Column: clause.Column{Name: q.Column}, Desc: q.Desc})
	if q.Column != "id" {
		// 次级排序保证分页稳定
		query = query.Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: q.Desc})
	}
	if err := query.Offset(q.Page * q.Size).Limit(q.Size).Find(&posts).Error; err != nil {
		return nil, 0, fmt.Errorf("list posts: %w", err)
	}
	return posts, total, nil
}

// FindByCategory lists every post filed under the category.
func (r *PostRepository) FindByCategory(ctx context.Context, categoryID uint) ([]models.Post, error) {
	posts := []models.Post{}
	err := r.db.WithContext(ctx).
		Preload("Comments", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("category_id = ?", categoryID).
		Order("id ASC").
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("list posts by category: %w", err)
	}
	return posts, nil
}

func (r *PostRepository) Update(ctx context.Context, p *models.Post) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(p).Error; err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	return nil
}

// Delete removes the post and its comments in one transaction.
func (r *PostRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return fmt.Errorf("delete post comments: %w", err)
		}
		if err := tx.Delete(&models.Post{}, id).Error; err != nil {
			return fmt.Errorf("delete post: %w", err)
		}
		return nil
	})
}
