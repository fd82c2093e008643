package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/blog/models"
)

// RoleRepository reads and seeds roles.
type RoleRepository struct {
	db *gorm.DB
}

// NewRoleRepository creates a RoleRepository over db.
func NewRoleRepository(db *gorm.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

func (r *RoleRepository) FindByName(ctx context.Context, name string) (*models.Role, error) {
	var role models.Role
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&role).Error; err != nil {
		return nil, translate(err)
	}
	return &role, nil
}

// EnsureRoles inserts any of the named roles that do not exist yet.
func (r *RoleRepository) EnsureRoles(ctx context.Context, names ...string) error {
	for _, name := range names {
		role := models.Role{Name: name}
		err := r.db.WithContext(ctx).
			Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
			Create(&role).Error
		if err != nil {
			return fmt.Errorf("seed role %s: %w", name, err)
		}
	}
	return nil
}
