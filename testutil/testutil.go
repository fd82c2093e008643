// Package testutil provides fixtures shared by package tests.
package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/cppla/blog/config"
	"github.com/cppla/blog/models"
	"github.com/cppla/blog/repository"
	"github.com/cppla/blog/utils"
)

const JWTSecret = "test-secret-do-not-use"

// Config installs a test configuration with Redis disabled and a generous rate limit.
func Config(t *testing.T) config.AppConfig {
	t.Helper()
	cfg := config.AppConfig{
		JWTSecret:          JWTSecret,
		JWTExpireHours:     1,
		GinMode:            "test",
		RateLimitPerMinute: 100000,
		DBDriver:           "sqlite",
		LogLevel:           "silent",
	}
	config.Override(cfg)
	utils.SetRedis(nil)
	return config.Get()
}

// NewDB opens a private in-memory SQLite database, migrates every model and seeds roles.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	cfg := Config(t)
	cfg.DatabaseURI = "file:" + uuid.NewString() + "?mode=memory&cache=shared"

	db, err := config.OpenDatabase(cfg)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	require.NoError(t, repository.NewRoleRepository(db).EnsureRoles(context.Background(), models.RoleUser, models.RoleAdmin))
	return db
}

// CreateUser stores a user with the given roles and password "password".
func CreateUser(t *testing.T, db *gorm.DB, username string, roleNames ...string) *models.User {
	t.Helper()
	ctx := context.Background()
	roles := repository.NewRoleRepository(db)

	hash, err := utils.HashPassword("password")
	require.NoError(t, err)

	user := &models.User{
		Name:         username,
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash,
	}
	for _, name := range roleNames {
		role, err := roles.FindByName(ctx, name)
		require.NoError(t, err)
		user.Roles = append(user.Roles, *role)
	}
	require.NoError(t, repository.NewUserRepository(db).Create(ctx, user))
	return user
}

// Token signs a bearer token for user.
func Token(t *testing.T, user *models.User) string {
	t.Helper()
	token, err := utils.GenerateToken(user.ID, user.Username, utils.TokenTTL())
	require.NoError(t, err)
	return token
}
