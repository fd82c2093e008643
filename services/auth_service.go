package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cppla/blog/dto"
	"github.com/cppla/blog/metrics"
	"github.com/cppla/blog/models"
	"github.com/cppla/blog/repository"
	"github.com/cppla/blog/utils"
)

// AuthService handles registration, login and logout.
type AuthService struct {
	users  UserStore
	roles  RoleStore
	admins map[string]struct{}
}

// NewAuthService creates an AuthService. Usernames in adminUsernames get ROLE_ADMIN on registration.
func NewAuthService(users UserStore, roles RoleStore, adminUsernames []string) *AuthService {
	admins := make(map[string]struct{}, len(adminUsernames))
	for _, name := range adminUsernames {
		admins[strings.ToLower(name)] = struct{}{}
	}
	return &AuthService{users: users, roles: roles, admins: admins}
}

// Login checks the credentials and issues a bearer token.
func (s *AuthService) Login(ctx context.Context, req dto.LoginRequest) (dto.TokenResponse, error) {
	user, err := s.users.FindByUsernameOrEmail(ctx, strings.TrimSpace(req.UsernameOrEmail))
	if err != nil {
		metrics.RecordAuth("login", false)
		if errors.Is(err, repository.ErrNotFound) {
			return dto.TokenResponse{}, errBadCredentials
		}
		return dto.TokenResponse{}, fmt.Errorf("load user: %w", err)
	}
	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		metrics.RecordAuth("login", false)
		return dto.TokenResponse{}, errBadCredentials
	}

	token, err := utils.GenerateToken(user.ID, user.Username, utils.TokenTTL())
	if err != nil {
		return dto.TokenResponse{}, fmt.Errorf("sign token: %w", err)
	}
	metrics.RecordAuth("login", true)
	return dto.TokenResponse{AccessToken: token, TokenType: "Bearer"}, nil
}

// Register creates a user with ROLE_USER, plus ROLE_ADMIN for configured admin usernames.
func (s *AuthService) Register(ctx context.Context, req dto.RegisterRequest) (dto.UserResponse, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)

	taken, err := s.users.ExistsByUsername(ctx, username)
	if err != nil {
		return dto.UserResponse{}, err
	}
	if taken {
		metrics.RecordAuth("register", false)
		return dto.UserResponse{}, badRequest("Username already exists")
	}
	taken, err = s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return dto.UserResponse{}, err
	}
	if taken {
		metrics.RecordAuth("register", false)
		return dto.UserResponse{}, badRequest("Email already exists")
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		if errors.Is(err, utils.ErrPasswordTooLong) {
			return dto.UserResponse{}, badRequest("password too long")
		}
		return dto.UserResponse{}, fmt.Errorf("hash password: %w", err)
	}

	roleNames := []string{models.RoleUser}
	if _, ok := s.admins[strings.ToLower(username)]; ok {
		roleNames = append(roleNames, models.RoleAdmin)
	}
	roles := make([]models.Role, 0, len(roleNames))
	for _, name := range roleNames {
		role, err := s.roles.FindByName(ctx, name)
		if err != nil {
			return dto.UserResponse{}, fmt.Errorf("load role %s: %w", name, err)
		}
		roles = append(roles, *role)
	}

	user := models.User{
		Name:         utils.SanitizeText(strings.TrimSpace(req.Name)),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Roles:        roles,
	}
	if err := s.users.Create(ctx, &user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			metrics.RecordAuth("register", false)
			return dto.UserResponse{}, s.duplicateError(ctx, username)
		}
		return dto.UserResponse{}, err
	}
	metrics.RecordAuth("register", true)
	utils.Sugar.Infow("user registered", "user_id", user.ID, "username", user.Username, "roles", user.RoleNames())
	return dto.ToUserResponse(&user), nil
}

// duplicateError names the column a concurrent registration won on.
func (s *AuthService) duplicateError(ctx context.Context, username string) error {
	if taken, err := s.users.ExistsByUsername(ctx, username); err == nil && !taken {
		return badRequest("Email already exists")
	}
	return badRequest("Username already exists")
}

// Logout revokes the presented token until it expires.
func (s *AuthService) Logout(ctx context.Context, claims *utils.Claims) {
	if claims == nil {
		return
	}
	if claims.ExpiresAt != nil {
		utils.RevokeToken(ctx, claims.ID, claims.ExpiresAt.Time)
	}
	metrics.RecordAuth("logout", true)
}
