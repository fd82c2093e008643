package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/blog/models"
	"github.com/cppla/blog/repository"
	"github.com/cppla/blog/utils"
)

const (
	// ContextUserKey stores the authenticated *models.User inside Gin context.
	ContextUserKey = "user"
	// ContextClaimsKey stores the validated *utils.Claims.
	ContextClaimsKey = "claims"
)

// UserLoader resolves the token subject to a user with roles.
type UserLoader interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
}

// tokenErrorCodes maps token validation failures to application codes; all answer 400.
var tokenErrorCodes = []struct {
	err  error
	code int
}{
	{utils.ErrTokenEmpty, 40010},
	{utils.ErrTokenExpired, 40011},
	{utils.ErrTokenUnsupported, 40012},
	{utils.ErrTokenSignature, 40013},
	{utils.ErrTokenMalformed, 40014},
}

// AuthRequired ensures the request carries a valid, unrevoked bearer token for an existing user.
func AuthRequired(users UserLoader) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		authHeader := ctx.GetHeader("Authorization")
		if authHeader == "" {
			utils.Error(ctx, http.StatusUnauthorized, 40101, "authorization header missing")
			ctx.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			utils.Error(ctx, http.StatusUnauthorized, 40102, "invalid authorization header format")
			ctx.Abort()
			return
		}

		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			utils.Error(ctx, http.StatusUnauthorized, 40103, "empty bearer token")
			ctx.Abort()
			return
		}

		claims, err := utils.ParseToken(tokenString)
		if err != nil {
			abortTokenError(ctx, err)
			return
		}

		if utils.IsTokenRevoked(ctx.Request.Context(), claims.ID) {
			utils.Error(ctx, http.StatusUnauthorized, 40104, "token revoked")
			ctx.Abort()
			return
		}

		user, err := users.FindByUsername(ctx.Request.Context(), claims.Subject)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				utils.Error(ctx, http.StatusUnauthorized, 40105, "user no longer exists")
			} else {
				utils.Sugar.Errorw("load authenticated user failed", "username", claims.Subject, "err", err)
				utils.Error(ctx, http.StatusInternalServerError, 50001, "failed to load user")
			}
			ctx.Abort()
			return
		}

		ctx.Set(ContextClaimsKey, claims)
		ctx.Set(ContextUserKey, user)
		ctx.Next()
	}
}

// RequireRole must run after AuthRequired; it rejects users lacking the role with 403.
func RequireRole(role string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		user, ok := CurrentUser(ctx)
		if !ok {
			utils.Error(ctx, http.StatusUnauthorized, 40106, "unauthorized")
			ctx.Abort()
			return
		}
		if !user.HasRole(role) {
			utils.Error(ctx, http.StatusForbidden, 40301, "access denied")
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}

// CurrentUser returns the user stored by AuthRequired.
func CurrentUser(ctx *gin.Context) (*models.User, bool) {
	v, ok := ctx.Get(ContextUserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok
}

// CurrentClaims returns the token claims stored by AuthRequired.
func CurrentClaims(ctx *gin.Context) (*utils.Claims, bool) {
	v, ok := ctx.Get(ContextClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*utils.Claims)
	return claims, ok
}

func abortTokenError(ctx *gin.Context, err error) {
	for _, te := range tokenErrorCodes {
		if errors.Is(err, te.err) {
			utils.Error(ctx, http.StatusBadRequest, te.code, te.err.Error())
			ctx.Abort()
			return
		}
	}
	utils.Error(ctx, http.StatusBadRequest, 40014, utils.ErrTokenMalformed.Error())
	ctx.Abort()
}
