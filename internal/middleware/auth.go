package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sphere-social/sphere/internal/errs"
	"github.com/sphere-social/sphere/internal/models"
	"github.com/sphere-social/sphere/internal/types"
	"github.com/sphere-social/sphere/internal/utils"
)

type TokenVerifier interface {
	Verify(token string) (uint, error)
}

type UserFinder interface {
	FindByID(ctx context.Context, id uint) (*models.User, error)
}

func AuthMiddleware(verifier TokenVerifier, users UserFinder, log *slog.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tokenString, err := utils.BearerToken(ctx.GetHeader("Authorization"))
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		userID, err := verifier.Verify(tokenString)
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		user, err := users.FindByID(ctx.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, errs.ErrNotFound) {
				ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
				return
			}
			log.Error("failed to load authenticated user", "user_id", userID, "error", err)
			ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		ctx.Set(types.ContextUserKey, utils.AuthenticatedUser{
			ID:       user.ID,
			Username: user.Username,
			Name:     user.Name,
			Email:    user.Email,
		})
		ctx.Next()
	}
}
