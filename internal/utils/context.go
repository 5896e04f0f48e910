package utils

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/sphere-social/sphere/internal/errs"
	"github.com/sphere-social/sphere/internal/types"
)

type AuthenticatedUser struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
}

func GetCurrentUser(ctx *gin.Context) (AuthenticatedUser, error) {
	user, exists := ctx.Get(types.ContextUserKey)

	if !exists {
		return AuthenticatedUser{}, fmt.Errorf("%w: user not authenticated", errs.ErrUnauthenticated)
	}

	authenticatedUser, ok := user.(AuthenticatedUser)

	if !ok {
		return AuthenticatedUser{}, fmt.Errorf("%w: invalid user type in context", errs.ErrUnauthenticated)
	}

	return authenticatedUser, nil
}

func GetCurrentUserID(ctx *gin.Context) (uint, error) {
	user, err := GetCurrentUser(ctx)

	if err != nil {
		return 0, err
	}

	return user.ID, nil
}
