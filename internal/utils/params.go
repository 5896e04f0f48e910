package utils

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sphere-social/sphere/internal/errs"
)

// GetIDParam parses a positive numeric path parameter.
func GetIDParam(ctx *gin.Context, name string) (uint, error) {
	raw := ctx.Param(name)

	if raw == "" {
		return 0, errs.Validation("%s is required", name)
	}

	id, err := strconv.ParseUint(raw, 10, 32)

	if err != nil || id == 0 {
		return 0, errs.Validation("invalid %s", name)
	}

	return uint(id), nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", errors.New("Authorization token is required")
	}

	parts := strings.SplitN(header, " ", 2)

	if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
		return "", errors.New("Authorization header format must be Bearer {token}")
	}

	return strings.TrimSpace(parts[1]), nil
}
