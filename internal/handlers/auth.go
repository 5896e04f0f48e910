package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sphere-social/sphere/internal/auth"
	"github.com/sphere-social/sphere/internal/errs"
	"github.com/sphere-social/sphere/internal/models"
	"github.com/sphere-social/sphere/internal/types"
	"github.com/sphere-social/sphere/internal/utils"
)

type CreateUserRequest struct {
	Username string `json:"username" binding:"required,alphanum,min=3,max=30"`
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type TokenIssuer interface {
	Generate(userID uint) (string, error)
}

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uint) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// WelcomeGate greets a user on their first login.
type WelcomeGate interface {
	Welcome(ctx context.Context, userID uint) *models.Notification
}

type AuthHandler struct {
	users   UserStore
	tokens  TokenIssuer
	welcome WelcomeGate
	log     *slog.Logger
}

func NewAuthHandler(users UserStore, tokens TokenIssuer, welcome WelcomeGate, log *slog.Logger) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens, welcome: welcome, log: log}
}

func userResponse(user *models.User) types.UserResponse {
	return types.UserResponse{
		ID:           user.ID,
		Username:     user.Username,
		Name:         user.Name,
		Email:        user.Email,
		Bio:          user.Bio,
		ProfilePhoto: user.ProfilePhoto,
	}
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var body CreateUserRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		h.log.Debug("invalid register request", "error", err)
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	passwordHash, err := auth.HashPassword(body.Password)
	if err != nil {
		h.log.Error("failed to hash password", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	user := models.User{
		Username:     strings.TrimSpace(body.Username),
		Name:         strings.TrimSpace(body.Name),
		Email:        strings.ToLower(strings.TrimSpace(body.Email)),
		PasswordHash: passwordHash,
		FirstLogin:   true,
	}

	if err := h.users.Create(ctx.Request.Context(), &user); err != nil {
		respondError(ctx, h.log, err)
		return
	}

	token, err := h.tokens.Generate(user.ID)
	if err != nil {
		h.log.Error("failed to generate JWT", "user_id", user.ID, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"token": token,
		"user":  userResponse(&user),
	})
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var body LoginUserRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	user, err := h.users.FindByEmail(ctx.Request.Context(), strings.ToLower(strings.TrimSpace(body.Email)))
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email or password"})
			return
		}
		respondError(ctx, h.log, err)
		return
	}

	if !auth.CheckPassword(user.PasswordHash, body.Password) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email or password"})
		return
	}

	token, err := h.tokens.Generate(user.ID)
	if err != nil {
		h.log.Error("failed to generate JWT", "user_id", user.ID, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	welcomed := h.welcome.Welcome(ctx.Request.Context(), user.ID) != nil

	ctx.JSON(http.StatusOK, gin.H{
		"token":      token,
		"user":       userResponse(user),
		"firstLogin": welcomed,
	})
}

func (h *AuthHandler) Me(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	user, err := h.users.FindByID(ctx.Request.Context(), userID)
	if err != nil {
		respondError(ctx, h.log, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"user": userResponse(user)})
}
