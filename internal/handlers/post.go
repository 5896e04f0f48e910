package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sphere-social/sphere/internal/models"
	"github.com/sphere-social/sphere/internal/utils"
)

type CreatePostRequest struct {
	Content string `json:"content" binding:"required"`
	Image   string `json:"image" binding:"omitempty,url"`
}

type PostStore interface {
	Create(ctx context.Context, post *models.Post) error
	ToggleLike(ctx context.Context, postID, userID uint) (bool, int64, error)
}

type LikeNotifier interface {
	Like(ctx context.Context, postID, likerID uint) *models.Notification
}

type PostHandler struct {
	posts  PostStore
	notify LikeNotifier
	log    *slog.Logger
}

func NewPostHandler(posts PostStore, notify LikeNotifier, log *slog.Logger) *PostHandler {
	return &PostHandler{posts: posts, notify: notify, log: log}
}

func (h *PostHandler) Create(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)
	if err != nil {
		respondError(ctx, h.log, err)
		return
	}

	var body CreatePostRequest
	if err := ctx.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.Content) == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	post := models.Post{
		UserID:  userID,
		Content: body.Content,
		Image:   body.Image,
	}

	if err := h.posts.Create(ctx.Request.Context(), &post); err != nil {
		respondError(ctx, h.log, err)
		return
	}

	ctx.JSON(http.StatusCreated, post)
}

// ToggleLike likes or unlikes a post. Only a new like notifies the author.
func (h *PostHandler) ToggleLike(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)
	if err != nil {
		respondError(ctx, h.log, err)
		return
	}

	postID, err := utils.GetIDParam(ctx, "postId")
	if err != nil {
		respondError(ctx, h.log, err)
		return
	}

	liked, likes, err := h.posts.ToggleLike(ctx.Request.Context(), postID, userID)
	if err != nil {
		respondError(ctx, h.log, err)
		return
	}

	if liked {
		h.notify.Like(ctx.Request.Context(), postID, userID)
	}

	ctx.JSON(http.StatusOK, gin.H{"liked": liked, "likes": likes})
}
