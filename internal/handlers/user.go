package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sphere-social/sphere/internal/errs"
	"github.com/sphere-social/sphere/internal/models"
	"github.com/sphere-social/sphere/internal/utils"
)

type FollowStore interface {
	ToggleFollow(ctx context.Context, followerID, followedID uint) (bool, int64, error)
}

type FollowNotifier interface {
	Follow(ctx context.Context, followedID, followerID uint) *models.Notification
}

type UserHandler struct {
	follows FollowStore
	notify  FollowNotifier
	log     *slog.Logger
}

func NewUserHandler(follows FollowStore, notify FollowNotifier, log *slog.Logger) *UserHandler {
	return &UserHandler{follows: follows, notify: notify, log: log}
}

func (h *UserHandler) ToggleFollow(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)
	if err != nil {
		respondError(ctx, h.log, err)
		return
	}

	targetID, err := utils.GetIDParam(ctx, "userId")
	if err != nil {
		respondError(ctx, h.log, err)
		return
	}

	if targetID == userID {
		respondError(ctx, h.log, errs.Validation("you cannot follow yourself"))
		return
	}

	following, followers, err := h.follows.ToggleFollow(ctx.Request.Context(), userID, targetID)
	if err != nil {
		respondError(ctx, h.log, err)
		return
	}

	action := "unfollow"
	if following {
		action = "follow"
		h.notify.Follow(ctx.Request.Context(), targetID, userID)
	}

	ctx.JSON(http.StatusOK, gin.H{"action": action, "followersCount": followers})
}
