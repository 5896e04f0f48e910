package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sphere-social/sphere/internal/models"
	"github.com/sphere-social/sphere/internal/utils"
)

type NotificationStore interface {
	ListForRecipient(ctx context.Context, recipientID uint) ([]models.Notification, error)
	MarkRead(ctx context.Context, id, recipientID uint) (*models.Notification, error)
}

type NotificationHandler struct {
	store   NotificationStore
	welcome WelcomeGate
	log     *slog.Logger
}

func NewNotificationHandler(store NotificationStore, welcome WelcomeGate, log *slog.Logger) *NotificationHandler {
	return &NotificationHandler{store: store, welcome: welcome, log: log}
}

func (h *NotificationHandler) List(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)
	if err != nil {
		respondError(ctx, h.log, err)
		return
	}

	notifications, err := h.store.ListForRecipient(ctx.Request.Context(), userID)
	if err != nil {
		respondError(ctx, h.log, err)
		return
	}

	ctx.JSON(http.StatusOK, notifications)
}

func (h *NotificationHandler) MarkRead(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)
	if err != nil {
		respondError(ctx, h.log, err)
		return
	}

	id, err := utils.GetIDParam(ctx, "id")
	if err != nil {
		respondError(ctx, h.log, err)
		return
	}

	notification, err := h.store.MarkRead(ctx.Request.Context(), id, userID)
	if err != nil {
		respondError(ctx, h.log, err)
		return
	}

	ctx.JSON(http.StatusOK, notification)
}

func (h *NotificationHandler) Welcome(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)
	if err != nil {
		respondError(ctx, h.log, err)
		return
	}

	notification := h.welcome.Welcome(ctx.Request.Context(), userID)
	if notification == nil {
		ctx.JSON(http.StatusOK, gin.H{"message": "Welcome notification already sent"})
		return
	}

	ctx.JSON(http.StatusCreated, notification)
}
