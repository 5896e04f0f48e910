package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sphere-social/sphere/internal/models"
	"github.com/sphere-social/sphere/internal/types"
	"github.com/sphere-social/sphere/internal/utils"
)

type SendMessageRequest struct {
	Receiver uint   `json:"receiver" binding:"required"`
	Content  string `json:"content" binding:"required"`
}

type MessageService interface {
	Send(ctx context.Context, senderID, receiverID uint, content string) (*models.Message, error)
	MarkRead(ctx context.Context, senderID, receiverID uint) error
	UnreadCounts(ctx context.Context, userID uint) ([]types.UnreadCount, error)
	UnreadCount(ctx context.Context, userID, senderID uint) (int64, error)
	History(ctx context.Context, userID, counterpartID uint) ([]models.Message, error)
	Partners(ctx context.Context, userID uint) ([]types.ConversationPartner, error)
}

type MessageHandler struct {
	messages MessageService
	log      *slog.Logger
}

func NewMessageHandler(messages MessageService, log *slog.Logger) *MessageHandler {
	return &MessageHandler{messages: messages, log: log}
}

func (h *MessageHandler) Create(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)
	if err != nil {
		respondError(ctx, h.log, err)
		return
	}

	var body SendMessageRequest
	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	msg, err := h.messages.Send(ctx.Request.Context(), userID, body.Receiver, body.Content)
	if err != nil {
		respondError(ctx, h.log, err)
		return
	}

	ctx.JSON(http.StatusCreated, msg)
}

func (h *MessageHandler) MarkAsRead(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)
	if err != nil {
		respondError(ctx, h.log, err)
		return
	}

	senderID, err := utils.GetIDParam(ctx, "senderId")
	if err != nil {
		respondError(ctx, h.log, err)
		return
	}

	if err := h.messages.MarkRead(ctx.Request.Context(), senderID, userID); err != nil {
		respondError(ctx, h.log, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Messages marked as read"})
}

func (h *MessageHandler) UnreadCount(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)
	if err != nil {
		respondError(ctx, h.log, err)
		return
	}

	senderID, err := utils.GetIDParam(ctx, "senderId")
	if err != nil {
		respondError(ctx, h.log, err)
		return
	}

	count, err := h.messages.UnreadCount(ctx.Request.Context(), userID, senderID)
	if err != nil {
		respondError(ctx, h.log, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"count": count})
}

func (h *MessageHandler) UnreadCounts(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)
	if err != nil {
		respondError(ctx, h.log, err)
		return
	}

	counts, err := h.messages.UnreadCounts(ctx.Request.Context(), userID)
	if err != nil {
		respondError(ctx, h.log, err)
		return
	}

	ctx.JSON(http.StatusOK, counts)
}

func (h *MessageHandler) History(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)
	if err != nil {
		respondError(ctx, h.log, err)
		return
	}

	counterpartID, err := utils.GetIDParam(ctx, "userId")
	if err != nil {
		respondError(ctx, h.log, err)
		return
	}

	messages, err := h.messages.History(ctx.Request.Context(), userID, counterpartID)
	if err != nil {
		respondError(ctx, h.log, err)
		return
	}

	ctx.JSON(http.StatusOK, messages)
}

func (h *MessageHandler) Partners(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)
	if err != nil {
		respondError(ctx, h.log, err)
		return
	}

	partners, err := h.messages.Partners(ctx.Request.Context(), userID)
	if err != nil {
		respondError(ctx, h.log, err)
		return
	}

	ctx.JSON(http.StatusOK, partners)
}
