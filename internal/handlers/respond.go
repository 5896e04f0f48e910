package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sphere-social/sphere/internal/errs"
)

// respondError writes err as {"error": msg} with the status of its kind.
// Server-side failures are logged and reported generically.
func respondError(ctx *gin.Context, log *slog.Logger, err error) {
	status := errs.HTTPStatus(err)

	if status == http.StatusInternalServerError {
		log.Error("request failed", "method", ctx.Request.Method, "path", ctx.FullPath(), "error", err)
	}

	ctx.JSON(status, gin.H{"error": errs.PublicMessage(err)})
}
