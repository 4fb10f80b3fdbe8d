package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ytgrab/ytgrab/internal/models"
	"github.com/ytgrab/ytgrab/internal/services/history"
	"github.com/ytgrab/ytgrab/internal/utils"
)

type HistoryHandler struct {
	repo history.Repository
}

func NewHistoryHandler(repo history.Repository) *HistoryHandler {
	return &HistoryHandler{repo: repo}
}

// ListHistory godoc
// @Summary List recorded downloads
// @Description List the most recent downloads, newest first
// @Tags history
// @Produce json
// @Success 200 {object} models.HistoryListResponse
// @Failure 500 {object} map[string]interface{}
// @Router /api/history [get]
func (h *HistoryHandler) ListHistory(c *gin.Context) {
	ctx := c.Request.Context()

	records, err := h.repo.List(ctx)
	if err != nil {
		utils.LogError(ctx, "Failed to list download history", err)
		h.errorResponse(c, utils.NewDatabaseError(err))
		return
	}

	if records == nil {
		records = []models.DownloadHistoryRecord{}
	}

	c.JSON(http.StatusOK, models.HistoryListResponse{
		Records: records,
		Total:   len(records),
	})
}

func (h *HistoryHandler) errorResponse(c *gin.Context, err *utils.AppError) {
	c.JSON(err.StatusCode, gin.H{
		"error":      err,
		"request_id": c.GetString("request_id"),
		"timestamp":  time.Now().Format(time.RFC3339),
	})
}
