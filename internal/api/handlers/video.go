package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ytgrab/ytgrab/internal/models"
	"github.com/ytgrab/ytgrab/internal/services/catalog"
	"github.com/ytgrab/ytgrab/internal/services/metadata"
	"github.com/ytgrab/ytgrab/internal/services/youtube"
	"github.com/ytgrab/ytgrab/internal/utils"
)

type VideoHandler struct {
	extractor youtube.Extractor
	metadata  metadata.Provider
	timeout   time.Duration
}

func NewVideoHandler(extractor youtube.Extractor, provider metadata.Provider, timeout time.Duration) *VideoHandler {
	return &VideoHandler{
		extractor: extractor,
		metadata:  provider,
		timeout:   timeout,
	}
}

// GetVideoInfoByID godoc
// @Summary Get video metadata and format catalog
// @Description Fetch title, statistics and downloadable formats for a video ID
// @Tags video
// @Produce json
// @Param videoId path string true "YouTube video ID"
// @Success 200 {object} models.VideoInfoResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/video-info/{videoId} [get]
func (h *VideoHandler) GetVideoInfoByID(c *gin.Context) {
	videoID, err := h.extractor.ParseVideoID(c.Param("videoId"))
	if err != nil {
		h.errorResponse(c, utils.NewValidationError("Invalid video ID", map[string]interface{}{
			"provided": c.Param("videoId"),
		}))
		return
	}

	h.respondVideoInfo(c, videoID)
}

// GetVideoInfoByURL godoc
// @Summary Get video metadata and format catalog by URL
// @Description Fetch title, statistics and downloadable formats for a video URL
// @Tags video
// @Accept json
// @Produce json
// @Param request body models.VideoInfoRequest true "Video URL"
// @Success 200 {object} models.VideoInfoResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/video-info [post]
func (h *VideoHandler) GetVideoInfoByURL(c *gin.Context) {
	var req models.VideoInfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, utils.NewValidationError("Invalid request body", map[string]interface{}{
			"error": err.Error(),
		}))
		return
	}

	if !h.extractor.IsYouTubeURL(req.URL) {
		h.errorResponse(c, utils.NewInvalidURLError(req.URL))
		return
	}

	videoID, err := h.extractor.ParseVideoID(req.URL)
	if err != nil {
		h.errorResponse(c, utils.NewInvalidURLError(req.URL))
		return
	}

	h.respondVideoInfo(c, videoID)
}

type resolveResult struct {
	resolved *youtube.Resolved
	err      error
}

func (h *VideoHandler) respondVideoInfo(c *gin.Context, videoID string) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	// The metadata and extraction calls have no ordering dependency, so
	// they run concurrently. Both are awaited before shaping the response.
	resolveCh := make(chan resolveResult, 1)
	go func() {
		resolved, err := h.extractor.Resolve(ctx, videoID)
		resolveCh <- resolveResult{resolved: resolved, err: err}
	}()

	meta, err := h.metadata.Fetch(ctx, videoID)
	if err != nil {
		switch {
		case errors.Is(err, metadata.ErrMissingAPIKey):
			h.errorResponse(c, utils.NewConfigError("YouTube API key not configured"))
		case errors.Is(err, metadata.ErrVideoNotFound):
			h.errorResponse(c, utils.NewVideoNotFoundError(videoID))
		default:
			utils.LogError(ctx, "Metadata fetch failed", err, utils.Fields{"video_id": videoID})
			h.errorResponse(c, utils.NewUpstreamError(err))
		}
		return
	}

	// Extraction failure is not fatal: degrade to the fixed fallback
	// catalog so the client still gets a usable response.
	var formats models.FormatCatalog
	result := <-resolveCh
	if result.err != nil {
		utils.LogWarn(ctx, "Extraction failed, serving fallback catalog", utils.Fields{
			"video_id": videoID,
			"error":    result.err.Error(),
		})
		formats = catalog.Fallback()
	} else {
		formats = catalog.Build(result.resolved.Streams)
	}

	c.JSON(http.StatusOK, models.VideoInfoResponse{
		ID:              meta.ID,
		Title:           meta.Title,
		Description:     meta.Description,
		Thumbnail:       meta.Thumbnail,
		Duration:        meta.Duration,
		DurationSeconds: meta.DurationSeconds,
		Views:           meta.Views,
		Likes:           meta.Likes,
		Channel:         meta.Channel,
		UploadDate:      meta.UploadDate,
		Formats:         formats,
	})
}

func (h *VideoHandler) errorResponse(c *gin.Context, err *utils.AppError) {
	c.JSON(err.StatusCode, gin.H{
		"error":      err,
		"request_id": c.GetString("request_id"),
		"timestamp":  time.Now().Format(time.RFC3339),
	})
}
