package handlers

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ytgrab/ytgrab/internal/models"
	"github.com/ytgrab/ytgrab/internal/services/catalog"
	"github.com/ytgrab/ytgrab/internal/services/history"
	"github.com/ytgrab/ytgrab/internal/services/youtube"
	"github.com/ytgrab/ytgrab/internal/utils"
)

type DownloadHandler struct {
	extractor youtube.Extractor
	history   history.Repository
	timeout   time.Duration
}

func NewDownloadHandler(extractor youtube.Extractor, historyRepo history.Repository, timeout time.Duration) *DownloadHandler {
	return &DownloadHandler{
		extractor: extractor,
		history:   historyRepo,
		timeout:   timeout,
	}
}

// DownloadByItag godoc
// @Summary Download a specific stream by itag
// @Description Stream the rendition identified by itag to the caller as an attachment
// @Tags download
// @Produce application/octet-stream
// @Param url query string true "YouTube video URL"
// @Param itag query int true "Format token from the video-info catalog"
// @Param title query string false "Display title used for the filename"
// @Success 200 {file} binary
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/download [get]
func (h *DownloadHandler) DownloadByItag(c *gin.Context) {
	rawURL := c.Query("url")
	rawItag := c.Query("itag")
	title := c.DefaultQuery("title", "video")

	if rawURL == "" || !h.extractor.IsYouTubeURL(rawURL) {
		h.errorResponse(c, utils.NewInvalidURLError(rawURL))
		return
	}
	if rawItag == "" {
		h.errorResponse(c, utils.NewValidationError("Missing itag parameter", nil))
		return
	}
	itag, err := strconv.Atoi(rawItag)
	if err != nil {
		h.errorResponse(c, utils.NewValidationError("Invalid itag parameter", map[string]interface{}{
			"provided": rawItag,
		}))
		return
	}

	videoID, err := h.extractor.ParseVideoID(rawURL)
	if err != nil {
		h.errorResponse(c, utils.NewInvalidURLError(rawURL))
		return
	}

	resolved, ok := h.resolve(c, videoID)
	if !ok {
		return
	}

	descriptor, found := youtube.FindByItag(resolved.Streams, itag)
	if !found {
		h.errorResponse(c, utils.NewFormatNotFoundError(fmt.Sprintf("itag %d", itag)))
		return
	}

	contentType := descriptor.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	h.relay(c, resolved, descriptor, relayParams{
		filename:    downloadFilename(title, itagQuality(descriptor), itagExtension(descriptor)),
		contentType: contentType,
		format:      itagExtension(descriptor),
		quality:     itagQuality(descriptor),
	})
}

// DownloadByQuality godoc
// @Summary Download the best stream for a quality/format selection
// @Description Stream the best matching rendition for the requested quality and format
// @Tags download
// @Accept json
// @Produce application/octet-stream
// @Param request body models.DownloadRequest true "Download selection"
// @Success 200 {file} binary
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/download [post]
func (h *DownloadHandler) DownloadByQuality(c *gin.Context) {
	var req models.DownloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, utils.NewValidationError("Invalid request body", map[string]interface{}{
			"error": err.Error(),
		}))
		return
	}

	input := req.VideoID
	if input == "" {
		input = req.URL
	}
	if input == "" || req.Format == "" || req.Quality == "" {
		h.errorResponse(c, utils.NewValidationError("Missing required parameters", map[string]interface{}{
			"required": []string{"videoId or url", "format", "quality"},
		}))
		return
	}

	videoID, err := h.extractor.ParseVideoID(input)
	if err != nil {
		h.errorResponse(c, utils.NewInvalidURLError(input))
		return
	}

	resolved, ok := h.resolve(c, videoID)
	if !ok {
		return
	}

	var descriptor models.StreamDescriptor
	var found bool
	switch {
	case req.Itag != nil:
		descriptor, found = youtube.FindByItag(resolved.Streams, *req.Itag)
	case req.Format == catalog.AudioFormatLabel:
		descriptor, found = youtube.BestAudioStream(resolved.Streams)
	default:
		descriptor, found = youtube.BestMuxedStream(resolved.Streams, req.Quality)
	}
	if !found {
		h.errorResponse(c, utils.NewFormatNotFoundError(fmt.Sprintf("%s %s", req.Format, req.Quality)))
		return
	}

	contentType := "audio/mpeg"
	if req.Format != catalog.AudioFormatLabel {
		if format := filenameTokenRegex.ReplaceAllString(req.Format, ""); format != "" {
			contentType = "video/" + format
		} else {
			contentType = "application/octet-stream"
		}
	}

	h.relay(c, resolved, descriptor, relayParams{
		filename:    downloadFilename(resolved.Title, req.Quality, req.Format),
		contentType: contentType,
		format:      req.Format,
		quality:     req.Quality,
	})
}

type relayParams struct {
	filename    string
	contentType string
	format      string
	quality     string
}

// resolve re-queries the provider for a fresh descriptor list. Tokens are
// not assumed valid across sessions, so this happens on every download.
func (h *DownloadHandler) resolve(c *gin.Context, videoID string) (*youtube.Resolved, bool) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	resolved, err := h.extractor.Resolve(ctx, videoID)
	if err != nil {
		utils.LogError(c.Request.Context(), "Failed to resolve video for download", err, utils.Fields{
			"video_id": videoID,
		})
		h.errorResponse(c, utils.NewVideoNotFoundError(videoID))
		return nil, false
	}
	return resolved, true
}

// relay pipes the upstream media stream straight through to the caller. The
// request context flows into the upstream read, so a client abort tears the
// upstream connection down as well. Nothing is buffered beyond io.Copy's
// chunk.
func (h *DownloadHandler) relay(c *gin.Context, resolved *youtube.Resolved, descriptor models.StreamDescriptor, params relayParams) {
	ctx := c.Request.Context()

	reader, size, err := h.extractor.OpenStream(ctx, resolved, descriptor.Itag)
	if err != nil {
		utils.LogError(ctx, "Failed to open upstream stream", err, utils.Fields{
			"video_id": resolved.ID,
			"itag":     descriptor.Itag,
		})
		h.errorResponse(c, utils.NewDownloadError(err))
		return
	}
	defer reader.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", params.filename))
	c.Header("Content-Type", params.contentType)
	if size <= 0 {
		size = descriptor.ContentLength
	}
	if size > 0 {
		c.Header("Content-Length", strconv.FormatInt(size, 10))
	}

	written, err := io.Copy(c.Writer, reader)
	if err != nil {
		// Headers are already flushed; all that is left is closing the
		// connection instead of pretending the body completed.
		utils.LogError(ctx, "Stream relay interrupted", err, utils.Fields{
			"video_id":      resolved.ID,
			"itag":          descriptor.Itag,
			"bytes_written": written,
		})
		return
	}

	utils.LogInfo(ctx, "Download completed", utils.Fields{
		"video_id":      resolved.ID,
		"itag":          descriptor.Itag,
		"bytes_written": written,
		"filename":      params.filename,
	})

	h.recordDownload(ctx, resolved, params)
}

// recordDownload appends to the download history, best-effort. A failure
// here never affects the response the client already received.
func (h *DownloadHandler) recordDownload(ctx context.Context, resolved *youtube.Resolved, params relayParams) {
	if h.history == nil {
		return
	}

	record := models.DownloadHistoryRecord{
		ID:           uuid.New().String(),
		VideoID:      resolved.ID,
		Title:        resolved.Title,
		Format:       params.format,
		Quality:      params.quality,
		DownloadedAt: time.Now().UTC(),
	}

	if err := h.history.Append(context.WithoutCancel(ctx), record); err != nil {
		utils.LogWarn(ctx, "Failed to record download history", utils.Fields{
			"video_id": record.VideoID,
			"error":    err.Error(),
		})
	}
}

// filenameTokenRegex strips everything but word characters from the quality
// and extension tokens. Both can carry client-supplied text on the POST path,
// so they get the same treatment as the title before entering the
// Content-Disposition header.
var filenameTokenRegex = regexp.MustCompile(`\W`)

// downloadFilename builds the attachment filename from the sanitized title,
// the quality label and the format extension.
func downloadFilename(title, quality, ext string) string {
	name := utils.SanitizeTitle(title)
	quality = filenameTokenRegex.ReplaceAllString(quality, "")
	ext = filenameTokenRegex.ReplaceAllString(ext, "")
	if ext == "" {
		ext = "mp4"
	}
	if quality != "" {
		return fmt.Sprintf("%s_%s.%s", name, quality, ext)
	}
	return fmt.Sprintf("%s.%s", name, ext)
}

// itagExtension maps a descriptor to the file extension for the itag path.
// Audio-only mp4 is really an m4a payload.
func itagExtension(d models.StreamDescriptor) string {
	switch {
	case strings.HasPrefix(d.MimeType, "audio/mp4"):
		return "m4a"
	case strings.HasPrefix(d.MimeType, "audio/webm"):
		return "webm"
	case d.Container != "":
		return d.Container
	default:
		return "mp4"
	}
}

func itagQuality(d models.StreamDescriptor) string {
	if d.QualityLabel != "" {
		return d.QualityLabel
	}
	if d.Bitrate > 0 {
		return fmt.Sprintf("%dkbps", d.Bitrate/1000)
	}
	return ""
}

func (h *DownloadHandler) errorResponse(c *gin.Context, err *utils.AppError) {
	c.JSON(err.StatusCode, gin.H{
		"error":      err,
		"request_id": c.GetString("request_id"),
		"timestamp":  time.Now().Format(time.RFC3339),
	})
}
