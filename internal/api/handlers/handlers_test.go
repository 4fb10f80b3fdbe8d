package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ytgrab/ytgrab/internal/models"
	"github.com/ytgrab/ytgrab/internal/services/history"
	"github.com/ytgrab/ytgrab/internal/services/metadata"
	"github.com/ytgrab/ytgrab/internal/services/youtube"
)

const testVideoID = "dQw4w9WgXcQ"

type stubExtractor struct {
	resolved   *youtube.Resolved
	resolveErr error
	streamBody string
	streamErr  error
}

func (s *stubExtractor) IsYouTubeURL(url string) bool {
	return strings.Contains(url, "youtube.com/") || strings.Contains(url, "youtu.be/")
}

func (s *stubExtractor) ParseVideoID(input string) (string, error) {
	if strings.Contains(input, testVideoID) || input == testVideoID {
		return testVideoID, nil
	}
	return "", errors.New("could not extract video ID")
}

func (s *stubExtractor) Resolve(ctx context.Context, videoID string) (*youtube.Resolved, error) {
	if s.resolveErr != nil {
		return nil, s.resolveErr
	}
	return s.resolved, nil
}

func (s *stubExtractor) OpenStream(ctx context.Context, resolved *youtube.Resolved, itag int) (io.ReadCloser, int64, error) {
	if s.streamErr != nil {
		return nil, 0, s.streamErr
	}
	return io.NopCloser(strings.NewReader(s.streamBody)), int64(len(s.streamBody)), nil
}

type stubProvider struct {
	meta *metadata.VideoMetadata
	err  error
}

func (s *stubProvider) Fetch(ctx context.Context, videoID string) (*metadata.VideoMetadata, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.meta, nil
}

func testResolved() *youtube.Resolved {
	return &youtube.Resolved{
		ID:    testVideoID,
		Title: "Test Video!",
		Streams: []models.StreamDescriptor{
			{Itag: 18, Container: "mp4", MimeType: "video/mp4", QualityLabel: "360p", Bitrate: 500_000, HasAudio: true, HasVideo: true},
			{Itag: 37, Container: "mp4", MimeType: "video/mp4", QualityLabel: "1080p", Bitrate: 4_000_000, HasAudio: true, HasVideo: true},
			{Itag: 22, Container: "mp4", MimeType: "video/mp4", QualityLabel: "720p", Bitrate: 2_000_000, HasAudio: true, HasVideo: true, ContentLength: 1024},
			{Itag: 140, Container: "mp4", MimeType: `audio/mp4; codecs="mp4a.40.2"`, Bitrate: 130_000, HasAudio: true},
		},
	}
}

func testMetadata() *metadata.VideoMetadata {
	return &metadata.VideoMetadata{
		ID:              testVideoID,
		Title:           "Test Video!",
		Duration:        "3:33",
		DurationSeconds: 213,
		Views:           "1.2M",
		Channel:         "Test Channel",
		UploadDate:      "2009-10-25",
	}
}

func newVideoRouter(extractor youtube.Extractor, provider metadata.Provider) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewVideoHandler(extractor, provider, 5*time.Second)
	engine := gin.New()
	engine.GET("/api/video-info/:videoId", h.GetVideoInfoByID)
	engine.POST("/api/video-info", h.GetVideoInfoByURL)
	return engine
}

func newDownloadRouter(extractor youtube.Extractor, repo history.Repository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewDownloadHandler(extractor, repo, 5*time.Second)
	engine := gin.New()
	engine.GET("/api/download", h.DownloadByItag)
	engine.POST("/api/download", h.DownloadByQuality)
	return engine
}

func postJSON(t *testing.T, engine *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("Failed to marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestVideoInfoSortedFormatsAndTitle(t *testing.T) {
	engine := newVideoRouter(
		&stubExtractor{resolved: testResolved()},
		&stubProvider{meta: testMetadata()},
	)

	w := postJSON(t, engine, "/api/video-info", models.VideoInfoRequest{
		URL: "https://www.youtube.com/watch?v=" + testVideoID,
	})

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp models.VideoInfoResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if len(resp.Title) == 0 {
		t.Error("Expected a non-empty title")
	}

	expected := []string{"1080p", "720p", "360p"}
	if len(resp.Formats.VideoAndAudio) != len(expected) {
		t.Fatalf("Expected %d video formats, got %d", len(expected), len(resp.Formats.VideoAndAudio))
	}
	for i, quality := range expected {
		if resp.Formats.VideoAndAudio[i].Quality != quality {
			t.Errorf("Position %d: expected %s, got %s", i, quality, resp.Formats.VideoAndAudio[i].Quality)
		}
	}
	if len(resp.Formats.AudioOnly) != 1 || resp.Formats.AudioOnly[0].Format != "mp3" {
		t.Errorf("Expected one mp3-labeled audio entry, got %+v", resp.Formats.AudioOnly)
	}
}

func TestVideoInfoFallbackOnExtractionFailure(t *testing.T) {
	engine := newVideoRouter(
		&stubExtractor{resolveErr: errors.New("player config not found")},
		&stubProvider{meta: testMetadata()},
	)

	w := postJSON(t, engine, "/api/video-info", models.VideoInfoRequest{
		URL: "https://www.youtube.com/watch?v=" + testVideoID,
	})

	if w.Code != http.StatusOK {
		t.Fatalf("Extraction failure must degrade, not fail: got %d", w.Code)
	}

	var resp models.VideoInfoResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if len(resp.Formats.VideoAndAudio) != 6 || len(resp.Formats.AudioOnly) != 3 {
		t.Fatalf("Expected the nine-entry fallback catalog, got %d+%d entries",
			len(resp.Formats.VideoAndAudio), len(resp.Formats.AudioOnly))
	}
	for _, e := range resp.Formats.VideoAndAudio {
		if e.Itag != nil || e.Size != "Unknown" {
			t.Errorf("Fallback entries must have nil itag and unknown size: %+v", e)
		}
	}
}

func TestVideoInfoMetadataErrors(t *testing.T) {
	testCases := []struct {
		name           string
		err            error
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "Missing API key",
			err:            metadata.ErrMissingAPIKey,
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   "CONFIG_ERROR",
		},
		{
			name:           "Video not found",
			err:            metadata.ErrVideoNotFound,
			expectedStatus: http.StatusNotFound,
			expectedCode:   "VIDEO_NOT_FOUND",
		},
		{
			name:           "Upstream failure",
			err:            errors.New("quota exceeded"),
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   "UPSTREAM_ERROR",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			engine := newVideoRouter(
				&stubExtractor{resolved: testResolved()},
				&stubProvider{err: tc.err},
			)

			w := postJSON(t, engine, "/api/video-info", models.VideoInfoRequest{
				URL: "https://www.youtube.com/watch?v=" + testVideoID,
			})

			if w.Code != tc.expectedStatus {
				t.Fatalf("Expected %d, got %d: %s", tc.expectedStatus, w.Code, w.Body.String())
			}
			if !strings.Contains(w.Body.String(), tc.expectedCode) {
				t.Errorf("Expected error code %s in body: %s", tc.expectedCode, w.Body.String())
			}
		})
	}
}

func TestVideoInfoRejectsInvalidURL(t *testing.T) {
	engine := newVideoRouter(
		&stubExtractor{resolved: testResolved()},
		&stubProvider{meta: testMetadata()},
	)

	w := postJSON(t, engine, "/api/video-info", models.VideoInfoRequest{URL: "https://vimeo.com/12345"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for non-YouTube URL, got %d", w.Code)
	}

	w = postJSON(t, engine, "/api/video-info", map[string]string{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing url, got %d", w.Code)
	}
}

func TestDownloadByItagStreamsWithHeaders(t *testing.T) {
	repo := history.NewMemoryRepository()
	engine := newDownloadRouter(&stubExtractor{resolved: testResolved(), streamBody: "fake media bytes"}, repo)

	req := httptest.NewRequest(http.MethodGet,
		"/api/download?url=https://www.youtube.com/watch?v="+testVideoID+"&itag=22&title=Test", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if w.Body.Len() == 0 {
		t.Error("Expected a non-empty body")
	}

	disposition := w.Header().Get("Content-Disposition")
	if !strings.Contains(disposition, "Test") {
		t.Errorf("Expected sanitized title in Content-Disposition, got %q", disposition)
	}
	if !strings.Contains(disposition, "720p") {
		t.Errorf("Expected quality suffix in filename, got %q", disposition)
	}
	if got := w.Header().Get("Content-Type"); got != "video/mp4" {
		t.Errorf("Expected provider mime type, got %q", got)
	}
	if got := w.Header().Get("Content-Length"); got != "16" {
		t.Errorf("Expected Content-Length 16, got %q", got)
	}

	// A finished relay is recorded, best-effort.
	records, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("Unexpected history error: %v", err)
	}
	if len(records) != 1 || records[0].VideoID != testVideoID {
		t.Errorf("Expected one history record for the download, got %+v", records)
	}
}

func TestDownloadUnknownItagReturnsNotFound(t *testing.T) {
	engine := newDownloadRouter(&stubExtractor{resolved: testResolved(), streamBody: "fake"}, nil)

	req := httptest.NewRequest(http.MethodGet,
		"/api/download?url=https://www.youtube.com/watch?v="+testVideoID+"&itag=9999&title=Test", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("Expected 404 for unknown itag, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "FORMAT_NOT_FOUND") {
		t.Errorf("Expected FORMAT_NOT_FOUND error body, got %s", w.Body.String())
	}
	if w.Header().Get("Content-Disposition") != "" {
		t.Error("A failed lookup must not start a stream")
	}
}

func TestDownloadFilenameIsSanitized(t *testing.T) {
	engine := newDownloadRouter(&stubExtractor{resolved: testResolved(), streamBody: "fake"}, nil)

	titles := []string{
		"../../etc/passwd",
		"evil\"\r\ninjected",
		"C:\\Windows\\system32",
		"normal title",
	}

	for _, title := range titles {
		query := url.Values{}
		query.Set("url", "https://www.youtube.com/watch?v="+testVideoID)
		query.Set("itag", "22")
		query.Set("title", title)
		req := httptest.NewRequest(http.MethodGet, "/api/download?"+query.Encode(), nil)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Title %q: expected 200, got %d", title, w.Code)
		}
		disposition := w.Header().Get("Content-Disposition")
		filename := strings.TrimPrefix(disposition, `attachment; filename="`)
		filename = strings.TrimSuffix(filename, `"`)
		if strings.ContainsAny(filename, "/\\\r\n\"") {
			t.Errorf("Title %q produced unsafe filename %q", title, filename)
		}
	}
}

func TestDownloadQualityAndFormatSanitized(t *testing.T) {
	engine := newDownloadRouter(&stubExtractor{resolved: testResolved(), streamBody: "fake"}, nil)

	testCases := []struct {
		name    string
		format  string
		quality string
	}{
		{name: "Path traversal in quality", format: "mp4", quality: "../../etc/passwd"},
		{name: "Header injection in quality", format: "mp4", quality: "720p\"\r\nX-Evil: 1"},
		{name: "Path traversal in format", format: "../mp4", quality: "720p"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := postJSON(t, engine, "/api/download", models.DownloadRequest{
				VideoID: testVideoID,
				Format:  tc.format,
				Quality: tc.quality,
			})

			if w.Code != http.StatusOK {
				t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
			}

			disposition := w.Header().Get("Content-Disposition")
			filename := strings.TrimPrefix(disposition, `attachment; filename="`)
			filename = strings.TrimSuffix(filename, `"`)
			if strings.ContainsAny(filename, "/\\\r\n\"") {
				t.Errorf("Quality %q format %q produced unsafe filename %q", tc.quality, tc.format, filename)
			}
			if ct := w.Header().Get("Content-Type"); strings.ContainsAny(ct, "\r\n\".") {
				t.Errorf("Quality %q format %q produced unsafe content type %q", tc.quality, tc.format, ct)
			}
		})
	}
}

func TestDownloadMissingParams(t *testing.T) {
	engine := newDownloadRouter(&stubExtractor{resolved: testResolved()}, nil)

	// GET without itag
	req := httptest.NewRequest(http.MethodGet,
		"/api/download?url=https://www.youtube.com/watch?v="+testVideoID, nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 without itag, got %d", w.Code)
	}

	// POST without format/quality
	w = postJSON(t, engine, "/api/download", models.DownloadRequest{VideoID: testVideoID})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 without format and quality, got %d", w.Code)
	}
}

func TestDownloadByQualityAudioPath(t *testing.T) {
	engine := newDownloadRouter(&stubExtractor{resolved: testResolved(), streamBody: "audio bytes"}, nil)

	w := postJSON(t, engine, "/api/download", models.DownloadRequest{
		VideoID: testVideoID,
		Format:  "mp3",
		Quality: "128kbps",
	})

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if got := w.Header().Get("Content-Type"); got != "audio/mpeg" {
		t.Errorf("Expected audio/mpeg for the mp3 path, got %q", got)
	}
	disposition := w.Header().Get("Content-Disposition")
	if !strings.Contains(disposition, "128kbps.mp3") {
		t.Errorf("Expected quality and format in filename, got %q", disposition)
	}
}

func TestDownloadByQualityVideoPath(t *testing.T) {
	engine := newDownloadRouter(&stubExtractor{resolved: testResolved(), streamBody: "video bytes"}, nil)

	w := postJSON(t, engine, "/api/download", models.DownloadRequest{
		URL:     "https://www.youtube.com/watch?v=" + testVideoID,
		Format:  "mp4",
		Quality: "720p",
	})

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if got := w.Header().Get("Content-Type"); got != "video/mp4" {
		t.Errorf("Expected video/mp4, got %q", got)
	}
	if !strings.Contains(w.Header().Get("Content-Disposition"), "Test Video_720p.mp4") {
		t.Errorf("Expected resolved title in filename, got %q", w.Header().Get("Content-Disposition"))
	}
}

func TestDownloadResolveFailureReturnsNotFound(t *testing.T) {
	engine := newDownloadRouter(&stubExtractor{resolveErr: errors.New("video unavailable")}, nil)

	req := httptest.NewRequest(http.MethodGet,
		"/api/download?url=https://www.youtube.com/watch?v="+testVideoID+"&itag=22", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 when the video cannot be resolved, got %d", w.Code)
	}
}
