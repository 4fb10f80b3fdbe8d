// Package metadata fetches video metadata from the YouTube Data API v3.
package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ytgrab/ytgrab/internal/config"
	"github.com/ytgrab/ytgrab/internal/utils"
)

var (
	// ErrMissingAPIKey means the service was started without a Data API key.
	// The extraction-only paths keep working; only metadata is unavailable.
	ErrMissingAPIKey = errors.New("youtube data api key is not configured")

	// ErrVideoNotFound means the API answered but listed no items for the ID.
	ErrVideoNotFound = errors.New("video not found")
)

// Provider returns display metadata for a video ID.
type Provider interface {
	Fetch(ctx context.Context, videoID string) (*VideoMetadata, error)
}

// VideoMetadata is the display-ready projection of one Data API item.
type VideoMetadata struct {
	ID              string
	Title           string
	Description     string
	Thumbnail       string
	Duration        string
	DurationSeconds int
	Views           string
	Likes           int64
	Channel         string
	UploadDate      string
}

type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewClient(cfg *config.YouTubeConfig) *Client {
	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Configured reports whether a Data API key is present.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

type videoListResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title        string `json:"title"`
			Description  string `json:"description"`
			ChannelTitle string `json:"channelTitle"`
			PublishedAt  string `json:"publishedAt"`
			Thumbnails   struct {
				Medium thumbnail `json:"medium"`
				High   thumbnail `json:"high"`
				Maxres thumbnail `json:"maxres"`
			} `json:"thumbnails"`
		} `json:"snippet"`
		ContentDetails struct {
			Duration string `json:"duration"`
		} `json:"contentDetails"`
		Statistics struct {
			ViewCount string `json:"viewCount"`
			LikeCount string `json:"likeCount"`
		} `json:"statistics"`
	} `json:"items"`
}

type thumbnail struct {
	URL string `json:"url"`
}

// Fetch retrieves snippet, statistics and contentDetails for one video and
// reshapes them for display.
func (c *Client) Fetch(ctx context.Context, videoID string) (*VideoMetadata, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	endpoint := fmt.Sprintf("%s/videos?part=snippet,statistics,contentDetails&id=%s&key=%s",
		c.baseURL, url.QueryEscape(videoID), url.QueryEscape(c.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("youtube data api request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("youtube data api returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var listResp videoListResponse
	if err := json.NewDecoder(resp.Body).Decode(&listResp); err != nil {
		return nil, fmt.Errorf("failed to decode youtube data api response: %w", err)
	}

	if len(listResp.Items) == 0 {
		return nil, ErrVideoNotFound
	}

	item := listResp.Items[0]

	duration, seconds, err := utils.FormatISODuration(item.ContentDetails.Duration)
	if err != nil {
		utils.LogWarn(ctx, "Unparseable video duration", utils.Fields{
			"video_id": videoID,
			"duration": item.ContentDetails.Duration,
		})
	}

	views, _ := strconv.ParseInt(item.Statistics.ViewCount, 10, 64)
	likes, _ := strconv.ParseInt(item.Statistics.LikeCount, 10, 64)

	return &VideoMetadata{
		ID:              videoID,
		Title:           item.Snippet.Title,
		Description:     item.Snippet.Description,
		Thumbnail:       pickThumbnail(item.Snippet.Thumbnails.Maxres.URL, item.Snippet.Thumbnails.High.URL, item.Snippet.Thumbnails.Medium.URL),
		Duration:        duration,
		DurationSeconds: seconds,
		Views:           utils.FormatViewCount(views),
		Likes:           likes,
		Channel:         item.Snippet.ChannelTitle,
		UploadDate:      uploadDate(item.Snippet.PublishedAt),
	}, nil
}

// pickThumbnail returns the first non-empty URL in priority order
// (maxres > high > medium).
func pickThumbnail(urls ...string) string {
	for _, u := range urls {
		if u != "" {
			return u
		}
	}
	return ""
}

// uploadDate keeps the calendar date of an RFC 3339 timestamp, discarding
// the time of day.
func uploadDate(publishedAt string) string {
	if idx := strings.Index(publishedAt, "T"); idx >= 0 {
		return publishedAt[:idx]
	}
	return publishedAt
}
