package youtube

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	yt "github.com/kkdai/youtube/v2"

	"github.com/ytgrab/ytgrab/internal/models"
)

type Client struct {
	client *yt.Client
}

var (
	urlPatterns = []string{
		`^https?://(www\.)?youtube\.com/watch\?v=[\w-]+`,
		`^https?://(www\.)?youtube\.com/embed/[\w-]+`,
		`^https?://youtu\.be/[\w-]+`,
		`^https?://(www\.)?youtube\.com/v/[\w-]+`,
		`^https?://(m\.)?youtube\.com/watch\?v=[\w-]+`,
	}

	videoIDRegex = regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/|youtube\.com/embed/|youtube\.com/v/)([a-zA-Z0-9_-]{11})`)
	bareIDRegex  = regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`)
)

// NewClient creates a new extraction client. The HTTP client carries no
// overall timeout: stream relays are long-lived and bounded only by the
// request context.
func NewClient() *Client {
	return &Client{
		client: &yt.Client{
			HTTPClient: &http.Client{},
		},
	}
}

// IsYouTubeURL checks if the provided URL is a valid YouTube URL
func (c *Client) IsYouTubeURL(url string) bool {
	for _, pattern := range urlPatterns {
		matched, _ := regexp.MatchString(pattern, url)
		if matched {
			return true
		}
	}
	return false
}

// ParseVideoID extracts the video ID from a YouTube URL, or returns a bare
// 11-character video ID unchanged.
func (c *Client) ParseVideoID(input string) (string, error) {
	if bareIDRegex.MatchString(input) {
		return input, nil
	}

	matches := videoIDRegex.FindStringSubmatch(input)
	if len(matches) > 1 {
		return matches[1], nil
	}

	return "", fmt.Errorf("could not extract video ID from %q", input)
}

// Resolve fetches the video and converts every offered format into a stream
// descriptor. The descriptor list is fresh per call; itags are not assumed
// stable across resolves.
func (c *Client) Resolve(ctx context.Context, videoID string) (*Resolved, error) {
	video, err := c.client.GetVideoContext(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve video %s: %w", videoID, err)
	}

	streams := make([]models.StreamDescriptor, 0, len(video.Formats))
	for _, format := range video.Formats {
		streams = append(streams, descriptorFromFormat(format))
	}

	return &Resolved{
		ID:      video.ID,
		Title:   video.Title,
		Author:  video.Author,
		Streams: streams,
		video:   video,
	}, nil
}

// OpenStream opens a streaming read for the format with the given itag.
func (c *Client) OpenStream(ctx context.Context, resolved *Resolved, itag int) (io.ReadCloser, int64, error) {
	if resolved.video == nil {
		return nil, 0, fmt.Errorf("resolved video carries no format list")
	}

	for i := range resolved.video.Formats {
		format := &resolved.video.Formats[i]
		if format.ItagNo != itag {
			continue
		}
		reader, size, err := c.client.GetStreamContext(ctx, resolved.video, format)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to open stream for itag %d: %w", itag, err)
		}
		return reader, size, nil
	}

	return nil, 0, fmt.Errorf("itag %d not present in resolved formats", itag)
}

func descriptorFromFormat(f yt.Format) models.StreamDescriptor {
	return models.StreamDescriptor{
		Itag:          f.ItagNo,
		Container:     containerFromMime(f.MimeType),
		MimeType:      f.MimeType,
		QualityLabel:  f.QualityLabel,
		Bitrate:       f.Bitrate,
		ContentLength: f.ContentLength,
		HasAudio:      f.AudioChannels > 0 || f.AudioQuality != "",
		HasVideo:      strings.HasPrefix(f.MimeType, "video/"),
	}
}

// containerFromMime extracts the container name from a mime type string like
// `video/mp4; codecs="avc1.42001E, mp4a.40.2"`.
func containerFromMime(mimeType string) string {
	if mimeType == "" {
		return ""
	}
	base := mimeType
	if idx := strings.Index(base, ";"); idx >= 0 {
		base = base[:idx]
	}
	parts := strings.Split(strings.TrimSpace(base), "/")
	if len(parts) != 2 || parts[1] == "" {
		return ""
	}
	return parts[1]
}
