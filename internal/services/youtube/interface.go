package youtube

import (
	"context"
	"io"

	yt "github.com/kkdai/youtube/v2"

	"github.com/ytgrab/ytgrab/internal/models"
)

// Extractor resolves YouTube videos into stream descriptors and opens raw
// media streams. Descriptors are only valid against the Resolved value that
// produced them, so callers re-resolve on every download.
type Extractor interface {
	// IsYouTubeURL checks if the provided URL is a valid YouTube URL
	IsYouTubeURL(url string) bool

	// ParseVideoID extracts the video ID from a YouTube URL or accepts a
	// bare video ID unchanged
	ParseVideoID(input string) (string, error)

	// Resolve fetches a fresh stream descriptor list for a video
	Resolve(ctx context.Context, videoID string) (*Resolved, error)

	// OpenStream opens a streaming read for the descriptor with the given
	// itag, returning the reader and the content length when known
	OpenStream(ctx context.Context, resolved *Resolved, itag int) (io.ReadCloser, int64, error)
}

// Resolved is one extraction session: the video identity plus every stream
// rendition the provider offered at resolve time.
type Resolved struct {
	ID      string
	Title   string
	Author  string
	Streams []models.StreamDescriptor

	video *yt.Video
}
