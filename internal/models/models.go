package models

import "time"

// StreamDescriptor is one concrete encoded rendition offered by the
// extraction provider. Descriptors are produced fresh on every resolve and
// never persisted; the itag is only valid within the resolve that returned it.
type StreamDescriptor struct {
	Itag          int
	Container     string
	MimeType      string
	QualityLabel  string
	Bitrate       int
	ContentLength int64
	HasAudio      bool
	HasVideo      bool
}

// FormatEntry is the display-ready projection of one stream descriptor.
// An Itag of nil marks a fallback entry that cannot be requested by token;
// callers re-resolve by quality string instead.
type FormatEntry struct {
	Quality  string `json:"quality"`
	Format   string `json:"format"`
	Size     string `json:"size"`
	Itag     *int   `json:"itag"`
	HasAudio bool   `json:"hasAudio"`
	HasVideo bool   `json:"hasVideo"`
	MimeType string `json:"mimeType,omitempty"`
}

// FormatCatalog groups deduplicated, sorted entries by media kind.
// VideoOnly stays empty: muxing separate audio is out of scope, so
// video-only renditions are never exposed.
type FormatCatalog struct {
	VideoAndAudio []FormatEntry `json:"videoAndAudio"`
	VideoOnly     []FormatEntry `json:"videoOnly"`
	AudioOnly     []FormatEntry `json:"audioOnly"`
}

type VideoInfoRequest struct {
	URL string `json:"url" binding:"required"`
}

type VideoInfoResponse struct {
	ID              string        `json:"id"`
	Title           string        `json:"title"`
	Description     string        `json:"description"`
	Thumbnail       string        `json:"thumbnail"`
	Duration        string        `json:"duration"`
	DurationSeconds int           `json:"durationSeconds"`
	Views           string        `json:"views"`
	Likes           int64         `json:"likes"`
	Channel         string        `json:"channel"`
	UploadDate      string        `json:"uploadDate"`
	Formats         FormatCatalog `json:"formats"`
}

type DownloadRequest struct {
	VideoID string `json:"videoId"`
	URL     string `json:"url"`
	Format  string `json:"format"`
	Quality string `json:"quality"`
	Itag    *int   `json:"itag"`
}

// DownloadHistoryRecord is the only persisted entity. Appends are
// best-effort and never affect the download path.
type DownloadHistoryRecord struct {
	ID           string    `json:"id"`
	VideoID      string    `json:"video_id"`
	Title        string    `json:"title"`
	Format       string    `json:"format"`
	Quality      string    `json:"quality"`
	DownloadedAt time.Time `json:"downloaded_at"`
}

type HistoryListResponse struct {
	Records []DownloadHistoryRecord `json:"records"`
	Total   int                     `json:"total"`
}
