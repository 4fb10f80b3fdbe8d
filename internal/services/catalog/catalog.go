// Package catalog turns the raw stream descriptor list returned by the
// extraction provider into the deduplicated, sorted catalog served to clients.
package catalog

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ytgrab/ytgrab/internal/models"
)

const unknownSize = "Unknown"

// AudioFormatLabel is the display branding for the audio tier. Audio streams
// are served as-is (audio/mp4); the label never implies transcoding.
const AudioFormatLabel = "mp3"

var leadingNumberRegex = regexp.MustCompile(`^(\d+)`)

// FormatFileSize renders a byte count with 1024-based units and one decimal
// place. Zero or negative counts mean the provider did not report a length.
func FormatFileSize(bytes int64) string {
	if bytes <= 0 {
		return unknownSize
	}

	units := []string{"B", "KB", "MB", "GB", "TB"}
	size := float64(bytes)
	unitIndex := 0
	for size >= 1024 && unitIndex < len(units)-1 {
		size /= 1024
		unitIndex++
	}

	return fmt.Sprintf("%.1f %s", size, units[unitIndex])
}

type sortableEntry struct {
	entry   models.FormatEntry
	bitrate int
	itag    int
}

// Build partitions descriptors into muxed video and audio-only groups,
// deduplicates on (quality, format) keeping the first occurrence, and sorts
// each group by descending quality. Audio-only streams qualify on their
// reported mime type (audio/mp4); audio-only webm is deliberately not
// offered. Malformed descriptors are dropped, never surfaced as errors.
func Build(streams []models.StreamDescriptor) models.FormatCatalog {
	var video, audio []sortableEntry

	for _, s := range streams {
		if s.Container == "" || s.Itag == 0 {
			continue
		}

		switch {
		case s.HasVideo && s.HasAudio && s.Container == "mp4":
			if s.QualityLabel == "" {
				continue
			}
			video = append(video, newEntry(s, s.QualityLabel, s.Container))

		case s.HasAudio && !s.HasVideo && strings.HasPrefix(s.MimeType, "audio/mp4"):
			quality := audioQualityLabel(s)
			audio = append(audio, newEntry(s, quality, AudioFormatLabel))
		}
	}

	video = dedupe(video)
	audio = dedupe(audio)
	sortDescending(video)
	sortDescending(audio)

	return models.FormatCatalog{
		VideoAndAudio: project(video),
		VideoOnly:     []models.FormatEntry{},
		AudioOnly:     project(audio),
	}
}

// Fallback is the fixed nine-entry catalog returned when live extraction
// fails. Entries carry no itag; downloads against them re-resolve by
// quality string.
func Fallback() models.FormatCatalog {
	videoEntry := func(format, quality string) models.FormatEntry {
		return models.FormatEntry{
			Quality:  quality,
			Format:   format,
			Size:     unknownSize,
			HasAudio: true,
			HasVideo: true,
		}
	}
	audioEntry := func(quality string) models.FormatEntry {
		return models.FormatEntry{
			Quality:  quality,
			Format:   AudioFormatLabel,
			Size:     unknownSize,
			HasAudio: true,
		}
	}

	return models.FormatCatalog{
		VideoAndAudio: []models.FormatEntry{
			videoEntry("mp4", "1080p"),
			videoEntry("mp4", "720p"),
			videoEntry("mp4", "480p"),
			videoEntry("mp4", "360p"),
			videoEntry("webm", "720p"),
			videoEntry("webm", "480p"),
		},
		VideoOnly: []models.FormatEntry{},
		AudioOnly: []models.FormatEntry{
			audioEntry("320kbps"),
			audioEntry("192kbps"),
			audioEntry("128kbps"),
		},
	}
}

func newEntry(s models.StreamDescriptor, quality, format string) sortableEntry {
	itag := s.Itag
	return sortableEntry{
		entry: models.FormatEntry{
			Quality:  quality,
			Format:   format,
			Size:     FormatFileSize(s.ContentLength),
			Itag:     &itag,
			HasAudio: s.HasAudio,
			HasVideo: s.HasVideo,
			MimeType: s.MimeType,
		},
		bitrate: s.Bitrate,
		itag:    s.Itag,
	}
}

func audioQualityLabel(s models.StreamDescriptor) string {
	if s.QualityLabel != "" {
		return s.QualityLabel
	}
	if s.Bitrate > 0 {
		return fmt.Sprintf("%dkbps", s.Bitrate/1000)
	}
	return "128kbps"
}

// dedupe keeps the first entry seen for each (quality, format) pair,
// preserving source order.
func dedupe(entries []sortableEntry) []sortableEntry {
	seen := make(map[string]bool, len(entries))
	result := entries[:0]
	for _, e := range entries {
		key := e.entry.Quality + "_" + e.entry.Format
		if seen[key] {
			continue
		}
		seen[key] = true
		result = append(result, e)
	}
	return result
}

// sortDescending orders by the leading number of the quality label
// ("720p" -> 720, "128kbps" -> 128), falling back to bitrate and finally to
// itag so the order is deterministic for any input.
func sortDescending(entries []sortableEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		qi, okI := leadingNumber(entries[i].entry.Quality)
		qj, okJ := leadingNumber(entries[j].entry.Quality)
		if okI && okJ && qi != qj {
			return qi > qj
		}
		if entries[i].bitrate != entries[j].bitrate && entries[i].bitrate > 0 && entries[j].bitrate > 0 {
			return entries[i].bitrate > entries[j].bitrate
		}
		return entries[i].itag > entries[j].itag
	})
}

func leadingNumber(s string) (int, bool) {
	m := leadingNumberRegex.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

func project(entries []sortableEntry) []models.FormatEntry {
	result := make([]models.FormatEntry, len(entries))
	for i, e := range entries {
		result[i] = e.entry
	}
	return result
}
