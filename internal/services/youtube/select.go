package youtube

import (
	"strings"

	"github.com/ytgrab/ytgrab/internal/models"
)

// FindByItag returns the descriptor whose itag matches exactly.
func FindByItag(streams []models.StreamDescriptor, itag int) (models.StreamDescriptor, bool) {
	for _, s := range streams {
		if s.Itag == itag {
			return s, true
		}
	}
	return models.StreamDescriptor{}, false
}

// BestMuxedStream picks the muxed (video+audio) descriptor best matching the
// requested quality label: an exact label match wins, otherwise the closest
// numeric quality, breaking ties on bitrate.
func BestMuxedStream(streams []models.StreamDescriptor, quality string) (models.StreamDescriptor, bool) {
	target, targetOK := parseQuality(quality)

	var best models.StreamDescriptor
	found := false

	for _, s := range streams {
		if !s.HasVideo || !s.HasAudio || s.QualityLabel == "" {
			continue
		}

		if s.QualityLabel == quality {
			return s, true
		}

		if !found {
			best = s
			found = true
			continue
		}

		if targetOK {
			currentQ, _ := parseQuality(s.QualityLabel)
			bestQ, _ := parseQuality(best.QualityLabel)
			if absDiff(currentQ, target) < absDiff(bestQ, target) {
				best = s
			} else if absDiff(currentQ, target) == absDiff(bestQ, target) && s.Bitrate > best.Bitrate {
				best = s
			}
		} else if s.Bitrate > best.Bitrate {
			best = s
		}
	}

	return best, found
}

// BestAudioStream picks the highest-bitrate audio-only descriptor, preferring
// audio/mp4 renditions and falling back to any audio-only stream.
func BestAudioStream(streams []models.StreamDescriptor) (models.StreamDescriptor, bool) {
	var best models.StreamDescriptor
	found := false

	for _, s := range streams {
		if !s.HasAudio || s.HasVideo {
			continue
		}
		if !strings.HasPrefix(s.MimeType, "audio/mp4") {
			continue
		}
		if !found || s.Bitrate > best.Bitrate {
			best = s
			found = true
		}
	}

	if found {
		return best, true
	}

	for _, s := range streams {
		if !s.HasAudio || s.HasVideo {
			continue
		}
		if !found || s.Bitrate > best.Bitrate {
			best = s
			found = true
		}
	}

	return best, found
}

// parseQuality extracts the numeric part of a quality label ("720p" -> 720).
func parseQuality(quality string) (int, bool) {
	n := 0
	seen := false
	for _, r := range quality {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
		seen = true
	}
	return n, seen
}

func absDiff(a, b int) int {
	if a < b {
		return b - a
	}
	return a - b
}
