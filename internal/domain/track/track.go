// Package track provides the Track domain entity.
package track

import (
	"strings"
	"time"
)

// Track represents a Spotify track entity.
// Contains only information retrieved from the Spotify API; immutable once fetched.
type Track struct {
	ID            string        // Spotify Track ID
	Name          string        // Track name
	Artists       []string      // Artist names
	Album         string        // Album name
	AlbumImageURL string        // Album art URL
	PreviewURL    string        // 30-second preview URL (empty when Spotify provides none)
	Duration      time.Duration // Track duration
	URL           string        // Spotify URL
}

// HasPreview reports whether the track carries a playable preview reference.
func (t *Track) HasPreview() bool {
	return t.PreviewURL != ""
}

// ArtistLine returns the artist names joined for display.
func (t *Track) ArtistLine() string {
	return strings.Join(t.Artists, ", ")
}

// URI returns the Spotify URI for the track.
func (t *Track) URI() string {
	return "spotify:track:" + t.ID
}
