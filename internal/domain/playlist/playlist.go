// Package playlist provides the playlist domain entity.
package playlist

// Summary represents a playlist as shown on the selection screen.
// Track contents are fetched separately when the playlist is chosen.
type Summary struct {
	ID         string // Spotify Playlist ID
	Name       string // Playlist name
	ImageURL   string // Cover image URL
	TrackCount int    // Number of tracks reported by Spotify
	OwnerName  string // Owner display name
}
