// Package spotify provides a client for the Spotify API.
package spotify

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"

	"github.com/osa030/blindbox/internal/domain/playlist"
	"github.com/osa030/blindbox/internal/domain/quiz"
	"github.com/osa030/blindbox/internal/domain/track"
)

// Client is a Spotify API client implementing the game.Provider contract.
type Client struct {
	client     *spotify.Client
	maxRetries int
	retryDelay time.Duration
}

// Config represents Spotify client configuration.
type Config struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
}

// New creates a new Spotify client.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RefreshToken == "" {
		return nil, errors.New("spotify credentials are required")
	}

	auth := spotifyauth.New(
		spotifyauth.WithClientID(cfg.ClientID),
		spotifyauth.WithClientSecret(cfg.ClientSecret),
		spotifyauth.WithScopes(
			spotifyauth.ScopePlaylistReadPrivate,
			spotifyauth.ScopeUserReadPlaybackState,
			spotifyauth.ScopeUserModifyPlaybackState,
			spotifyauth.ScopeStreaming,
		),
	)

	token := &oauth2.Token{
		RefreshToken: cfg.RefreshToken,
	}

	// HTTP client with auto-refresh capability
	httpClient := auth.Client(ctx, token)

	return &Client{
		client:     spotify.New(httpClient),
		maxRetries: 3,
		retryDelay: time.Second,
	}, nil
}

// FetchPlaylists retrieves the current user's playlists.
func (c *Client) FetchPlaylists(ctx context.Context) ([]playlist.Summary, error) {
	var summaries []playlist.Summary
	offset := 0
	limit := 50

	for {
		var page *spotify.SimplePlaylistPage
		err := c.retry(func() error {
			p, err := c.client.CurrentUsersPlaylists(ctx,
				spotify.Limit(limit),
				spotify.Offset(offset),
			)
			if err != nil {
				return err
			}
			page = p
			return nil
		})
		if err != nil {
			return nil, wrapFetchErr(err, "failed to get playlists")
		}

		for _, p := range page.Playlists {
			var image string
			if len(p.Images) > 0 {
				image = p.Images[0].URL
			}
			summaries = append(summaries, playlist.Summary{
				ID:         string(p.ID),
				Name:       p.Name,
				ImageURL:   image,
				TrackCount: int(p.Tracks.Total),
				OwnerName:  p.Owner.DisplayName,
			})
		}

		if len(page.Playlists) < limit {
			break
		}
		offset += limit
	}

	return summaries, nil
}

// FetchPlaylistTracks retrieves all tracks of a playlist by ID, URL or URI.
func (c *Client) FetchPlaylistTracks(ctx context.Context, playlistID string) ([]track.Track, error) {
	id := extractPlaylistID(playlistID)
	if id == "" {
		return nil, errors.New("invalid playlist reference")
	}

	var tracks []track.Track
	offset := 0
	limit := 100

	for {
		var page *spotify.PlaylistItemPage
		err := c.retry(func() error {
			p, err := c.client.GetPlaylistItems(ctx, spotify.ID(id),
				spotify.Limit(limit),
				spotify.Offset(offset),
			)
			if err != nil {
				return err
			}
			page = p
			return nil
		})
		if err != nil {
			return nil, wrapFetchErr(err, "failed to get playlist items")
		}

		for _, item := range page.Items {
			// Episodes have no Track and are skipped.
			if item.Track.Track != nil && item.Track.Track.ID != "" {
				tracks = append(tracks, convertTrack(item.Track.Track))
			}
		}

		if len(page.Items) < limit {
			break
		}
		offset += limit
	}

	return tracks, nil
}

// convertTrack converts a Spotify FullTrack to the domain Track.
func convertTrack(t *spotify.FullTrack) track.Track {
	artists := make([]string, len(t.Artists))
	for i, a := range t.Artists {
		artists[i] = a.Name
	}

	var albumImage string
	if len(t.Album.Images) > 0 {
		albumImage = t.Album.Images[0].URL
	}

	return track.Track{
		ID:            string(t.ID),
		Name:          t.Name,
		Artists:       artists,
		Album:         t.Album.Name,
		AlbumImageURL: albumImage,
		PreviewURL:    t.PreviewURL,
		Duration:      time.Duration(t.Duration) * time.Millisecond,
		URL:           "https://open.spotify.com/track/" + string(t.ID),
	}
}

// wrapFetchErr classifies a provider failure per the game error taxonomy.
func wrapFetchErr(err error, msg string) error {
	if isUnauthenticated(err) {
		return errors.Mark(errors.Wrap(err, msg), quiz.ErrUnauthenticated)
	}
	return errors.Mark(errors.Wrap(err, msg), quiz.ErrProviderFetch)
}

// isUnauthenticated reports whether the error is an auth failure that
// requires re-login rather than a retry.
func isUnauthenticated(err error) bool {
	var spErr spotify.Error
	if errors.As(err, &spErr) {
		return spErr.Status == 401 || spErr.Status == 403
	}
	errStr := err.Error()
	return strings.Contains(errStr, "401") ||
		strings.Contains(errStr, "token expired") ||
		strings.Contains(errStr, "invalid_grant")
}

// retry retries an operation with linear backoff.
func (c *Client) retry(fn func() error) error {
	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !isRetryable(err) {
			return err
		}

		if i < c.maxRetries-1 {
			time.Sleep(c.retryDelay * time.Duration(i+1))
		}
	}
	return errors.Wrap(lastErr, "max retries exceeded")
}

// isRetryable checks if an error is retryable.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	// Rate limit errors and server errors are retryable
	errStr := err.Error()
	return strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "500") ||
		strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "503") ||
		strings.Contains(errStr, "504")
}

// extractPlaylistID extracts the playlist ID from a Spotify playlist URL or URI.
func extractPlaylistID(input string) string {
	input = strings.TrimSpace(input)
	// Spotify URI format: spotify:playlist:PLAYLIST_ID
	if strings.HasPrefix(input, "spotify:playlist:") {
		return strings.TrimPrefix(input, "spotify:playlist:")
	}

	// URL format: https://open.spotify.com/playlist/PLAYLIST_ID
	if strings.Contains(input, "open.spotify.com") && strings.Contains(input, "/playlist/") {
		parts := strings.Split(input, "/playlist/")
		if len(parts) >= 2 {
			id := strings.Split(parts[len(parts)-1], "?")[0]
			return strings.TrimRight(id, "/")
		}
	}

	// Assume it's already a playlist ID
	return input
}
