package spotify

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/zmb3/spotify/v2"

	"github.com/osa030/blindbox/internal/domain/quiz"
)

func TestExtractPlaylistID(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "spotify URI",
			input:    "spotify:playlist:37i9dQZF1DXcBWIGoYBM5M",
			expected: "37i9dQZF1DXcBWIGoYBM5M",
		},
		{
			name:     "open.spotify.com URL",
			input:    "https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M",
			expected: "37i9dQZF1DXcBWIGoYBM5M",
		},
		{
			name:     "URL with query parameters",
			input:    "https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M?si=abc123",
			expected: "37i9dQZF1DXcBWIGoYBM5M",
		},
		{
			name:     "URL with trailing slash",
			input:    "https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M/",
			expected: "37i9dQZF1DXcBWIGoYBM5M",
		},
		{
			name:     "plain playlist ID",
			input:    "37i9dQZF1DXcBWIGoYBM5M",
			expected: "37i9dQZF1DXcBWIGoYBM5M",
		},
		{
			name:     "surrounding whitespace",
			input:    "  37i9dQZF1DXcBWIGoYBM5M  ",
			expected: "37i9dQZF1DXcBWIGoYBM5M",
		},
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractPlaylistID(tt.input))
		})
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: false,
		},
		{
			name:     "rate limit error",
			err:      errors.New("API rate limit exceeded"),
			expected: true,
		},
		{
			name:     "429 error",
			err:      errors.New("HTTP 429 Too Many Requests"),
			expected: true,
		},
		{
			name:     "server error",
			err:      errors.New("HTTP 503 Service Unavailable"),
			expected: true,
		},
		{
			name:     "not found error",
			err:      errors.New("playlist not found"),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, isRetryable(tt.err))
		})
	}
}

func TestIsUnauthenticated(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "spotify 401",
			err:      spotify.Error{Status: 401, Message: "The access token expired"},
			expected: true,
		},
		{
			name:     "spotify 403",
			err:      spotify.Error{Status: 403, Message: "Forbidden"},
			expected: true,
		},
		{
			name:     "spotify 404",
			err:      spotify.Error{Status: 404, Message: "Not found"},
			expected: false,
		},
		{
			name:     "wrapped token refresh failure",
			err:      errors.New(`oauth2: "invalid_grant" "Refresh token revoked"`),
			expected: true,
		},
		{
			name:     "unrelated error",
			err:      errors.New("connection refused"),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, isUnauthenticated(tt.err))
		})
	}
}

func TestWrapFetchErr(t *testing.T) {
	authErr := wrapFetchErr(spotify.Error{Status: 401, Message: "expired"}, "failed to get playlists")
	assert.True(t, errors.Is(authErr, quiz.ErrUnauthenticated))
	assert.False(t, errors.Is(authErr, quiz.ErrProviderFetch))

	fetchErr := wrapFetchErr(errors.New("connection reset"), "failed to get playlists")
	assert.True(t, errors.Is(fetchErr, quiz.ErrProviderFetch))
	assert.False(t, errors.Is(fetchErr, quiz.ErrUnauthenticated))
}

func TestRetry(t *testing.T) {
	c := &Client{maxRetries: 3, retryDelay: time.Millisecond}

	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		err := c.retry(func() error {
			calls++
			if calls < 3 {
				return errors.New("HTTP 503 Service Unavailable")
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		calls := 0
		err := c.retry(func() error {
			calls++
			return errors.New("HTTP 429 Too Many Requests")
		})
		assert.Error(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("does not retry permanent failures", func(t *testing.T) {
		calls := 0
		err := c.retry(func() error {
			calls++
			return errors.New("playlist not found")
		})
		assert.Error(t, err)
		assert.Equal(t, 1, calls)
	})
}

func TestConvertTrack(t *testing.T) {
	full := &spotify.FullTrack{
		SimpleTrack: spotify.SimpleTrack{
			ID:   "4uLU6hMCjMI75M1A2tKUQC",
			Name: "Never Gonna Give You Up",
			Artists: []spotify.SimpleArtist{
				{Name: "Rick Astley"},
			},
			Duration:   213573,
			PreviewURL: "https://p.scdn.co/mp3-preview/abc",
		},
		Album: spotify.SimpleAlbum{
			Name: "Whenever You Need Somebody",
			Images: []spotify.Image{
				{URL: "https://i.scdn.co/image/large"},
				{URL: "https://i.scdn.co/image/small"},
			},
		},
	}

	tr := convertTrack(full)

	assert.Equal(t, "4uLU6hMCjMI75M1A2tKUQC", tr.ID)
	assert.Equal(t, "Never Gonna Give You Up", tr.Name)
	assert.Equal(t, []string{"Rick Astley"}, tr.Artists)
	assert.Equal(t, "Whenever You Need Somebody", tr.Album)
	assert.Equal(t, "https://i.scdn.co/image/large", tr.AlbumImageURL)
	assert.Equal(t, "https://p.scdn.co/mp3-preview/abc", tr.PreviewURL)
	assert.Equal(t, 213573*time.Millisecond, tr.Duration)
	assert.Equal(t, "https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC", tr.URL)
	assert.True(t, tr.HasPreview())
}

func TestNew_RequiresCredentials(t *testing.T) {
	_, err := New(context.Background(), Config{ClientID: "id", ClientSecret: "secret"})
	assert.Error(t, err)

	_, err = New(context.Background(), Config{
		ClientID:     "id",
		ClientSecret: "secret",
		RefreshToken: "token",
	})
	assert.NoError(t, err)
}
