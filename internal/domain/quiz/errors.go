package quiz

import "github.com/cockroachdb/errors"

// Errors
var (
	// ErrInsufficientTracks indicates the selected playlist has fewer than
	// OptionCount usable tracks. Recoverable: the player picks another playlist.
	ErrInsufficientTracks = errors.New("not enough usable tracks to build questions")

	// ErrPlaybackUnavailable indicates the playback backend could not start.
	// Recoverable by retry or by falling back to artist mode.
	ErrPlaybackUnavailable = errors.New("playback backend unavailable")

	// ErrProviderFetch indicates a transient provider failure (network, 5xx).
	ErrProviderFetch = errors.New("provider fetch failed")

	// ErrUnauthenticated indicates the provider rejected our credentials.
	// Not recoverable locally; the auth layer must re-establish a session.
	ErrUnauthenticated = errors.New("provider authentication required")
)
