package playback

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/osa030/blindbox/internal/domain/track"
)

// PreviewBackend is the direct-preview playback variant. The audio itself is
// rendered by the web client from the track's preview URL, so Start only
// validates the preview reference and Stop is a no-op; the coordinator's
// timer is the authoritative clock either way.
type PreviewBackend struct{}

// NewPreviewBackend creates a preview backend.
func NewPreviewBackend() *PreviewBackend {
	return &PreviewBackend{}
}

// Name returns the backend name.
func (b *PreviewBackend) Name() string {
	return "preview"
}

// CanPlay reports whether the track carries a preview reference.
func (b *PreviewBackend) CanPlay(t track.Track) bool {
	return t.HasPreview()
}

// Start validates that the track has a preview to play.
func (b *PreviewBackend) Start(_ context.Context, t track.Track) error {
	if !t.HasPreview() {
		return errors.Newf("track %s has no preview URL", t.ID)
	}
	return nil
}

// Stop is a no-op; the client stops its own audio element.
func (b *PreviewBackend) Stop(_ context.Context) error {
	return nil
}
