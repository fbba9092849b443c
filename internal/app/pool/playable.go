package pool

import "github.com/osa030/blindbox/internal/domain/track"

// PlayableRule keeps only tracks the active playback backend can start.
// For the preview backend that means a non-empty preview URL; the Connect
// device backend can play any track.
type PlayableRule struct {
	canPlay func(t track.Track) bool
}

// NewPlayableRule creates a playable rule from a backend capability check.
func NewPlayableRule(canPlay func(t track.Track) bool) *PlayableRule {
	return &PlayableRule{canPlay: canPlay}
}

// Name returns the rule name.
func (r *PlayableRule) Name() string {
	return "playable"
}

// Keep reports whether the backend can start the track.
func (r *PlayableRule) Keep(t track.Track, _ []track.Track) bool {
	return r.canPlay(t)
}
