// Package pool builds the deduplicated track pool a quiz session draws from.
package pool

import (
	"github.com/osa030/blindbox/internal/domain/quiz"
	"github.com/osa030/blindbox/internal/domain/track"
)

// MinSize is the smallest pool that can produce a four-option question.
const MinSize = quiz.OptionCount

// Rule decides whether a track is eligible for the pool.
type Rule interface {
	// Name returns the rule name (used in logs).
	Name() string
	// Keep reports whether the track should stay in the pool.
	// kept holds the tracks accepted so far, in order.
	Keep(t track.Track, kept []track.Track) bool
}

// Build applies the rules in sequence and returns the eligible tracks,
// preserving the input order. The result is a fresh slice; the input is
// never mutated.
func Build(tracks []track.Track, rules ...Rule) []track.Track {
	kept := make([]track.Track, 0, len(tracks))
next:
	for _, t := range tracks {
		for _, r := range rules {
			if !r.Keep(t, kept) {
				continue next
			}
		}
		kept = append(kept, t)
	}
	return kept
}
