// Package quiz provides the quiz domain entities.
package quiz

import "github.com/osa030/blindbox/internal/domain/track"

// OptionCount is the number of answer options per question.
const OptionCount = 4

// Mode represents what the player is asked to guess.
type Mode int

const (
	ModeAudio  Mode = iota // Guess the track name from the played excerpt
	ModeArtist             // Guess the artist; fallback when previews are scarce
)

// String returns the string representation of the mode.
func (m Mode) String() string {
	switch m {
	case ModeAudio:
		return "audio"
	case ModeArtist:
		return "artist"
	default:
		return "unknown"
	}
}

// DisplayText returns the answer text for a track under the given mode.
func (m Mode) DisplayText(t *track.Track) string {
	if m == ModeArtist {
		return t.ArtistLine()
	}
	return t.Name
}

// Question is a single multiple-choice question.
// Options holds exactly OptionCount distinct strings and
// Options[CorrectIndex] is the display text of Track under the session mode.
type Question struct {
	Track        track.Track
	Options      []string
	CorrectIndex int
}

// Summary is the final result of a finished session.
type Summary struct {
	Score          int
	TotalQuestions int
}
