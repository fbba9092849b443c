// Package game provides the blind-test game state machine.
package game

// Phase represents the game lifecycle phase.
type Phase int

const (
	PhaseLoading   Phase = iota // Fetching playlists or tracks
	PhaseSelecting              // Waiting for a playlist choice
	PhasePlaying                // A question is live
	PhaseAnswered               // Answer recorded, waiting for next question
	PhaseFinished               // All questions played
)

// String returns the string representation of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseSelecting:
		return "selecting"
	case PhasePlaying:
		return "playing"
	case PhaseAnswered:
		return "answered"
	case PhaseFinished:
		return "finished"
	default:
		return "unknown"
	}
}
