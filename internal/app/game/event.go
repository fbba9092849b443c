package game

// EventType represents a game event type.
type EventType int

const (
	EventPhaseChanged     EventType = iota // Phase transition (load, select, restart)
	EventQuestionStarted                   // A question went live
	EventAnswerRecorded                    // An answer was scored
	EventQuestionTimedOut                  // The listen window elapsed with no answer
	EventGameFinished                      // The session produced its summary
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventPhaseChanged:
		return "phase_changed"
	case EventQuestionStarted:
		return "question_started"
	case EventAnswerRecorded:
		return "answer_recorded"
	case EventQuestionTimedOut:
		return "question_timed_out"
	case EventGameFinished:
		return "game_finished"
	default:
		return "unknown"
	}
}

// Event represents a game event together with the state observed after it.
type Event struct {
	Type     EventType
	Snapshot Snapshot
}
