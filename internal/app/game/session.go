package game

import (
	"github.com/osa030/blindbox/internal/domain/playlist"
	"github.com/osa030/blindbox/internal/domain/quiz"
)

// Session is the authoritative mutable state of one round of play.
// Owned exclusively by the Machine; Questions are immutable after generation
// and only the scalar fields below are mutated.
type Session struct {
	ID                string
	Playlist          playlist.Summary
	Mode              quiz.Mode
	Questions         []quiz.Question
	CurrentIndex      int
	Score             int
	LastAnswerCorrect *bool
}

// CurrentQuestion returns the live question, or nil past the end.
func (s *Session) CurrentQuestion() *quiz.Question {
	if s == nil || s.CurrentIndex >= len(s.Questions) {
		return nil
	}
	return &s.Questions[s.CurrentIndex]
}

// Summary returns the final result.
func (s *Session) Summary() quiz.Summary {
	return quiz.Summary{
		Score:          s.Score,
		TotalQuestions: len(s.Questions),
	}
}

// QuestionView is the read-only projection of the live question handed to
// presentation code. The correct index and track identity are revealed only
// once the question is answered.
type QuestionView struct {
	Number        int      `json:"number"` // 1-based
	Options       []string `json:"options"`
	PreviewURL    string   `json:"previewUrl,omitempty"`
	AlbumImageURL string   `json:"albumImageUrl,omitempty"`
	CorrectIndex  int      `json:"correctIndex"` // -1 until answered
	TrackName     string   `json:"trackName,omitempty"`
	ArtistLine    string   `json:"artistLine,omitempty"`
}

// Snapshot is a consistent read of the machine state.
type Snapshot struct {
	Phase             Phase              `json:"-"`
	PhaseName         string             `json:"phase"`
	Mode              string             `json:"mode"`
	Playlists         []playlist.Summary `json:"-"`
	SelectedPlaylist  *playlist.Summary  `json:"selectedPlaylist,omitempty"`
	CurrentIndex      int                `json:"currentIndex"`
	TotalQuestions    int                `json:"totalQuestions"`
	Score             int                `json:"score"`
	LastAnswerCorrect *bool              `json:"lastAnswerCorrect,omitempty"`
	Error             string             `json:"error,omitempty"`
	Question          *QuestionView      `json:"question,omitempty"`
}
