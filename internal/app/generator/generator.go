// Package generator turns a track pool into an ordered list of questions.
package generator

import (
	"math/rand"

	"github.com/cockroachdb/errors"

	"github.com/osa030/blindbox/internal/domain/quiz"
	"github.com/osa030/blindbox/internal/domain/track"
)

// Generate builds up to count questions from the given pool.
//
// The pool is shuffled uniformly; the first count tracks become the correct
// answers, in that order. For each question the remaining tracks are shuffled
// again and the first three whose display text differs from the correct
// track's (and from each other) become the distractors. A candidate with
// fewer than three distinct distractors is skipped rather than emitted with
// short options.
//
// The caller must have filtered tracks to those usable under mode.
// Fails with quiz.ErrInsufficientTracks when the pool is smaller than
// quiz.OptionCount.
func Generate(rng *rand.Rand, tracks []track.Track, count int, mode quiz.Mode) ([]quiz.Question, error) {
	if len(tracks) < quiz.OptionCount {
		return nil, errors.Wrapf(quiz.ErrInsufficientTracks,
			"pool has %d tracks, need %d", len(tracks), quiz.OptionCount)
	}
	if count <= 0 {
		return nil, errors.New("question count must be positive")
	}

	shuffled := make([]track.Track, len(tracks))
	copy(shuffled, tracks)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	questionsCount := count
	if questionsCount > len(shuffled) {
		questionsCount = len(shuffled)
	}

	questions := make([]quiz.Question, 0, questionsCount)
	for i := 0; i < questionsCount; i++ {
		correct := shuffled[i]

		distractors, ok := pickDistractors(rng, shuffled, correct, mode)
		if !ok {
			continue
		}

		options := append([]string{mode.DisplayText(&correct)}, distractors...)
		rng.Shuffle(len(options), func(i, j int) {
			options[i], options[j] = options[j], options[i]
		})

		correctIndex := 0
		correctText := mode.DisplayText(&correct)
		for idx, opt := range options {
			if opt == correctText {
				correctIndex = idx
				break
			}
		}

		questions = append(questions, quiz.Question{
			Track:        correct,
			Options:      options,
			CorrectIndex: correctIndex,
		})
	}

	return questions, nil
}

// pickDistractors selects three distinct wrong-answer texts for correct.
// Returns false when the pool cannot supply three.
func pickDistractors(rng *rand.Rand, tracks []track.Track, correct track.Track, mode quiz.Mode) ([]string, bool) {
	candidates := make([]track.Track, 0, len(tracks)-1)
	for _, t := range tracks {
		if t.ID != correct.ID {
			candidates = append(candidates, t)
		}
	}
	rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	correctText := mode.DisplayText(&correct)
	seen := map[string]bool{correctText: true}
	distractors := make([]string, 0, quiz.OptionCount-1)
	for _, t := range candidates {
		text := mode.DisplayText(&t)
		if seen[text] {
			continue
		}
		seen[text] = true
		distractors = append(distractors, text)
		if len(distractors) == quiz.OptionCount-1 {
			return distractors, true
		}
	}
	return nil, false
}

// ResolveMode decides the session mode for a pool: audio when at least
// quiz.OptionCount tracks are playable by the backend, otherwise the artist
// fallback over the full pool. Preview availability is provider-dependent and
// must not block the game from starting.
func ResolveMode(tracks []track.Track, canPlay func(t track.Track) bool) quiz.Mode {
	playable := 0
	for _, t := range tracks {
		if canPlay(t) {
			playable++
		}
	}
	if playable >= quiz.OptionCount {
		return quiz.ModeAudio
	}
	return quiz.ModeArtist
}
