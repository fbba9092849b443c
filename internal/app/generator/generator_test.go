package generator

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/blindbox/internal/domain/quiz"
	"github.com/osa030/blindbox/internal/domain/track"
)

func makePool(n int) []track.Track {
	tracks := make([]track.Track, 0, n)
	for i := 0; i < n; i++ {
		tracks = append(tracks, track.Track{
			ID:      fmt.Sprintf("id-%d", i),
			Name:    fmt.Sprintf("Song %d", i),
			Artists: []string{fmt.Sprintf("Artist %d", i)},
		})
	}
	return tracks
}

func TestGenerate(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	pool := makePool(20)

	questions, err := Generate(rng, pool, 10, quiz.ModeAudio)
	require.NoError(t, err)
	assert.Len(t, questions, 10)

	for i, q := range questions {
		assert.Len(t, q.Options, quiz.OptionCount, "question %d", i)
		assert.GreaterOrEqual(t, q.CorrectIndex, 0, "question %d", i)
		assert.Less(t, q.CorrectIndex, quiz.OptionCount, "question %d", i)
		assert.Equal(t, q.Track.Name, q.Options[q.CorrectIndex], "question %d", i)

		// Options must be distinct and distractors must not repeat the answer.
		seen := map[string]bool{}
		for _, opt := range q.Options {
			assert.False(t, seen[opt], "question %d has duplicate option %q", i, opt)
			seen[opt] = true
		}
	}
}

func TestGenerate_ArtistMode(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	pool := makePool(8)

	questions, err := Generate(rng, pool, 5, quiz.ModeArtist)
	require.NoError(t, err)
	assert.Len(t, questions, 5)

	for i, q := range questions {
		assert.Equal(t, q.Track.ArtistLine(), q.Options[q.CorrectIndex], "question %d", i)
	}
}

func TestGenerate_CountCappedAtPoolSize(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	pool := makePool(6)

	questions, err := Generate(rng, pool, 10, quiz.ModeAudio)
	require.NoError(t, err)
	assert.Len(t, questions, 6)
}

func TestGenerate_InsufficientTracks(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	pool := makePool(3)

	_, err := Generate(rng, pool, 10, quiz.ModeAudio)
	require.Error(t, err)
	assert.True(t, errors.Is(err, quiz.ErrInsufficientTracks))
}

func TestGenerate_InvalidCount(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	pool := makePool(10)

	_, err := Generate(rng, pool, 0, quiz.ModeAudio)
	assert.Error(t, err)
}

func TestGenerate_SkipsCandidatesWithoutDistinctDistractors(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	// Four tracks but only two distinct artist lines: in artist mode no
	// candidate can find three distinct distractors.
	pool := []track.Track{
		{ID: "1", Name: "Song 1", Artists: []string{"Queen"}},
		{ID: "2", Name: "Song 2", Artists: []string{"Queen"}},
		{ID: "3", Name: "Song 3", Artists: []string{"ABBA"}},
		{ID: "4", Name: "Song 4", Artists: []string{"ABBA"}},
	}

	questions, err := Generate(rng, pool, 4, quiz.ModeArtist)
	require.NoError(t, err)
	assert.Empty(t, questions)
}

func TestGenerate_DistractorsDrawnFromWholePool(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	pool := makePool(4)

	questions, err := Generate(rng, pool, 4, quiz.ModeAudio)
	require.NoError(t, err)
	// With exactly four distinct tracks every candidate has exactly three
	// distractors, so all four questions are produced.
	assert.Len(t, questions, 4)
}

func TestResolveMode(t *testing.T) {
	hasPreview := func(t track.Track) bool { return t.PreviewURL != "" }

	tests := []struct {
		name          string
		playableCount int
		totalCount    int
		expectedMode  quiz.Mode
	}{
		{
			name:          "enough playable tracks",
			playableCount: 4,
			totalCount:    10,
			expectedMode:  quiz.ModeAudio,
		},
		{
			name:          "too few playable tracks falls back to artist",
			playableCount: 3,
			totalCount:    10,
			expectedMode:  quiz.ModeArtist,
		},
		{
			name:          "no playable tracks",
			playableCount: 0,
			totalCount:    5,
			expectedMode:  quiz.ModeArtist,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := makePool(tt.totalCount)
			for i := 0; i < tt.playableCount; i++ {
				pool[i].PreviewURL = fmt.Sprintf("https://p.scdn.co/%d", i)
			}

			assert.Equal(t, tt.expectedMode, ResolveMode(pool, hasPreview))
		})
	}
}
