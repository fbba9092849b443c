package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/osa030/blindbox/internal/domain/quiz"
	"github.com/osa030/blindbox/internal/domain/track"
)

func makeTrack(id, name, artist string) track.Track {
	return track.Track{ID: id, Name: name, Artists: []string{artist}}
}

func TestBuild(t *testing.T) {
	tracks := []track.Track{
		makeTrack("1", "Song A", "Artist 1"),
		makeTrack("2", "Song B", "Artist 2"),
		makeTrack("1", "Song A", "Artist 1"), // duplicate ID
		makeTrack("3", "Song A", "Artist 3"), // duplicate name
		makeTrack("4", "Song C", "Artist 4"),
	}

	result := Build(tracks, NewDedupeRule(quiz.ModeAudio))

	assert.Len(t, result, 3)
	assert.Equal(t, "1", result[0].ID)
	assert.Equal(t, "2", result[1].ID)
	assert.Equal(t, "4", result[2].ID)
}

func TestBuild_NoRules(t *testing.T) {
	tracks := []track.Track{
		makeTrack("1", "Song A", "Artist 1"),
		makeTrack("1", "Song A", "Artist 1"),
	}

	result := Build(tracks)

	// Without rules everything passes, duplicates included.
	assert.Len(t, result, 2)
}

func TestBuild_PlayableRule(t *testing.T) {
	tracks := []track.Track{
		{ID: "1", Name: "Song A", PreviewURL: "https://p.scdn.co/a"},
		{ID: "2", Name: "Song B"},
		{ID: "3", Name: "Song C", PreviewURL: "https://p.scdn.co/c"},
	}

	result := Build(tracks, NewPlayableRule(func(t track.Track) bool {
		return t.HasPreview()
	}))

	assert.Len(t, result, 2)
	assert.Equal(t, "1", result[0].ID)
	assert.Equal(t, "3", result[1].ID)
}

func TestDedupeRule_ArtistMode(t *testing.T) {
	tracks := []track.Track{
		makeTrack("1", "Song A", "Queen"),
		makeTrack("2", "Song B", "Queen"), // same artist, collides in artist mode
		makeTrack("3", "Song C", "ABBA"),
	}

	result := Build(tracks, NewDedupeRule(quiz.ModeArtist))

	assert.Len(t, result, 2)
	assert.Equal(t, "1", result[0].ID)
	assert.Equal(t, "3", result[1].ID)
}

func TestNormalizeDisplayText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "no decoration",
			input:    "Bohemian Rhapsody",
			expected: "bohemian rhapsody",
		},
		{
			name:     "year remaster suffix",
			input:    "Bohemian Rhapsody - 2011 Remaster",
			expected: "bohemian rhapsody",
		},
		{
			name:     "remastered parenthetical",
			input:    "Hotel California (Remastered 2013)",
			expected: "hotel california",
		},
		{
			name:     "remastered brackets",
			input:    "Hotel California [Remastered]",
			expected: "hotel california",
		},
		{
			name:     "plain remastered suffix",
			input:    "Let It Be - Remastered",
			expected: "let it be",
		},
		{
			name:     "single version",
			input:    "Heroes - Single Version",
			expected: "heroes",
		},
		{
			name:     "radio edit parenthetical",
			input:    "Blue Monday (Radio Edit)",
			expected: "blue monday",
		},
		{
			name:     "live suffix",
			input:    "Comfortably Numb - Live",
			expected: "comfortably numb",
		},
		{
			name:     "whitespace collapsed",
			input:    "Song   With    Spaces",
			expected: "song with spaces",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, normalizeDisplayText(tt.input))
		})
	}
}

func TestDedupeRule_RemasterCollision(t *testing.T) {
	tracks := []track.Track{
		makeTrack("1", "Bohemian Rhapsody", "Queen"),
		makeTrack("2", "Bohemian Rhapsody - 2011 Remaster", "Queen"),
	}

	result := Build(tracks, NewDedupeRule(quiz.ModeAudio))

	assert.Len(t, result, 1)
	assert.Equal(t, "1", result[0].ID)
}
