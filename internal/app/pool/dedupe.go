package pool

import (
	"regexp"
	"strings"

	"github.com/osa030/blindbox/internal/domain/quiz"
	"github.com/osa030/blindbox/internal/domain/track"
)

// DedupeRule drops tracks whose display text under the session mode collides
// with a track already in the pool. Two distinct songs may legally share a
// name, but a question can never offer the same option string twice, so such
// tracks are excluded up front. Remasters and alternate versions of the same
// song are treated as collisions too.
type DedupeRule struct {
	mode quiz.Mode
}

// NewDedupeRule creates a dedupe rule for the given mode.
func NewDedupeRule(mode quiz.Mode) *DedupeRule {
	return &DedupeRule{mode: mode}
}

// Name returns the rule name.
func (r *DedupeRule) Name() string {
	return "dedupe"
}

// Keep reports whether the track's display text is unique in the pool so far.
func (r *DedupeRule) Keep(t track.Track, kept []track.Track) bool {
	text := normalizeDisplayText(r.mode.DisplayText(&t))
	for i := range kept {
		if t.ID == kept[i].ID {
			return false
		}
		if normalizeDisplayText(r.mode.DisplayText(&kept[i])) == text {
			return false
		}
	}
	return true
}

var (
	remasterPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\s*-?\s*\d{4}\s+remaster(ed)?`),      // "- 2011 Remaster"
		regexp.MustCompile(`\s*\(remaster(ed)?\s*\d{0,4}\)`),     // "(Remastered 2023)"
		regexp.MustCompile(`\s*\[remaster(ed)?\s*\d{0,4}\]`),     // "[Remastered]"
		regexp.MustCompile(`\s*-?\s*remaster(ed)?(\s+version)?`), // "- Remastered"
		regexp.MustCompile(`\s*\(.*?remaster.*?\)`),
		regexp.MustCompile(`\s*\[.*?remaster.*?\]`),
	}
	versionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\s*\(.*?version\)`),        // "(Single Version)"
		regexp.MustCompile(`\s*\(.*?edit\)`),           // "(Radio Edit)"
		regexp.MustCompile(`\s*-\s*live\b`),            // "- Live"
		regexp.MustCompile(`\s*\(live\)`),              // "(Live)"
		regexp.MustCompile(`\s*-?\s*radio\s+edit`),     // "- Radio Edit"
		regexp.MustCompile(`\s*-?\s*single\s+version`), // "- Single Version"
	}
	spaceRun = regexp.MustCompile(`\s+`)
)

// normalizeDisplayText lowercases the text and strips remaster and version
// decorations so alternate releases of the same song compare equal.
func normalizeDisplayText(s string) string {
	normalized := strings.ToLower(s)

	for _, p := range remasterPatterns {
		normalized = p.ReplaceAllString(normalized, "")
	}
	for _, p := range versionPatterns {
		normalized = p.ReplaceAllString(normalized, "")
	}

	normalized = strings.TrimSpace(normalized)
	normalized = spaceRun.ReplaceAllString(normalized, " ")
	return strings.TrimRight(normalized, " -")
}
