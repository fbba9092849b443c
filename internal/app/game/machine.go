package game

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/blindbox/internal/app/generator"
	"github.com/osa030/blindbox/internal/app/playback"
	"github.com/osa030/blindbox/internal/app/pool"
	"github.com/osa030/blindbox/internal/domain/playlist"
	"github.com/osa030/blindbox/internal/domain/quiz"
	"github.com/osa030/blindbox/internal/domain/track"
)

// Provider lists playlists and resolves their tracks.
// Implementations must mark authentication failures with
// quiz.ErrUnauthenticated and other failures with quiz.ErrProviderFetch.
type Provider interface {
	FetchPlaylists(ctx context.Context) ([]playlist.Summary, error)
	FetchPlaylistTracks(ctx context.Context, playlistID string) ([]track.Track, error)
}

// Errors
var (
	ErrNoLiveQuestion  = errors.New("no question is live")
	ErrNotAnswered     = errors.New("current question is not answered yet")
	ErrInvalidOption   = errors.New("option index out of range")
	ErrWrongPhase      = errors.New("operation not allowed in current phase")
	ErrSessionFinished = errors.New("session is finished")
)

// User-facing messages surfaced next to the phase on recoverable errors.
const (
	msgPlaylistsFailed     = "Could not load your playlists. Please try again."
	msgTracksFailed        = "Could not load the playlist tracks. Please try again."
	msgSessionExpired      = "Your session has expired. Please log in again."
	msgTooFewTracks        = "This playlist does not have enough distinct tracks (minimum 4 required)."
	msgPlaybackUnavailable = "Playback is unavailable right now. Check your Spotify device and try again."
)

// Machine is the authoritative game state machine. It owns the Session and
// the playback coordinator; all transitions go through its methods.
type Machine struct {
	mu sync.Mutex

	provider    Provider
	coordinator *playback.Coordinator
	rng         *rand.Rand

	questionCount int

	phase     Phase
	playlists []playlist.Summary
	session   *Session
	errMsg    string

	// fetching guards provider calls so mutating operations never interleave
	// with an in-flight fetch; opSeq identifies the active operation so a
	// completion superseded by a restart does not commit.
	fetching bool
	opSeq    uint64

	events    chan Event
	closed    bool
	closeOnce sync.Once
}

// NewMachine creates a machine around one provider and one playback backend.
// budget is the listen window per question; questionCount caps the questions
// per session. rng may be nil, in which case a time-seeded source is used.
func NewMachine(provider Provider, backend playback.Backend, budget time.Duration, questionCount int, rng *rand.Rand) *Machine {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	m := &Machine{
		provider:      provider,
		rng:           rng,
		questionCount: questionCount,
		phase:         PhaseLoading,
		events:        make(chan Event, 16),
	}
	m.coordinator = playback.NewCoordinator(backend, budget, m.handleTimeout)
	return m
}

// Events returns the event channel. Events carry a snapshot of the state
// observed right after the transition.
func (m *Machine) Events() <-chan Event {
	return m.events
}

// Close stops any playback and closes the event channel.
func (m *Machine) Close() {
	m.closeOnce.Do(func() {
		m.coordinator.Stop(context.Background())
		m.mu.Lock()
		m.closed = true
		m.mu.Unlock()
		close(m.events)
	})
}

// LoadPlaylists fetches the player's playlists and moves to Selecting.
// On failure the machine still lands in Selecting with a user-facing message
// so the player can retry. Rejected while another fetch is in flight.
func (m *Machine) LoadPlaylists(ctx context.Context) error {
	m.mu.Lock()
	if m.fetching {
		m.mu.Unlock()
		return errors.Wrap(ErrWrongPhase, "another fetch is in flight")
	}
	if m.phase != PhaseLoading && m.phase != PhaseSelecting {
		m.mu.Unlock()
		return errors.Wrapf(ErrWrongPhase, "load playlists in phase %s", m.phase)
	}
	m.fetching = true
	m.opSeq++
	seq := m.opSeq
	m.phase = PhaseLoading
	m.errMsg = ""
	m.mu.Unlock()

	lists, err := m.provider.FetchPlaylists(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.fetching = false
	if seq != m.opSeq {
		// Superseded by a restart while the fetch was in flight.
		return nil
	}

	m.phase = PhaseSelecting
	if err != nil {
		if errors.Is(err, quiz.ErrUnauthenticated) {
			m.errMsg = msgSessionExpired
		} else {
			m.errMsg = msgPlaylistsFailed
		}
		m.emitLocked(EventPhaseChanged)
		return err
	}

	m.playlists = lists
	m.emitLocked(EventPhaseChanged)
	return nil
}

// SelectPlaylist fetches the playlist tracks, builds the question list and
// starts question 0. Called while a fetch is already in flight it is a no-op;
// outside Selecting it is rejected.
func (m *Machine) SelectPlaylist(ctx context.Context, playlistID string) error {
	m.mu.Lock()
	if m.fetching || m.phase == PhaseLoading {
		// A fetch is in flight; concurrent selections are ignored, not queued.
		m.mu.Unlock()
		return nil
	}
	if m.phase != PhaseSelecting {
		m.mu.Unlock()
		return errors.Wrapf(ErrWrongPhase, "select playlist in phase %s", m.phase)
	}
	summary := m.playlistSummaryLocked(playlistID)
	m.fetching = true
	m.opSeq++
	seq := m.opSeq
	m.phase = PhaseLoading
	m.errMsg = ""
	m.mu.Unlock()

	tracks, err := m.provider.FetchPlaylistTracks(ctx, playlistID)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.fetching = false
	if seq != m.opSeq {
		// Superseded by a restart; drop the result without committing.
		return nil
	}

	if err != nil {
		m.phase = PhaseSelecting
		if errors.Is(err, quiz.ErrUnauthenticated) {
			m.errMsg = msgSessionExpired
		} else {
			m.errMsg = msgTracksFailed
		}
		m.emitLocked(EventPhaseChanged)
		return err
	}

	questions, mode, err := m.buildQuestionsLocked(tracks)
	if err != nil {
		m.phase = PhaseSelecting
		m.errMsg = msgTooFewTracks
		m.emitLocked(EventPhaseChanged)
		return err
	}

	session := &Session{
		ID:        uuid.New().String(),
		Playlist:  summary,
		Mode:      mode,
		Questions: questions,
	}

	if mode == quiz.ModeAudio {
		if err := m.coordinator.StartQuestion(ctx, 0, questions[0].Track); err != nil {
			m.phase = PhaseSelecting
			m.errMsg = msgPlaybackUnavailable
			m.emitLocked(EventPhaseChanged)
			return err
		}
	}

	m.session = session
	m.phase = PhasePlaying
	zlog.Info().Msgf("game: session started: playlist=%s mode=%s questions=%d window=%v",
		summary.Name, mode, len(questions), m.coordinator.Budget())
	m.emitLocked(EventQuestionStarted)
	return nil
}

// buildQuestionsLocked resolves the mode, builds the deduplicated pool and
// generates the question list. Must be called with the lock held.
func (m *Machine) buildQuestionsLocked(tracks []track.Track) ([]quiz.Question, quiz.Mode, error) {
	if len(tracks) < pool.MinSize {
		return nil, 0, errors.Wrapf(quiz.ErrInsufficientTracks,
			"playlist has %d tracks", len(tracks))
	}

	canPlay := m.coordinator.Backend().CanPlay
	mode := generator.ResolveMode(tracks, canPlay)

	rules := []pool.Rule{pool.NewDedupeRule(mode)}
	if mode == quiz.ModeAudio {
		rules = append(rules, pool.NewPlayableRule(canPlay))
	}
	pooled := pool.Build(tracks, rules...)

	questions, err := generator.Generate(m.rng, pooled, m.questionCount, mode)
	if err != nil {
		return nil, 0, err
	}
	if len(questions) == 0 {
		return nil, 0, errors.Wrap(quiz.ErrInsufficientTracks,
			"no question has enough distinct distractors")
	}
	return questions, mode, nil
}

// SubmitAnswer scores the given option against the live question, stops
// playback and moves to Answered. The score update is applied before the
// phase transition becomes observable. Outside Playing the call is rejected
// and nothing changes.
func (m *Machine) SubmitAnswer(ctx context.Context, optionIndex int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phase != PhasePlaying || m.session == nil {
		return false, errors.Wrapf(ErrNoLiveQuestion, "phase %s", m.phase)
	}
	q := m.session.CurrentQuestion()
	if q == nil {
		return false, errors.Wrap(ErrNoLiveQuestion, "index past last question")
	}
	if optionIndex < 0 || optionIndex >= len(q.Options) {
		return false, errors.Wrapf(ErrInvalidOption, "index %d", optionIndex)
	}

	m.coordinator.Stop(ctx)

	correct := optionIndex == q.CorrectIndex
	if correct {
		m.session.Score++
	}
	m.session.LastAnswerCorrect = &correct
	m.phase = PhaseAnswered
	m.emitLocked(EventAnswerRecorded)
	return correct, nil
}

// handleTimeout is the coordinator's timeout callback. A timeout counts as
// no answer: no credit is awarded. Stale callbacks (answer raced the timer)
// are ignored by re-validating phase and question index.
func (m *Machine) handleTimeout(questionIndex int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phase != PhasePlaying || m.session == nil || m.session.CurrentIndex != questionIndex {
		return
	}

	incorrect := false
	m.session.LastAnswerCorrect = &incorrect
	m.phase = PhaseAnswered
	zlog.Debug().Msgf("game: question %d timed out", questionIndex)
	m.emitLocked(EventQuestionTimedOut)
}

// NextQuestion advances past an answered question: starts the next one, or
// finishes the session after the last. A question whose playback cannot
// start is skipped without credit rather than aborting the whole session.
func (m *Machine) NextQuestion(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phase != PhaseAnswered || m.session == nil {
		return errors.Wrapf(ErrNotAnswered, "phase %s", m.phase)
	}

	s := m.session
	for s.CurrentIndex++; s.CurrentIndex < len(s.Questions); s.CurrentIndex++ {
		s.LastAnswerCorrect = nil
		if s.Mode == quiz.ModeArtist {
			m.phase = PhasePlaying
			m.emitLocked(EventQuestionStarted)
			return nil
		}
		q := s.CurrentQuestion()
		if err := m.coordinator.StartQuestion(ctx, s.CurrentIndex, q.Track); err != nil {
			zlog.Warn().Msgf("game: skipping question %d, playback failed: %v", s.CurrentIndex, err)
			continue
		}
		m.phase = PhasePlaying
		m.emitLocked(EventQuestionStarted)
		return nil
	}

	m.coordinator.Stop(ctx)
	m.phase = PhaseFinished
	summary := s.Summary()
	zlog.Info().Msgf("game: session finished: score=%d/%d", summary.Score, summary.TotalQuestions)
	m.emitLocked(EventGameFinished)
	return nil
}

// Restart discards the session and returns to Selecting, keeping the loaded
// playlists. Any pending timer is cancelled, playback stopped, and an
// in-flight fetch superseded so its result is dropped.
func (m *Machine) Restart(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.coordinator.Stop(ctx)
	m.opSeq++ // supersede any in-flight fetch
	m.session = nil
	m.errMsg = ""
	m.phase = PhaseSelecting
	m.emitLocked(EventPhaseChanged)
}

// Quit is Restart under another name: leaving mid-game also tears the
// session down.
func (m *Machine) Quit(ctx context.Context) {
	m.Restart(ctx)
}

// Snapshot returns a consistent read of the machine state.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// playlistSummaryLocked resolves a loaded playlist summary by ID.
// Must be called with the lock held.
func (m *Machine) playlistSummaryLocked(playlistID string) playlist.Summary {
	for _, p := range m.playlists {
		if p.ID == playlistID {
			return p
		}
	}
	return playlist.Summary{ID: playlistID}
}

// snapshotLocked builds a Snapshot. Must be called with the lock held.
func (m *Machine) snapshotLocked() Snapshot {
	snap := Snapshot{
		Phase:     m.phase,
		PhaseName: m.phase.String(),
		Playlists: m.playlists,
		Error:     m.errMsg,
	}

	s := m.session
	if s == nil {
		return snap
	}

	pl := s.Playlist
	snap.SelectedPlaylist = &pl
	snap.Mode = s.Mode.String()
	snap.CurrentIndex = s.CurrentIndex
	snap.TotalQuestions = len(s.Questions)
	snap.Score = s.Score
	snap.LastAnswerCorrect = s.LastAnswerCorrect

	if q := s.CurrentQuestion(); q != nil {
		view := &QuestionView{
			Number:       s.CurrentIndex + 1,
			Options:      q.Options,
			CorrectIndex: -1,
		}
		if s.Mode == quiz.ModeAudio {
			view.PreviewURL = q.Track.PreviewURL
		}
		// Reveal the answer and the track only once the question is closed.
		if m.phase == PhaseAnswered {
			view.CorrectIndex = q.CorrectIndex
			view.TrackName = q.Track.Name
			view.ArtistLine = q.Track.ArtistLine()
			view.AlbumImageURL = q.Track.AlbumImageURL
		}
		snap.Question = view
	}

	return snap
}

// emitLocked sends an event without blocking. Must be called with the lock
// held so the snapshot matches the transition that caused the event.
func (m *Machine) emitLocked(t EventType) {
	if m.closed {
		return
	}
	e := Event{Type: t, Snapshot: m.snapshotLocked()}
	select {
	case m.events <- e:
	default:
		// Channel full, drop the event; snapshots are always re-readable.
	}
}
