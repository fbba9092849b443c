package playback

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/blindbox/internal/domain/quiz"
	"github.com/osa030/blindbox/internal/domain/track"
)

// fakeBackend records Start/Stop calls and can be told to fail Start.
type fakeBackend struct {
	mu         sync.Mutex
	startCount int
	stopCount  int
	startErr   error
}

func (b *fakeBackend) Name() string { return "fake" }

func (b *fakeBackend) CanPlay(_ track.Track) bool { return true }

func (b *fakeBackend) Start(_ context.Context, _ track.Track) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.startErr != nil {
		return b.startErr
	}
	b.startCount++
	return nil
}

func (b *fakeBackend) Stop(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopCount++
	return nil
}

func (b *fakeBackend) counts() (int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.startCount, b.stopCount
}

// timeoutRecorder collects onTimeout invocations.
type timeoutRecorder struct {
	mu      sync.Mutex
	indexes []int
}

func (r *timeoutRecorder) record(questionIndex int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.indexes = append(r.indexes, questionIndex)
}

func (r *timeoutRecorder) fired() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.indexes...)
}

func TestCoordinator_TimeoutFiresOnce(t *testing.T) {
	backend := &fakeBackend{}
	recorder := &timeoutRecorder{}
	c := NewCoordinator(backend, 150*time.Millisecond, recorder.record)

	err := c.StartQuestion(context.Background(), 0, track.Track{ID: "t1", Name: "Song"})
	require.NoError(t, err)

	// Well past the budget plus the ticker granularity.
	time.Sleep(600 * time.Millisecond)

	assert.Equal(t, []int{0}, recorder.fired())
	starts, stops := backend.counts()
	assert.Equal(t, 1, starts)
	assert.Equal(t, 1, stops)
}

func TestCoordinator_StopCancelsTimeout(t *testing.T) {
	backend := &fakeBackend{}
	recorder := &timeoutRecorder{}
	c := NewCoordinator(backend, 150*time.Millisecond, recorder.record)

	err := c.StartQuestion(context.Background(), 0, track.Track{ID: "t1", Name: "Song"})
	require.NoError(t, err)

	c.Stop(context.Background())
	time.Sleep(600 * time.Millisecond)

	assert.Empty(t, recorder.fired())
	_, stops := backend.counts()
	assert.Equal(t, 1, stops)
}

func TestCoordinator_StartReplacesActiveQuestion(t *testing.T) {
	backend := &fakeBackend{}
	recorder := &timeoutRecorder{}
	c := NewCoordinator(backend, 150*time.Millisecond, recorder.record)

	require.NoError(t, c.StartQuestion(context.Background(), 0, track.Track{ID: "t1"}))
	require.NoError(t, c.StartQuestion(context.Background(), 1, track.Track{ID: "t2"}))

	time.Sleep(600 * time.Millisecond)

	// Only the second question's timer may fire; the first was replaced.
	assert.Equal(t, []int{1}, recorder.fired())
	starts, _ := backend.counts()
	assert.Equal(t, 2, starts)
}

func TestCoordinator_StartFailure(t *testing.T) {
	backend := &fakeBackend{startErr: errors.New("device gone")}
	recorder := &timeoutRecorder{}
	c := NewCoordinator(backend, 150*time.Millisecond, recorder.record)

	err := c.StartQuestion(context.Background(), 0, track.Track{ID: "t1"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, quiz.ErrPlaybackUnavailable))

	// No timer was armed.
	time.Sleep(400 * time.Millisecond)
	assert.Empty(t, recorder.fired())
}

func TestCoordinator_StopIdempotent(t *testing.T) {
	backend := &fakeBackend{}
	c := NewCoordinator(backend, time.Minute, nil)

	require.NoError(t, c.StartQuestion(context.Background(), 0, track.Track{ID: "t1"}))

	c.Stop(context.Background())
	c.Stop(context.Background())
	c.Stop(context.Background())

	_, stops := backend.counts()
	assert.Equal(t, 1, stops)
}

// sequencedBackend records the order of start/stop calls; stops can be
// delayed and signalled to expose ordering races.
type sequencedBackend struct {
	mu          sync.Mutex
	ops         []string
	stopDelay   time.Duration
	stopStarted chan struct{}
}

func (b *sequencedBackend) Name() string { return "sequenced" }

func (b *sequencedBackend) CanPlay(_ track.Track) bool { return true }

func (b *sequencedBackend) Start(_ context.Context, t track.Track) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ops = append(b.ops, "start:"+t.ID)
	return nil
}

func (b *sequencedBackend) Stop(_ context.Context) error {
	if b.stopStarted != nil {
		select {
		case b.stopStarted <- struct{}{}:
		default:
		}
	}
	time.Sleep(b.stopDelay)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ops = append(b.ops, "stop")
	return nil
}

func (b *sequencedBackend) operations() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.ops...)
}

func TestCoordinator_TimeoutStopPrecedesNextStart(t *testing.T) {
	backend := &sequencedBackend{
		stopDelay:   200 * time.Millisecond,
		stopStarted: make(chan struct{}, 1),
	}
	c := NewCoordinator(backend, 100*time.Millisecond, func(int) {})

	require.NoError(t, c.StartQuestion(context.Background(), 0, track.Track{ID: "t1"}))

	// Wait for the timeout's stop to begin, then race the next question in.
	// The new start must not be paused by the timed-out question's stop.
	<-backend.stopStarted
	require.NoError(t, c.StartQuestion(context.Background(), 1, track.Track{ID: "t2"}))

	assert.Equal(t, []string{"start:t1", "stop", "start:t2"}, backend.operations())
	c.Stop(context.Background())
}

func TestPreviewBackend(t *testing.T) {
	b := NewPreviewBackend()

	withPreview := track.Track{ID: "a", PreviewURL: "https://p.scdn.co/a"}
	withoutPreview := track.Track{ID: "b"}

	assert.True(t, b.CanPlay(withPreview))
	assert.False(t, b.CanPlay(withoutPreview))

	assert.NoError(t, b.Start(context.Background(), withPreview))
	assert.Error(t, b.Start(context.Background(), withoutPreview))
	assert.NoError(t, b.Stop(context.Background()))
}
