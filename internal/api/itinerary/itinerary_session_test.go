package itinerary

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

// gatedGenerator blocks every call until release is closed and counts calls.
type gatedGenerator struct {
	calls   atomic.Int32
	release chan struct{}
	result  *Result
	err     error
}

func newGatedGenerator(result *Result, err error) *gatedGenerator {
	return &gatedGenerator{release: make(chan struct{}), result: result, err: err}
}

func (g *gatedGenerator) GenerateItinerary(ctx context.Context, _ types.TripPreferences) (*Result, error) {
	g.calls.Add(1)
	select {
	case <-g.release:
		return g.result, g.err
	case <-ctx.Done():
		return nil, generationFailed(ctx.Err())
	}
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("generation did not settle")
	}
}

func TestSession_SubmitSuccess(t *testing.T) {
	prefs := goaPreferences(t)
	want := &Result{DurationDays: 3, Model: "gemini-2.5-flash"}
	gen := newGatedGenerator(want, nil)
	s := NewSession(gen, slog.Default())

	assert.Equal(t, StateIdle, s.Snapshot().State)

	token, done, err := s.Submit(context.Background(), prefs)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, token)

	snap := s.Snapshot()
	assert.Equal(t, StateGenerating, snap.State)
	assert.Equal(t, token, snap.Token)
	require.NotNil(t, snap.Preferences)
	assert.Equal(t, "Goa", snap.Preferences.Destination)

	close(gen.release)
	waitDone(t, done)

	snap = s.Snapshot()
	assert.Equal(t, StateReady, snap.State)
	assert.Same(t, want, snap.Result)
	assert.Empty(t, snap.ErrorKind)
}

func TestSession_SubmitWhileGeneratingMakesNoCall(t *testing.T) {
	prefs := goaPreferences(t)
	gen := newGatedGenerator(&Result{}, nil)
	s := NewSession(gen, slog.Default())

	_, done, err := s.Submit(context.Background(), prefs)
	require.NoError(t, err)

	_, _, err = s.Submit(context.Background(), prefs)
	assert.ErrorIs(t, err, ErrGenerationInProgress)

	close(gen.release)
	waitDone(t, done)
	assert.Equal(t, int32(1), gen.calls.Load())
}

func TestSession_Failure(t *testing.T) {
	prefs := goaPreferences(t)
	gen := newGatedGenerator(nil, &FormatError{Reason: "response is not valid JSON", Raw: "not json"})
	close(gen.release)
	s := NewSession(gen, slog.Default())

	_, done, err := s.Submit(context.Background(), prefs)
	require.NoError(t, err)
	waitDone(t, done)

	snap := s.Snapshot()
	assert.Equal(t, StateFailed, snap.State)
	assert.Equal(t, KindInvalidItineraryFormat, snap.ErrorKind)
	assert.Nil(t, snap.Result)

	t.Run("resubmitting requires a reset", func(t *testing.T) {
		_, _, err := s.Submit(context.Background(), prefs)
		assert.ErrorIs(t, err, ErrSessionNotIdle)

		reset := s.Reset()
		assert.Equal(t, StateIdle, reset.State)
		assert.Empty(t, reset.ErrorKind)
		assert.Nil(t, reset.Preferences)

		_, done, err := s.Submit(context.Background(), prefs)
		require.NoError(t, err)
		waitDone(t, done)
		assert.Equal(t, int32(2), gen.calls.Load())
	})
}

func TestSession_StaleResultAfterResetIsDiscarded(t *testing.T) {
	prefs := goaPreferences(t)
	gen := newGatedGenerator(&Result{DurationDays: 3}, nil)
	s := NewSession(gen, slog.Default())

	_, done, err := s.Submit(context.Background(), prefs)
	require.NoError(t, err)

	s.Reset()
	waitDone(t, done)

	snap := s.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.Nil(t, snap.Result)
	assert.Equal(t, uuid.Nil, snap.Token)
}

func TestSession_LateResultOfAbandonedGeneration(t *testing.T) {
	prefs := goaPreferences(t)
	first := &gatedGenerator{release: make(chan struct{}), result: &Result{Model: "first"}}
	s := NewSession(first, slog.Default())

	_, firstDone, err := s.Submit(context.WithoutCancel(context.Background()), prefs)
	require.NoError(t, err)

	// Swap the generator for one that answers immediately, then abandon the
	// first call and start again.
	second := newGatedGenerator(&Result{Model: "second"}, nil)
	close(second.release)
	s.mu.Lock()
	s.generator = second
	s.mu.Unlock()

	s.Reset()
	secondToken, secondDone, err := s.Submit(context.Background(), prefs)
	require.NoError(t, err)
	waitDone(t, secondDone)
	waitDone(t, firstDone)

	snap := s.Snapshot()
	assert.Equal(t, StateReady, snap.State)
	assert.Equal(t, secondToken, snap.Token)
	assert.Equal(t, "second", snap.Result.Model)
}

func TestSession_CallerCancellationDoesNotAbortGeneration(t *testing.T) {
	prefs := goaPreferences(t)
	gen := newGatedGenerator(&Result{}, nil)
	s := NewSession(gen, slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	_, done, err := s.Submit(ctx, prefs)
	require.NoError(t, err)
	cancel()

	close(gen.release)
	waitDone(t, done)
	assert.Equal(t, StateReady, s.Snapshot().State)
}

func TestSessionManager(t *testing.T) {
	m := NewSessionManager(newGatedGenerator(nil, nil), time.Hour, slog.Default())

	s := m.Create()
	assert.Equal(t, 1, m.Count())

	got, err := m.Get(s.ID())
	require.NoError(t, err)
	assert.Same(t, s, got)

	_, err = m.Get(uuid.New())
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

// countingClient is a RequestClient that counts model round trips. When gate
// is set every call blocks until it is closed.
type countingClient struct {
	raw   string
	err   error
	gate  chan struct{}
	calls atomic.Int32
}

func (c *countingClient) Generate(ctx context.Context, _ string) (string, error) {
	c.calls.Add(1)
	if c.gate != nil {
		select {
		case <-c.gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return c.raw, c.err
}

func (c *countingClient) Model() string { return "stub" }

func TestSession_GenerationPipeline(t *testing.T) {
	tests := []struct {
		name      string
		client    RequestClient
		wantState State
		wantKind  ErrorKind
	}{
		{
			name:      "three day plan",
			client:    &countingClient{raw: goaPlanJSON(t)},
			wantState: StateReady,
		},
		{
			name:      "not json",
			client:    &countingClient{raw: "not json"},
			wantState: StateFailed,
			wantKind:  KindInvalidItineraryFormat,
		},
		{
			name:      "deadline exceeded",
			client:    &countingClient{err: context.DeadlineExceeded},
			wantState: StateFailed,
			wantKind:  KindGenerationFailed,
		},
		{
			name:      "gemini client timeout",
			client:    NewGeminiRequestClient(&fakeGenerator{block: true}, 0.7, 20*time.Millisecond),
			wantState: StateFailed,
			wantKind:  KindGenerationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSession(NewServiceImpl(tt.client, nil, slog.Default()), slog.Default())

			_, done, err := s.Submit(context.Background(), goaPreferences(t))
			require.NoError(t, err)
			waitDone(t, done)

			snap := s.Snapshot()
			assert.Equal(t, tt.wantState, snap.State)
			assert.Equal(t, tt.wantKind, snap.ErrorKind)
			if tt.wantState != StateReady {
				assert.Nil(t, snap.Result)
				return
			}
			require.NotNil(t, snap.Result)
			require.NotNil(t, snap.Result.Plan)
			assert.Len(t, snap.Result.Plan.DailyPlans, 3)
			assert.Equal(t, 45000.0, snap.Result.Plan.TotalEstimatedCost)
			assert.Equal(t, 3, snap.Result.DurationDays)
		})
	}

	t.Run("second submit while generating reaches the model once", func(t *testing.T) {
		client := &countingClient{raw: goaPlanJSON(t), gate: make(chan struct{})}
		s := NewSession(NewServiceImpl(client, nil, slog.Default()), slog.Default())

		_, done, err := s.Submit(context.Background(), goaPreferences(t))
		require.NoError(t, err)

		_, _, err = s.Submit(context.Background(), goaPreferences(t))
		assert.ErrorIs(t, err, ErrGenerationInProgress)

		close(client.gate)
		waitDone(t, done)
		assert.Equal(t, StateReady, s.Snapshot().State)
		assert.Equal(t, int32(1), client.calls.Load())
	})
}
