package itinerary

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

type State string

const (
	StateIdle       State = "Idle"
	StateGenerating State = "Generating"
	StateReady      State = "Ready"
	StateFailed     State = "Failed"
)

// Snapshot is a read-only copy of a session at one point in time.
type Snapshot struct {
	SessionID   uuid.UUID              `json:"sessionId"`
	State       State                  `json:"state"`
	Token       uuid.UUID              `json:"token"`
	Preferences *types.TripPreferences `json:"preferences,omitempty"`
	Result      *Result                `json:"result,omitempty"`
	ErrorKind   ErrorKind              `json:"errorKind,omitempty"`
	Error       string                 `json:"error,omitempty"`
	UpdatedAt   time.Time              `json:"updatedAt"`
}

// Session drives one planner session through Idle → Generating → Ready|Failed.
// Only one generation may be in flight; results of abandoned generations are
// dropped by comparing their token with the current one.
type Session struct {
	id        uuid.UUID
	generator Service
	logger    *slog.Logger
	now       func() time.Time

	mu     sync.Mutex
	state  State
	token  uuid.UUID
	cancel context.CancelFunc
	prefs  *types.TripPreferences
	result *Result
	err    error
	at     time.Time
}

func NewSession(generator Service, logger *slog.Logger) *Session {
	s := &Session{
		id:        uuid.New(),
		generator: generator,
		logger:    logger,
		now:       time.Now,
		state:     StateIdle,
	}
	s.at = s.now()
	return s
}

func (s *Session) ID() uuid.UUID {
	return s.id
}

// Submit starts a generation for prefs. It is only accepted from Idle; while
// Generating it returns ErrGenerationInProgress and makes no call. The returned
// channel is closed once the generation has settled (applied or discarded).
func (s *Session) Submit(ctx context.Context, prefs types.TripPreferences) (uuid.UUID, <-chan struct{}, error) {
	s.mu.Lock()
	switch s.state {
	case StateGenerating:
		s.mu.Unlock()
		return uuid.Nil, nil, ErrGenerationInProgress
	case StateReady, StateFailed:
		s.mu.Unlock()
		return uuid.Nil, nil, ErrSessionNotIdle
	}

	token := uuid.New()
	genCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.state = StateGenerating
	s.token = token
	s.cancel = cancel
	s.prefs = &prefs
	s.result = nil
	s.err = nil
	s.at = s.now()
	generator := s.generator
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer cancel()
		result, err := generator.GenerateItinerary(genCtx, prefs)
		s.settle(token, result, err)
	}()

	return token, done, nil
}

func (s *Session) settle(token uuid.UUID, result *Result, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateGenerating || s.token != token {
		s.logger.Info("Discarding stale generation result",
			slog.String("session_id", s.id.String()),
			slog.String("token", token.String()),
			slog.String("state", string(s.state)))
		return
	}

	s.cancel = nil
	s.at = s.now()
	if err != nil {
		s.state = StateFailed
		s.err = err
		return
	}
	s.state = StateReady
	s.result = result
}

// Reset returns the session to Idle from any state, abandoning an in-flight
// generation.
func (s *Session) Reset() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.state = StateIdle
	s.token = uuid.Nil
	s.prefs = nil
	s.result = nil
	s.err = nil
	s.at = s.now()
	return s.snapshotLocked()
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		SessionID: s.id,
		State:     s.state,
		Token:     s.token,
		Result:    s.result,
		UpdatedAt: s.at,
	}
	if s.prefs != nil {
		p := *s.prefs
		snap.Preferences = &p
	}
	if s.err != nil {
		snap.ErrorKind = KindOf(s.err)
		snap.Error = s.err.Error()
	}
	return snap
}

// SessionManager keeps sessions in memory; idle sessions expire after ttl.
type SessionManager struct {
	sessions  *cache.Cache
	generator Service
	logger    *slog.Logger
	ttl       time.Duration
}

func NewSessionManager(generator Service, ttl time.Duration, logger *slog.Logger) *SessionManager {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	sessions := cache.New(ttl, ttl/2)
	sessions.OnEvicted(func(_ string, v interface{}) {
		if s, ok := v.(*Session); ok {
			s.Reset()
		}
	})
	return &SessionManager{
		sessions:  sessions,
		generator: generator,
		logger:    logger,
		ttl:       ttl,
	}
}

func (m *SessionManager) Create() *Session {
	s := NewSession(m.generator, m.logger)
	m.sessions.Set(s.ID().String(), s, cache.DefaultExpiration)
	return s
}

// Get looks a session up and extends its lifetime.
func (m *SessionManager) Get(id uuid.UUID) (*Session, error) {
	v, ok := m.sessions.Get(id.String())
	if !ok {
		return nil, ErrSessionNotFound
	}
	s := v.(*Session)
	m.sessions.Set(id.String(), s, cache.DefaultExpiration)
	return s, nil
}

func (m *SessionManager) Count() int {
	return m.sessions.ItemCount()
}
