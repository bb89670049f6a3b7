package playback

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ProgressReader supplies the last persisted percent for a lesson so a
// new session never re-emits checkpoints already recorded.
type ProgressReader interface {
	LessonPercent(ctx context.Context, userID, courseID, lessonID string) (int, error)
}

// SessionManager keeps at most one live monitor per (user, lesson).
// Opening a lesson replaces any previous session for it; closing the
// lesson panel or shutting down stops the monitor so no stale timer
// keeps firing against a lesson no longer in view.
type SessionManager struct {
	sink     ProgressSink
	progress ProgressReader
	interval time.Duration
	logger   *zap.Logger

	mu       sync.Mutex
	sessions map[sessionKey]*Monitor
	onClosed func(userID, lessonID string)
}

type sessionKey struct {
	userID   string
	lessonID string
}

// NewSessionManager constructs a session manager.
func NewSessionManager(sink ProgressSink, progress ProgressReader, interval time.Duration, logger *zap.Logger) *SessionManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionManager{
		sink:     sink,
		progress: progress,
		interval: interval,
		logger:   logger,
		sessions: make(map[sessionKey]*Monitor),
	}
}

// OnClosed registers a hook invoked once per session when it is
// closed, either individually or through CloseAll. Set before the
// manager starts serving sessions.
func (sm *SessionManager) OnClosed(fn func(userID, lessonID string)) {
	sm.onClosed = fn
}

// Open starts a monitored session for a lesson, replacing any existing
// session for the same (user, lesson).
func (sm *SessionManager) Open(ctx context.Context, userID, courseID, lessonID string, player Player) (*Monitor, error) {
	initial, err := sm.progress.LessonPercent(ctx, userID, courseID, lessonID)
	if err != nil {
		return nil, err
	}

	monitor := NewMonitor(MonitorConfig{
		UserID:         userID,
		CourseID:       courseID,
		LessonID:       lessonID,
		Player:         player,
		Sink:           sm.sink,
		InitialPercent: initial,
		PollInterval:   sm.interval,
		Logger:         sm.logger,
	})

	key := sessionKey{userID: userID, lessonID: lessonID}
	sm.mu.Lock()
	previous := sm.sessions[key]
	sm.sessions[key] = monitor
	sm.mu.Unlock()

	if previous != nil {
		previous.Stop()
		sm.notifyClosed(userID, lessonID)
	}
	return monitor, nil
}

// Close stops and removes the session for a lesson. Closing an unknown
// session is a no-op.
func (sm *SessionManager) Close(userID, lessonID string) {
	key := sessionKey{userID: userID, lessonID: lessonID}
	sm.mu.Lock()
	monitor := sm.sessions[key]
	delete(sm.sessions, key)
	sm.mu.Unlock()

	if monitor != nil {
		monitor.Stop()
		sm.notifyClosed(userID, lessonID)
	}
}

// CloseAll stops every live session. Called on shutdown.
func (sm *SessionManager) CloseAll() {
	sm.mu.Lock()
	closed := make(map[sessionKey]*Monitor, len(sm.sessions))
	for key, m := range sm.sessions {
		closed[key] = m
	}
	sm.sessions = make(map[sessionKey]*Monitor)
	sm.mu.Unlock()

	for key, m := range closed {
		m.Stop()
		sm.notifyClosed(key.userID, key.lessonID)
	}
}

func (sm *SessionManager) notifyClosed(userID, lessonID string) {
	if sm.onClosed != nil {
		sm.onClosed(userID, lessonID)
	}
}

// Find returns the live monitor for a (user, lesson), or nil.
func (sm *SessionManager) Find(userID, lessonID string) *Monitor {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.sessions[sessionKey{userID: userID, lessonID: lessonID}]
}

// Count reports the number of live sessions.
func (sm *SessionManager) Count() int {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return len(sm.sessions)
}

// Active reports whether a session exists for the (user, lesson).
func (sm *SessionManager) Active(userID, lessonID string) bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	_, ok := sm.sessions[sessionKey{userID: userID, lessonID: lessonID}]
	return ok
}
