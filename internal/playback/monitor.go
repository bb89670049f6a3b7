package playback

import (
	"context"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Checkpoints are the completion percentages at which progress is
// persisted. Bounding emission to checkpoint crossings caps writes at
// five per lesson per viewing session regardless of poll frequency.
var Checkpoints = [5]int{25, 50, 75, 90, 100}

// DefaultPollInterval matches the original player polling cadence.
const DefaultPollInterval = 5 * time.Second

// ProgressSink receives checkpoint-crossing events from the monitor.
type ProgressSink interface {
	RecordLessonProgress(ctx context.Context, userID, courseID, lessonID string, percent int) error
}

// MonitorConfig describes one lesson viewing session.
type MonitorConfig struct {
	UserID   string
	CourseID string
	LessonID string
	Player   Player
	Sink     ProgressSink
	// InitialPercent is the last persisted percent for this lesson;
	// checkpoints at or below it are never re-emitted.
	InitialPercent int
	PollInterval   time.Duration
	Logger         *zap.Logger
}

// Monitor converts continuous playback position into discrete
// checkpoint events for a single lesson session. It owns at most one
// polling loop at a time; the loop suspends itself whenever the player
// leaves the Playing state and Stop cancels it on every exit path.
type Monitor struct {
	userID   string
	courseID string
	lessonID string
	player   Player
	sink     ProgressSink
	interval time.Duration
	logger   *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	lastPercent int
	polling     bool
	stopped     bool
	loopDone    chan struct{}
}

// NewMonitor builds a monitor for one lesson session. The session is
// inert until the player transitions into Playing.
func NewMonitor(cfg MonitorConfig) *Monitor {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Monitor{
		userID:      cfg.UserID,
		courseID:    cfg.CourseID,
		lessonID:    cfg.LessonID,
		player:      cfg.Player,
		sink:        cfg.Sink,
		interval:    cfg.PollInterval,
		logger:      cfg.Logger,
		ctx:         ctx,
		cancel:      cancel,
		lastPercent: cfg.InitialPercent,
	}
}

// HandleStateChange reacts to a playback state transition. Playing
// starts the polling loop; Ended emits a terminal forced 100. All
// other states are handled by the loop suspending itself on its next
// tick.
func (m *Monitor) HandleStateChange(state PlayerState) {
	switch state {
	case StatePlaying:
		m.startLoop()
	case StateEnded:
		m.forceComplete()
	}
}

// Stop cancels the polling loop and forbids any further emission. It
// is idempotent and safe to call from any goroutine; it must be called
// when the learner navigates away from the lesson.
func (m *Monitor) Stop() {
	m.mu.Lock()
	m.stopped = true
	done := m.loopDone
	m.mu.Unlock()

	m.cancel()
	if done != nil {
		<-done
	}
}

// LessonID identifies the lesson this monitor is scoped to.
func (m *Monitor) LessonID() string {
	return m.lessonID
}

// Player returns the adapter this monitor polls.
func (m *Monitor) Player() Player {
	return m.player
}

func (m *Monitor) startLoop() {
	m.mu.Lock()
	if m.stopped || m.polling {
		m.mu.Unlock()
		return
	}
	m.polling = true
	done := make(chan struct{})
	m.loopDone = done
	m.mu.Unlock()

	go m.poll(done)
}

func (m *Monitor) poll(done chan struct{}) {
	defer func() {
		m.mu.Lock()
		m.polling = false
		m.mu.Unlock()
		close(done)
	}()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			if !m.tick() {
				return
			}
		}
	}
}

// tick performs one poll. It returns false when the loop should end:
// either the player left the Playing state or the session stopped.
func (m *Monitor) tick() bool {
	state, err := m.player.State()
	if err != nil {
		m.logger.Warn("playback adapter unavailable",
			zap.String("lesson_id", m.lessonID), zap.Error(err))
		return false
	}
	if state != StatePlaying {
		return false
	}

	duration, err := m.player.Duration()
	if err != nil {
		m.logger.Warn("playback duration unavailable",
			zap.String("lesson_id", m.lessonID), zap.Error(err))
		return true
	}
	if duration <= 0 {
		return true
	}
	position, err := m.player.CurrentPosition()
	if err != nil {
		m.logger.Warn("playback position unavailable",
			zap.String("lesson_id", m.lessonID), zap.Error(err))
		return true
	}

	percent := int(math.Round(position / duration * 100))
	if cp, ok := m.crossedCheckpoint(percent); ok {
		m.emit(cp)
	}
	return true
}

// crossedCheckpoint returns the highest checkpoint newly reached by
// percent, skipping any already at or below the last persisted value.
func (m *Monitor) crossedCheckpoint(percent int) (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return 0, false
	}
	crossed := 0
	for _, cp := range Checkpoints {
		if percent >= cp && cp > m.lastPercent {
			crossed = cp
		}
	}
	if crossed == 0 {
		return 0, false
	}
	m.lastPercent = crossed
	return crossed, true
}

// forceComplete emits the terminal 100 on playback end, bypassing the
// checkpoint comparison.
func (m *Monitor) forceComplete() {
	m.mu.Lock()
	if m.stopped || m.lastPercent >= 100 {
		m.mu.Unlock()
		return
	}
	m.lastPercent = 100
	m.mu.Unlock()

	m.emit(100)
}

func (m *Monitor) emit(percent int) {
	if m.ctx.Err() != nil {
		return
	}
	if err := m.sink.RecordLessonProgress(m.ctx, m.userID, m.courseID, m.lessonID, percent); err != nil {
		// Progress tracking failures stay silent for the learner; the
		// next checkpoint naturally retries with a fresher percent.
		m.logger.Warn("progress update failed",
			zap.String("lesson_id", m.lessonID),
			zap.Int("percent", percent),
			zap.Error(err))
	}
}
