package playback

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type staticProgress struct {
	percents map[string]int
}

func (s *staticProgress) LessonPercent(_ context.Context, _, _, lessonID string) (int, error) {
	return s.percents[lessonID], nil
}

func newTestSessionManager(sink ProgressSink, percents map[string]int) *SessionManager {
	return NewSessionManager(sink, &staticProgress{percents: percents}, 5*time.Millisecond, nil)
}

func TestSessionManagerOpenSeedsLastPersistedPercent(t *testing.T) {
	sink := &recordingSink{}
	sm := newTestSessionManager(sink, map[string]int{"lesson-1": 75})
	defer sm.CloseAll()

	player := &fakePlayer{}
	player.set(80, 100, StatePlaying)
	monitor, err := sm.Open(context.Background(), "user-1", "course-1", "lesson-1", player)
	require.NoError(t, err)
	monitor.HandleStateChange(StatePlaying)

	// 80% is below the next unseen checkpoint (90), nothing fires.
	time.Sleep(30 * time.Millisecond)
	require.Empty(t, sink.recorded())

	player.set(91, 100, StatePlaying)
	require.Eventually(t, func() bool {
		got := sink.recorded()
		return len(got) == 1 && got[0] == 90
	}, time.Second, 5*time.Millisecond)
}

func TestSessionManagerReplacesExistingSession(t *testing.T) {
	sink := &recordingSink{}
	sm := newTestSessionManager(sink, map[string]int{})
	defer sm.CloseAll()

	first := &fakePlayer{}
	old, err := sm.Open(context.Background(), "user-1", "course-1", "lesson-1", first)
	require.NoError(t, err)
	_ = old

	second := &fakePlayer{}
	replacement, err := sm.Open(context.Background(), "user-1", "course-1", "lesson-1", second)
	require.NoError(t, err)

	require.Equal(t, 1, sm.Count())
	require.Same(t, replacement, sm.Find("user-1", "lesson-1"))

	// The replaced monitor is stopped; it never emits again.
	first.set(100, 100, StatePlaying)
	old.HandleStateChange(StatePlaying)
	old.HandleStateChange(StateEnded)
	time.Sleep(30 * time.Millisecond)
	require.Empty(t, sink.recorded())
}

func TestSessionManagerCloseStopsMonitor(t *testing.T) {
	sink := &recordingSink{}
	sm := newTestSessionManager(sink, map[string]int{})

	player := &fakePlayer{}
	monitor, err := sm.Open(context.Background(), "user-1", "course-1", "lesson-1", player)
	require.NoError(t, err)
	require.True(t, sm.Active("user-1", "lesson-1"))

	sm.Close("user-1", "lesson-1")
	require.False(t, sm.Active("user-1", "lesson-1"))
	require.Nil(t, sm.Find("user-1", "lesson-1"))

	player.set(100, 100, StatePlaying)
	monitor.HandleStateChange(StateEnded)
	require.Empty(t, sink.recorded())

	// Closing again is a no-op.
	sm.Close("user-1", "lesson-1")
}

func TestSessionManagerCloseAll(t *testing.T) {
	sink := &recordingSink{}
	sm := newTestSessionManager(sink, map[string]int{})

	for _, lesson := range []string{"lesson-1", "lesson-2", "lesson-3"} {
		_, err := sm.Open(context.Background(), "user-1", "course-1", lesson, &fakePlayer{})
		require.NoError(t, err)
	}
	require.Equal(t, 3, sm.Count())

	sm.CloseAll()
	require.Equal(t, 0, sm.Count())
}

func TestSessionManagerCloseHookFires(t *testing.T) {
	sink := &recordingSink{}
	sm := newTestSessionManager(sink, map[string]int{})

	var closed [][2]string
	sm.OnClosed(func(userID, lessonID string) {
		closed = append(closed, [2]string{userID, lessonID})
	})

	_, err := sm.Open(context.Background(), "user-1", "course-1", "lesson-1", &fakePlayer{})
	require.NoError(t, err)
	require.Empty(t, closed)

	sm.Close("user-1", "lesson-1")
	require.Equal(t, [][2]string{{"user-1", "lesson-1"}}, closed)

	// Closing an unknown session does not fire the hook.
	sm.Close("user-1", "lesson-1")
	require.Len(t, closed, 1)

	// Replacing a session closes the previous one.
	_, err = sm.Open(context.Background(), "user-1", "course-1", "lesson-2", &fakePlayer{})
	require.NoError(t, err)
	_, err = sm.Open(context.Background(), "user-1", "course-1", "lesson-2", &fakePlayer{})
	require.NoError(t, err)
	require.Len(t, closed, 2)
	require.Equal(t, [2]string{"user-1", "lesson-2"}, closed[1])

	sm.CloseAll()
	require.Len(t, closed, 3)
}

func TestSessionManagerKeepsSessionsPerLesson(t *testing.T) {
	sink := &recordingSink{}
	sm := newTestSessionManager(sink, map[string]int{})
	defer sm.CloseAll()

	_, err := sm.Open(context.Background(), "user-1", "course-1", "lesson-1", &fakePlayer{})
	require.NoError(t, err)
	_, err = sm.Open(context.Background(), "user-1", "course-1", "lesson-2", &fakePlayer{})
	require.NoError(t, err)

	require.Equal(t, 2, sm.Count())
	require.True(t, sm.Active("user-1", "lesson-1"))
	require.True(t, sm.Active("user-1", "lesson-2"))
	require.False(t, sm.Active("user-2", "lesson-1"))
}
