package playback

import "sync"

// RemotePlayer adapts client-reported playback telemetry to the Player
// interface. The client posts position, duration and state on its own
// cadence; the monitor reads the latest report on each poll.
type RemotePlayer struct {
	mu       sync.Mutex
	position float64
	duration float64
	state    PlayerState
}

// NewRemotePlayer starts in the Unstarted state with no telemetry.
func NewRemotePlayer() *RemotePlayer {
	return &RemotePlayer{state: StateUnstarted}
}

// Report records the latest client telemetry.
func (p *RemotePlayer) Report(position, duration float64, state PlayerState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.position = position
	p.duration = duration
	p.state = state
}

// CurrentPosition returns the last reported position in seconds.
func (p *RemotePlayer) CurrentPosition() (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.position, nil
}

// Duration returns the last reported media duration in seconds.
func (p *RemotePlayer) Duration() (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.duration, nil
}

// State returns the last reported playback state.
func (p *RemotePlayer) State() (PlayerState, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state, nil
}
