package playback

// PlayerState mirrors the states a media playback adapter can report.
type PlayerState int

// Playback adapter states.
const (
	StateUnstarted PlayerState = iota
	StatePlaying
	StatePaused
	StateBuffering
	StateEnded
)

// String returns a readable state name for logging.
func (s PlayerState) String() string {
	switch s {
	case StateUnstarted:
		return "unstarted"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateBuffering:
		return "buffering"
	case StateEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// ParseState maps a reported state name to a PlayerState. Unknown
// names are rejected so a misbehaving client cannot silently pause a
// session.
func ParseState(name string) (PlayerState, bool) {
	switch name {
	case "unstarted":
		return StateUnstarted, true
	case "playing":
		return StatePlaying, true
	case "paused":
		return StatePaused, true
	case "buffering":
		return StateBuffering, true
	case "ended":
		return StateEnded, true
	default:
		return StateUnstarted, false
	}
}

// Player is the capability exposed by a media playback adapter. All
// methods may fail if the underlying player is unavailable; the
// monitor logs and skips rather than crash the host.
type Player interface {
	CurrentPosition() (float64, error)
	Duration() (float64, error)
	State() (PlayerState, error)
}
