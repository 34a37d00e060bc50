package pipeline

// EventKind identifies a progress event.
type EventKind int

const (
	// EventSynthesized is sent when a chunk's audio is ready.
	EventSynthesized EventKind = iota
	// EventPlaying is sent when playback of a chunk starts.
	EventPlaying
	// EventPlayed is sent when playback of a chunk completes.
	EventPlayed
	// EventPaused is sent when the run is paused.
	EventPaused
	// EventResumed is sent when the run is resumed.
	EventResumed
)

// String returns the event name.
func (k EventKind) String() string {
	switch k {
	case EventSynthesized:
		return "synthesized"
	case EventPlaying:
		return "playing"
	case EventPlayed:
		return "played"
	case EventPaused:
		return "paused"
	case EventResumed:
		return "resumed"
	default:
		return "unknown"
	}
}

// Event reports pipeline progress. Index is the chunk's position in the
// input, or -1 for events not tied to a chunk.
type Event struct {
	Kind  EventKind
	Index int
	Text  string
	Bytes int
}
