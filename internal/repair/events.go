package repair

import "time"

// Status captures where a file is in the repair pipeline.
type Status string

const (
	// StatusQueued indicates the file has been listed but not opened yet.
	StatusQueued Status = "queued"
	// StatusWorking indicates the file is being decoded and rewritten.
	StatusWorking Status = "working"
	// StatusFixed indicates the file changed.
	StatusFixed Status = "fixed"
	// StatusUnchanged indicates the file was left as it was.
	StatusUnchanged Status = "unchanged"
	// StatusError indicates the file was skipped because of an error.
	StatusError Status = "error"
)

// Event reports progress for a file.
type Event struct {
	File    string
	Status  Status
	Err     error
	Elapsed time.Duration
}

// Sink consumes progress events.
type Sink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}

// SinkFunc adapts a plain function to Sink.
type SinkFunc func(Event)

func (f SinkFunc) OnEvent(evt Event) {
	if f != nil {
		f(evt)
	}
}
