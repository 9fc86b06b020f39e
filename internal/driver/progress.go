package driver

import "time"

// Stage is the step a unit is in.
type Stage string

const (
	StageRead     Stage = "read"
	StageCache    Stage = "cache"
	StageLoad     Stage = "load"
	StageValidate Stage = "validate"
)

// Status is the progress state of a unit.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusWorking Status = "working"
	StatusDone    Status = "done"
	StatusError   Status = "error"
)

// Event reports progress of one dump.
type Event struct {
	File    string
	Stage   Stage
	Status  Status
	Cached  bool
	Elapsed time.Duration
}

// ProgressSink consumes progress events. OnEvent is called from worker goroutines.
type ProgressSink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(ev Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- ev
}

func emit(sink ProgressSink, ev Event) {
	if sink != nil {
		sink.OnEvent(ev)
	}
}
