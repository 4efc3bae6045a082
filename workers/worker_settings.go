package workers

import (
	"encoding/json"
	"time"
)

// Settings contains settings for the media processor worker.
type Settings struct {
	// ChannelBufferSize is the size of the buffer for the
	// ProcessChannel, SuccessChannel, ErrorChannel, and
	// FatalErrorChannel. It is also the NSQ max-in-flight, so the
	// worker never holds more messages than it has room to process.
	ChannelBufferSize int

	// InvocationTimeout bounds the wall-clock time of one pipeline
	// invocation, download through cleanup. The encoder can stall on
	// malformed input, so every invocation runs under this deadline.
	InvocationTimeout time.Duration

	// NSQChannel is the NSQ channel the worker subscribes to.
	NSQChannel string

	// NSQTopic is the NSQ topic the worker subscribes to.
	NSQTopic string

	// NumberOfWorkers is the number of go routines that run pipeline
	// invocations. Each invocation is I/O- and CPU-bound on a single
	// transcode, so a small pool is sufficient.
	NumberOfWorkers int

	// RequeueTimeout describes how long of a timeout to set on the
	// NSQ requeue after an invocation fails with transient errors.
	RequeueTimeout time.Duration
}

func (settings *Settings) ToJSON() string {
	data, _ := json.Marshal(settings)
	return string(data)
}
