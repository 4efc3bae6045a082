package workers

import (
	"time"

	"github.com/citypulse/media-services/ingest"
	"github.com/citypulse/media-services/models/service"
	"github.com/nsqio/go-nsq"
)

// Task encapsulates everything a worker passes from one channel to the
// next while processing a single upload notification.
type Task struct {
	// NSQMessage is the NSQ message the worker is processing.
	NSQMessage *nsq.Message

	// Notification is the decoded upload notification.
	Notification *service.UploadNotification

	// Outcome is set once the pipeline invocation finishes.
	Outcome *ingest.Outcome

	nsqStopChannel chan bool
}

// NSQStart disables NSQ's auto-response for this message and starts a
// ticker that touches the message periodically, so nsqd doesn't requeue
// it to another worker mid-transcode.
func (t *Task) NSQStart() {
	t.NSQMessage.DisableAutoResponse()
	t.nsqStopChannel = make(chan bool)
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-t.nsqStopChannel:
				return
			case <-ticker.C:
				t.NSQMessage.Touch()
			}
		}
	}()
}

// NSQFinish tells NSQ we're done with this message.
func (t *Task) NSQFinish() {
	close(t.nsqStopChannel)
	t.NSQMessage.Finish()
}

// NSQRequeue tells NSQ to requeue the message after the given delay.
func (t *Task) NSQRequeue(delay time.Duration) {
	close(t.nsqStopChannel)
	t.NSQMessage.Requeue(delay)
}
