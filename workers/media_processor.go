package workers

import (
	ctx "context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/citypulse/media-services/constants"
	"github.com/citypulse/media-services/ingest"
	"github.com/citypulse/media-services/models/common"
	"github.com/citypulse/media-services/models/service"
	"github.com/citypulse/media-services/util"
	"github.com/nsqio/go-nsq"
)

// MediaProcessor consumes upload notifications from NSQ and runs the
// ingest pipeline for each one. Invocations run concurrently across
// different uploads, bounded by Settings.NumberOfWorkers; within one
// invocation all steps are strictly sequential.
type MediaProcessor struct {
	// Context contains connections to NSQ, Redis, and S3.
	Context *common.Context

	// Pipeline runs the actual per-upload work.
	Pipeline *ingest.Pipeline

	// ProcessChannel is where the work happens.
	ProcessChannel chan *Task

	// SuccessChannel handles tasks that completed or were skipped.
	SuccessChannel chan *Task

	// ErrorChannel handles tasks that failed with transient errors.
	// These are requeued.
	ErrorChannel chan *Task

	// FatalErrorChannel handles tasks that failed with fatal errors.
	// These are not requeued; redelivery cannot fix them.
	FatalErrorChannel chan *Task

	// KillChannel handles SIGTERM and SIGINT.
	KillChannel chan os.Signal

	// NSQConsumer implements HandleMessage to receive messages from NSQ.
	NSQConsumer *nsq.Consumer

	// Settings contains channel sizes, pool size, and timeouts.
	Settings *Settings
}

// NewMediaProcessor creates a new MediaProcessor and starts its worker
// goroutines. This panics if any client connection cannot be built.
// As soon as RegisterAsNsqConsumer succeeds, the worker starts handling
// messages.
func NewMediaProcessor(bufSize, numWorkers int, settings *Settings) *MediaProcessor {
	_context := common.NewContext()
	claimPidFile(_context)
	settings.ChannelBufferSize = bufSize
	settings.NumberOfWorkers = numWorkers
	if settings.InvocationTimeout == 0 {
		settings.InvocationTimeout = _context.Config.InvocationTimeout
	}
	processor := &MediaProcessor{
		Context:           _context,
		Pipeline:          ingest.NewPipeline(_context),
		ProcessChannel:    make(chan *Task, bufSize),
		SuccessChannel:    make(chan *Task, bufSize),
		ErrorChannel:      make(chan *Task, bufSize),
		FatalErrorChannel: make(chan *Task, bufSize),
		KillChannel:       make(chan os.Signal, 1),
		Settings:          settings,
	}
	signal.Notify(processor.KillChannel, syscall.SIGTERM, syscall.SIGINT)

	processor.Context.Logger.Info("Starting with config settings:")
	processor.Context.Logger.Info(processor.Context.Config.ToJSON())
	processor.Context.Logger.Info("Worker settings:")
	processor.Context.Logger.Info(settings.ToJSON())

	for i := 0; i < settings.NumberOfWorkers; i++ {
		go processor.ProcessItem()
	}
	go processor.ProcessSuccessChannel()
	go processor.ProcessErrorChannel()
	go processor.ProcessFatalErrorChannel()

	err := processor.RegisterAsNsqConsumer()
	if err != nil {
		panic(err)
	}
	return processor
}

// RegisterAsNsqConsumer registers this worker as an NSQ consumer on
// Settings.NSQTopic and Settings.NSQChannel. Note that as soon as you
// call this, the worker will start handling messages if any are
// available.
func (m *MediaProcessor) RegisterAsNsqConsumer() error {
	config := nsq.NewConfig()
	config.Set("heartbeat_interval", "10s")
	config.Set("max_in_flight", m.Settings.ChannelBufferSize)
	consumer, err := nsq.NewConsumer(m.Settings.NSQTopic, m.Settings.NSQChannel, config)
	if err != nil {
		return err
	}
	m.NSQConsumer = consumer
	m.NSQConsumer.AddHandler(m)
	err = m.NSQConsumer.ConnectToNSQLookupd(m.Context.Config.NsqLookupd)
	if err != nil {
		return err
	}
	m.Context.Logger.Info("Registered as NSQ consumer")
	return nil
}

// HandleMessage decodes the upload notification and hands it to the
// process channel. NSQ does not dedupe messages; the pipeline's
// idempotency makes redelivery safe, so no in-process dedupe list is
// needed here.
func (m *MediaProcessor) HandleMessage(message *nsq.Message) error {
	msgBody := strings.TrimSpace(string(message.Body))
	notification, err := service.UploadNotificationFromJSON(msgBody)
	if err != nil || notification.ObjectPath == "" {
		// A garbled payload will be garbled on every redelivery.
		m.Context.Logger.Errorf("Discarding unparsable NSQ message '%s': %v", msgBody, err)
		return nil
	}
	task := &Task{
		NSQMessage:   message,
		Notification: notification,
	}
	task.NSQStart()
	m.ProcessChannel <- task

	// Return nil (no error) so NSQ knows we're working on this.
	return nil
}

// ProcessItem runs pipeline invocations from the ProcessChannel and
// routes each task to the Success, Error, or FatalError channel.
func (m *MediaProcessor) ProcessItem() {
	for {
		select {
		case sig := <-m.KillChannel:
			m.doSigTermShutdown(sig)
		case task := <-m.ProcessChannel:
			m.processItem(task)
		}
	}
}

func (m *MediaProcessor) processItem(task *Task) {
	m.Context.Logger.Infof("Processing upload %s", task.Notification.ObjectPath)
	invocationCtx, cancel := ctx.WithTimeout(ctx.Background(), m.Settings.InvocationTimeout)
	defer cancel()

	task.Outcome = m.Pipeline.ProcessUpload(invocationCtx, task.Notification)

	if task.Outcome.Succeeded() {
		m.SuccessChannel <- task
	} else if task.Outcome.Error.IsFatal {
		m.FatalErrorChannel <- task
	} else {
		m.ErrorChannel <- task
	}
}

// ProcessSuccessChannel finishes messages whose invocations completed,
// including clean skips.
func (m *MediaProcessor) ProcessSuccessChannel() {
	for task := range m.SuccessChannel {
		if task.Outcome.Skipped {
			m.Context.Logger.Infof("Skipped %s: %s",
				task.Notification.ObjectPath, task.Outcome.Reason)
		} else {
			m.Context.Logger.Infof("Finished %s", task.Notification.ObjectPath)
		}
		task.NSQFinish()
	}
}

// ProcessErrorChannel requeues messages that failed with transient
// errors, so another delivery can retry. Steps that already committed
// stay committed; the pipeline is idempotent under redelivery.
func (m *MediaProcessor) ProcessErrorChannel() {
	for task := range m.ErrorChannel {
		m.Context.Logger.Errorf("Requeueing %s after transient error: %s",
			task.Notification.ObjectPath, task.Outcome.Error.Error())
		task.NSQRequeue(m.Settings.RequeueTimeout)
	}
}

// ProcessFatalErrorChannel finishes messages that failed with fatal
// errors. Redelivery cannot fix these; the pending record and original
// asset are left in place for manual retry.
func (m *MediaProcessor) ProcessFatalErrorChannel() {
	for task := range m.FatalErrorChannel {
		m.Context.Logger.Errorf("Not requeueing %s after fatal error: %s",
			task.Notification.ObjectPath, task.Outcome.Error.Error())
		task.NSQFinish()
	}
}

// doSigTermShutdown disconnects from NSQ so nsqd requeues whatever
// messages this worker was holding. In-flight transcodes die with the
// process; the strict write-before-delete ordering means a half-done
// invocation left nothing a retry can't pick up.
func (m *MediaProcessor) doSigTermShutdown(sig os.Signal) {
	if sig != syscall.SIGINT && sig != syscall.SIGTERM {
		return
	}
	m.Context.Logger.Warning("Worker received SIGTERM. Starting graceful shutdown.")
	if m.NSQConsumer != nil {
		m.NSQConsumer.ChangeMaxInFlight(0)
		m.NSQConsumer.Stop()
		m.Context.Logger.Warning("Worker disconnected from nsqd due to SIGTERM.")
	}
}

// claimPidFile writes this process' pid file, panicking if another
// live process already holds it. Two worker pools against the same
// channel would halve the effective max-in-flight bound for no reason.
func claimPidFile(_context *common.Context) {
	pidPath := filepath.Join(_context.Config.BaseWorkingDir,
		fmt.Sprintf("%s.pid", filepath.Base(os.Args[0])))
	if util.IsRunningInOtherProcess(pidPath) {
		panic(fmt.Sprintf("Another instance is running (pid file %s)", pidPath))
	}
	if err := util.WritePidFile(pidPath); err != nil {
		_context.Logger.Warningf("Could not write pid file %s: %v", pidPath, err)
	}
}

// DefaultSettings returns the media processor's standard settings.
func DefaultSettings() *Settings {
	return &Settings{
		NSQTopic:   constants.TopicMediaIngest,
		NSQChannel: constants.ChannelMediaIngest,
	}
}
