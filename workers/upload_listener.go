package workers

import (
	ctx "context"
	"path"
	"strings"

	"github.com/citypulse/media-services/constants"
	"github.com/citypulse/media-services/models/common"
	"github.com/citypulse/media-services/models/service"
	"github.com/citypulse/media-services/util"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/notification"
)

// UploadListener turns finished uploads in the ingest bucket into NSQ
// messages for the media processor. The primary mode subscribes to
// bucket notifications; ScanBucket is a polling fallback for buckets
// where notifications are not configured (it relies on the pipeline's
// idempotency, since a scan will re-announce objects that were already
// processed but not yet deleted).
type UploadListener struct {
	Context *common.Context
}

func NewUploadListener() *UploadListener {
	_context := common.NewContext()
	claimPidFile(_context)
	return &UploadListener{
		Context: _context,
	}
}

// Run subscribes to object-created events under the ingest prefix and
// enqueues one upload notification per event. Blocks until c is
// cancelled.
func (l *UploadListener) Run(c ctx.Context) {
	l.logStartup()
	bucket := l.Context.Config.IngestBucket
	events := l.Context.S3Client.ListenBucketNotification(
		c, bucket, constants.IngestPrefix, "",
		[]string{"s3:ObjectCreated:*"})
	for info := range events {
		if info.Err != nil {
			l.Context.Logger.Errorf("Error listening on %s: %v", bucket, info.Err)
			continue
		}
		for _, record := range info.Records {
			l.ProcessEvent(record)
		}
	}
}

func (l *UploadListener) logStartup() {
	l.Context.Logger.Info("Starting with config settings:")
	l.Context.Logger.Info(l.Context.Config.ToJSON())
}

// ProcessEvent enqueues one bucket notification record. Objects that
// obviously need no processing are dropped here to keep junk out of
// the queue; the pipeline's eligibility filter remains the authority.
func (l *UploadListener) ProcessEvent(record notification.Event) {
	n, err := service.NewUploadNotification(record)
	if err != nil {
		l.Context.Logger.Errorf("Could not parse notification record: %v", err)
		return
	}
	if !l.worthQueueing(n.ObjectPath) {
		l.Context.Logger.Infof("Skipping %s: not a processable video upload", n.ObjectPath)
		return
	}
	l.Enqueue(n)
}

// ScanBucket lists the ingest prefix and enqueues a notification for
// every processable object it finds. Used for catch-up after listener
// downtime.
func (l *UploadListener) ScanBucket() {
	l.logStartup()
	bucket := l.Context.Config.IngestBucket
	l.Context.Logger.Infof("Scanning ingest bucket %s", bucket)
	objectCh := l.Context.S3Client.ListObjects(
		ctx.Background(),
		bucket,
		minio.ListObjectsOptions{
			Prefix:    constants.IngestPrefix,
			Recursive: true,
		})
	for obj := range objectCh {
		if obj.Err != nil {
			l.Context.Logger.Errorf("Error reading %s: %v", bucket, obj.Err)
			continue
		}
		if !l.worthQueueing(obj.Key) {
			l.Context.Logger.Infof("Skipping %s: not a processable video upload", obj.Key)
			continue
		}
		l.Enqueue(&service.UploadNotification{
			ObjectPath: obj.Key,
			SizeBytes:  obj.Size,
			BucketID:   bucket,
		})
	}
}

// Enqueue publishes the notification to the media ingest topic.
func (l *UploadListener) Enqueue(n *service.UploadNotification) {
	err := l.Context.NSQClient.Enqueue(constants.TopicMediaIngest, n)
	if err != nil {
		l.Context.Logger.Errorf("Error queueing %s: %v", n.ObjectPath, err)
		return
	}
	l.Context.Logger.Infof("Queued %s", n.ObjectPath)
}

// worthQueueing is a cheap pre-filter: video extension, no derivative
// suffix. Everything else is the eligibility filter's call.
func (l *UploadListener) worthQueueing(objectPath string) bool {
	ext := strings.ToLower(path.Ext(objectPath))
	if !util.StringListContains(constants.VideoExtensions, ext) {
		return false
	}
	return !strings.HasSuffix(util.PathStem(objectPath), constants.DerivativeSuffix)
}
