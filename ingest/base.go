package ingest

import (
	"context"
	"errors"

	"github.com/citypulse/media-services/models/service"
	"github.com/minio/minio-go/v7"
)

// ErrMalformedPath means an object path yielded no usable correlation
// key. This is fatal: the path will be just as malformed on redelivery.
var ErrMalformedPath = errors.New("object path yields no correlation key")

// ErrEncodeFailed means the encoder process exited non-zero or its
// output stream broke. Terminal for the current invocation; the
// original asset and pending record are left untouched for manual retry.
var ErrEncodeFailed = errors.New("encode failed")

// ObjectStore is the slice of object storage the pipeline touches.
// network.S3Store implements it; tests inject recording fakes.
type ObjectStore interface {
	StatObject(ctx context.Context, bucket, key string) (minio.ObjectInfo, error)
	Download(ctx context.Context, bucket, key, localPath string) error
	UploadFile(ctx context.Context, bucket, key, localPath, contentType string, metadata map[string]string) error
	RemoveObject(ctx context.Context, bucket, key string) error
}

// EventStore is the slice of the document store the pipeline touches.
// All operations are exact-key point reads and writes.
// network.RedisClient implements it.
type EventStore interface {
	PendingEventGet(correlationKey string) (*service.PendingEvent, error)
	PendingEventDelete(correlationKey string) error
	LiveEventSave(event *service.LiveEvent) error
}

// ProgressObserver receives encode progress as a percentage from 0 to
// 100. Observability only; never used for control decisions.
type ProgressObserver func(pct int)

// Encoder produces a compressed rendition of a local video file.
type Encoder interface {
	Encode(ctx context.Context, inputPath, outputPath string, observer ProgressObserver) error
}
