package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/citypulse/media-services/constants"
	"github.com/citypulse/media-services/models/common"
	"github.com/citypulse/media-services/models/service"
	"github.com/citypulse/media-services/util"
	"github.com/citypulse/media-services/util/logger"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/op/go-logging"
)

// Outcome describes how one invocation ended. Skips are not errors;
// they are logged at info level and the invocation ends cleanly.
type Outcome struct {
	// Skipped is true when the eligibility filter declined the object.
	Skipped bool

	// Reason is the eligibility reason code, set whether or not the
	// object was skipped.
	Reason string

	// Trace records the promotion steps that committed, if the
	// invocation got as far as the state transition.
	Trace *Trace

	// Error is set when the invocation failed. Fatal errors should not
	// be redelivered; transient ones may be.
	Error *service.ProcessingError
}

// Succeeded returns true if the invocation completed without error.
// A skip counts as success.
func (o *Outcome) Succeeded() bool {
	return o.Error == nil
}

// Pipeline is the per-upload ingest pipeline: eligibility filter,
// correlation extraction, pending-record lookup, transcode, and the
// pending-to-live state transition. One Pipeline serves all
// invocations; each call to ProcessUpload is independent and
// internally strictly sequential.
type Pipeline struct {
	Objects           ObjectStore
	Events            EventStore
	Encoder           Encoder
	Logger            *logging.Logger
	Promoter          *Promoter
	Bucket            string
	TempDir           string
	MinSizeToCompress int64
}

// NewPipeline wires a Pipeline from the client bundle.
func NewPipeline(context *common.Context) *Pipeline {
	objects := context.S3Store
	events := context.RedisClient
	return &Pipeline{
		Objects: objects,
		Events:  events,
		Encoder: NewFFmpegEncoder(
			context.Config.FFmpegPath,
			context.Config.FFprobePath),
		Logger: context.Logger,
		Promoter: NewPromoter(
			objects,
			events,
			context.Logger,
			context.Config.IngestBucket,
			context.Config.PublicMediaURL),
		Bucket:            context.Config.IngestBucket,
		TempDir:           context.Config.TempDir,
		MinSizeToCompress: context.Config.MinSizeToCompress,
	}
}

// ProcessUpload runs the pipeline for one finished upload. The caller
// bounds ctx with the invocation timeout; on timeout the invocation is
// a total failure, but steps that already committed stay committed.
func (p *Pipeline) ProcessUpload(ctx context.Context, n *service.UploadNotification) *Outcome {
	info, err := p.Objects.StatObject(ctx, p.Bucket, n.ObjectPath)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			// The object is already gone, most likely because an
			// earlier delivery of this notification finished the
			// promotion and deleted the original.
			p.Logger.Infof("Skipping %s: object no longer exists", n.ObjectPath)
			return &Outcome{Skipped: true, Reason: constants.ReasonObjectGone}
		}
		return p.errorOutcome(n.ObjectPath,
			fmt.Errorf("stat %s: %v", n.ObjectPath, err), false)
	}

	decision := CheckEligibility(n, info, p.MinSizeToCompress)
	if !decision.Proceed {
		p.Logger.Infof("Skipping %s: %s", n.ObjectPath, decision.Reason)
		return &Outcome{Skipped: true, Reason: decision.Reason}
	}

	correlationKey, err := ExtractCorrelationKey(n.ObjectPath)
	if err != nil {
		return p.errorOutcome(n.ObjectPath, err, true)
	}

	pending, err := p.Events.PendingEventGet(correlationKey)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			// Likely a stale or duplicate upload, or a bug in record
			// creation. Either way: no writes, no deletes.
			return p.errorOutcome(correlationKey,
				fmt.Errorf("no pending event for key %s (object %s)",
					correlationKey, n.ObjectPath), true)
		}
		return p.errorOutcome(correlationKey, err, false)
	}

	invocationID := uuid.New().String()
	inputPath := filepath.Join(p.TempDir,
		fmt.Sprintf("%s-input%s", invocationID, path.Ext(n.ObjectPath)))
	outputPath := filepath.Join(p.TempDir,
		fmt.Sprintf("%s-output%s", invocationID, constants.OutputExtension))

	// Local working files are scoped to this invocation and reclaimed
	// on every exit path, success or failure.
	defer func() {
		os.Remove(inputPath)
		os.Remove(outputPath)
	}()

	err = p.Objects.Download(ctx, p.Bucket, n.ObjectPath, inputPath)
	if err != nil {
		return p.errorOutcome(correlationKey,
			fmt.Errorf("downloading %s: %v", n.ObjectPath, err), false)
	}

	progress := logger.NewEncodeProgressLogger(p.Logger, n.ObjectPath, 10)
	err = p.Encoder.Encode(ctx, inputPath, outputPath, progress.Observe)
	if err != nil {
		// Terminal for this invocation. Original asset and pending
		// record are left untouched for manual retry.
		return p.errorOutcome(correlationKey, err, true)
	}

	originalSize := info.Size
	compressedSize := util.FileSize(outputPath)
	if compressedSize < 0 {
		return p.errorOutcome(correlationKey,
			fmt.Errorf("encoder output %s missing after successful encode", outputPath), true)
	}

	var trace *Trace
	if isBeneficial(originalSize, compressedSize) {
		trace, err = p.Promoter.Promote(ctx, pending, correlationKey,
			n.ObjectPath, outputPath, originalSize, compressedSize)
	} else {
		p.Logger.Infof("Compression not beneficial for %s (%d -> %d bytes), keeping original",
			n.ObjectPath, originalSize, compressedSize)
		trace, err = p.Promoter.PromoteOriginal(ctx, pending, correlationKey, n.ObjectPath)
	}
	if err != nil {
		outcome := p.errorOutcome(correlationKey, err, false)
		outcome.Trace = trace
		return outcome
	}
	return &Outcome{Reason: decision.Reason, Trace: trace}
}

// isBeneficial applies the compression gate: the encoded file must be
// at most 90% of the original's size to be worth keeping.
func isBeneficial(originalSize, compressedSize int64) bool {
	return float64(compressedSize) <= constants.BeneficialRatio*float64(originalSize)
}

func (p *Pipeline) errorOutcome(identifier string, err error, isFatal bool) *Outcome {
	procErr := service.NewProcessingError(identifier, err.Error(), isFatal)
	p.Logger.Error(procErr.Error())
	return &Outcome{Error: procErr}
}
