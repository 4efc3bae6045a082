package ingest

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/citypulse/media-services/constants"
	"github.com/citypulse/media-services/models/service"
	"github.com/citypulse/media-services/util"
	"github.com/op/go-logging"
)

// Trace records which promotion steps committed, in order. The ordering
// invariant - the original asset is deleted only after the live record
// is durably written and the pending record durably removed - is checked
// against traces in tests rather than implied by code shape.
type Trace struct {
	Steps []string
}

func (t *Trace) add(step string) {
	t.Steps = append(t.Steps, step)
}

// Includes returns true if the trace recorded the given step.
func (t *Trace) Includes(step string) bool {
	return util.StringListContains(t.Steps, step)
}

// Promoter executes the ordered write/delete sequence that moves an
// event from pending to live and reclaims storage. Each step commits
// only if all prior steps are confirmed durable:
//
//  1. upload the compressed derivative, tagged with the producedBy
//     marker. Failure is terminal; the original is untouched.
//  2. write the live record. Failure aborts: the pending record and
//     the original both survive, so no event is ever lost. Worst case
//     is a redundant derivative left for manual recovery.
//  3. delete the pending record. Failure halts further cleanup: the
//     live record already exists and is correct, but until the pending
//     record is provably gone the original stays as a fallback pointer.
//  4. delete the original. Failure here costs storage, not correctness,
//     and is logged as a warning only.
type Promoter struct {
	Objects        ObjectStore
	Events         EventStore
	Logger         *logging.Logger
	Bucket         string
	PublicMediaURL string
}

func NewPromoter(objects ObjectStore, events EventStore, logger *logging.Logger, bucket, publicMediaURL string) *Promoter {
	return &Promoter{
		Objects:        objects,
		Events:         events,
		Logger:         logger,
		Bucket:         bucket,
		PublicMediaURL: publicMediaURL,
	}
}

// PublicURLFor computes the public reference for an object key.
func (p *Promoter) PublicURLFor(key string) string {
	return fmt.Sprintf("%s/%s/%s",
		strings.TrimSuffix(p.PublicMediaURL, "/"), p.Bucket, key)
}

// Promote runs the beneficial-compression path: the encoded file at
// outputPath replaces the original as the event's media. The returned
// trace always reflects exactly the steps that committed, including on
// error returns.
func (p *Promoter) Promote(ctx context.Context, pending *service.PendingEvent, correlationKey, originalKey, outputPath string, originalSize, compressedSize int64) (*Trace, error) {
	trace := &Trace{}

	derivativeKey := DerivativeKeyFor(originalKey)
	metadata := map[string]string{
		constants.MetaCompressed:      "true",
		constants.MetaOriginalFile:    originalKey,
		constants.MetaOriginalSize:    strconv.FormatInt(originalSize, 10),
		constants.MetaCompressedSize:  strconv.FormatInt(compressedSize, 10),
		constants.MetaCompressionDate: time.Now().UTC().Format(time.RFC3339),
		constants.MetaProducedBy:      constants.PipelineID,
	}
	err := p.Objects.UploadFile(ctx, p.Bucket, derivativeKey, outputPath,
		constants.OutputContentType, metadata)
	if err != nil {
		return trace, fmt.Errorf("uploading derivative %s: %v", derivativeKey, err)
	}
	trace.add(constants.StepDerivativeUploaded)
	p.Logger.Infof("Uploaded derivative %s (%d -> %d bytes)",
		derivativeKey, originalSize, compressedSize)

	live := pending.ToLiveEvent(p.PublicURLFor(derivativeKey))
	if live.ID == "" {
		live.ID = correlationKey
	}
	err = p.Events.LiveEventSave(live)
	if err != nil {
		// Do not delete the pending record and do not delete the
		// original. Both persist for manual recovery.
		return trace, fmt.Errorf("writing live event %s: %v", live.ID, err)
	}
	trace.add(constants.StepLiveWritten)

	err = p.Events.PendingEventDelete(correlationKey)
	if err != nil {
		// The live event is already correct; the leftover pending
		// record is a harmless duplicate. But we cannot yet prove the
		// transition is final, so the original must stay.
		p.Logger.Errorf("Live event %s written but pending record not deleted: %v",
			live.ID, err)
		return trace, fmt.Errorf("deleting pending event %s: %v", correlationKey, err)
	}
	trace.add(constants.StepPendingDeleted)

	err = p.Objects.RemoveObject(ctx, p.Bucket, originalKey)
	if err != nil {
		p.Logger.Warningf("Could not delete original %s (storage bloat only): %v",
			originalKey, err)
		return trace, nil
	}
	trace.add(constants.StepOriginalDeleted)
	p.Logger.Infof("Promoted %s to live event %s", originalKey, live.ID)
	return trace, nil
}

// PromoteOriginal runs the non-beneficial path: compression did not
// save enough, so the original asset itself becomes the live media.
// The live record points at the original's URL, the pending record is
// removed after the live write confirms, and the original is never
// deleted - it is now the referenced asset.
func (p *Promoter) PromoteOriginal(ctx context.Context, pending *service.PendingEvent, correlationKey, originalKey string) (*Trace, error) {
	trace := &Trace{}

	live := pending.ToLiveEvent(p.PublicURLFor(originalKey))
	if live.ID == "" {
		live.ID = correlationKey
	}
	err := p.Events.LiveEventSave(live)
	if err != nil {
		return trace, fmt.Errorf("writing live event %s: %v", live.ID, err)
	}
	trace.add(constants.StepLiveWritten)

	err = p.Events.PendingEventDelete(correlationKey)
	if err != nil {
		p.Logger.Errorf("Live event %s written but pending record not deleted: %v",
			live.ID, err)
		return trace, fmt.Errorf("deleting pending event %s: %v", correlationKey, err)
	}
	trace.add(constants.StepPendingDeleted)

	p.Logger.Infof("Promoted %s to live event %s without compression", originalKey, live.ID)
	return trace, nil
}
