package ingest_test

import (
	"testing"

	"github.com/citypulse/media-services/constants"
	"github.com/citypulse/media-services/ingest"
	"github.com/citypulse/media-services/models/service"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
)

const minSize = int64(1024 * 1024)

func notificationFor(objectPath string, size int64) *service.UploadNotification {
	return &service.UploadNotification{
		ObjectPath:  objectPath,
		ContentType: "video/mp4",
		SizeBytes:   size,
		BucketID:    "media",
	}
}

func TestCheckEligibilityProceeds(t *testing.T) {
	n := notificationFor("events/biz42_1700000000.mp4", 5*1024*1024)
	decision := ingest.CheckEligibility(n, minio.ObjectInfo{}, minSize)
	assert.True(t, decision.Proceed)
	assert.Equal(t, constants.ReasonEligible, decision.Reason)
}

func TestCheckEligibilitySkipRules(t *testing.T) {
	big := int64(5 * 1024 * 1024)

	// Rule 1: outside the ingest prefix.
	decision := ingest.CheckEligibility(
		notificationFor("uploads/biz42_1700000000.mp4", big), minio.ObjectInfo{}, minSize)
	assert.False(t, decision.Proceed)
	assert.Equal(t, constants.ReasonNotIngestPrefix, decision.Reason)

	// Rule 2: unsupported extension.
	decision = ingest.CheckEligibility(
		notificationFor("events/biz42_1700000000.png", big), minio.ObjectInfo{}, minSize)
	assert.False(t, decision.Proceed)
	assert.Equal(t, constants.ReasonUnsupportedExtension, decision.Reason)

	// Rule 3: derivative naming suffix.
	decision = ingest.CheckEligibility(
		notificationFor("events/biz42_1700000000_compressed.mp4", big), minio.ObjectInfo{}, minSize)
	assert.False(t, decision.Proceed)
	assert.Equal(t, constants.ReasonDerivativeSuffix, decision.Reason)

	// Rule 5: too small to benefit from transcoding.
	decision = ingest.CheckEligibility(
		notificationFor("events/biz42_1700000000.mp4", minSize-1), minio.ObjectInfo{}, minSize)
	assert.False(t, decision.Proceed)
	assert.Equal(t, constants.ReasonBelowMinSize, decision.Reason)
}

// Reprocessing an object already tagged by the pipeline is always a
// no-op, for any marker value, under any metadata key casing the S3
// backend hands back.
func TestCheckEligibilityIdempotency(t *testing.T) {
	n := notificationFor("events/biz42_1700000000.mp4", 5*1024*1024)
	for _, metadata := range []map[string]string{
		{constants.MetaProducedBy: constants.PipelineID},
		{constants.MetaProducedBy: "some-other-pipeline"},
		{"Producedby": constants.PipelineID},
		{"PRODUCEDBY": "x"},
	} {
		info := minio.ObjectInfo{UserMetadata: metadata}
		decision := ingest.CheckEligibility(n, info, minSize)
		assert.False(t, decision.Proceed, "metadata %v should skip", metadata)
		assert.Equal(t, constants.ReasonAlreadyCompressed, decision.Reason)
	}
}

// Rules short-circuit in order: an object failing an earlier rule
// reports that rule's reason even when later rules would also match.
func TestCheckEligibilityRuleOrder(t *testing.T) {
	info := minio.ObjectInfo{
		UserMetadata: map[string]string{constants.MetaProducedBy: constants.PipelineID},
	}
	decision := ingest.CheckEligibility(
		notificationFor("other/clip_compressed.mp4", 1), info, minSize)
	assert.Equal(t, constants.ReasonNotIngestPrefix, decision.Reason)
}
