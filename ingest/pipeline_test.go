package ingest_test

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/citypulse/media-services/constants"
	"github.com/citypulse/media-services/ingest"
	"github.com/citypulse/media-services/models/service"
	"github.com/citypulse/media-services/util/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	fiveMB = int64(5 * 1024 * 1024)
	oneMB  = int64(1024 * 1024)
)

type pipelineFixture struct {
	objects  *testutil.FakeObjectStore
	events   *testutil.FakeEventStore
	encoder  *testutil.FakeEncoder
	pipeline *ingest.Pipeline
	tempDir  string
}

func newPipelineFixture(t *testing.T) *pipelineFixture {
	t.Helper()
	objects := testutil.NewFakeObjectStore()
	events := testutil.NewFakeEventStore()
	encoder := &testutil.FakeEncoder{OutputSize: 3 * 1024 * 1024}
	log := testutil.TestLogger()
	tempDir := t.TempDir()
	return &pipelineFixture{
		objects: objects,
		events:  events,
		encoder: encoder,
		tempDir: tempDir,
		pipeline: &ingest.Pipeline{
			Objects: objects,
			Events:  events,
			Encoder: encoder,
			Logger:  log,
			Promoter: ingest.NewPromoter(objects, events, log,
				"media", "https://cdn.example.com"),
			Bucket:            "media",
			TempDir:           tempDir,
			MinSizeToCompress: oneMB,
		},
	}
}

func (f *pipelineFixture) seed() {
	f.objects.PutBytes(testOriginalKey, make([]byte, fiveMB), nil)
	f.events.Pending[testKey] = testutil.SamplePendingEvent(testKey)
}

func uploadFor(objectPath string, size int64) *service.UploadNotification {
	return &service.UploadNotification{
		ObjectPath:  objectPath,
		ContentType: "video/mp4",
		SizeBytes:   size,
		BucketID:    "media",
	}
}

func TestProcessUploadBeneficial(t *testing.T) {
	f := newPipelineFixture(t)
	f.seed()

	outcome := f.pipeline.ProcessUpload(context.Background(),
		uploadFor(testOriginalKey, fiveMB))
	require.True(t, outcome.Succeeded(), "outcome error: %v", outcome.Error)
	assert.False(t, outcome.Skipped)
	assert.Equal(t, constants.ReasonEligible, outcome.Reason)
	assert.Equal(t, []string{
		constants.StepDerivativeUploaded,
		constants.StepLiveWritten,
		constants.StepPendingDeleted,
		constants.StepOriginalDeleted,
	}, outcome.Trace.Steps)

	// Derivative replaces the original; live record points at it.
	assert.Contains(t, f.objects.Objects, testDerivative)
	assert.NotContains(t, f.objects.Objects, testOriginalKey)
	live := f.events.Live[testKey]
	require.NotNil(t, live)
	assert.Equal(t, "https://cdn.example.com/media/"+testDerivative, live.Video)
	assert.Empty(t, live.Image)
	assert.NotContains(t, f.events.Pending, testKey)

	// Working files are reclaimed on the way out.
	entries, err := os.ReadDir(f.tempDir)
	require.Nil(t, err)
	assert.Empty(t, entries)
}

func TestProcessUploadNoPendingRecord(t *testing.T) {
	f := newPipelineFixture(t)
	f.objects.PutBytes(testOriginalKey, make([]byte, fiveMB), nil)

	outcome := f.pipeline.ProcessUpload(context.Background(),
		uploadFor(testOriginalKey, fiveMB))
	require.NotNil(t, outcome.Error)
	assert.True(t, outcome.Error.IsFatal)

	// No writes and no deletes of any kind.
	assert.Contains(t, f.objects.Objects, testOriginalKey)
	assert.Empty(t, f.objects.Uploaded)
	assert.Empty(t, f.objects.Removed)
	assert.Empty(t, f.events.Live)
}

func TestProcessUploadNotBeneficial(t *testing.T) {
	f := newPipelineFixture(t)
	f.seed()
	// 4.8MB from a 5MB original misses the 90% gate.
	f.encoder.OutputSize = fiveMB - 200*1024

	outcome := f.pipeline.ProcessUpload(context.Background(),
		uploadFor(testOriginalKey, fiveMB))
	require.True(t, outcome.Succeeded(), "outcome error: %v", outcome.Error)
	assert.Equal(t, []string{
		constants.StepLiveWritten,
		constants.StepPendingDeleted,
	}, outcome.Trace.Steps)

	// The original stays and becomes the live media; no derivative.
	assert.Contains(t, f.objects.Objects, testOriginalKey)
	assert.Empty(t, f.objects.Uploaded)
	live := f.events.Live[testKey]
	require.NotNil(t, live)
	assert.Equal(t, "https://cdn.example.com/media/"+testOriginalKey, live.Video)
	assert.NotContains(t, f.events.Pending, testKey)
}

func TestProcessUploadLiveWriteFailure(t *testing.T) {
	f := newPipelineFixture(t)
	f.seed()
	f.events.LiveSaveErr = fmt.Errorf("document store unavailable")

	outcome := f.pipeline.ProcessUpload(context.Background(),
		uploadFor(testOriginalKey, fiveMB))
	require.NotNil(t, outcome.Error)
	assert.False(t, outcome.Error.IsFatal)
	assert.Equal(t, []string{constants.StepDerivativeUploaded}, outcome.Trace.Steps)

	// Pending record, original, and the orphaned derivative all persist.
	assert.Contains(t, f.events.Pending, testKey)
	assert.Contains(t, f.objects.Objects, testOriginalKey)
	assert.Contains(t, f.objects.Objects, testDerivative)
}

func TestProcessUploadEncodeFailure(t *testing.T) {
	f := newPipelineFixture(t)
	f.seed()
	f.encoder.Err = ingest.ErrEncodeFailed

	outcome := f.pipeline.ProcessUpload(context.Background(),
		uploadFor(testOriginalKey, fiveMB))
	require.NotNil(t, outcome.Error)
	assert.True(t, outcome.Error.IsFatal)

	// Original and pending record are untouched for manual retry.
	assert.Contains(t, f.objects.Objects, testOriginalKey)
	assert.Contains(t, f.events.Pending, testKey)
	assert.Empty(t, f.objects.Uploaded)
	assert.Empty(t, f.events.Live)
}

func TestProcessUploadObjectGone(t *testing.T) {
	f := newPipelineFixture(t)
	// No object seeded: a redelivery after the promotion already
	// deleted the original.

	outcome := f.pipeline.ProcessUpload(context.Background(),
		uploadFor(testOriginalKey, fiveMB))
	require.True(t, outcome.Succeeded())
	assert.True(t, outcome.Skipped)
	assert.Equal(t, constants.ReasonObjectGone, outcome.Reason)
}

func TestProcessUploadIneligibleSkips(t *testing.T) {
	f := newPipelineFixture(t)
	key := "uploads/biz42_1700000000.mp4"
	f.objects.PutBytes(key, make([]byte, fiveMB), nil)

	outcome := f.pipeline.ProcessUpload(context.Background(),
		uploadFor(key, fiveMB))
	require.True(t, outcome.Succeeded())
	assert.True(t, outcome.Skipped)
	assert.Equal(t, constants.ReasonNotIngestPrefix, outcome.Reason)
	assert.Empty(t, f.objects.Uploaded)
	assert.Empty(t, f.objects.Removed)
}

func TestProcessUploadMalformedPath(t *testing.T) {
	f := newPipelineFixture(t)
	key := "events/.mp4"
	f.objects.PutBytes(key, make([]byte, fiveMB), nil)

	outcome := f.pipeline.ProcessUpload(context.Background(),
		uploadFor(key, fiveMB))
	require.NotNil(t, outcome.Error)
	assert.True(t, outcome.Error.IsFatal)
	assert.Contains(t, f.objects.Objects, key)
}
