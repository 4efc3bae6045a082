package testutil

import (
	"context"
	"os"

	"github.com/citypulse/media-services/ingest"
	"github.com/citypulse/media-services/models/service"
	"github.com/minio/minio-go/v7"
	"github.com/op/go-logging"
)

// TestLogger returns a logger suitable for unit tests. Output goes to
// the default go-logging backend (stderr).
func TestLogger() *logging.Logger {
	return logging.MustGetLogger("test")
}

// FakeObjectStore is an in-memory ingest.ObjectStore with per-operation
// failure injection, so tests can verify the coordinator's ordering
// contract at every failure point.
type FakeObjectStore struct {
	Objects  map[string][]byte
	Metadata map[string]map[string]string

	// Uploaded and Removed record keys in call order.
	Uploaded []string
	Removed  []string

	StatErr     error
	DownloadErr error
	UploadErr   error
	RemoveErr   error
}

func NewFakeObjectStore() *FakeObjectStore {
	return &FakeObjectStore{
		Objects:  make(map[string][]byte),
		Metadata: make(map[string]map[string]string),
	}
}

// PutBytes seeds an object directly into the fake store.
func (f *FakeObjectStore) PutBytes(key string, data []byte, metadata map[string]string) {
	f.Objects[key] = data
	if metadata != nil {
		f.Metadata[key] = metadata
	}
}

func (f *FakeObjectStore) StatObject(_ context.Context, _, key string) (minio.ObjectInfo, error) {
	if f.StatErr != nil {
		return minio.ObjectInfo{}, f.StatErr
	}
	data, ok := f.Objects[key]
	if !ok {
		return minio.ObjectInfo{}, minio.ErrorResponse{Code: "NoSuchKey", Message: "The specified key does not exist."}
	}
	return minio.ObjectInfo{
		Key:          key,
		Size:         int64(len(data)),
		UserMetadata: f.Metadata[key],
	}, nil
}

func (f *FakeObjectStore) Download(_ context.Context, _, key, localPath string) error {
	if f.DownloadErr != nil {
		return f.DownloadErr
	}
	data, ok := f.Objects[key]
	if !ok {
		return minio.ErrorResponse{Code: "NoSuchKey", Message: "The specified key does not exist."}
	}
	return os.WriteFile(localPath, data, 0644)
}

func (f *FakeObjectStore) UploadFile(_ context.Context, _, key, localPath, _ string, metadata map[string]string) error {
	if f.UploadErr != nil {
		return f.UploadErr
	}
	data, err := os.ReadFile(localPath)
	if err != nil {
		return err
	}
	f.Objects[key] = data
	f.Metadata[key] = metadata
	f.Uploaded = append(f.Uploaded, key)
	return nil
}

func (f *FakeObjectStore) RemoveObject(_ context.Context, _, key string) error {
	if f.RemoveErr != nil {
		return f.RemoveErr
	}
	delete(f.Objects, key)
	f.Removed = append(f.Removed, key)
	return nil
}

// FakeEventStore is an in-memory ingest.EventStore with failure
// injection on the write/delete operations the coordinator performs.
type FakeEventStore struct {
	Pending map[string]*service.PendingEvent
	Live    map[string]*service.LiveEvent

	// DeletedPending records correlation keys in deletion order.
	DeletedPending []string

	PendingGetErr    error
	PendingDeleteErr error
	LiveSaveErr      error
}

func NewFakeEventStore() *FakeEventStore {
	return &FakeEventStore{
		Pending: make(map[string]*service.PendingEvent),
		Live:    make(map[string]*service.LiveEvent),
	}
}

func (f *FakeEventStore) PendingEventGet(correlationKey string) (*service.PendingEvent, error) {
	if f.PendingGetErr != nil {
		return nil, f.PendingGetErr
	}
	event, ok := f.Pending[correlationKey]
	if !ok {
		return nil, service.ErrNotFound
	}
	return event, nil
}

func (f *FakeEventStore) PendingEventDelete(correlationKey string) error {
	if f.PendingDeleteErr != nil {
		return f.PendingDeleteErr
	}
	delete(f.Pending, correlationKey)
	f.DeletedPending = append(f.DeletedPending, correlationKey)
	return nil
}

func (f *FakeEventStore) LiveEventSave(event *service.LiveEvent) error {
	if f.LiveSaveErr != nil {
		return f.LiveSaveErr
	}
	if err := event.Validate(); err != nil {
		return err
	}
	f.Live[event.ID] = event
	return nil
}

// FakeEncoder writes OutputSize bytes to the output path and reports
// a couple of progress ticks, standing in for ffmpeg.
type FakeEncoder struct {
	OutputSize int64
	Err        error
	Progress   []int
}

func (e *FakeEncoder) Encode(_ context.Context, _, outputPath string, observer ingest.ProgressObserver) error {
	if e.Err != nil {
		return e.Err
	}
	report := func(pct int) {
		e.Progress = append(e.Progress, pct)
		if observer != nil {
			observer(pct)
		}
	}
	report(50)
	if err := os.WriteFile(outputPath, make([]byte, e.OutputSize), 0644); err != nil {
		return err
	}
	report(100)
	return nil
}
