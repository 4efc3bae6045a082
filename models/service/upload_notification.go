package service

import (
	"encoding/json"
	"net/url"

	"github.com/minio/minio-go/v7/pkg/notification"
)

// UploadNotification describes one object that finished uploading to
// the ingest bucket. The upload listener builds these from bucket
// notifications (or from a bucket scan) and publishes them to NSQ.
// Each one is consumed exactly once per delivery; NSQ may deliver the
// same notification more than once, and the pipeline is safe under that.
type UploadNotification struct {
	ObjectPath  string `json:"objectPath"`
	ContentType string `json:"contentType"`
	SizeBytes   int64  `json:"sizeBytes"`
	BucketID    string `json:"bucketId"`
}

// NewUploadNotification builds a notification from a minio bucket
// notification record. Object keys arrive URL-encoded; decode before
// anything downstream parses the path.
func NewUploadNotification(event notification.Event) (*UploadNotification, error) {
	key, err := url.QueryUnescape(event.S3.Object.Key)
	if err != nil {
		return nil, err
	}
	return &UploadNotification{
		ObjectPath:  key,
		ContentType: event.S3.Object.ContentType,
		SizeBytes:   event.S3.Object.Size,
		BucketID:    event.S3.Bucket.Name,
	}, nil
}

func (n *UploadNotification) ToJSON() (string, error) {
	data, err := json.Marshal(n)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func UploadNotificationFromJSON(jsonData string) (*UploadNotification, error) {
	n := &UploadNotification{}
	err := json.Unmarshal([]byte(jsonData), n)
	if err != nil {
		return nil, err
	}
	return n, nil
}
