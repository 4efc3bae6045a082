package network_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/citypulse/media-services/constants"
	"github.com/citypulse/media-services/models/service"
	"github.com/citypulse/media-services/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleNotification() *service.UploadNotification {
	return &service.UploadNotification{
		ObjectPath:  "events/biz42_1700000000.mp4",
		ContentType: "video/mp4",
		SizeBytes:   5 * 1024 * 1024,
		BucketID:    "media",
	}
}

func TestNSQClientEnqueue(t *testing.T) {
	var gotPath, gotTopic, gotBody string
	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotTopic = r.URL.Query().Get("topic")
			body, _ := io.ReadAll(r.Body)
			gotBody = string(body)
			w.Write([]byte("OK"))
		}))
	defer server.Close()

	client := network.NewNSQClient(server.URL)
	err := client.Enqueue(constants.TopicMediaIngest, sampleNotification())
	require.Nil(t, err)

	assert.Equal(t, "/pub", gotPath)
	assert.Equal(t, constants.TopicMediaIngest, gotTopic)

	restored, err := service.UploadNotificationFromJSON(gotBody)
	require.Nil(t, err)
	assert.Equal(t, sampleNotification(), restored)
}

func TestNSQClientEnqueueServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "TOPIC_NOT_FOUND", http.StatusNotFound)
		}))
	defer server.Close()

	client := network.NewNSQClient(server.URL)
	err := client.Enqueue(constants.TopicMediaIngest, sampleNotification())
	require.NotNil(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Contains(t, err.Error(), "TOPIC_NOT_FOUND")
}

func TestNSQClientEnqueueConnectionRefused(t *testing.T) {
	client := network.NewNSQClient("http://127.0.0.1:1")
	err := client.Enqueue(constants.TopicMediaIngest, sampleNotification())
	assert.NotNil(t, err)
}
