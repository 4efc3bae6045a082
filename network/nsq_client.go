package network

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/citypulse/media-services/models/service"
)

type NSQClient struct {
	URL string
}

// Formally define this so we can generate mocks for testing.
type NSQClientInterface interface {
	Enqueue(topic string, notification *service.UploadNotification) error
}

// NewNSQClient returns a new NSQ client that will connect to the NSQ
// server at the specified url. The URL is typically available through
// Config.NsqURL, and usually ends with :4151. This is the URL to which
// we post upload notifications; the media processor workers read them
// through nsqlookupd.
//
// Note that this client provides write access to the queue only.
// The workers do the reading.
func NewNSQClient(url string) *NSQClient {
	return &NSQClient{URL: url}
}

// Enqueue posts an upload notification to the specified NSQ topic.
func (client *NSQClient) Enqueue(topic string, notification *service.UploadNotification) error {
	jsonData, err := notification.ToJSON()
	if err != nil {
		return fmt.Errorf("Could not serialize notification for %s: %v",
			notification.ObjectPath, err)
	}
	return client.enqueueString(topic, jsonData)
}

// enqueueString posts string data to the specified NSQ topic.
func (client *NSQClient) enqueueString(topic string, data string) error {
	url := fmt.Sprintf("%s/pub?topic=%s", client.URL, topic)
	resp, err := http.Post(url, "application/json", bytes.NewBuffer([]byte(data)))
	if err != nil {
		return fmt.Errorf("Nsqd returned an error when queuing data: %v", err)
	}
	if resp == nil {
		return fmt.Errorf("No response from nsqd at '%s'. Is it running?", url)
	}

	// nsqd sends a simple OK. We have to read the response body,
	// or the connection will hang open forever.
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if resp.StatusCode != 200 {
		bodyText := "[no response body]"
		if len(body) > 0 {
			bodyText = string(body)
		}
		return fmt.Errorf("nsqd returned status code %d when attempting to queue data. "+
			"Response body: %s", resp.StatusCode, bodyText)
	}
	return nil
}
