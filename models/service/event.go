package service

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound is returned by event stores when a point read finds
// no document under the requested key.
var ErrNotFound = errors.New("record not found")

// PendingEvent is an event record awaiting media processing. The admin
// layer creates one of these when a user submits an event with video
// media, keyed by the same correlation key the uploaded object's path
// will yield. The pipeline reads and deletes it; nothing else touches it.
type PendingEvent struct {
	ID         string   `json:"id"`
	BusinessID string   `json:"businessId"`
	Title      string   `json:"title"`
	Caption    string   `json:"caption"`
	Date       string   `json:"date"`
	Link       string   `json:"link"`
	Tags       []string `json:"tags"`
	Image      string   `json:"image,omitempty"`
	Video      string   `json:"video,omitempty"`
}

// LiveEvent is a publicly visible event record with a resolved media
// reference. Exactly one of Image or Video is set.
type LiveEvent struct {
	ID         string   `json:"id"`
	BusinessID string   `json:"businessId"`
	Title      string   `json:"title"`
	Caption    string   `json:"caption"`
	Date       string   `json:"date"`
	Link       string   `json:"link"`
	Tags       []string `json:"tags"`
	Image      string   `json:"image,omitempty"`
	Video      string   `json:"video,omitempty"`
}

// ToLiveEvent builds the live record the pipeline will write, merging
// the pending record's fields with the resolved video URL. The image
// field is explicitly cleared: an event has exactly one media type.
func (e *PendingEvent) ToLiveEvent(videoURL string) *LiveEvent {
	return &LiveEvent{
		ID:         e.ID,
		BusinessID: e.BusinessID,
		Title:      e.Title,
		Caption:    e.Caption,
		Date:       e.Date,
		Link:       e.Link,
		Tags:       e.Tags,
		Image:      "",
		Video:      videoURL,
	}
}

// Validate enforces the exactly-one-of media invariant. The store
// calls this before every live-event write.
func (e *LiveEvent) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("live event is missing an id")
	}
	if e.Image == "" && e.Video == "" {
		return fmt.Errorf("live event %s has no media reference", e.ID)
	}
	if e.Image != "" && e.Video != "" {
		return fmt.Errorf("live event %s has both image and video set", e.ID)
	}
	return nil
}

func (e *PendingEvent) ToJSON() (string, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func PendingEventFromJSON(jsonData string) (*PendingEvent, error) {
	event := &PendingEvent{}
	err := json.Unmarshal([]byte(jsonData), event)
	if err != nil {
		return nil, err
	}
	return event, nil
}

func (e *LiveEvent) ToJSON() (string, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func LiveEventFromJSON(jsonData string) (*LiveEvent, error) {
	event := &LiveEvent{}
	err := json.Unmarshal([]byte(jsonData), event)
	if err != nil {
		return nil, err
	}
	return event, nil
}
