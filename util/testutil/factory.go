package testutil

import (
	"github.com/citypulse/media-services/models/service"
)

// SamplePendingEvent returns a pending event keyed and identified by
// the given correlation key, with the shape the admin layer writes.
func SamplePendingEvent(correlationKey string) *service.PendingEvent {
	return &service.PendingEvent{
		ID:         correlationKey,
		BusinessID: "biz42",
		Title:      "Live Jazz Night",
		Caption:    "Quartet on the patio, first set at eight.",
		Date:       "2024-06-01T20:00:00Z",
		Link:       "https://example.com/events/jazz-night",
		Tags:       []string{"music", "nightlife"},
	}
}
