package network

import (
	"fmt"

	"github.com/citypulse/media-services/constants"
	"github.com/citypulse/media-services/models/service"
	"github.com/go-redis/redis/v7"
)

// RedisClient is the document store. Pending and live events are JSON
// documents under exact keys, so every lookup is a point read: cost and
// correctness are independent of how many pending records exist, and
// concurrent uploads for different events can never interfere.
type RedisClient struct {
	client *redis.Client
}

func NewRedisClient(address, password string, db int) *RedisClient {
	return &RedisClient{
		client: redis.NewClient(&redis.Options{
			Addr:     address,
			Password: password,
			DB:       db,
		}),
	}
}

func (c *RedisClient) Ping() (string, error) {
	return c.client.Ping().Result()
}

func pendingKey(correlationKey string) string {
	return fmt.Sprintf("%s:%s", constants.PendingEventCollection, correlationKey)
}

func liveKey(id string) string {
	return fmt.Sprintf("%s:%s", constants.LiveEventCollection, id)
}

// PendingEventGet returns the pending event stored under the given
// correlation key, or service.ErrNotFound if there is none.
func (c *RedisClient) PendingEventGet(correlationKey string) (*service.PendingEvent, error) {
	data, err := c.client.Get(pendingKey(correlationKey)).Result()
	if err == redis.Nil {
		return nil, service.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("PendingEventGet (%s): %s", correlationKey, err.Error())
	}
	return service.PendingEventFromJSON(data)
}

// PendingEventSave stores a pending event under its correlation key.
// The admin layer is the usual writer; the pipeline uses this only in
// tests and manual recovery tooling.
func (c *RedisClient) PendingEventSave(correlationKey string, event *service.PendingEvent) error {
	jsonData, err := event.ToJSON()
	if err != nil {
		return err
	}
	_, err = c.client.Set(pendingKey(correlationKey), jsonData, 0).Result()
	return err
}

// PendingEventDelete removes the pending event stored under the given
// correlation key. Deleting a key that is already gone is success: a
// redelivered notification may race an earlier invocation's cleanup.
func (c *RedisClient) PendingEventDelete(correlationKey string) error {
	_, err := c.client.Del(pendingKey(correlationKey)).Result()
	return err
}

// LiveEventSave stores a live event under its id, validating the
// exactly-one-of media invariant at the store boundary.
func (c *RedisClient) LiveEventSave(event *service.LiveEvent) error {
	if err := event.Validate(); err != nil {
		return err
	}
	jsonData, err := event.ToJSON()
	if err != nil {
		return err
	}
	_, err = c.client.Set(liveKey(event.ID), jsonData, 0).Result()
	return err
}

// LiveEventGet returns the live event stored under the given id, or
// service.ErrNotFound if there is none.
func (c *RedisClient) LiveEventGet(id string) (*service.LiveEvent, error) {
	data, err := c.client.Get(liveKey(id)).Result()
	if err == redis.Nil {
		return nil, service.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("LiveEventGet (%s): %s", id, err.Error())
	}
	return service.LiveEventFromJSON(data)
}
