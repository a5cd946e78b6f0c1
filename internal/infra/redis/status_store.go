package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"classroom-levels-service/internal/domain"
)

// StatusStore mirrors the coordinator's session status into Redis so dashboards
// and other tools can read it without a connection to the coordinator.
//   - the latest status is kept under classroom:session:{catalogID} with a TTL, which
//     doubles as a liveness marker
//   - every change is also published on the same channel name
type StatusStore struct {
	client    *redis.Client
	catalogID string
	ttl       time.Duration
}

func NewStatusStore(client *redis.Client, catalogID string, ttl time.Duration) *StatusStore {
	return &StatusStore{client: client, catalogID: catalogID, ttl: ttl}
}

func (s *StatusStore) PublishStatus(ctx context.Context, status domain.SessionStatus) error {
	data, err := json.Marshal(status)
	if err != nil {
		return err
	}
	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.key(), data, s.ttl)
	pipe.Publish(ctx, s.key(), data)
	_, err = pipe.Exec(ctx)
	return err
}

// Latest returns the last mirrored status, false when none is stored.
func (s *StatusStore) Latest(ctx context.Context) (domain.SessionStatus, bool, error) {
	data, err := s.client.Get(ctx, s.key()).Bytes()
	if err == redis.Nil {
		return domain.SessionStatus{}, false, nil
	}
	if err != nil {
		return domain.SessionStatus{}, false, err
	}
	var status domain.SessionStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return domain.SessionStatus{}, false, err
	}
	return status, true, nil
}

// Clear removes the status, used on shutdown.
func (s *StatusStore) Clear(ctx context.Context) error {
	return s.client.Del(ctx, s.key()).Err()
}

func (s *StatusStore) key() string {
	return "classroom:session:" + s.catalogID
}
