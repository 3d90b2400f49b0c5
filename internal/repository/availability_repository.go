package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/platterhub/service-booking/internal/domain/identity"
	"github.com/redis/go-redis/v9"
)

const availabilityKeyPrefix = "worker:availability:"

// RedisAvailabilityStore holds the local copy of worker availability
// published by the Identity service. Workers without a key are available.
type RedisAvailabilityStore struct {
	rdb redis.Cmdable
}

// NewRedisAvailabilityStore creates a new RedisAvailabilityStore.
func NewRedisAvailabilityStore(rdb redis.Cmdable) *RedisAvailabilityStore {
	return &RedisAvailabilityStore{rdb: rdb}
}

func availabilityKey(workerID uuid.UUID) string {
	return availabilityKeyPrefix + workerID.String()
}

// GetAvailability returns the worker's last known availability.
func (s *RedisAvailabilityStore) GetAvailability(ctx context.Context, workerID uuid.UUID) (identity.Availability, error) {
	val, err := s.rdb.Get(ctx, availabilityKey(workerID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return identity.AvailabilityAvailable, nil
		}
		return "", fmt.Errorf("failed to read availability: %w", err)
	}
	status, err := identity.ParseAvailability(val)
	if err != nil {
		return "", err
	}
	return status, nil
}

// SetAvailability records the worker's availability.
func (s *RedisAvailabilityStore) SetAvailability(ctx context.Context, workerID uuid.UUID, status identity.Availability) error {
	if err := s.rdb.Set(ctx, availabilityKey(workerID), string(status), 0).Err(); err != nil {
		return fmt.Errorf("failed to write availability: %w", err)
	}
	return nil
}
