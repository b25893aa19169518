package settings

import (
	"context"
	"errors"
	"log"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const lateThresholdKey = "kajian:settings:late_threshold_minutes"

// Service holds operator-adjustable settings in Redis. The only setting is
// the late-threshold grace period; it is read fresh on every check-in so an
// admin change takes effect immediately.
type Service struct {
	client   *redis.Client
	fallback int
}

// NewService creates a settings service. fallback is used when the setting
// is absent or Redis is unreachable.
func NewService(client *redis.Client, fallback int) *Service {
	if fallback <= 0 {
		fallback = 15
	}
	return &Service{client: client, fallback: fallback}
}

// LateThresholdMinutes returns the grace period in force right now.
func (s *Service) LateThresholdMinutes(ctx context.Context) int {
	if s.client == nil {
		return s.fallback
	}
	val, err := s.client.Get(ctx, lateThresholdKey).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("settings: read late threshold failed: %v", err)
		}
		return s.fallback
	}
	minutes, err := strconv.Atoi(val)
	if err != nil || minutes <= 0 {
		return s.fallback
	}
	return minutes
}

// SetLateThreshold stores a new grace period.
func (s *Service) SetLateThreshold(ctx context.Context, minutes int) error {
	if minutes <= 0 {
		return errors.New("late threshold must be positive")
	}
	if s.client == nil {
		return errors.New("settings store unavailable")
	}
	return s.client.Set(ctx, lateThresholdKey, strconv.Itoa(minutes), 0).Err()
}
