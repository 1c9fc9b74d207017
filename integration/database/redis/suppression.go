package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// SuppressionStore keeps the do-not-send list: recipients that bounced
// hard, complained, or unsubscribed. The HTTP surface consults it before
// every delivery.
type SuppressionStore struct {
	client *redis.Client
	prefix string
}

// NewSuppressionStore creates a SuppressionStore on the client.
func NewSuppressionStore(client *redis.Client) *SuppressionStore {
	return &SuppressionStore{client: client, prefix: "suppress:"}
}

// suppressionKey normalizes the recipient so lookups are case-insensitive.
func (s *SuppressionStore) suppressionKey(recipient string) string {
	return s.prefix + strings.ToLower(strings.TrimSpace(recipient))
}

// IsSuppressed reports whether the recipient is on the suppression list.
func (s *SuppressionStore) IsSuppressed(ctx context.Context, recipient string) (bool, error) {
	val, err := s.client.Exists(ctx, s.suppressionKey(recipient)).Result()
	if err != nil {
		return false, fmt.Errorf("checking suppression list: %w", err)
	}
	return val > 0, nil
}

// Suppress adds the recipient with the given reason. A zero ttl suppresses
// indefinitely.
func (s *SuppressionStore) Suppress(ctx context.Context, recipient, reason string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.suppressionKey(recipient), reason, ttl).Err(); err != nil {
		return fmt.Errorf("adding to suppression list: %w", err)
	}
	return nil
}

// Reason returns the stored suppression reason, or "" when the recipient is
// not suppressed.
func (s *SuppressionStore) Reason(ctx context.Context, recipient string) (string, error) {
	val, err := s.client.Get(ctx, s.suppressionKey(recipient)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading suppression reason: %w", err)
	}
	return val, nil
}

// Unsuppress removes the recipient from the list.
func (s *SuppressionStore) Unsuppress(ctx context.Context, recipient string) error {
	if err := s.client.Del(ctx, s.suppressionKey(recipient)).Err(); err != nil {
		return fmt.Errorf("removing from suppression list: %w", err)
	}
	return nil
}
