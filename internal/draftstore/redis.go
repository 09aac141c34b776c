package draftstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"invoicedesk/internal/billing"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const maxUpdateRetries = 5

// ErrConflict is returned when a draft kept changing under an update.
var ErrConflict = errors.New("draft was modified concurrently, try again")

type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore keeps drafts as JSON under draft:{owner}. Every write resets
// the expiry to ttl; zero keeps drafts forever.
func NewRedisStore(client *redis.Client, ttl time.Duration) Store {
	return &redisStore{client: client, ttl: ttl}
}

func key(ownerID uuid.UUID) string {
	return "draft:" + ownerID.String()
}

func (s *redisStore) Get(ctx context.Context, ownerID uuid.UUID) (billing.Draft, error) {
	return s.load(ctx, s.client, ownerID)
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (s *redisStore) load(ctx context.Context, c getter, ownerID uuid.UUID) (billing.Draft, error) {
	var d billing.Draft
	raw, err := c.Get(ctx, key(ownerID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return d, nil
	}
	if err != nil {
		return d, fmt.Errorf("load draft: %w", err)
	}
	if err := json.Unmarshal(raw, &d); err != nil {
		return billing.Draft{}, fmt.Errorf("decode draft: %w", err)
	}
	return d, nil
}

// Update uses WATCH so a concurrent write aborts and retries this one.
func (s *redisStore) Update(ctx context.Context, ownerID uuid.UUID, fn func(d *billing.Draft) error) (billing.Draft, error) {
	k := key(ownerID)
	var result billing.Draft

	txf := func(tx *redis.Tx) error {
		d, err := s.load(ctx, tx, ownerID)
		if err != nil {
			return err
		}
		if err := fn(&d); err != nil {
			return err
		}
		raw, err := json.Marshal(d)
		if err != nil {
			return fmt.Errorf("encode draft: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, k, raw, s.ttl)
			return nil
		})
		if err == nil {
			result = d
		}
		return err
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := s.client.Watch(ctx, txf, k)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return billing.Draft{}, err
		}
		return result, nil
	}
	return billing.Draft{}, ErrConflict
}

func (s *redisStore) Delete(ctx context.Context, ownerID uuid.UUID) error {
	if err := s.client.Del(ctx, key(ownerID)).Err(); err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}
	return nil
}
