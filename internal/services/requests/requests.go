// Package requests stores pending control requests. A request lives until
// the target answers it or its TTL runs out; expiry is enforced by the
// store, not by the caller.
package requests

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "control:request:"

// PendingRequest is the artifact created by /control request and consumed
// by accept/decline.
type PendingRequest struct {
	RequesterID   string    `json:"requester_id"`
	RequesterNick string    `json:"requester_nick"`
	TargetNick    string    `json:"target_nick"`
	CreatedAt     time.Time `json:"created_at"`
}

// Store keeps at most one pending request per target.
type Store interface {
	// Put stores the request for its target with the given TTL. Returns
	// false if the target already has a live pending request.
	Put(ctx context.Context, req PendingRequest, ttl time.Duration) (bool, error)
	// Take removes and returns the pending request for the target, or nil
	// if there is none (never created, answered, or expired).
	Take(ctx context.Context, targetNick string) (*PendingRequest, error)
}

type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Put(ctx context.Context, req PendingRequest, ttl time.Duration) (bool, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return false, err
	}
	return s.client.SetNX(ctx, keyPrefix+req.TargetNick, payload, ttl).Result()
}

func (s *RedisStore) Take(ctx context.Context, targetNick string) (*PendingRequest, error) {
	val, err := s.client.GetDel(ctx, keyPrefix+targetNick).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var req PendingRequest
	if err := json.Unmarshal([]byte(val), &req); err != nil {
		return nil, err
	}
	return &req, nil
}
