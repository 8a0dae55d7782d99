package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/screenbalance/jitai-engine/pkg/bandit"
	"github.com/screenbalance/jitai-engine/pkg/decision"
	"github.com/screenbalance/jitai-engine/pkg/ratelimit"
)

// LoadBanditState retrieves the persisted bandit snapshot. A missing key
// returns (nil, nil): the learner starts from the uniform prior.
func (s *Store) LoadBanditState(ctx context.Context) (*bandit.State, error) {
	data, err := s.client.Get(ctx, keyBanditState).Result()
	if err == redis.Nil {
		logrus.Infof("no persisted bandit state, starting from uniform prior")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bandit state: %w", err)
	}

	var state bandit.State
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal bandit state: %w", err)
	}
	return &state, nil
}

// SaveBanditState replaces the persisted bandit snapshot.
func (s *Store) SaveBanditState(ctx context.Context, state *bandit.State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal bandit state: %w", err)
	}

	if err := s.client.Set(ctx, keyBanditState, data, stateTTL).Err(); err != nil {
		return fmt.Errorf("failed to set bandit state: %w", err)
	}
	return nil
}

// LoadLimiterState retrieves the persisted rate limiter state. A missing
// key returns (nil, nil): the limiter starts fresh.
func (s *Store) LoadLimiterState(ctx context.Context) (*ratelimit.State, error) {
	data, err := s.client.Get(ctx, keyLimiterState).Result()
	if err == redis.Nil {
		logrus.Infof("no persisted rate limiter state, starting fresh")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get limiter state: %w", err)
	}

	var state ratelimit.State
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal limiter state: %w", err)
	}
	return &state, nil
}

// SaveLimiterState replaces the persisted rate limiter state.
func (s *Store) SaveLimiterState(ctx context.Context, state *ratelimit.State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal limiter state: %w", err)
	}

	if err := s.client.Set(ctx, keyLimiterState, data, stateTTL).Err(); err != nil {
		return fmt.Errorf("failed to set limiter state: %w", err)
	}
	return nil
}

// SaveLogTail replaces the persisted decision log tail.
func (s *Store) SaveLogTail(ctx context.Context, entries []decision.LogEntry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to marshal log tail: %w", err)
	}

	if err := s.client.Set(ctx, keyLogTail, data, stateTTL).Err(); err != nil {
		return fmt.Errorf("failed to set log tail: %w", err)
	}
	return nil
}

// LoadLogTail retrieves the persisted decision log tail.
func (s *Store) LoadLogTail(ctx context.Context) ([]decision.LogEntry, error) {
	data, err := s.client.Get(ctx, keyLogTail).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get log tail: %w", err)
	}

	var entries []decision.LogEntry
	if err := json.Unmarshal([]byte(data), &entries); err != nil {
		return nil, fmt.Errorf("failed to unmarshal log tail: %w", err)
	}
	return entries, nil
}
