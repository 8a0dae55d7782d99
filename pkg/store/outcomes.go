package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/screenbalance/jitai-engine/pkg/outcome"
)

// Outcome history, stored as a capped Redis list of JSON records, oldest
// first. The list is small enough (outcomeListCap) that range queries read
// it whole and filter client-side.

// Save appends an outcome and trims the list to its cap.
func (s *Store) Save(ctx context.Context, o outcome.Outcome) error {
	data, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("failed to marshal outcome: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, keyOutcomes, data)
	pipe.LTrim(ctx, keyOutcomes, -outcomeListCap, -1)
	pipe.Expire(ctx, keyOutcomes, stateTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append outcome: %w", err)
	}
	return nil
}

// GetResultsInRange returns outcomes with timestamps in [startMs, endMs],
// oldest first.
func (s *Store) GetResultsInRange(ctx context.Context, startMs, endMs int64) ([]outcome.Outcome, error) {
	all, err := s.readAll(ctx)
	if err != nil {
		return nil, err
	}

	var out []outcome.Outcome
	for _, o := range all {
		ms := o.Timestamp.UnixMilli()
		if ms < startMs || ms > endMs {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

// GetRecentForApp returns up to limit outcomes for one app, oldest first.
func (s *Store) GetRecentForApp(ctx context.Context, app string, limit int) ([]outcome.Outcome, error) {
	all, err := s.readAll(ctx)
	if err != nil {
		return nil, err
	}

	var out []outcome.Outcome
	for _, o := range all {
		if o.App == app {
			out = append(out, o)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (s *Store) readAll(ctx context.Context) ([]outcome.Outcome, error) {
	items, err := s.client.LRange(ctx, keyOutcomes, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read outcome history: %w", err)
	}

	out := make([]outcome.Outcome, 0, len(items))
	for _, item := range items {
		var o outcome.Outcome
		if err := json.Unmarshal([]byte(item), &o); err != nil {
			// One corrupt record must not poison the whole history.
			logrus.Warnf("skipping unreadable outcome record: %v", err)
			continue
		}
		out = append(out, o)
	}
	return out, nil
}
