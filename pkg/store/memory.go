package store

import (
	"context"
	"errors"
	"sync"

	"github.com/screenbalance/jitai-engine/pkg/bandit"
	"github.com/screenbalance/jitai-engine/pkg/decision"
	"github.com/screenbalance/jitai-engine/pkg/outcome"
	"github.com/screenbalance/jitai-engine/pkg/ratelimit"
)

var errWriteFailed = errors.New("store: write failed")

// Memory is an in-memory implementation of every store interface the
// engine consumes. Used by tests and by hosts that bring their own
// persistence and only need the engine's in-process behavior.
type Memory struct {
	mu       sync.Mutex
	bandit   *bandit.State
	limiter  *ratelimit.State
	logTail  []decision.LogEntry
	outcomes []outcome.Outcome

	// FailWrites makes every write return an error. Test hook for the
	// degrade-and-retry persistence policy.
	FailWrites bool
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) writeErr() error {
	if m.FailWrites {
		return errWriteFailed
	}
	return nil
}

// LoadBanditState implements bandit.StateStore.
func (m *Memory) LoadBanditState(context.Context) (*bandit.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bandit, nil
}

// SaveBanditState implements bandit.StateStore.
func (m *Memory) SaveBanditState(_ context.Context, s *bandit.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.writeErr(); err != nil {
		return err
	}
	m.bandit = s
	return nil
}

// LoadLimiterState implements ratelimit.StateStore.
func (m *Memory) LoadLimiterState(context.Context) (*ratelimit.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.limiter, nil
}

// SaveLimiterState implements ratelimit.StateStore.
func (m *Memory) SaveLimiterState(_ context.Context, s *ratelimit.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.writeErr(); err != nil {
		return err
	}
	m.limiter = s
	return nil
}

// SaveLogTail implements decision.LogStore.
func (m *Memory) SaveLogTail(_ context.Context, entries []decision.LogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.writeErr(); err != nil {
		return err
	}
	m.logTail = entries
	return nil
}

// LoadLogTail implements decision.LogStore.
func (m *Memory) LoadLogTail(context.Context) ([]decision.LogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.logTail, nil
}

// Save implements outcome.HistoryStore.
func (m *Memory) Save(_ context.Context, o outcome.Outcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.writeErr(); err != nil {
		return err
	}
	m.outcomes = append(m.outcomes, o)
	if len(m.outcomes) > outcomeListCap {
		m.outcomes = m.outcomes[len(m.outcomes)-outcomeListCap:]
	}
	return nil
}

// GetResultsInRange implements outcome.HistoryStore.
func (m *Memory) GetResultsInRange(_ context.Context, startMs, endMs int64) ([]outcome.Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []outcome.Outcome
	for _, o := range m.outcomes {
		ms := o.Timestamp.UnixMilli()
		if ms < startMs || ms > endMs {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

// GetRecentForApp implements outcome.HistoryStore.
func (m *Memory) GetRecentForApp(_ context.Context, app string, limit int) ([]outcome.Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []outcome.Outcome
	for _, o := range m.outcomes {
		if o.App == app {
			out = append(out, o)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}
