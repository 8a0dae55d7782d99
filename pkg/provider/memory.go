package provider

import (
	"context"
	"sync"
	"time"
)

// In-memory implementations of the provider interfaces. Used by tests and
// by local runs that have no real usage capture wired in.

// MemoryUsageHistory is an in-memory UsageHistoryProvider.
type MemoryUsageHistory struct {
	mu       sync.RWMutex
	sessions []Session
}

// NewMemoryUsageHistory creates an empty in-memory usage history.
func NewMemoryUsageHistory() *MemoryUsageHistory {
	return &MemoryUsageHistory{}
}

// Add appends sessions to the history.
func (m *MemoryUsageHistory) Add(sessions ...Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions = append(m.sessions, sessions...)
}

// GetSessions implements UsageHistoryProvider.
func (m *MemoryUsageHistory) GetSessions(_ context.Context, app string, from, to time.Time) ([]Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Session
	for _, s := range m.sessions {
		if s.App != app {
			continue
		}
		if s.Start.Before(from) || !s.Start.Before(to) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

// GetSessionsInRange implements UsageHistoryProvider.
func (m *MemoryUsageHistory) GetSessionsInRange(_ context.Context, startDate, endDate string) ([]Session, error) {
	from, err := time.Parse("2006-01-02", startDate)
	if err != nil {
		return nil, err
	}
	end, err := time.Parse("2006-01-02", endDate)
	if err != nil {
		return nil, err
	}
	to := end.AddDate(0, 0, 1)

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Session
	for _, s := range m.sessions {
		if s.Start.Before(from) || !s.Start.Before(to) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

// MemoryGoals is an in-memory GoalProvider.
type MemoryGoals struct {
	mu    sync.RWMutex
	goals map[string]Goal
}

// NewMemoryGoals creates an empty in-memory goal provider.
func NewMemoryGoals() *MemoryGoals {
	return &MemoryGoals{goals: make(map[string]Goal)}
}

// Set stores a goal for an app.
func (m *MemoryGoals) Set(app string, goal Goal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.goals[app] = goal
}

// GetGoal implements GoalProvider.
func (m *MemoryGoals) GetGoal(_ context.Context, app string) (*Goal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	g, ok := m.goals[app]
	if !ok {
		return nil, nil
	}
	return &g, nil
}

// FixedInstallClock is an InstallationClock with a fixed install date.
type FixedInstallClock struct {
	Date time.Time
}

// InstallDate implements InstallationClock.
func (c FixedInstallClock) InstallDate() time.Time {
	return c.Date
}

// NopDelivery is a DeliveryChannel that drops everything. Useful when the
// host only wants decisions, not delivery.
type NopDelivery struct{}

// Deliver implements DeliveryChannel.
func (NopDelivery) Deliver(context.Context, string, string, string, string) error {
	return nil
}
