package provider

import (
	"context"
	"time"
)

// Service interfaces for the external collaborators the decision engine
// depends on. The engine never reads device usage or delivers messages
// itself; the host application implements these and injects them.
//
// Having interfaces here allows easier mocking for unit tests.

// Session is a single usage session of a target app.
type Session struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	App   string    `json:"app"`
}

// Duration returns the session length.
func (s Session) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// Goal is the user's daily limit for one target app.
type Goal struct {
	DailyLimitMinutes int `json:"dailyLimitMinutes"`
	CurrentStreak     int `json:"currentStreak"`
}

// UsageHistoryProvider supplies historical usage sessions.
type UsageHistoryProvider interface {
	// GetSessions returns sessions for one app within [from, to).
	GetSessions(ctx context.Context, app string, from, to time.Time) ([]Session, error)

	// GetSessionsInRange returns sessions for all apps within the given
	// calendar dates (inclusive), formatted as "2006-01-02".
	GetSessionsInRange(ctx context.Context, startDate, endDate string) ([]Session, error)
}

// GoalProvider supplies the user's daily goal for an app, if any.
type GoalProvider interface {
	// GetGoal returns the goal for an app, or nil when no goal is set.
	GetGoal(ctx context.Context, app string) (*Goal, error)
}

// InstallationClock supplies the app install date for
// days-since-install computations.
type InstallationClock interface {
	InstallDate() time.Time
}

// DeliveryChannel receives selected content for delivery. The channel
// (notification, live activity, in-app overlay) is the host's choice;
// the engine only hands over the message and the session it belongs to.
type DeliveryChannel interface {
	Deliver(ctx context.Context, sessionID, app, category, message string) error
}
