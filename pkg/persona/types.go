package persona

import "time"

// Persona is a discrete behavioral archetype inferred from usage
// statistics. It biases intervention frequency and content selection.
type Persona string

const (
	HeavyCompulsive    Persona = "heavy_compulsive"
	HeavyBinge         Persona = "heavy_binge"
	ModerateBalanced   Persona = "moderate_balanced"
	Casual             Persona = "casual"
	ProblematicPattern Persona = "problematic_pattern"
	NewUser            Persona = "new_user"
)

// Usage trend labels derived from the regression slope over daily session
// counts.
const (
	TrendEscalating = "escalating"
	TrendIncreasing = "increasing"
	TrendStable     = "stable"
	TrendDecreasing = "decreasing"
	TrendDeclining  = "declining"
)

// Confidence levels, driven by account age.
const (
	ConfidenceLow    = "low"
	ConfidenceMedium = "medium"
	ConfidenceHigh   = "high"
)

// Analytics is the rolling-window usage summary the classifier consumes.
// Missing data zeroes the struct, which classifies as NewUser.
type Analytics struct {
	DaysSinceInstall  int
	TotalSessions     int
	AvgDailySessions  float64
	AvgSessionMinutes float64
	QuickReopenRate   float64
	Trend             string
	WindowEnd         time.Time
}

// Detected is one classification result: the persona label, how confident
// the classifier is, and the analytics it was derived from.
type Detected struct {
	Persona    Persona
	Confidence string
	Analytics  Analytics
	DetectedAt time.Time
}
