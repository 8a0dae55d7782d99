package engine

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Tunables are the operator-adjustable knobs of the decision engine,
// loaded from a YAML file at startup. Everything has a sensible default;
// a missing file runs the engine on defaults.
type Tunables struct {
	// ExplorationRate is the bandit's epsilon for forced exploration.
	ExplorationRate float64 `yaml:"explorationRate"`

	// RandomSeed seeds the engine RNG. Zero means seed from the clock.
	RandomSeed int64 `yaml:"randomSeed"`

	PersonaCacheTTL     string `yaml:"personaCacheTTL"`
	OpportunityCacheTTL string `yaml:"opportunityCacheTTL"`
	BurdenCacheTTL      string `yaml:"burdenCacheTTL"`
}

// Config is the parsed, validated form of Tunables.
type Config struct {
	ExplorationRate float64
	RandomSeed      int64

	PersonaCacheTTL     time.Duration
	OpportunityCacheTTL time.Duration
	BurdenCacheTTL      time.Duration
}

// DefaultConfig returns the engine defaults used when no tunables file is
// provided.
func DefaultConfig() Config {
	return Config{
		ExplorationRate:     0.1,
		PersonaCacheTTL:     6 * time.Hour,
		OpportunityCacheTTL: 5 * time.Minute,
		BurdenCacheTTL:      10 * time.Minute,
	}
}

// LoadConfig reads tunables from a YAML file. A missing file is not an
// error: the engine runs on defaults. A present but unreadable file is.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		logrus.Infof("no engine tunables at %s, using defaults", path)
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read engine tunables: %w", err)
	}

	var t Tunables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return cfg, fmt.Errorf("failed to parse engine tunables: %w", err)
	}

	if t.ExplorationRate < 0 || t.ExplorationRate > 1 {
		return cfg, fmt.Errorf("explorationRate must be in [0,1], got %v", t.ExplorationRate)
	}
	if t.ExplorationRate > 0 {
		cfg.ExplorationRate = t.ExplorationRate
	}
	cfg.RandomSeed = t.RandomSeed

	if err := overrideTTL(&cfg.PersonaCacheTTL, t.PersonaCacheTTL, "personaCacheTTL"); err != nil {
		return cfg, err
	}
	if err := overrideTTL(&cfg.OpportunityCacheTTL, t.OpportunityCacheTTL, "opportunityCacheTTL"); err != nil {
		return cfg, err
	}
	if err := overrideTTL(&cfg.BurdenCacheTTL, t.BurdenCacheTTL, "burdenCacheTTL"); err != nil {
		return cfg, err
	}

	logrus.Infof("loaded engine tunables from %s", path)
	return cfg, nil
}

func overrideTTL(dst *time.Duration, raw, name string) error {
	if raw == "" {
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	if d <= 0 {
		return fmt.Errorf("%s must be positive, got %v", name, d)
	}
	*dst = d
	return nil
}
