package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/screenbalance/jitai-engine/pkg/engine"
	"github.com/screenbalance/jitai-engine/pkg/provider"
	"github.com/screenbalance/jitai-engine/pkg/store"
)

// Providers are the host-supplied collaborators. Nil fields fall back to
// the in-memory implementations so the standalone binary runs without a
// host; embedding hosts supply real usage, goal and delivery providers.
type Providers struct {
	Usage    provider.UsageHistoryProvider
	Goals    provider.GoalProvider
	Install  provider.InstallationClock
	Delivery provider.DeliveryChannel
}

func (p *Providers) applyDefaults() {
	if p.Usage == nil {
		p.Usage = provider.NewMemoryUsageHistory()
	}
	if p.Goals == nil {
		p.Goals = provider.NewMemoryGoals()
	}
	if p.Install == nil {
		p.Install = provider.FixedInstallClock{Date: time.Now()}
	}
	if p.Delivery == nil {
		p.Delivery = provider.NopDelivery{}
	}
}

// InitEngine builds the decision engine over the Redis-backed stores and
// the given providers, loads the tunables file and restores durable state.
func InitEngine(ctx context.Context, tunablesPath string, client *redis.Client, providers Providers) (*engine.Engine, error) {
	providers.applyDefaults()

	cfg, err := engine.LoadConfig(tunablesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load engine tunables: %w", err)
	}

	st := store.New(client)

	eng := engine.New(cfg, engine.Deps{
		Usage:        providers.Usage,
		Goals:        providers.Goals,
		Install:      providers.Install,
		Delivery:     providers.Delivery,
		History:      st,
		BanditStore:  st,
		LimiterStore: st,
		LogStore:     st,
	})
	eng.Restore(ctx)

	logrus.Info("decision engine initialized")
	return eng, nil
}
