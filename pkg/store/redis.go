package store

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// Key prefixes for all engine-owned durable state. Everything is stored as
// an opaque JSON blob with replace-whole-value writes; the engine is the
// only writer.
const (
	keyBanditState  = "jitai:bandit_state"
	keyLimiterState = "jitai:limiter_state"
	keyLogTail      = "jitai:decision_log_tail"
	keyOutcomes     = "jitai:outcomes"

	// stateTTL keeps abandoned installs from accumulating forever.
	stateTTL = 90 * 24 * time.Hour

	// outcomeListCap bounds the durable outcome history.
	outcomeListCap = 1000
)

// Options configures the Redis connection.
type Options struct {
	Host       string
	Port       string
	Password   string
	MaxRetries int
}

// InitClient connects to Redis with exponential backoff and returns the
// client once a ping succeeds.
func InitClient(ctx context.Context, opts Options) (*redis.Client, error) {
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 5
	}

	client := redis.NewClient(&redis.Options{
		Addr:         opts.Host + ":" + opts.Port,
		Password:     opts.Password,
		DB:           0, // use default DB
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	b := backoff.NewExponentialBackOff()
	retries := backoff.WithMaxRetries(b, uint64(opts.MaxRetries))

	err := backoff.Retry(
		func() error {
			_, err := client.Ping(ctx).Result()
			if err != nil {
				logrus.Warnf("Redis connection failed: %v, retrying...", err)
				return err
			}
			return nil
		},
		retries,
	)
	if err != nil {
		return nil, err
	}

	logrus.Infof("connected to Redis at %s:%s", opts.Host, opts.Port)
	return client, nil
}

// Store is the Redis-backed persistence layer for all engine-owned
// durable state: bandit arms, rate limiter state, the decision log tail,
// and the outcome history.
type Store struct {
	client *redis.Client
}

// New creates a store over an initialized Redis client.
func New(client *redis.Client) *Store {
	return &Store{client: client}
}
