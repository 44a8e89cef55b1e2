package redis

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/mestermind/backend/internal/logger"
)

// LeadAccessCache caches the gate-open bit per (pro, job) pair. The flag is
// monotonic (a purchase never re-locks), so entries are written once and a
// miss just falls back to Postgres; losing the cache is always safe.
type LeadAccessCache interface {
	MarkPurchased(ctx context.Context, proID, jobID uuid.UUID) error
	// IsPurchased returns (purchased, found). found=false means the cache
	// has no opinion and the caller must consult the database.
	IsPurchased(ctx context.Context, proID, jobID uuid.UUID) (bool, bool)
	Close() error
}

type leadAccessCache struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

func NewLeadAccessCache(log *logger.Logger) (LeadAccessCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &leadAccessCache{
		log: log.With("service", "LeadAccessCache"),
		rdb: rdb,
		ttl: 30 * 24 * time.Hour,
	}, nil
}

func leadAccessKey(proID, jobID uuid.UUID) string {
	return fmt.Sprintf("lead_access:%s:%s", proID, jobID)
}

func (c *leadAccessCache) MarkPurchased(ctx context.Context, proID, jobID uuid.UUID) error {
	if c == nil || c.rdb == nil {
		return fmt.Errorf("lead access cache not initialized")
	}
	return c.rdb.Set(ctx, leadAccessKey(proID, jobID), "1", c.ttl).Err()
}

func (c *leadAccessCache) IsPurchased(ctx context.Context, proID, jobID uuid.UUID) (bool, bool) {
	if c == nil || c.rdb == nil {
		return false, false
	}
	val, err := c.rdb.Get(ctx, leadAccessKey(proID, jobID)).Result()
	if err != nil {
		if err != goredis.Nil {
			c.log.Warn("lead access cache read failed", "error", err)
		}
		return false, false
	}
	return val == "1", true
}

func (c *leadAccessCache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
