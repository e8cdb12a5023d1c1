package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/herbtrace/herbtrace-backend/internal/logger"
	"github.com/herbtrace/herbtrace-backend/internal/types"
	"github.com/herbtrace/herbtrace-backend/internal/utils"
)

// TraceCache is a read-side cache for assembled product traces. All methods
// are fail-open: a cache error is logged and treated as a miss, never
// propagated. The authoritative data always comes from the stores.
//
// Consistency is bounded, not strict: a reader that assembles a trace just
// before a write's Invalidate can Set the pre-write view afterward, and that
// view stays cached until the TTL expires. The TTL is the ceiling on how
// stale a served trace can be.
type TraceCache interface {
	Get(ctx context.Context, batchCode string) (*types.ProductTrace, bool)
	Set(ctx context.Context, batchCode string, trace *types.ProductTrace)
	Invalidate(ctx context.Context, batchCode string)
	Close() error
}

type traceCache struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

func NewTraceCache(log *logger.Logger) (TraceCache, error) {
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

	return &traceCache{
		log: log.With("service", "RedisTraceCache"),
		rdb: rdb,
		ttl: utils.GetEnvAsDuration("TRACE_CACHE_TTL", time.Minute, log),
	}, nil
}

func cacheKey(batchCode string) string {
	return "trace:" + batchCode
}

func (c *traceCache) Get(ctx context.Context, batchCode string) (*types.ProductTrace, bool) {
	raw, err := c.rdb.Get(ctx, cacheKey(batchCode)).Bytes()
	if err != nil {
		if err != goredis.Nil {
			c.log.Warn("Trace cache read failed", "batch_code", batchCode, "error", err)
		}
		return nil, false
	}
	var trace types.ProductTrace
	if err := json.Unmarshal(raw, &trace); err != nil {
		c.log.Warn("Trace cache entry corrupt, dropping", "batch_code", batchCode, "error", err)
		c.Invalidate(ctx, batchCode)
		return nil, false
	}
	return &trace, true
}

func (c *traceCache) Set(ctx context.Context, batchCode string, trace *types.ProductTrace) {
	raw, err := json.Marshal(trace)
	if err != nil {
		c.log.Warn("Trace cache encode failed", "batch_code", batchCode, "error", err)
		return
	}
	if err := c.rdb.Set(ctx, cacheKey(batchCode), raw, c.ttl).Err(); err != nil {
		c.log.Warn("Trace cache write failed", "batch_code", batchCode, "error", err)
	}
}

func (c *traceCache) Invalidate(ctx context.Context, batchCode string) {
	if err := c.rdb.Del(ctx, cacheKey(batchCode)).Err(); err != nil {
		c.log.Warn("Trace cache invalidate failed", "batch_code", batchCode, "error", err)
	}
}

func (c *traceCache) Close() error {
	return c.rdb.Close()
}
