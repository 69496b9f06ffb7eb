// api/db/redis.go
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	logger "github.com/ledgerdash/ledgerdash/api/logging"
)

var RedisClient *redis.Client

func InitRedis() error {
	RedisClient = redis.NewClient(&redis.Options{
		Addr:         viper.GetString("redis.addr"),
		Password:     viper.GetString("redis.password"),
		DB:           viper.GetInt("redis.db"),
		DialTimeout:  viper.GetDuration("redis.dialTimeout"),
		ReadTimeout:  viper.GetDuration("redis.readTimeout"),
		WriteTimeout: viper.GetDuration("redis.writeTimeout"),
		PoolSize:     viper.GetInt("redis.poolSize"),
		PoolTimeout:  viper.GetDuration("redis.poolTimeout"),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := RedisClient.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Successfully connected to Redis")
	return nil
}

func CloseRedis() {
	if RedisClient != nil {
		if err := RedisClient.Close(); err != nil {
			logger.Error("Error closing Redis connection", zap.Error(err))
		}
	}
}

const recentTargetsKey = "recents:targets"

// PushRecentTarget records an address as the most recent operation target.
// The list is deduplicated and capped; it only pre-fills future forms and is
// never treated as authoritative data.
func PushRecentTarget(ctx context.Context, target string, limit int64) error {
	pipe := RedisClient.Pipeline()
	pipe.LRem(ctx, recentTargetsKey, 0, target)
	pipe.LPush(ctx, recentTargetsKey, target)
	pipe.LTrim(ctx, recentTargetsKey, 0, limit-1)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record recent target: %w", err)
	}

	logger.Debug("Recent target recorded", zap.String("target", target))
	return nil
}

// RecentTargets returns the recent-target list, most recent first.
func RecentTargets(ctx context.Context) ([]string, error) {
	targets, err := RedisClient.LRange(ctx, recentTargetsKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read recent targets: %w", err)
	}
	return targets, nil
}

func RateLimit(ctx context.Context, key string, limit int, per time.Duration) (bool, error) {
	pipe := RedisClient.Pipeline()
	now := time.Now().UnixNano()
	key = fmt.Sprintf("ratelimit:%s", key)

	pipe.ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%d", now-(per.Nanoseconds())))
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now), Member: now})
	pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, per)

	cmds, err := pipe.Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to execute rate limit commands: %w", err)
	}

	count := cmds[2].(*redis.IntCmd).Val()
	allowed := count <= int64(limit)
	logger.Debug("Rate limit check",
		zap.String("key", key),
		zap.Int64("count", count),
		zap.Int("limit", limit),
		zap.Bool("allowed", allowed))
	return allowed, nil
}

// LockOperation takes a best-effort cross-replica lock for an operation kind.
// The in-process controller guard already serializes within one replica; this
// narrows the duplicate-submission window across replicas. The ledger itself
// remains the final serialization point.
func LockOperation(ctx context.Context, kind string, ttl time.Duration) (bool, error) {
	key := fmt.Sprintf("lock:operation:%s", kind)
	locked, err := RedisClient.SetNX(ctx, key, "locked", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire operation lock: %w", err)
	}
	logger.Debug("Operation lock attempt",
		zap.String("kind", kind),
		zap.Bool("locked", locked))
	return locked, nil
}

func UnlockOperation(ctx context.Context, kind string) error {
	key := fmt.Sprintf("lock:operation:%s", kind)
	err := RedisClient.Del(ctx, key).Err()
	if err != nil {
		return fmt.Errorf("failed to release operation lock: %w", err)
	}
	logger.Debug("Operation lock released", zap.String("kind", kind))
	return nil
}
