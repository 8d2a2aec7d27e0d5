package api

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisRateCounter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// incrWithTTL 自增限流计数器，窗口首次写入时设置过期时间。
func incrWithTTL(ctx context.Context, client redisRateCounter, key string, ttl time.Duration) (int64, error) {
	count, err := client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		_ = client.Expire(ctx, key, ttl).Err()
	}
	return count, nil
}

// rateExceeded 判断限流计数是否超限。limit 不为正数表示限流未启用。
func rateExceeded(count int64, limit int) bool {
	return limit > 0 && count > int64(limit)
}

// hourWindow 返回按小时滚动的限流窗口后缀。
func hourWindow(now time.Time) string {
	return now.UTC().Format("2006010215")
}

// scrapeCacheKey 把职位链接散列成定长缓存键，避免超长 URL 直接做键。
func scrapeCacheKey(rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	return "cache:scrape:" + hex.EncodeToString(sum[:])
}
