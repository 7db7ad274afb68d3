package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"referral-campaign/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimitInfo is the per-client counter stored in redis: how many requests
// remain in the current window and when the window refills.
type RateLimitInfo struct {
	Remaining int   `json:"remaining"`
	NextReset int64 `json:"next_reset"`
}

type RateLimiter struct {
	rdb      *redis.Client
	requests int
	window   time.Duration
}

func NewRateLimiter(rdb *redis.Client, requests int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		rdb:      rdb,
		requests: requests,
		window:   window,
	}
}

// Handler applies a fixed-window limit keyed by client address. Counter
// store failures fail open: a broken redis must not take the campaign down.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.Logger()
		ctx := c.Request.Context()
		key := "ratelimit:" + c.ClientIP()

		info, found, err := rl.get(ctx, key)
		if err != nil {
			log.Error("rate limiter read failed", zap.Error(err))
			c.Next()
			return
		}

		now := time.Now()

		if !found {
			rl.set(ctx, key, &RateLimitInfo{
				Remaining: rl.requests - 1,
				NextReset: now.Add(rl.window).Unix(),
			})
			c.Next()
			return
		}

		if info.Remaining <= 0 {
			if info.NextReset > now.Unix() {
				c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
				return
			}
			rl.set(ctx, key, &RateLimitInfo{
				Remaining: rl.requests - 1,
				NextReset: now.Add(rl.window).Unix(),
			})
			c.Next()
			return
		}

		rl.set(ctx, key, &RateLimitInfo{
			Remaining: info.Remaining - 1,
			NextReset: info.NextReset,
		})
		c.Next()
	}
}

func (rl *RateLimiter) get(ctx context.Context, key string) (*RateLimitInfo, bool, error) {
	val, err := rl.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var info RateLimitInfo
	if err := json.Unmarshal([]byte(val), &info); err != nil {
		return nil, false, err
	}

	return &info, true, nil
}

func (rl *RateLimiter) set(ctx context.Context, key string, info *RateLimitInfo) {
	b, err := json.Marshal(info)
	if err != nil {
		logger.Logger().Error("rate limiter marshal failed", zap.Error(err))
		return
	}

	// TTL doubles as cleanup for idle clients.
	if err := rl.rdb.Set(ctx, key, b, 2*rl.window).Err(); err != nil {
		logger.Logger().Error("rate limiter write failed", zap.Error(err))
	}
}
