package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const distributionClaimPrefix = "distribute:"

// releaseIfOwner deletes the claim only when it still holds the caller's token,
// so an expired claim taken over by another worker is left alone.
var releaseIfOwner = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// DistributionClaims hands out exclusive, expiring claims on postings so
// only one worker fans a posting out at a time.
type DistributionClaims struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewDistributionClaims(redisClient *redis.Client, ttl time.Duration) *DistributionClaims {
	return &DistributionClaims{redis: redisClient, ttl: ttl}
}

func distributionClaimKey(postingID int64) string {
	return fmt.Sprintf("%s%d", distributionClaimPrefix, postingID)
}

// Claim reports whether owner now holds the posting. A claim held by someone
// else is not overwritten.
func (c *DistributionClaims) Claim(ctx context.Context, postingID int64, owner string) (bool, error) {
	ok, err := c.redis.SetNX(ctx, distributionClaimKey(postingID), owner, c.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%w: claim posting %d: %v", ErrCacheFailed, postingID, err)
	}
	return ok, nil
}

func (c *DistributionClaims) Release(ctx context.Context, postingID int64, owner string) error {
	if err := releaseIfOwner.Run(ctx, c.redis, []string{distributionClaimKey(postingID)}, owner).Err(); err != nil {
		return fmt.Errorf("%w: release posting %d: %v", ErrCacheFailed, postingID, err)
	}
	return nil
}
