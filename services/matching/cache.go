package matching

import (
	"context"
	"encoding/json"

	"slotbook/models"
	"slotbook/utils"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// ListingCache holds recently computed listings. Booking never consults it.
type ListingCache interface {
	Get(ctx context.Context, key string) (*models.AvailabilityListing, bool)
	Set(ctx context.Context, key string, listing *models.AvailabilityListing)
}

func listingKey(from, to, locationID string) string {
	return utils.ListingCachePrefix + from + ":" + to + ":" + locationID
}

type RedisListingCache struct {
	Client *redis.Client
	Logger *zap.Logger
}

func NewRedisListingCache(client *redis.Client, logger *zap.Logger) *RedisListingCache {
	return &RedisListingCache{Client: client, Logger: logger}
}

func (c *RedisListingCache) Get(ctx context.Context, key string) (*models.AvailabilityListing, bool) {
	data, err := c.Client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.Logger.Warn("Listing cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	var listing models.AvailabilityListing
	if err := json.Unmarshal(data, &listing); err != nil {
		return nil, false
	}
	return &listing, true
}

func (c *RedisListingCache) Set(ctx context.Context, key string, listing *models.AvailabilityListing) {
	data, err := json.Marshal(listing)
	if err != nil {
		return
	}
	if err := c.Client.Set(ctx, key, data, utils.ListingCacheTTL).Err(); err != nil {
		c.Logger.Warn("Listing cache write failed", zap.String("key", key), zap.Error(err))
	}
}
