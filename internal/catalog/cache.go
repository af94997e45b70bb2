package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"iiot-site/internal/common/logger"
	"iiot-site/internal/common/metrics"
)

const (
	entityProduct  = "product"
	entityPost     = "post"
	entityCategory = "category"

	keyPrefix     = "catalog:"
	categoriesKey = keyPrefix + "categories"
)

func productKey(slug string) string { return keyPrefix + "product:" + slug }
func postKey(slug string) string    { return keyPrefix + "post:" + slug }
func genKey(entity string) string   { return keyPrefix + entity + ":gen" }

// Cache is a read-through JSON cache in Redis. Detail entries are evicted by
// key; list entries embed the entity generation, so bumping the generation
// orphans every cached page at once and TTL reclaims them. Every failure is
// logged and reported as a miss.
type Cache struct {
	rdb    redis.Cmdable
	ttl    time.Duration
	logger logger.Logger
}

func NewCache(rdb redis.Cmdable, ttl time.Duration, log logger.Logger) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{rdb: rdb, ttl: ttl, logger: log}
}

func (c *Cache) get(ctx context.Context, entity, key string, out interface{}) bool {
	if c == nil {
		return false
	}
	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		metrics.CatalogCacheTotal.WithLabelValues(entity, "miss").Inc()
		return false
	case err != nil:
		metrics.CatalogCacheTotal.WithLabelValues(entity, "error").Inc()
		c.logger.Warn("catalog cache read failed", map[string]interface{}{"key": key, "error": err})
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		metrics.CatalogCacheTotal.WithLabelValues(entity, "error").Inc()
		c.logger.Warn("catalog cache entry undecodable", map[string]interface{}{"key": key, "error": err})
		return false
	}
	metrics.CatalogCacheTotal.WithLabelValues(entity, "hit").Inc()
	return true
}

func (c *Cache) set(ctx context.Context, key string, v interface{}) {
	if c == nil || key == "" {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("catalog cache write failed", map[string]interface{}{"key": key, "error": err})
	}
}

func (c *Cache) evict(ctx context.Context, keys ...string) {
	if c == nil || len(keys) == 0 {
		return
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("catalog cache eviction failed", map[string]interface{}{"keys": keys, "error": err})
	}
}

// bump invalidates every cached list page of entity.
func (c *Cache) bump(ctx context.Context, entity string) {
	if c == nil {
		return
	}
	if err := c.rdb.Incr(ctx, genKey(entity)).Err(); err != nil {
		c.logger.Warn("catalog cache generation bump failed", map[string]interface{}{"entity": entity, "error": err})
	}
}

// listKey returns "" when the generation cannot be read, which disables
// caching for that request.
func (c *Cache) listKey(ctx context.Context, entity string, params url.Values) string {
	if c == nil {
		return ""
	}
	gen, err := c.rdb.Get(ctx, genKey(entity)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		metrics.CatalogCacheTotal.WithLabelValues(entity, "error").Inc()
		c.logger.Warn("catalog cache generation read failed", map[string]interface{}{"entity": entity, "error": err})
		return ""
	}
	return fmt.Sprintf("%s%s:list:%d:%s", keyPrefix, entity, gen, params.Encode())
}

func productListParams(f ProductFilter) url.Values {
	v := url.Values{}
	v.Set("category", f.Category)
	v.Set("drafts", strconv.FormatBool(f.IncludeDrafts))
	v.Set("page", strconv.Itoa(f.Page))
	v.Set("size", strconv.Itoa(f.PageSize))
	if f.Featured != nil {
		v.Set("featured", strconv.FormatBool(*f.Featured))
	}
	v.Set("q", f.Query)
	return v
}

func postListParams(f PostFilter) url.Values {
	v := url.Values{}
	v.Set("tag", f.Tag)
	v.Set("drafts", strconv.FormatBool(f.IncludeDrafts))
	v.Set("page", strconv.Itoa(f.Page))
	v.Set("size", strconv.Itoa(f.PageSize))
	return v
}
