// Package redis implements the URL repository on Redis.
//
// Each mapping is a hash at <prefix>url:<code>. A sorted set scored by id
// keeps insertion order for listing, and a counter key hands out ids.
// Inserts and click increments run as Lua scripts so each is a single atomic
// step on the server.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/linkforge/shortener/internal/entity"
	"github.com/redis/go-redis/v9"
)

var urlFields = []string{"id", "short_code", "original_url", "clicks", "created_at"}

// KEYS: url hash, index zset, id counter. ARGV: code, original url.
// Returns {id, created_at_micros}, or {-1, 0} when the code is taken.
// created_at is built as a string; Lua numbers lose precision at that size.
var saveScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
	return {-1, 0}
end
local id = redis.call('INCR', KEYS[3])
local t = redis.call('TIME')
local created = t[1] .. string.format('%06d', tonumber(t[2]))
redis.call('HSET', KEYS[1],
	'id', id,
	'short_code', ARGV[1],
	'original_url', ARGV[2],
	'clicks', 0,
	'created_at', created)
redis.call('ZADD', KEYS[2], id, ARGV[1])
return {id, created}
`)

// KEYS: url hash. Returns the updated fields, or nil when the code is unknown.
var incrementScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return false
end
redis.call('HINCRBY', KEYS[1], 'clicks', 1)
return redis.call('HMGET', KEYS[1], 'id', 'short_code', 'original_url', 'clicks', 'created_at')
`)

type Option func(*URLRepository)

func WithKeyPrefix(prefix string) Option {
	return func(r *URLRepository) {
		r.prefix = prefix
	}
}

type URLRepository struct {
	client *redis.Client
	prefix string
}

func NewURLRepository(client *redis.Client, opts ...Option) *URLRepository {
	r := &URLRepository{client: client}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

func (r *URLRepository) urlKey(shortCode string) string {
	return r.prefix + "url:" + shortCode
}

func (r *URLRepository) indexKey() string {
	return r.prefix + "urls:by_id"
}

func (r *URLRepository) seqKey() string {
	return r.prefix + "urls:seq"
}

func (r *URLRepository) Save(ctx context.Context, shortCode, originalURL string) (*entity.URL, error) {
	const op = "adapter.repository.redis.URLRepository.Save"

	keys := []string{r.urlKey(shortCode), r.indexKey(), r.seqKey()}

	res, err := saveScript.Run(ctx, r.client, keys, shortCode, originalURL).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to run save script: %w", op, err)
	}

	if len(res) != 2 {
		return nil, fmt.Errorf("%s: unexpected save script reply: %v", op, res)
	}

	if res[0] < 0 {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrShortCodeExists)
	}

	return &entity.URL{
		ID:          res[0],
		ShortCode:   shortCode,
		OriginalURL: originalURL,
		CreatedAt:   time.UnixMicro(res[1]).UTC(),
	}, nil
}

func (r *URLRepository) RetrieveByShortCode(ctx context.Context, shortCode string) (*entity.URL, error) {
	const op = "adapter.repository.redis.URLRepository.RetrieveByShortCode"

	vals, err := r.client.HMGet(ctx, r.urlKey(shortCode), urlFields...).Result()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get url hash: %w", op, err)
	}

	url, err := parseURL(vals)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return url, nil
}

func (r *URLRepository) IncrementClicks(ctx context.Context, shortCode string) (*entity.URL, error) {
	const op = "adapter.repository.redis.URLRepository.IncrementClicks"

	vals, err := incrementScript.Run(ctx, r.client, []string{r.urlKey(shortCode)}).Slice()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
		}

		return nil, fmt.Errorf("%s: failed to run increment script: %w", op, err)
	}

	url, err := parseURL(vals)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return url, nil
}

func (r *URLRepository) RetrieveAll(ctx context.Context) ([]*entity.URL, error) {
	const op = "adapter.repository.redis.URLRepository.RetrieveAll"

	codes, err := r.client.ZRevRange(ctx, r.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read url index: %w", op, err)
	}

	urls := make([]*entity.URL, 0, len(codes))
	if len(codes) == 0 {
		return urls, nil
	}

	cmds, err := r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, code := range codes {
			pipe.HMGet(ctx, r.urlKey(code), urlFields...)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read url hashes: %w", op, err)
	}

	for _, cmd := range cmds {
		vals, err := cmd.(*redis.SliceCmd).Result()
		if err != nil {
			return nil, fmt.Errorf("%s: failed to read url hash: %w", op, err)
		}

		url, err := parseURL(vals)
		if err != nil {
			if errors.Is(err, entity.ErrURLNotFound) {
				continue
			}
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		urls = append(urls, url)
	}

	return urls, nil
}

func (r *URLRepository) RetrieveStats(ctx context.Context, shortCode string) (*entity.URLStats, error) {
	const op = "adapter.repository.redis.URLRepository.RetrieveStats"

	url, err := r.RetrieveByShortCode(ctx, shortCode)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return url.Stats(), nil
}

// parseURL decodes an HMGET reply ordered as urlFields. A nil field
// means the hash does not exist.
func parseURL(vals []any) (*entity.URL, error) {
	if len(vals) != len(urlFields) {
		return nil, fmt.Errorf("unexpected field count %d", len(vals))
	}

	strs := make([]string, len(vals))
	for i, v := range vals {
		if v == nil {
			return nil, entity.ErrURLNotFound
		}

		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected type %T for field %s", v, urlFields[i])
		}
		strs[i] = s
	}

	id, err := strconv.ParseInt(strs[0], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse id: %w", err)
	}

	clicks, err := strconv.ParseInt(strs[3], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse clicks: %w", err)
	}

	createdAt, err := strconv.ParseInt(strs[4], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}

	return &entity.URL{
		ID:          id,
		ShortCode:   strs[1],
		OriginalURL: strs[2],
		Clicks:      clicks,
		CreatedAt:   time.UnixMicro(createdAt).UTC(),
	}, nil
}
