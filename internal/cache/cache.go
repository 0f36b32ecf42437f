// cache — опциональный Redis-кэш горячих ответов каталога. Кэш строго
// best-effort: промах или ошибка Redis никогда не влияют на результат
// запроса, данные всегда можно перечитать из Postgres.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/savelevaik/go-manga-reader/internal/models"
)

// CatalogCache — минимальный контракт кэша каталога.
type CatalogCache interface {
	// GetSeries возвращает тайтл и признак его наличия в кэше.
	GetSeries(ctx context.Context, id uuid.UUID) (*models.Series, bool, error)
	// SetSeries сохраняет тайтл с TTL кэша.
	SetSeries(ctx context.Context, s *models.Series) error
	// GetSeriesPage возвращает закэшированную страницу каталога по ключу выдачи.
	GetSeriesPage(ctx context.Context, key string) (*models.SeriesPage, bool, error)
	// SetSeriesPage сохраняет страницу каталога.
	SetSeriesPage(ctx context.Context, key string, page *models.SeriesPage) error
	// InvalidateSeries удаляет тайтл и все страницы каталога из кэша
	// (вызывается после любой админской мутации каталога).
	InvalidateSeries(ctx context.Context, id uuid.UUID) error
	// Close закрывает клиент Redis.
	Close() error
}

type redisCache struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCache создаёт клиент Redis из URL (например, redis://:pass@host:6379/0).
// Если prefix пустой — используется "catalog:".
func NewRedisCache(redisURL, prefix string, ttl time.Duration) (CatalogCache, error) {
	if prefix == "" {
		prefix = "catalog:"
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(opt)

	// Fail-fast на старте.
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}

	return &redisCache{rdb: rdb, prefix: prefix, ttl: ttl}, nil
}

func (c *redisCache) seriesKey(id uuid.UUID) string { return c.prefix + "s:" + id.String() }
func (c *redisCache) pageKey(key string) string     { return c.prefix + "p:" + key }

func (c *redisCache) GetSeries(ctx context.Context, id uuid.UUID) (*models.Series, bool, error) {
	b, err := c.rdb.Get(ctx, c.seriesKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var s models.Series
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, false, err
	}

	return &s, true, nil
}

func (c *redisCache) SetSeries(ctx context.Context, s *models.Series) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}

	return c.rdb.Set(ctx, c.seriesKey(s.ID), b, c.ttl).Err()
}

func (c *redisCache) GetSeriesPage(ctx context.Context, key string) (*models.SeriesPage, bool, error) {
	b, err := c.rdb.Get(ctx, c.pageKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var page models.SeriesPage
	if err := json.Unmarshal(b, &page); err != nil {
		return nil, false, err
	}

	return &page, true, nil
}

func (c *redisCache) SetSeriesPage(ctx context.Context, key string, page *models.SeriesPage) error {
	b, err := json.Marshal(page)
	if err != nil {
		return err
	}

	return c.rdb.Set(ctx, c.pageKey(key), b, c.ttl).Err()
}

func (c *redisCache) InvalidateSeries(ctx context.Context, id uuid.UUID) error {
	// Страницы каталога зависят от состава выдачи, поэтому сносим их все.
	pipe := c.rdb.TxPipeline()
	pipe.Del(ctx, c.seriesKey(id))

	iter := c.rdb.Scan(ctx, 0, c.prefix+"p:*", 0).Iterator()
	for iter.Next(ctx) {
		pipe.Del(ctx, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}

	_, err := pipe.Exec(ctx)
	return err
}

func (c *redisCache) Close() error { return c.rdb.Close() }
