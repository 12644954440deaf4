package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/backofhouse-backend/internal/pkg/logger"
)

// ReportCache remembers which POS report request belongs to a restaurant and
// business date, so a retried turn polls the same report instead of asking
// for a new one.
type ReportCache interface {
	GetReportGUID(ctx context.Context, posRestaurantGUID string, businessDate int) (string, bool, error)
	SetReportGUID(ctx context.Context, posRestaurantGUID string, businessDate int, reportGUID string) error
	Close() error
}

type Config struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

type redisReportCache struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

func NewReportCache(log *logger.Logger, cfg Config) (ReportCache, error) {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &redisReportCache{
		log: log.With("service", "RedisReportCache"),
		rdb: rdb,
		ttl: ttl,
	}, nil
}

func reportKey(posRestaurantGUID string, businessDate int) string {
	return fmt.Sprintf("pos:report:%s:%d", posRestaurantGUID, businessDate)
}

func (c *redisReportCache) GetReportGUID(ctx context.Context, posRestaurantGUID string, businessDate int) (string, bool, error) {
	v, err := c.rdb.Get(ctx, reportKey(posRestaurantGUID, businessDate)).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, v != "", nil
}

func (c *redisReportCache) SetReportGUID(ctx context.Context, posRestaurantGUID string, businessDate int, reportGUID string) error {
	return c.rdb.Set(ctx, reportKey(posRestaurantGUID, businessDate), reportGUID, c.ttl).Err()
}

func (c *redisReportCache) Close() error {
	return c.rdb.Close()
}
