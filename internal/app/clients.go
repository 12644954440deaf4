package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/yungbote/backofhouse-backend/internal/clients/anthropic"
	"github.com/yungbote/backofhouse-backend/internal/clients/gcp"
	"github.com/yungbote/backofhouse-backend/internal/clients/notion"
	"github.com/yungbote/backofhouse-backend/internal/clients/pos"
	"github.com/yungbote/backofhouse-backend/internal/clients/redis"
	"github.com/yungbote/backofhouse-backend/internal/pkg/logger"
)

// Clients holds outbound integrations. Everything except Provider is optional
// and stays a nil interface when its settings are absent.
type Clients struct {
	Provider    anthropic.Client
	POS         pos.Client
	Notion      notion.Client
	ReportCache redis.ReportCache
	Bucket      gcp.BucketService
}

func (c Clients) Close(log *logger.Logger) {
	if c.ReportCache != nil {
		if err := c.ReportCache.Close(); err != nil {
			log.Warn("Closing redis failed", "error", err)
		}
	}
	if c.Bucket != nil {
		if err := c.Bucket.Close(); err != nil {
			log.Warn("Closing bucket failed", "error", err)
		}
	}
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")
	var out Clients

	provider, err := anthropic.NewClient(log, anthropic.Config{
		APIKey:            cfg.AnthropicAPIKey,
		BaseURL:           cfg.AnthropicBaseURL,
		Timeout:           5 * time.Minute,
		MaxRetries:        2,
		RequestsPerSecond: cfg.ProviderRPS,
	})
	if err != nil {
		return Clients{}, fmt.Errorf("init anthropic client: %w", err)
	}
	out.Provider = provider

	// POS
	if strings.TrimSpace(cfg.POSBaseURL) != "" && strings.TrimSpace(cfg.POSAPIKey) != "" {
		c, err := pos.NewClient(log, pos.Config{BaseURL: cfg.POSBaseURL, APIKey: cfg.POSAPIKey, Timeout: 30 * time.Second})
		if err != nil {
			return Clients{}, fmt.Errorf("init pos client: %w", err)
		}
		out.POS = c
	} else {
		log.Info("POS integration disabled")
	}

	// Notion
	if strings.TrimSpace(cfg.NotionAPIKey) != "" {
		c, err := notion.NewClient(log, notion.Config{APIKey: cfg.NotionAPIKey, Timeout: 30 * time.Second})
		if err != nil {
			return Clients{}, fmt.Errorf("init notion client: %w", err)
		}
		out.Notion = c
	}

	// Redis
	if strings.TrimSpace(cfg.RedisAddr) != "" {
		c, err := redis.NewReportCache(log, redis.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			log.Warn("Redis unavailable; POS report cache disabled", "error", err)
		} else {
			out.ReportCache = c
		}
	}

	// Gcs
	if cfg.StorageEnabled() {
		if err := gcp.ValidateObjectStorageConfig(cfg.ObjectStorage); err != nil {
			out.Close(log)
			return Clients{}, err
		}
		b, err := gcp.NewBucketService(log, cfg.ObjectStorage)
		if err != nil {
			out.Close(log)
			return Clients{}, fmt.Errorf("init bucket client: %w", err)
		}
		out.Bucket = b
	} else {
		log.Info("Restaurant file storage disabled")
	}

	return out, nil
}
