// Package cache 查詢結果緩存：記憶體或 Redis
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"meal-planner/internal/infrastructure/config"
	"meal-planner/internal/pkg/common"
)

// Store 位元組值緩存；未命中回傳 common.ErrCacheMiss
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

// New 依設定建立緩存；停用時回傳 nil
func New(cfg config.CacheConfig) (Store, error) {
	if !cfg.Enabled {
		common.LogInfo("Cache disabled")
		return nil, nil
	}
	switch strings.ToLower(cfg.Backend) {
	case "", "memory":
		return NewManager(cfg), nil
	case "redis":
		s, err := NewRedisStore(cfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// Key 以 SHA-256 雜湊組出緩存鍵 "prefix:hash"
func Key(prefix string, parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return prefix + ":" + hex.EncodeToString(hash[:])
}
