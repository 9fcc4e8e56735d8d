package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"meal-planner/internal/pkg/common"
)

// dedupCache 記錄請求指紋最後出現的時間
type dedupCache struct {
	sync.Mutex
	requests map[string]time.Time
	window   time.Duration
	lastGC   time.Time
}

// seen 回報指紋是否在窗口內出現過，並更新時間
func (d *dedupCache) seen(fingerprint string, now time.Time) bool {
	d.Lock()
	defer d.Unlock()

	// 過期紀錄在請求路徑上順便清除，不另開 goroutine
	if now.Sub(d.lastGC) > 10*d.window {
		for k, t := range d.requests {
			if now.Sub(t) > d.window {
				delete(d.requests, k)
			}
		}
		d.lastGC = now
	}

	if last, ok := d.requests[fingerprint]; ok && now.Sub(last) <= d.window {
		return true
	}
	d.requests[fingerprint] = now
	return false
}

// Deduplication 請求去重中間件，同一路徑與內容的 POST 在窗口內只處理一次
func Deduplication(window time.Duration) gin.HandlerFunc {
	if window <= 0 {
		window = time.Second
	}
	cache := &dedupCache{
		requests: make(map[string]time.Time),
		window:   window,
		lastGC:   time.Now(),
	}

	return func(c *gin.Context) {
		// 只處理 POST 請求
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		// 計算請求體哈希
		bodyHash := ""
		if c.Request.Body != nil {
			body, err := io.ReadAll(c.Request.Body)
			if err != nil {
				common.LogError("讀取請求內容失敗", zap.Error(err))
				c.Next()
				return
			}
			hash := sha256.Sum256(body)
			bodyHash = hex.EncodeToString(hash[:])

			// 恢復請求體
			c.Request.Body = io.NopCloser(bytes.NewReader(body))
		}

		fingerprint := c.ClientIP() + ":" + c.Request.URL.Path + ":" + bodyHash
		if cache.seen(fingerprint, time.Now()) {
			common.LogWarn("重複請求",
				zap.String("path", c.Request.URL.Path),
				zap.String("ip", c.ClientIP()),
			)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, common.ToErrorResponse(common.ErrTooManyRequests, false))
			return
		}

		c.Next()
	}
}
