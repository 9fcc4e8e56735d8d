package health

import (
	"net/http"
	"runtime"
	"time"

	"meal-planner/internal/core/cache"
	"meal-planner/internal/core/queue"
	"meal-planner/internal/core/similarity"
	"meal-planner/internal/infrastructure/config"
	"meal-planner/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime"`
	Index     IndexStatus            `json:"index"`
	Queue     *queue.Status          `json:"queue,omitempty"`
	Cache     map[string]interface{} `json:"cache,omitempty"`
}

// IndexStatus 食譜索引狀態
type IndexStatus struct {
	Ready   bool   `json:"ready"`
	Recipes int    `json:"recipes"`
	Error   string `json:"error,omitempty"`
}

// Handler 健康檢查處理程序
type Handler struct {
	index *similarity.Loaded
	queue *queue.Manager
	cache cache.Store
}

// NewHandler 創建健康檢查處理程序，queue 與 cache 可為 nil
func NewHandler(index *similarity.Loaded, q *queue.Manager, store cache.Store) *Handler {
	return &Handler{index: index, queue: q, cache: store}
}

func (h *Handler) indexStatus() IndexStatus {
	idx, err := h.index.Index()
	if err != nil {
		return IndexStatus{Error: err.Error()}
	}
	return IndexStatus{Ready: true, Recipes: idx.Len()}
}

// HealthCheck 健康檢查處理器
func (h *Handler) HealthCheck(c *gin.Context) {
	// 獲取配置
	v, exists := c.Get("config")
	if !exists {
		common.LogError("Configuration not found in context")
		c.JSON(http.StatusInternalServerError, common.ToErrorResponse(common.ErrInternalError, false))
		return
	}
	cfg, ok := v.(*config.Config)
	if !ok {
		common.LogError("Invalid configuration type in context")
		c.JSON(http.StatusInternalServerError, common.ToErrorResponse(common.ErrInternalError, false))
		return
	}

	// 獲取運行時信息
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	index := h.indexStatus()
	status := "ok"
	if !index.Ready {
		status = "degraded"
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now(),
		Version:   cfg.App.Version,
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
		Index: index,
	}
	if h.queue != nil {
		response.Queue = h.queue.GetQueueStatus()
	}
	if mgr, ok := h.cache.(*cache.Manager); ok {
		response.Cache = mgr.GetStats()
	}

	common.LogDebug("Health check request",
		zap.String("client_ip", c.ClientIP()),
		zap.String("status", status),
	)

	c.JSON(http.StatusOK, response)
}

// ReadinessCheck 就緒檢查處理器，索引未載入時回傳 503
func (h *Handler) ReadinessCheck(c *gin.Context) {
	index := h.indexStatus()
	if !index.Ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not_ready",
			"code":   common.ErrCodeIndexUnavailable,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "ready",
		"recipes": index.Recipes,
	})
}

// LivenessCheck 存活檢查處理器
func LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}
