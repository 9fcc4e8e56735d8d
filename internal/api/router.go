package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"meal-planner/internal/api/handlers"
	"meal-planner/internal/api/handlers/health"
	"meal-planner/internal/api/middleware"
	"meal-planner/internal/core/cache"
	"meal-planner/internal/core/diet"
	"meal-planner/internal/core/nutrition"
	"meal-planner/internal/core/planner"
	"meal-planner/internal/core/queue"
	"meal-planner/internal/core/recommend"
	"meal-planner/internal/core/similarity"
	"meal-planner/internal/core/solver"
	"meal-planner/internal/infrastructure/config"
	"meal-planner/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// 未設定時的預設值
	defaultRequestTimeout = 30 * time.Second
	defaultMaxBodySize    = 1 << 20
)

// SetupRouter 設置路由；store 與 q 可為 nil
func SetupRouter(cfg *config.Config, index *similarity.Loaded, store cache.Store, q *queue.Manager) (*gin.Engine, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
		zap.Bool("index_ready", index.IsReady()),
	)

	// 設置 gin 模式
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	timeout := cfg.Server.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	maxBodySize := cfg.Server.MaxBodyBytes
	if maxBodySize <= 0 {
		maxBodySize = defaultMaxBodySize
	}

	router := gin.New()

	// 註冊基礎中間件
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(requestid.New())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	router.Use(middleware.BodySizeLimit(maxBodySize))
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}
	if cfg.DedupWindow > 0 {
		router.Use(middleware.Deduplication(cfg.DedupWindow))
	}

	// 全局中間件：設置超時和配置
	router.Use(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Set("config", cfg)

		c.Next()

		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !c.Writer.Written() {
			common.LogError("Request timeout",
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", requestid.Get(c)),
				zap.Duration("timeout", timeout),
			)
			c.AbortWithStatusJSON(http.StatusGatewayTimeout, common.ErrorResponse{
				Code:    common.ErrCodeGatewayTimeout,
				Message: "請求逾時",
				Details: timeout.String(),
			})
		}
	})

	svc, err := newServices(cfg, index, store, q)
	if err != nil {
		common.LogError("Failed to initialize services", zap.Error(err))
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}
	h := handlers.NewHandler(svc, cfg.Recommend.DefaultTopK, cfg.App.Debug)
	hc := health.NewHandler(index, q, store)

	// 健康檢查路由
	router.GET("/health", hc.HealthCheck)
	router.GET("/ready", hc.ReadinessCheck)
	router.GET("/live", health.LivenessCheck)

	api := router.Group("/api/v1")
	{
		api.POST("/recipes/recommend", h.HandleRecommend)

		plans := api.Group("/plans")
		{
			plans.POST("/generate", h.HandleGeneratePlan)
			plans.POST("/regenerate", h.HandleRegeneratePlan)
		}

		nutritionGroup := api.Group("/nutrition")
		{
			nutritionGroup.POST("/ingredient", h.HandleIngredientNutrition)
			nutritionGroup.POST("/recipe", h.HandleRecipeNutrition)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, common.ToErrorResponse(common.ErrNotFound, false))
	})

	common.LogInfo("Router setup completed successfully",
		zap.Bool("cache_enabled", store != nil),
		zap.Bool("queue_enabled", q != nil),
		zap.Duration("timeout", timeout),
		zap.Int64("max_body_size", maxBodySize),
	)

	return router, nil
}

// newServices 依設定組裝推薦、規劃與營養服務
func newServices(cfg *config.Config, index *similarity.Loaded, store cache.Store, q *queue.Manager) (handlers.Services, error) {
	if index == nil {
		return handlers.Services{}, errors.New("recipe index is required")
	}

	builder := recommend.NewBuilder(index, diet.Default(), recommendOptions(cfg.Recommend))
	optimizer := planner.NewOptimizer(newSolver(cfg.Planner))

	usda := nutrition.NewUSDAClient(cfg.USDA, store)

	return handlers.Services{
		Recommender: recommend.NewRecommender(builder, cfg.Recommend.PoolSize),
		Planner: planner.NewService(builder, optimizer, q, planner.Options{
			PoolSize: cfg.Recommend.PlanPoolSize,
			Timeout:  cfg.Planner.Timeout,
		}),
		Nutrition: usda,
		Converter: nutrition.NewConverter(nil),
		Annotator: nutrition.NewAnnotator(usda, cfg.USDA.Workers),
	}, nil
}

// recommendOptions 設定值已由 validateConfig 檢查，0 為合法值
func recommendOptions(cfg config.RecommendConfig) recommend.Options {
	return recommend.Options{
		MaxExtra:         cfg.MaxExtra,
		ServingTolerance: cfg.ServingTolerance,
	}
}

// newSolver 選餐問題走子集搜尋，其他形式退回分支定界
func newSolver(cfg config.PlannerConfig) solver.Solver {
	opts := solver.DefaultOptions()
	opts.AbsGap = cfg.AbsGap
	opts.MaxNodes = cfg.MaxNodes
	if cfg.IntTolerance > 0 {
		opts.IntTolerance = cfg.IntTolerance
	}
	return solver.NewSubsetSearch(opts, solver.NewBranchAndBound(opts))
}
