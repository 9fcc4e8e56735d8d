package recommend

import (
	"context"

	"meal-planner/internal/core/filter"
	"meal-planner/internal/core/recipe"
	"meal-planner/internal/pkg/common"

	"go.uber.org/zap"
)

// oversample 初次查詢相對於 topK 的倍數
const oversample = 5

// Request 單餐推薦請求
type Request struct {
	Pantry      []string
	Exclude     []string
	ServingSize float64
	MealType    string
	TopK        int
	Profile     *Profile
}

// Recommender 單餐推薦服務
// --------------------------------------------------
type Recommender struct {
	builder  *Builder
	poolSize int
}

// NewRecommender 創建單餐推薦服務，poolSize 為初次查詢的下限
func NewRecommender(builder *Builder, poolSize int) *Recommender {
	return &Recommender{builder: builder, poolSize: poolSize}
}

// Recommend 回傳最多 TopK 筆推薦；過濾後為空時回傳長度為 0 的切片
func (r *Recommender) Recommend(ctx context.Context, req Request) ([]Item, error) {
	if req.TopK <= 0 {
		return nil, common.NewValidationError("top_k must be positive")
	}
	var mealType recipe.MealType
	if req.MealType != "" {
		mt, ok := recipe.ParseMealType(req.MealType)
		if !ok {
			return nil, common.NewValidationError("unknown meal_type: " + req.MealType)
		}
		mealType = mt
	}

	pool, err := r.builder.Build(ctx, PoolRequest{
		Pantry:       req.Pantry,
		Exclude:      req.Exclude,
		Profile:      req.Profile,
		ServingSize:  req.ServingSize,
		PoolSize:     max(r.poolSize, oversample*req.TopK),
		FallbackSize: req.TopK,
		Need:         req.TopK,
	})
	if err != nil {
		return nil, err
	}

	if len(pool) > req.TopK {
		pool = pool[:req.TopK]
	}
	if mealType != "" {
		pool = filter.MealType(mealType)(pool)
	}

	common.LogDebug("推薦完成",
		zap.Int("pantry", len(req.Pantry)),
		zap.Int("results", len(pool)),
		zap.String("meal_type", string(mealType)),
	)
	return NewItems(pool), nil
}
