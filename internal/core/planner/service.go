// Package planner 依熱量目標組出多日餐點計畫
package planner

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"meal-planner/internal/core/filter"
	"meal-planner/internal/core/queue"
	"meal-planner/internal/core/recipe"
	"meal-planner/internal/core/recommend"
	"meal-planner/internal/core/similarity"
	"meal-planner/internal/pkg/common"

	"go.uber.org/zap"
)

// Options 規劃服務參數
type Options struct {
	PoolSize int           // 候選池查詢數量（含回退）
	Timeout  time.Duration // 單次求解時限，<= 0 表示不限
}

// GenerateRequest 產生餐點計畫
type GenerateRequest struct {
	Pantry      []string
	Exclude     []string
	ServingSize float64
	Days        int
	MealsPerDay int
	Profile     *recommend.Profile
}

// RegenerateRequest 替換計畫中的一道餐點
type RegenerateRequest struct {
	Pantry      []string
	Exclude     []string
	ServingSize float64
	Days        int
	Profile     *recommend.Profile
	Current     []recommend.Item
	MealType    string
	Replace     string // 要替換的食譜名稱；空白時替換第一個符合餐別者
}

// Plan 餐點計畫
type Plan struct {
	Days           int                                  `json:"days"`
	MealsPerDay    int                                  `json:"meals_per_day"`
	TargetCalories float64                              `json:"target_calories"`
	TotalCalories  float64                              `json:"total_calories"`
	Deviation      float64                              `json:"deviation"`
	Optimal        bool                                 `json:"optimal"`
	Meals          []recommend.Item                     `json:"meals"`
	ByMealType     map[recipe.MealType][]recommend.Item `json:"by_meal_type"`
	Replaced       *recommend.Item                      `json:"replaced,omitempty"`
}

// Service 餐點規劃服務
// --------------------------------------------------
type Service struct {
	builder   *recommend.Builder
	optimizer *Optimizer
	queue     *queue.Manager
	opts      Options
}

// NewService 創建餐點規劃服務；queue 為 nil 時直接在呼叫端執行求解
func NewService(builder *recommend.Builder, optimizer *Optimizer, q *queue.Manager, opts Options) *Service {
	return &Service{
		builder:   builder,
		optimizer: optimizer,
		queue:     q,
		opts:      opts,
	}
}

// Generate 建立候選池、計算目標熱量並求解
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (*Plan, error) {
	if req.Days <= 0 {
		req.Days = 1
	}
	if req.MealsPerDay <= 0 {
		req.MealsPerDay = 3
	}
	count := req.Days * req.MealsPerDay

	pool, err := s.builder.Build(ctx, recommend.PoolRequest{
		Pantry:       req.Pantry,
		Exclude:      req.Exclude,
		Profile:      req.Profile,
		ServingSize:  req.ServingSize,
		PoolSize:     s.opts.PoolSize,
		FallbackSize: s.opts.PoolSize,
		Need:         count,
	})
	if err != nil {
		return nil, err
	}
	pool = filter.PositiveCalories(pool)

	target := TargetCalories(req.Profile)
	sel, err := s.solve(ctx, pool, Spec{
		Count:    count,
		Target:   target * float64(req.Days),
		Coverage: DefaultCoverage(req.Days),
	})
	if err != nil {
		return nil, err
	}

	plan := newPlan(req.Days, req.MealsPerDay, target, recommend.NewItems(sel.Matches))
	plan.Optimal = sel.Optimal
	common.LogInfo("餐點計畫已產生",
		zap.Int("days", req.Days),
		zap.Int("meals", len(plan.Meals)),
		zap.Float64("target", target),
		zap.Float64("deviation", plan.Deviation),
	)
	return plan, nil
}

// Regenerate 以同餐別的新食譜替換計畫中的一道餐點，使總熱量仍接近目標
func (s *Service) Regenerate(ctx context.Context, req RegenerateRequest) (*Plan, error) {
	mealType, ok := recipe.ParseMealType(req.MealType)
	if !ok || mealType == recipe.Unknown {
		return nil, common.NewValidationError("unknown meal_type: " + req.MealType)
	}
	if req.Days <= 0 {
		req.Days = 1
	}

	replaceAt := -1
	for i, item := range req.Current {
		if req.Replace != "" {
			if common.NormalizeName(item.Name) == common.NormalizeName(req.Replace) {
				replaceAt = i
				break
			}
			continue
		}
		if recipe.Classify(item.Calories) == mealType {
			replaceAt = i
			break
		}
	}
	if replaceAt < 0 {
		return nil, common.NewValidationError("no meal to replace for meal_type " + string(mealType))
	}

	kept := make([]recommend.Item, 0, len(req.Current))
	exclude := append([]string(nil), req.Exclude...)
	keptCalories := 0.0
	for i, item := range req.Current {
		exclude = append(exclude, item.Name)
		if i == replaceAt {
			continue
		}
		kept = append(kept, item)
		if item.Calories.Valid {
			keptCalories += item.Calories.Value
		}
	}

	pool, err := s.builder.Build(ctx, recommend.PoolRequest{
		Pantry:       req.Pantry,
		Exclude:      exclude,
		Profile:      req.Profile,
		ServingSize:  req.ServingSize,
		PoolSize:     s.opts.PoolSize,
		FallbackSize: s.opts.PoolSize,
		Need:         1,
	})
	if err != nil {
		return nil, err
	}
	pool = filter.PositiveCalories(pool)

	target := TargetCalories(req.Profile)
	sel, err := s.solve(ctx, pool, Spec{
		Count:    1,
		Target:   target*float64(req.Days) - keptCalories,
		Coverage: map[recipe.MealType]int{mealType: 1},
	})
	if err != nil {
		return nil, err
	}

	mealsPerDay := len(req.Current) / req.Days
	if mealsPerDay == 0 {
		mealsPerDay = len(req.Current)
	}
	plan := newPlan(req.Days, mealsPerDay, target, append(kept, recommend.NewItems(sel.Matches)...))
	plan.Optimal = sel.Optimal
	replaced := req.Current[replaceAt]
	plan.Replaced = &replaced

	common.LogInfo("餐點已替換",
		zap.String("replaced", replaced.Name),
		zap.String("meal_type", string(mealType)),
		zap.String("with", sel.Matches[0].Recipe.Name),
	)
	return plan, nil
}

// solve 在佇列與時限內執行最佳化
func (s *Service) solve(ctx context.Context, pool []similarity.Match, spec Spec) (*Selection, error) {
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	var sel *Selection
	job := func(ctx context.Context) error {
		var err error
		sel, err = s.optimizer.Optimize(ctx, pool, spec)
		return err
	}

	var err error
	if s.queue != nil {
		err = s.queue.Submit(ctx, job)
	} else {
		err = job(ctx)
	}
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: solve timed out", common.ErrInfeasiblePlan)
		}
		return nil, err
	}
	return sel, nil
}

func newPlan(days, mealsPerDay int, target float64, meals []recommend.Item) *Plan {
	plan := &Plan{
		Days:           days,
		MealsPerDay:    mealsPerDay,
		TargetCalories: target,
		Meals:          meals,
		ByMealType:     make(map[recipe.MealType][]recommend.Item),
	}
	for _, m := range meals {
		plan.ByMealType[m.MealType] = append(plan.ByMealType[m.MealType], m)
		if m.Calories.Valid {
			plan.TotalCalories += m.Calories.Value
		}
	}
	plan.Deviation = math.Abs(plan.TotalCalories - target*float64(days))
	return plan
}
