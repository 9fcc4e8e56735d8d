// Package recommend 候選池建構與單餐推薦
package recommend

import (
	"context"
	"fmt"
	"sort"

	"meal-planner/internal/core/diet"
	"meal-planner/internal/core/filter"
	"meal-planner/internal/core/similarity"
	"meal-planner/internal/pkg/common"

	"go.uber.org/zap"
)

// Options 候選池參數
type Options struct {
	MaxExtra         int
	ServingTolerance float64
}

// DefaultOptions 預設參數：額外食材 3 項、份量容差 4
func DefaultOptions() Options {
	return Options{MaxExtra: 3, ServingTolerance: 4}
}

// PoolRequest 一次候選池建構的輸入
type PoolRequest struct {
	Pantry       []string
	Exclude      []string
	Profile      *Profile
	ServingSize  float64 // <= 0 表示不過濾份量
	PoolSize     int     // 初次相似度查詢數量
	FallbackSize int     // 回退查詢數量
	Need         int     // 嚴格過濾後少於此數即回退
}

// Builder 候選池建構器，單餐推薦與餐點規劃共用
// --------------------------------------------------
type Builder struct {
	searcher similarity.Searcher
	rules    *diet.Rules
	opts     Options
}

// NewBuilder 創建候選池建構器
func NewBuilder(searcher similarity.Searcher, rules *diet.Rules, opts Options) *Builder {
	if rules == nil {
		rules = diet.Default()
	}
	return &Builder{searcher: searcher, rules: rules, opts: opts}
}

// Build 查詢 → 嚴格子集 → 排除 → (不足時回退) → 個人化 → 份量
func (b *Builder) Build(ctx context.Context, req PoolRequest) ([]similarity.Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pool, err := b.searcher.Query(req.Pantry, req.PoolSize)
	if err != nil {
		return nil, fmt.Errorf("similarity query: %w", err)
	}
	queried := len(pool)

	pool = filter.Chain(pool,
		filter.StrictSubset(req.Pantry, b.opts.MaxExtra),
		filter.Exclude(req.Exclude),
	)
	common.LogDebug("嚴格過濾完成",
		zap.Int("queried", queried),
		zap.Int("remaining", len(pool)),
	)

	if len(pool) < req.Need {
		common.LogWarn("候選不足，改用相似度回退",
			zap.Int("remaining", len(pool)),
			zap.Int("need", req.Need),
			zap.Int("fallback_size", req.FallbackSize),
		)
		pool, err = b.searcher.Query(req.Pantry, req.FallbackSize)
		if err != nil {
			return nil, fmt.Errorf("fallback query: %w", err)
		}
		pool = filter.Exclude(req.Exclude)(pool)
	}

	pool = b.personalize(pool, req.Profile)

	if req.ServingSize > 0 {
		pool = filter.ServingSize(req.ServingSize, b.opts.ServingTolerance)(pool)
	}

	common.LogDebug("候選池建構完成", zap.Int("size", len(pool)))
	return pool, nil
}

// personalize 過敏原、飲食偏好與目標排序；沒有個人資料時原樣返回
func (b *Builder) personalize(pool []similarity.Match, profile *Profile) []similarity.Match {
	if profile == nil {
		return pool
	}
	pool = filter.Chain(pool,
		filter.Allergy(profile.Allergies),
		filter.Dietary(b.rules, profile.DietaryPref),
	)
	return SortByGoal(pool, profile.ParsedGoal())
}

// SortByGoal 穩定排序：相似度遞減；減重時同分熱量遞增，增重時遞減，缺熱量者殿後
func SortByGoal(pool []similarity.Match, goal Goal) []similarity.Match {
	out := make([]similarity.Match, len(pool))
	copy(out, pool)

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		ca, cb := a.Recipe.Calories, b.Recipe.Calories
		switch goal {
		case GoalWeightLoss, GoalWeightGain:
			if ca.Valid != cb.Valid {
				return ca.Valid
			}
			if !ca.Valid {
				return false
			}
			if goal == GoalWeightLoss {
				return ca.Value < cb.Value
			}
			return ca.Value > cb.Value
		default:
			return false
		}
	})
	return out
}
