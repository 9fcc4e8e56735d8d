package planner

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"meal-planner/internal/core/recipe"
	"meal-planner/internal/core/similarity"
	"meal-planner/internal/core/solver"
	"meal-planner/internal/pkg/common"
)

// Spec 一次選餐的限制
type Spec struct {
	Count    int                     // 恰好選出的數量
	Target   float64                 // 總熱量目標（已乘上天數）
	Coverage map[recipe.MealType]int // 各餐別最少數量，彙總計算而非逐日
}

// DefaultCoverage 早、午、晚餐各至少 days 份
func DefaultCoverage(days int) map[recipe.MealType]int {
	return map[recipe.MealType]int{
		recipe.Breakfast: days,
		recipe.Lunch:     days,
		recipe.Dinner:    days,
	}
}

// Selection 選餐結果
type Selection struct {
	Matches   []similarity.Match
	Total     float64
	Deviation float64
	Optimal   bool
	Nodes     int
}

// Optimizer 以 0/1 規劃選出熱量最接近目標的組合
// --------------------------------------------------
type Optimizer struct {
	solver solver.Solver
}

// NewOptimizer 創建選餐最佳化器
func NewOptimizer(s solver.Solver) *Optimizer {
	return &Optimizer{solver: s}
}

// Optimize 最小化 d，使 |Σ cal·x - target| <= d、Σx = Count 並滿足各餐別下限
//
// 無可行解、節點上限或逾時皆回傳包裝 ErrInfeasiblePlan 的錯誤。
func (o *Optimizer) Optimize(ctx context.Context, pool []similarity.Match, spec Spec) (*Selection, error) {
	if spec.Count <= 0 {
		return nil, common.NewValidationError("meal count must be positive")
	}

	p := solver.NewProblem()
	xs := make([]solver.Var, len(pool))
	for i := range pool {
		xs[i] = p.AddBinary(pool[i].Recipe.Name)
	}
	d := p.AddContinuous("deviation")

	total := make([]solver.Term, 0, len(pool))
	count := make([]solver.Term, 0, len(pool))
	for i := range pool {
		total = append(total, solver.Term{Var: xs[i], Coef: pool[i].Recipe.Calories.Value})
		count = append(count, solver.Term{Var: xs[i], Coef: 1})
	}

	withDeviation := func(coef float64) []solver.Term {
		terms := append([]solver.Term(nil), total...)
		return append(terms, solver.Term{Var: d, Coef: coef})
	}
	p.AddConstraint("deviation_upper", withDeviation(-1), solver.LE, spec.Target)
	p.AddConstraint("deviation_lower", withDeviation(1), solver.GE, spec.Target)
	p.AddConstraint("meal_count", count, solver.EQ, float64(spec.Count))

	mealTypes := make([]recipe.MealType, 0, len(spec.Coverage))
	for mt := range spec.Coverage {
		mealTypes = append(mealTypes, mt)
	}
	sort.Slice(mealTypes, func(i, j int) bool { return mealTypes[i] < mealTypes[j] })
	for _, mt := range mealTypes {
		var terms []solver.Term
		for i := range pool {
			if pool[i].Recipe.MealType() == mt {
				terms = append(terms, solver.Term{Var: xs[i], Coef: 1})
			}
		}
		p.AddConstraint("coverage_"+string(mt), terms, solver.GE, float64(spec.Coverage[mt]))
	}
	p.Minimize(solver.Term{Var: d, Coef: 1})

	start := time.Now()
	sol, err := o.solver.Solve(ctx, p)
	common.LogSolve(len(pool), time.Since(start), err)
	if err != nil {
		return nil, infeasible(err)
	}

	sel := &Selection{Optimal: sol.Optimal, Nodes: sol.Nodes}
	for i := range pool {
		if sol.Value(xs[i]) > 0.5 {
			sel.Matches = append(sel.Matches, pool[i])
			sel.Total += pool[i].Recipe.Calories.Value
		}
	}
	sel.Deviation = math.Abs(sel.Total - spec.Target)
	return sel, nil
}

func infeasible(err error) error {
	switch {
	case errors.Is(err, solver.ErrInfeasible),
		errors.Is(err, solver.ErrNodeLimit),
		errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", common.ErrInfeasiblePlan, err)
	default:
		return fmt.Errorf("solve meal plan: %w", err)
	}
}
