package solver

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// Options 分支定界參數
type Options struct {
	AbsGap       float64 // 下界與目前最佳解差距不超過此值即剪枝
	MaxNodes     int     // <= 0 表示不限
	IntTolerance float64
	LPTolerance  float64
}

// DefaultOptions 預設參數
func DefaultOptions() Options {
	return Options{
		AbsGap:       0,
		MaxNodes:     0,
		IntTolerance: 1e-6,
		LPTolerance:  1e-9,
	}
}

// BranchAndBound 以有界單純形法求鬆弛解的深度優先分支定界
// --------------------------------------------------
type BranchAndBound struct {
	opts Options
}

// NewBranchAndBound 創建分支定界求解器
func NewBranchAndBound(opts Options) *BranchAndBound {
	if opts.IntTolerance <= 0 {
		opts.IntTolerance = 1e-6
	}
	if opts.LPTolerance <= 0 {
		opts.LPTolerance = 1e-9
	}
	if opts.AbsGap < 0 {
		opts.AbsGap = 0
	}
	return &BranchAndBound{opts: opts}
}

// 節點中變數的固定狀態
const free int8 = -1

type node struct {
	fixed []int8
}

func (n node) with(v int, val int8) node {
	fixed := make([]int8, len(n.fixed))
	copy(fixed, n.fixed)
	fixed[v] = val
	return node{fixed: fixed}
}

// Solve 實現 Solver
func (b *BranchAndBound) Solve(ctx context.Context, p *Problem) (*Solution, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	root := node{fixed: make([]int8, p.NumVars())}
	for i := range root.fixed {
		root.fixed[i] = free
	}

	var (
		best     []float64
		bestObj  = math.Inf(1)
		nodes    int
		limitHit bool
	)

	stack := []node{root}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if b.opts.MaxNodes > 0 && nodes >= b.opts.MaxNodes {
			limitHit = true
			break
		}

		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		nodes++

		obj, x, err := b.relax(ctx, p, cur)
		switch {
		case errors.Is(err, ErrInfeasible):
			continue
		case errors.Is(err, ErrUnbounded):
			if nodes == 1 {
				return nil, err
			}
			continue
		case err != nil:
			return nil, err
		}

		if best != nil && obj >= bestObj-b.opts.AbsGap {
			continue
		}

		branchVar, frac := -1, 0.0
		for i, kind := range p.kinds {
			if kind != Binary || cur.fixed[i] != free {
				continue
			}
			if f := math.Min(x[i], 1-x[i]); f > b.opts.IntTolerance && f > frac {
				branchVar, frac = i, f
			}
		}

		if branchVar < 0 {
			vals := b.round(p, x)
			best, bestObj = vals, p.evaluate(vals)
			continue
		}

		// 先探索較接近的取整方向：後推入者先處理
		down, up := cur.with(branchVar, 0), cur.with(branchVar, 1)
		if x[branchVar] >= 0.5 {
			stack = append(stack, down, up)
		} else {
			stack = append(stack, up, down)
		}
	}

	if best == nil {
		if limitHit {
			return nil, ErrNodeLimit
		}
		return nil, ErrInfeasible
	}
	return &Solution{
		Values:    best,
		Objective: bestObj,
		Optimal:   !limitHit,
		Nodes:     nodes,
	}, nil
}

func (b *BranchAndBound) round(p *Problem, x []float64) []float64 {
	vals := make([]float64, len(x))
	for i, v := range x {
		if p.kinds[i] == Binary {
			vals[i] = math.Round(v)
		} else {
			vals[i] = math.Max(v, 0)
		}
	}
	return vals
}

func (p *Problem) evaluate(x []float64) float64 {
	var sum float64
	for i, c := range p.objective {
		sum += c * x[i]
	}
	return sum
}

// relax 求解節點的線性鬆弛
//
// 已固定的變數代入常數；未固定的二元變數上界為 1，連續變數無上界。
func (b *BranchAndBound) relax(ctx context.Context, p *Problem, n node) (float64, []float64, error) {
	tol := b.opts.IntTolerance
	x := make([]float64, p.NumVars())

	col := make([]int, p.NumVars())
	var upper, cost []float64
	for v := range col {
		col[v] = -1
		if n.fixed[v] != free {
			x[v] = float64(n.fixed[v])
			continue
		}
		col[v] = len(upper)
		cost = append(cost, p.objective[v])
		if p.kinds[v] == Binary {
			upper = append(upper, 1)
		} else {
			upper = append(upper, math.Inf(1))
		}
	}

	var rows []lpRow
	for _, c := range p.constraints {
		r := lpRow{coefs: make(map[int]float64), sense: c.Sense, rhs: c.RHS}
		for _, t := range c.Terms {
			v := int(t.Var)
			if n.fixed[v] != free {
				r.rhs -= t.Coef * float64(n.fixed[v])
				continue
			}
			r.coefs[col[v]] += t.Coef
		}
		for j, coef := range r.coefs {
			if coef == 0 {
				delete(r.coefs, j)
			}
		}
		if len(r.coefs) == 0 {
			if !constantHolds(r.sense, r.rhs, tol) {
				return 0, nil, ErrInfeasible
			}
			continue
		}
		rows = append(rows, r)
	}

	opt, err := newSimplex(ctx, rows, upper, b.opts.LPTolerance).solve(cost)
	switch {
	case errors.Is(err, ErrInfeasible), errors.Is(err, ErrUnbounded):
		return 0, nil, err
	case err != nil && ctx.Err() != nil:
		return 0, nil, ctx.Err()
	case err != nil:
		return 0, nil, fmt.Errorf("lp relaxation: %w", err)
	}

	for v := range col {
		if col[v] >= 0 {
			x[v] = opt[col[v]]
		}
	}
	return p.evaluate(x), x, nil
}

func constantHolds(sense Sense, rhs, tol float64) bool {
	switch sense {
	case LE:
		return 0 <= rhs+tol
	case GE:
		return 0 >= rhs-tol
	default:
		return math.Abs(rhs) <= tol
	}
}
