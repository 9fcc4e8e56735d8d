// Package solver 小型混合整數線性規劃：二元與連續變數、線性限制式、線性最小化目標
package solver

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrInfeasible 限制式無可行解
	ErrInfeasible = errors.New("solver: problem is infeasible")
	// ErrUnbounded 目標函數無下界
	ErrUnbounded = errors.New("solver: problem is unbounded")
	// ErrNodeLimit 達到節點上限且尚未找到可行整數解
	ErrNodeLimit = errors.New("solver: node limit reached without incumbent")
)

// Solver 求解器介面，任何 MILP 實作皆可替換
type Solver interface {
	Solve(ctx context.Context, p *Problem) (*Solution, error)
}

// VarKind 變數型別
type VarKind int

const (
	Continuous VarKind = iota // >= 0
	Binary                    // {0, 1}
)

// Var 變數索引
type Var int

// Sense 限制式方向
type Sense int

const (
	LE Sense = iota
	GE
	EQ
)

func (s Sense) String() string {
	switch s {
	case LE:
		return "<="
	case GE:
		return ">="
	case EQ:
		return "=="
	default:
		return fmt.Sprintf("Sense(%d)", int(s))
	}
}

// Term 係數 × 變數
type Term struct {
	Var  Var
	Coef float64
}

// Constraint 線性限制式 Σ terms (sense) RHS
type Constraint struct {
	Name  string
	Terms []Term
	Sense Sense
	RHS   float64
}

// Problem 最小化問題
type Problem struct {
	names       []string
	kinds       []VarKind
	objective   []float64
	constraints []Constraint
}

// NewProblem 建立空問題
func NewProblem() *Problem {
	return &Problem{}
}

// AddVar 新增變數
func (p *Problem) AddVar(name string, kind VarKind) Var {
	p.names = append(p.names, name)
	p.kinds = append(p.kinds, kind)
	p.objective = append(p.objective, 0)
	return Var(len(p.names) - 1)
}

// AddBinary 新增二元變數
func (p *Problem) AddBinary(name string) Var {
	return p.AddVar(name, Binary)
}

// AddContinuous 新增非負連續變數
func (p *Problem) AddContinuous(name string) Var {
	return p.AddVar(name, Continuous)
}

// Minimize 設定目標函數係數，未列出的變數係數為 0
func (p *Problem) Minimize(terms ...Term) {
	for i := range p.objective {
		p.objective[i] = 0
	}
	for _, t := range terms {
		p.objective[t.Var] += t.Coef
	}
}

// AddConstraint 新增限制式
func (p *Problem) AddConstraint(name string, terms []Term, sense Sense, rhs float64) {
	p.constraints = append(p.constraints, Constraint{
		Name:  name,
		Terms: append([]Term(nil), terms...),
		Sense: sense,
		RHS:   rhs,
	})
}

// NumVars 變數數量
func (p *Problem) NumVars() int {
	return len(p.names)
}

// Constraints 目前的限制式
func (p *Problem) Constraints() []Constraint {
	return p.constraints
}

func (p *Problem) validate() error {
	for _, c := range p.constraints {
		for _, t := range c.Terms {
			if t.Var < 0 || int(t.Var) >= len(p.names) {
				return fmt.Errorf("constraint %q references unknown variable %d", c.Name, t.Var)
			}
		}
	}
	return nil
}

// Solution 求解結果
type Solution struct {
	Values    []float64
	Objective float64
	// Optimal 搜尋完整結束；false 表示因節點上限提前停止，僅為目前最佳解
	Optimal bool
	Nodes   int
}

// Value 取得變數值
func (s *Solution) Value(v Var) float64 {
	return s.Values[v]
}
