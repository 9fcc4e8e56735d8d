package solver

import (
	"context"
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

var errIterationLimit = errors.New("solver: simplex iteration limit reached")

// pivotTol 低於此值的係數不作為樞紐
const pivotTol = 1e-9

// lpRow 一列限制式，係數以欄位索引表示
type lpRow struct {
	coefs map[int]float64
	sense Sense
	rhs   float64
}

// simplex 有界變數的兩階段單純形法：min cᵀx, rows, 0 <= x <= upper
//
// 以 Bland 規則選入基與出基變數；每次樞紐前檢查 ctx，並設有迭代上限。
type simplex struct {
	ctx     context.Context
	tol     float64
	maxIter int
	iter    int

	m, n    int
	nStruct int

	tab     *mat.Dense // B⁻¹A
	beta    []float64  // 基變數目前的值
	basis   []int      // 列 -> 基變數欄位
	basic   []bool
	atUpper []bool
	upper   []float64
	blocked []bool
	art     []bool
}

func newSimplex(ctx context.Context, rows []lpRow, upper []float64, tol float64) *simplex {
	nStruct := len(upper)
	nSlack, nArt := 0, 0
	for _, r := range rows {
		sense := r.sense
		if r.rhs < 0 {
			sense = flip(sense)
		}
		if sense != EQ {
			nSlack++
		}
		if sense != LE {
			nArt++
		}
	}

	m, n := len(rows), nStruct+nSlack+nArt
	s := &simplex{
		ctx:     ctx,
		tol:     tol,
		maxIter: 50*(m+n) + 1000,
		m:       m,
		n:       n,
		nStruct: nStruct,
		tab:     mat.NewDense(max(m, 1), max(n, 1), nil),
		beta:    make([]float64, m),
		basis:   make([]int, m),
		basic:   make([]bool, n),
		atUpper: make([]bool, n),
		upper:   make([]float64, n),
		blocked: make([]bool, n),
		art:     make([]bool, n),
	}
	copy(s.upper, upper)
	for j := nStruct; j < n; j++ {
		s.upper[j] = math.Inf(1)
	}

	slack, artificial := nStruct, nStruct+nSlack
	for i, r := range rows {
		sign, sense := 1.0, r.sense
		if r.rhs < 0 {
			sign, sense = -1, flip(sense)
		}
		for j, coef := range r.coefs {
			s.tab.Set(i, j, sign*coef)
		}
		s.beta[i] = sign * r.rhs

		switch sense {
		case LE:
			s.tab.Set(i, slack, 1)
			s.basis[i] = slack
			slack++
		case GE:
			s.tab.Set(i, slack, -1)
			slack++
			fallthrough
		default:
			s.tab.Set(i, artificial, 1)
			s.art[artificial] = true
			s.basis[i] = artificial
			artificial++
		}
		s.basic[s.basis[i]] = true
	}
	return s
}

func flip(s Sense) Sense {
	switch s {
	case LE:
		return GE
	case GE:
		return LE
	default:
		return EQ
	}
}

// solve 回傳結構變數的最佳值
func (s *simplex) solve(cost []float64) ([]float64, error) {
	if s.hasArtificial() {
		phase1 := make([]float64, s.n)
		scale := 1.0
		for j := range phase1 {
			if s.art[j] {
				phase1[j] = 1
			}
		}
		for _, b := range s.beta {
			scale = math.Max(scale, math.Abs(b))
		}
		if err := s.run(phase1); err != nil {
			return nil, err
		}
		var infeasibility float64
		for i, j := range s.basis {
			if s.art[j] {
				infeasibility += s.beta[i]
			}
		}
		if infeasibility > 1e-7*scale {
			return nil, ErrInfeasible
		}

		// 人工變數固定為 0，不再入基
		for j := range s.art {
			if !s.art[j] {
				continue
			}
			s.upper[j], s.blocked[j], s.atUpper[j] = 0, true, false
		}
		for i, j := range s.basis {
			if s.art[j] {
				s.beta[i] = 0
			}
		}
	}

	phase2 := make([]float64, s.n)
	copy(phase2, cost)
	if err := s.run(phase2); err != nil {
		return nil, err
	}
	return s.values(), nil
}

func (s *simplex) hasArtificial() bool {
	for _, a := range s.art {
		if a {
			return true
		}
	}
	return false
}

func (s *simplex) values() []float64 {
	x := make([]float64, s.nStruct)
	for j := range x {
		if s.atUpper[j] {
			x[j] = s.upper[j]
		}
	}
	for i, j := range s.basis {
		if j < s.nStruct {
			x[j] = s.beta[i]
		}
	}
	for j := range x {
		x[j] = math.Min(math.Max(x[j], 0), s.upper[j])
	}
	return x
}

func (s *simplex) reducedCosts(cost []float64) []float64 {
	d := make([]float64, s.n)
	copy(d, cost)
	for i, b := range s.basis {
		if cb := cost[b]; cb != 0 {
			row := s.tab.RawRowView(i)
			for j := range d {
				d[j] -= cb * row[j]
			}
		}
	}
	return d
}

func (s *simplex) run(cost []float64) error {
	d := s.reducedCosts(cost)
	for {
		if err := s.ctx.Err(); err != nil {
			return err
		}
		if s.iter >= s.maxIter {
			return errIterationLimit
		}
		s.iter++

		enter := s.entering(d)
		if enter < 0 {
			return nil
		}

		dir := 1.0
		if s.atUpper[enter] {
			dir = -1
		}
		leave, step := s.ratioTest(enter, dir)
		flipBound := s.upper[enter]
		if leave < 0 && math.IsInf(flipBound, 1) {
			return ErrUnbounded
		}

		if leave < 0 || flipBound <= step {
			// 入基變數直接移到另一端界限，基底不變
			s.move(enter, dir, flipBound)
			s.atUpper[enter] = !s.atUpper[enter]
			continue
		}

		s.move(enter, dir, step)
		out := s.basis[leave]
		value := step
		if dir < 0 {
			value = s.upper[enter] - step
		}
		s.atUpper[out] = dir*s.tab.At(leave, enter) < 0
		s.pivot(leave, enter, d)
		s.beta[leave] = value
		s.basic[out], s.basic[enter] = false, true
		s.atUpper[enter] = false
		s.basis[leave] = enter
	}
}

// entering Bland 規則：索引最小且能改善目標的非基變數
func (s *simplex) entering(d []float64) int {
	for j := range d {
		if s.basic[j] || s.blocked[j] {
			continue
		}
		if (!s.atUpper[j] && d[j] < -s.tol) || (s.atUpper[j] && d[j] > s.tol) {
			return j
		}
	}
	return -1
}

// ratioTest 回傳先觸及界限的列；同值時取基變數索引最小者
func (s *simplex) ratioTest(enter int, dir float64) (int, float64) {
	leave, best := -1, math.Inf(1)
	for i := 0; i < s.m; i++ {
		alpha := dir * s.tab.At(i, enter)
		b := s.basis[i]

		var t float64
		switch {
		case alpha > pivotTol:
			t = s.beta[i] / alpha
		case alpha < -pivotTol && !math.IsInf(s.upper[b], 1):
			t = (s.upper[b] - s.beta[i]) / -alpha
		default:
			continue
		}
		t = math.Max(t, 0)

		if leave < 0 || t < best-pivotTol || (t <= best+pivotTol && b < s.basis[leave]) {
			leave, best = i, t
		}
	}
	return leave, best
}

func (s *simplex) move(enter int, dir, step float64) {
	if step == 0 {
		return
	}
	for i := 0; i < s.m; i++ {
		s.beta[i] -= step * dir * s.tab.At(i, enter)
	}
}

func (s *simplex) pivot(r, c int, d []float64) {
	pivotRow := s.tab.RawRowView(r)
	p := pivotRow[c]
	for j := range pivotRow {
		pivotRow[j] /= p
	}
	for i := 0; i < s.m; i++ {
		if i == r {
			continue
		}
		row := s.tab.RawRowView(i)
		if f := row[c]; f != 0 {
			for j := range row {
				row[j] -= f * pivotRow[j]
			}
		}
	}
	if f := d[c]; f != 0 {
		for j := range d {
			d[j] -= f * pivotRow[j]
		}
	}
}
