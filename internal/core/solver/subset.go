package solver

import (
	"context"
	"math"
	"sort"
)

// SubsetSearch 專門處理「恰選 k 個、各組有下限、最小化總和與目標絕對差」的問題
//
// 以權重排序後的前綴和界定剩餘可達總和，做精確的深度優先搜尋；
// 其他形式的問題交給 fallback。每 1024 個節點檢查一次 ctx。
// --------------------------------------------------
type SubsetSearch struct {
	opts     Options
	fallback Solver
}

// NewSubsetSearch 創建子集搜尋求解器；fallback 為 nil 時使用分支定界
func NewSubsetSearch(opts Options, fallback Solver) *SubsetSearch {
	if opts.AbsGap < 0 {
		opts.AbsGap = 0
	}
	if fallback == nil {
		fallback = NewBranchAndBound(opts)
	}
	return &SubsetSearch{opts: opts, fallback: fallback}
}

// Solve 實現 Solver
func (s *SubsetSearch) Solve(ctx context.Context, p *Problem) (*Solution, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	shape, ok := subsetShapeOf(p)
	if !ok {
		return s.fallback.Solve(ctx, p)
	}

	search := newSubsetState(ctx, shape, s.opts)
	search.run()
	if search.err != nil {
		return nil, search.err
	}
	if search.bestPick == nil {
		if search.limitHit {
			return nil, ErrNodeLimit
		}
		return nil, ErrInfeasible
	}

	vals := make([]float64, p.NumVars())
	var total float64
	for pos, chosen := range search.bestPick {
		if chosen {
			vals[shape.vars[search.order[pos]]] = 1
			total += search.w[pos]
		}
	}
	vals[shape.dev] = math.Abs(total - shape.target)

	return &Solution{
		Values:    vals,
		Objective: p.evaluate(vals),
		Optimal:   !search.limitHit,
		Nodes:     search.nodes,
	}, nil
}

// subsetShape 問題結構：d >= |Σ weights·x - target|、Σx = count、各組 Σx >= need
type subsetShape struct {
	dev     Var
	vars    []Var
	weights []float64
	groups  []int // -1 表示不屬於任何組
	need    []int
	count   int
	target  float64
}

// subsetShapeOf 辨識問題是否為子集偏差形式
func subsetShapeOf(p *Problem) (*subsetShape, bool) {
	shape := &subsetShape{dev: -1}
	for v, c := range p.objective {
		if c == 0 {
			continue
		}
		if shape.dev >= 0 || c < 0 || p.kinds[v] != Continuous {
			return nil, false
		}
		shape.dev = Var(v)
	}
	if shape.dev < 0 {
		return nil, false
	}

	index := make(map[Var]int)
	for v, kind := range p.kinds {
		if Var(v) == shape.dev {
			continue
		}
		if kind != Binary {
			return nil, false
		}
		index[Var(v)] = len(shape.vars)
		shape.vars = append(shape.vars, Var(v))
	}
	shape.groups = make([]int, len(shape.vars))
	for i := range shape.groups {
		shape.groups[i] = -1
	}

	var (
		upper, lower map[Var]float64
		upperRHS     float64
		lowerRHS     float64
		counted      bool
	)
	for _, c := range p.constraints {
		coefs := make(map[Var]float64)
		for _, t := range c.Terms {
			coefs[t.Var] += t.Coef
		}
		for v, coef := range coefs {
			if coef == 0 {
				delete(coefs, v)
			}
		}

		if dc, ok := coefs[shape.dev]; ok {
			delete(coefs, shape.dev)
			scale := math.Abs(dc)
			normalized := make(map[Var]float64, len(coefs))
			for v, coef := range coefs {
				normalized[v] = coef / scale
			}
			switch {
			case c.Sense == LE && dc < 0 && upper == nil:
				upper, upperRHS = normalized, c.RHS/scale
			case c.Sense == GE && dc > 0 && lower == nil:
				lower, lowerRHS = normalized, c.RHS/scale
			default:
				return nil, false
			}
			continue
		}

		if !allOnes(coefs) {
			return nil, false
		}
		switch c.Sense {
		case EQ:
			if counted || len(coefs) != len(shape.vars) {
				return nil, false
			}
			k := math.Round(c.RHS)
			if math.Abs(c.RHS-k) > 1e-9 {
				return nil, false
			}
			shape.count, counted = int(k), true
		case GE:
			need := int(math.Ceil(c.RHS - 1e-9))
			if need <= 0 {
				continue
			}
			g := len(shape.need)
			shape.need = append(shape.need, need)
			for v := range coefs {
				i := index[v]
				if shape.groups[i] >= 0 {
					return nil, false
				}
				shape.groups[i] = g
			}
		default:
			return nil, false
		}
	}

	if !counted || upper == nil || lower == nil || !sameRow(upper, upperRHS, lower, lowerRHS) {
		return nil, false
	}
	shape.weights = make([]float64, len(shape.vars))
	for v, w := range upper {
		shape.weights[index[v]] = w
	}
	shape.target = upperRHS
	return shape, true
}

func allOnes(coefs map[Var]float64) bool {
	for _, c := range coefs {
		if c != 1 {
			return false
		}
	}
	return true
}

func sameRow(a map[Var]float64, aRHS float64, b map[Var]float64, bRHS float64) bool {
	near := func(x, y float64) bool {
		return math.Abs(x-y) <= 1e-9*(1+math.Abs(x)+math.Abs(y))
	}
	if len(a) != len(b) || !near(aRHS, bRHS) {
		return false
	}
	for v, w := range a {
		if !near(w, b[v]) {
			return false
		}
	}
	return true
}

// subsetState 搜尋狀態，權重依遞增排序
type subsetState struct {
	ctx    context.Context
	opts   Options
	k      int
	target float64

	w      []float64
	group  []int
	order  []int     // 排序位置 -> shape 內的變數位置
	prefix []float64 // prefix[i] = w[0] + ... + w[i-1]
	left   [][]int   // left[g][i] 位置 i 之後屬於組 g 的數量
	byGrp  [][]int   // 各組成員的排序位置，遞增
	short  []int     // 各組尚缺的數量
	missed int       // Σ short

	pick     []bool
	best     float64
	bestPick []bool

	nodes    int
	limitHit bool
	err      error
}

func newSubsetState(ctx context.Context, shape *subsetShape, opts Options) *subsetState {
	n := len(shape.vars)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return shape.weights[order[a]] < shape.weights[order[b]]
	})

	s := &subsetState{
		ctx:    ctx,
		opts:   opts,
		k:      shape.count,
		target: shape.target,
		w:      make([]float64, n),
		group:  make([]int, n),
		order:  order,
		prefix: make([]float64, n+1),
		left:   make([][]int, len(shape.need)),
		byGrp:  make([][]int, len(shape.need)),
		short:  append([]int(nil), shape.need...),
		pick:   make([]bool, n),
		best:   math.Inf(1),
	}
	for pos, i := range order {
		s.w[pos] = shape.weights[i]
		s.group[pos] = shape.groups[i]
		s.prefix[pos+1] = s.prefix[pos] + s.w[pos]
		if g := s.group[pos]; g >= 0 {
			s.byGrp[g] = append(s.byGrp[g], pos)
		}
	}
	for g := range s.left {
		s.left[g] = make([]int, n+1)
		for pos := n - 1; pos >= 0; pos-- {
			s.left[g][pos] = s.left[g][pos+1]
			if s.group[pos] == g {
				s.left[g][pos]++
			}
		}
	}
	for _, need := range s.short {
		s.missed += need
	}
	return s
}

func (s *subsetState) run() {
	if s.k < 0 || s.k > len(s.w) {
		return
	}
	s.visit(0, 0, 0)
}

// done 偏差已為 0，不可能再改善
func (s *subsetState) done() bool {
	return s.best <= 1e-9 || s.err != nil || s.limitHit
}

// bound 從位置 i 起再選 r 個時偏差的下界
func (s *subsetState) bound(i, r int, sum float64) float64 {
	n := len(s.w)
	if n-i < r {
		return math.Inf(1)
	}
	lo := sum + s.prefix[i+r] - s.prefix[i]
	hi := sum + s.prefix[n] - s.prefix[n-r]
	return math.Max(0, math.Max(lo-s.target, s.target-hi))
}

func (s *subsetState) feasible(i, r int) bool {
	if len(s.w)-i < r || s.missed > r {
		return false
	}
	for g, need := range s.short {
		if s.left[g][i] < need {
			return false
		}
	}
	return true
}

func (s *subsetState) visit(i, picked int, sum float64) {
	s.nodes++
	if s.nodes%1024 == 0 {
		if err := s.ctx.Err(); err != nil {
			s.err = err
			return
		}
	}
	if s.opts.MaxNodes > 0 && s.nodes > s.opts.MaxNodes {
		s.limitHit = true
		return
	}

	r := s.k - picked
	if r == 0 {
		if s.missed == 0 {
			s.offer(sum, -1)
		}
		return
	}
	if !s.feasible(i, r) || s.bound(i, r, sum) >= s.best-s.opts.AbsGap {
		return
	}
	if r == 1 {
		s.closeWith(i, sum)
		return
	}

	take := func() {
		g := s.group[i]
		counted := g >= 0 && s.short[g] > 0
		if counted {
			s.short[g]--
			s.missed--
		}
		s.pick[i] = true
		s.visit(i+1, picked+1, sum+s.w[i])
		s.pick[i] = false
		if counted {
			s.short[g]++
			s.missed++
		}
	}
	skip := func() { s.visit(i+1, picked, sum) }

	if s.bound(i+1, r-1, sum+s.w[i]) <= s.bound(i+1, r, sum) {
		take()
		if !s.done() {
			skip()
		}
		return
	}
	skip()
	if !s.done() {
		take()
	}
}

// closeWith 只剩一個名額：在位置 i 之後找最接近剩餘目標的合格項目
func (s *subsetState) closeWith(i int, sum float64) {
	var members []int
	if s.missed == 1 {
		for g, need := range s.short {
			if need > 0 {
				members = s.byGrp[g]
				break
			}
		}
		members = members[sort.SearchInts(members, i):]
	}

	size := len(s.w) - i
	at := func(j int) int { return i + j }
	if members != nil {
		size = len(members)
		at = func(j int) int { return members[j] }
	}

	// 位置遞增即權重遞增
	need := s.target - sum
	j := sort.Search(size, func(j int) bool { return s.w[at(j)] >= need })
	if j < size {
		s.offer(sum+s.w[at(j)], at(j))
	}
	if j > 0 {
		s.offer(sum+s.w[at(j-1)], at(j-1))
	}
}

// offer 以目前路徑加上 last（-1 表示無）作為候選解
func (s *subsetState) offer(sum float64, last int) {
	dev := math.Abs(sum - s.target)
	if dev >= s.best {
		return
	}
	s.best = dev
	if s.bestPick == nil {
		s.bestPick = make([]bool, len(s.pick))
	}
	copy(s.bestPick, s.pick)
	if last >= 0 {
		s.bestPick[last] = true
	}
}
