package solver

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func search() *SubsetSearch {
	return NewSubsetSearch(DefaultOptions(), nil)
}

// mealClass 與餐別分類相同的熱量區間：<200 不計、<400、<700、其餘
func mealClass(cal float64) int {
	switch {
	case cal < 200:
		return -1
	case cal < 400:
		return 0
	case cal < 700:
		return 1
	default:
		return 2
	}
}

// coveredProblem 在 deviationProblem 之上加入三個餐別各至少 need 個
func coveredProblem(values []float64, k int, target float64, need int) (*Problem, []Var) {
	p, xs, _ := deviationProblem(values, k, target)
	for g := 0; g < 3; g++ {
		var terms []Term
		for i, v := range values {
			if mealClass(v) == g {
				terms = append(terms, Term{Var: xs[i], Coef: 1})
			}
		}
		p.AddConstraint(fmt.Sprintf("class_%d", g), terms, GE, float64(need))
	}
	return p, xs
}

func bruteForceCovered(values []float64, k int, target float64, need int) float64 {
	best := math.Inf(1)
	n := len(values)
	for mask := 0; mask < 1<<n; mask++ {
		cnt, sum := 0, 0.0
		var classes [3]int
		for i := 0; i < n; i++ {
			if mask&(1<<i) == 0 {
				continue
			}
			cnt++
			sum += values[i]
			if c := mealClass(values[i]); c >= 0 {
				classes[c]++
			}
		}
		if cnt != k || classes[0] < need || classes[1] < need || classes[2] < need {
			continue
		}
		best = math.Min(best, math.Abs(sum-target))
	}
	return best
}

func randomCalories(rng *rand.Rand, n int) []float64 {
	values := make([]float64, n)
	for i := range values {
		values[i] = math.Round((100+rng.Float64()*1100)*100) / 100
	}
	return values
}

// assertCovered 驗證解的數量、餐別下限與偏差
func assertCovered(t *testing.T, sol *Solution, xs []Var, values []float64, k int, target float64, need int, want float64) {
	t.Helper()
	cnt, sum := 0, 0.0
	var classes [3]int
	for i, x := range xs {
		v := sol.Value(x)
		require.True(t, v == 0 || v == 1, "binary value %v", v)
		if v == 1 {
			cnt++
			sum += values[i]
			if c := mealClass(values[i]); c >= 0 {
				classes[c]++
			}
		}
	}
	assert.Equal(t, k, cnt)
	for _, c := range classes {
		assert.GreaterOrEqual(t, c, need)
	}
	assert.InDelta(t, want, math.Abs(sum-target), 1e-6)
	assert.InDelta(t, want, sol.Objective, 1e-6)
}

// 這組熱量曾讓鬆弛解在單一節點內停滯
var stalledPool = []float64{782, 441.3, 448, 742.05, 1100.61, 855.95, 223, 635.45, 559.21, 144.78, 696.45, 939, 803, 285.52}

func TestSolvers_StalledPoolFinishesBeforeDeadline(t *testing.T) {
	solvers := map[string]Solver{"subset search": search(), "branch and bound": exact()}
	for name, s := range solvers {
		t.Run(name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()

			p, xs := coveredProblem(stalledPool, 4, 2444, 1)
			start := time.Now()
			sol, err := s.Solve(ctx, p)
			require.NoError(t, err)
			assert.Less(t, time.Since(start), 3*time.Second)
			assert.True(t, sol.Optimal)
			assertCovered(t, sol, xs, stalledPool, 4, 2444, 1, bruteForceCovered(stalledPool, 4, 2444, 1))
		})
	}
}

func TestSubsetSearch_MatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(20240611))
	for trial := 0; trial < 60; trial++ {
		n := 6 + rng.Intn(11)
		days := 1 + rng.Intn(2)
		k := days * (3 + rng.Intn(2))
		values := randomCalories(rng, n)
		target := float64(days) * (1500 + rng.Float64()*1500)

		t.Run(fmt.Sprintf("trial %d n %d k %d", trial, n, k), func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			p, xs := coveredProblem(values, k, target, days)
			want := bruteForceCovered(values, k, target, days)
			sol, err := search().Solve(ctx, p)
			if math.IsInf(want, 1) {
				assert.ErrorIs(t, err, ErrInfeasible)
				return
			}
			require.NoError(t, err)
			assert.True(t, sol.Optimal)
			assertCovered(t, sol, xs, values, k, target, days, want)
		})
	}
}

func TestBranchAndBound_MatchesBruteForceOnRandomPools(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 20; trial++ {
		n := 6 + rng.Intn(7)
		k := 3 + rng.Intn(2)
		values := randomCalories(rng, n)
		target := 1500 + rng.Float64()*1500

		t.Run(fmt.Sprintf("trial %d n %d k %d", trial, n, k), func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			p, xs := coveredProblem(values, k, target, 1)
			want := bruteForceCovered(values, k, target, 1)
			sol, err := exact().Solve(ctx, p)
			if math.IsInf(want, 1) {
				assert.ErrorIs(t, err, ErrInfeasible)
				return
			}
			require.NoError(t, err)
			assertCovered(t, sol, xs, values, k, target, 1, want)
		})
	}
}

func TestSubsetSearch_ExactHitStopsEarly(t *testing.T) {
	p, xs, d := deviationProblem([]float64{120, 480, 510, 730, 990, 260}, 2, 1250)
	sol, err := search().Solve(context.Background(), p)
	require.NoError(t, err)
	assert.True(t, sol.Optimal)
	assert.Zero(t, sol.Value(d))
	// 990 + 260
	assert.Equal(t, 1.0, sol.Value(xs[4]))
	assert.Equal(t, 1.0, sol.Value(xs[5]))
}

func TestSubsetSearch_EmptyClassIsInfeasible(t *testing.T) {
	values := []float64{150, 350, 450, 650}
	p, _ := coveredProblem(values, 3, 1500, 1)

	_, err := search().Solve(context.Background(), p)
	assert.ErrorIs(t, err, ErrInfeasible)
}

func TestSubsetSearch_TooFewCandidates(t *testing.T) {
	p, _, _ := deviationProblem([]float64{300, 500}, 3, 1000)
	_, err := search().Solve(context.Background(), p)
	assert.ErrorIs(t, err, ErrInfeasible)
}

// spreadValues 產生不會剛好湊出整數目標的權重
func spreadValues(n int) []float64 {
	values := make([]float64, n)
	for i := range values {
		values[i] = 150 + math.Mod(float64(i)*617.3, 1000) + math.Sqrt(float64(i+2))/1000
	}
	return values
}

func TestSubsetSearch_NodeLimit(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxNodes = 1
	p, _, _ := deviationProblem(spreadValues(40), 3, 1800)
	_, err := NewSubsetSearch(opts, nil).Solve(context.Background(), p)
	assert.ErrorIs(t, err, ErrNodeLimit)

	opts.MaxNodes = 50
	p, xs, _ := deviationProblem(spreadValues(40), 3, 1800)
	sol, err := NewSubsetSearch(opts, nil).Solve(context.Background(), p)
	require.NoError(t, err)
	assert.False(t, sol.Optimal)

	cnt := 0
	for _, x := range xs {
		cnt += int(sol.Value(x))
	}
	assert.Equal(t, 3, cnt)
}

func TestSubsetSearch_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p, _, _ := deviationProblem(spreadValues(60), 10, 6000)
	start := time.Now()
	_, err := search().Solve(ctx, p)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

type countingSolver struct{ calls int }

func (c *countingSolver) Solve(ctx context.Context, p *Problem) (*Solution, error) {
	c.calls++
	return exact().Solve(ctx, p)
}

func TestSubsetSearch_FallsBackForOtherShapes(t *testing.T) {
	fallback := &countingSolver{}
	s := NewSubsetSearch(DefaultOptions(), fallback)

	sol, err := s.Solve(context.Background(), fractionalRoot())
	require.NoError(t, err)
	assert.InDelta(t, -1, sol.Objective, 1e-9)
	assert.Equal(t, 1, fallback.calls)

	p, _, _ := deviationProblem([]float64{150, 350, 450}, 2, 800)
	_, err = s.Solve(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, 1, fallback.calls)
}

func TestSubsetShapeOf(t *testing.T) {
	p, xs := coveredProblem([]float64{150, 350, 450, 900}, 3, 2000, 1)
	shape, ok := subsetShapeOf(p)
	require.True(t, ok)
	assert.Equal(t, 3, shape.count)
	assert.InDelta(t, 2000, shape.target, 1e-9)
	assert.Equal(t, []int{1, 1, 1}, shape.need)
	assert.Equal(t, []int{-1, 0, 1, 2}, shape.groups)
	assert.Len(t, shape.vars, len(xs))

	_, ok = subsetShapeOf(fractionalRoot())
	assert.False(t, ok)

	// 兩條偏差列的權重不一致
	q := NewProblem()
	a := q.AddBinary("a")
	d := q.AddContinuous("d")
	q.AddConstraint("upper", []Term{{a, 100}, {d, -1}}, LE, 50)
	q.AddConstraint("lower", []Term{{a, 90}, {d, 1}}, GE, 50)
	q.AddConstraint("count", []Term{{a, 1}}, EQ, 1)
	q.Minimize(Term{d, 1})
	_, ok = subsetShapeOf(q)
	assert.False(t, ok)
}
