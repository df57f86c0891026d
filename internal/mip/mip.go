// Package mip solves the small bounded-knapsack integer programs produced
// by cargo optimization: maximize profit·x subject to weight·x ≤ capacity
// with integer x_i in [0, upper_i]. Exact solutions come from branch and
// bound over an LP relaxation; the relaxation solver is pluggable.
package mip

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// ErrInfeasible reports that no assignment satisfies the capacity
// constraint within the variable bounds.
var ErrInfeasible = errors.New("mip: infeasible")

const (
	intTol   = 1e-6
	maxNodes = 100000
)

// RelaxationSolver solves the continuous relaxation of one branch node:
// maximize profit·x subject to weight·x ≤ capacity, lower ≤ x ≤ upper.
type RelaxationSolver interface {
	Solve(profit, weight []float64, capacity float64, lower, upper []float64) (x []float64, opt float64, err error)
}

// Solver is an exact bounded-knapsack solver.
type Solver struct {
	relax RelaxationSolver
}

// NewSolver returns a Solver backed by the simplex relaxation.
func NewSolver() *Solver {
	return &Solver{relax: simplexSolver{}}
}

// NewSolverWith returns a Solver using a custom relaxation, for testing.
func NewSolverWith(relax RelaxationSolver) *Solver {
	return &Solver{relax: relax}
}

type node struct {
	lower []float64
	upper []float64
}

// SolveKnapsack returns the optimal integer volumes and the objective value.
// Negative capacity is infeasible; zero capacity with positive weights
// yields the all-zero solution.
func (s *Solver) SolveKnapsack(profit, weight []float64, upper []int64, capacity float64) ([]int64, float64, error) {
	n := len(profit)
	if len(weight) != n || len(upper) != n {
		return nil, 0, fmt.Errorf("mip: mismatched lengths %d/%d/%d", len(profit), len(weight), len(upper))
	}
	if capacity < 0 {
		return nil, 0, ErrInfeasible
	}
	if n == 0 {
		return nil, 0, nil
	}

	// Everything fits: no LP needed.
	var fullWeight float64
	for i := range weight {
		fullWeight += weight[i] * float64(upper[i])
	}
	if fullWeight <= capacity {
		out := make([]int64, n)
		var opt float64
		for i := range out {
			if profit[i] > 0 {
				out[i] = upper[i]
				opt += profit[i] * float64(upper[i])
			}
		}
		return out, opt, nil
	}

	root := node{lower: make([]float64, n), upper: make([]float64, n)}
	for i := range root.upper {
		root.upper[i] = float64(upper[i])
	}

	best := make([]int64, n)
	bestVal := 0.0 // all-zero is always feasible for capacity ≥ 0
	stack := []node{root}
	nodes := 0

	for len(stack) > 0 && nodes < maxNodes {
		nodes++
		nd := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		x, opt, err := s.relax.Solve(profit, weight, capacity, nd.lower, nd.upper)
		if err != nil {
			continue // infeasible branch
		}
		if opt <= bestVal+intTol {
			continue
		}

		frac := fractionalIndex(x)
		if frac < 0 {
			val := 0.0
			cand := make([]int64, n)
			for i := range x {
				cand[i] = int64(math.Round(x[i]))
				val += profit[i] * float64(cand[i])
			}
			if val > bestVal {
				bestVal = val
				best = cand
			}
			continue
		}

		// Branch on the fractional variable: floor side and ceil side.
		down := nd.clone()
		down.upper[frac] = math.Floor(x[frac])
		up := nd.clone()
		up.lower[frac] = math.Ceil(x[frac])
		stack = append(stack, down, up)
	}

	return best, bestVal, nil
}

func (nd node) clone() node {
	c := node{lower: make([]float64, len(nd.lower)), upper: make([]float64, len(nd.upper))}
	copy(c.lower, nd.lower)
	copy(c.upper, nd.upper)
	return c
}

// fractionalIndex returns the index of the variable farthest from an
// integer, or -1 when the solution is integral.
func fractionalIndex(x []float64) int {
	best := -1
	bestDist := intTol
	for i, v := range x {
		dist := math.Abs(v - math.Round(v))
		if dist > bestDist {
			bestDist = dist
			best = i
		}
	}
	return best
}

// simplexSolver solves branch relaxations with gonum's simplex method.
// The node problem is rewritten in standard form: shifted variables
// y_i = x_i − lower_i, one slack for the capacity row and one per upper
// bound row, then minimize the negated objective.
type simplexSolver struct{}

func (simplexSolver) Solve(profit, weight []float64, capacity float64, lower, upper []float64) ([]float64, float64, error) {
	n := len(profit)

	used := capacity
	for i := range lower {
		if upper[i] < lower[i] {
			return nil, 0, ErrInfeasible
		}
		used -= weight[i] * lower[i]
	}
	if used < -intTol {
		return nil, 0, ErrInfeasible
	}
	if used < 0 {
		used = 0
	}

	// Columns: y_0..y_{n-1}, capacity slack, bound slacks t_0..t_{n-1}.
	cols := 2*n + 1
	rows := n + 1

	c := make([]float64, cols)
	for i := range profit {
		c[i] = -profit[i]
	}

	a := mat.NewDense(rows, cols, nil)
	b := make([]float64, rows)
	for i := range weight {
		a.Set(0, i, weight[i])
	}
	a.Set(0, n, 1)
	b[0] = used
	for i := 0; i < n; i++ {
		a.Set(1+i, i, 1)
		a.Set(1+i, n+1+i, 1)
		b[1+i] = upper[i] - lower[i]
	}

	_, y, err := lp.Simplex(c, a, b, 1e-10, nil)
	if err != nil {
		return nil, 0, err
	}

	x := make([]float64, n)
	var opt float64
	for i := range x {
		x[i] = y[i] + lower[i]
		opt += profit[i] * x[i]
	}
	return x, opt, nil
}
