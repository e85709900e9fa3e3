package solver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSolveKnapsack(t *testing.T) {
	tests := []struct {
		name       string
		weights    []int64
		values     []int64
		capacity   int64
		wantStatus Status
		wantValue  int64
	}{
		{
			name:       "fits everything",
			weights:    []int64{2, 3, 4},
			values:     []int64{3, 4, 5},
			capacity:   10,
			wantStatus: Optimal,
			wantValue:  12,
		},
		{
			name:       "must choose",
			weights:    []int64{5, 4, 3},
			values:     []int64{10, 8, 6},
			capacity:   7,
			wantStatus: Optimal,
			wantValue:  14,
		},
		{
			name:       "zero capacity",
			weights:    []int64{1, 1},
			values:     []int64{5, 5},
			capacity:   0,
			wantStatus: Optimal,
			wantValue:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewModel()
			items := make([]BoolVar, len(tt.weights))
			weight := NewLinearExpr()
			objective := NewLinearExpr()
			for i := range tt.weights {
				items[i] = m.NewBoolVar("item")
				weight = weight.Plus(items[i], tt.weights[i])
				objective = objective.Plus(items[i], tt.values[i])
			}
			m.Add(weight, LE, tt.capacity)
			m.Maximize(objective)

			status, assignment := NewSolver().Solve(context.Background(), m, time.Second)
			require.Equal(t, tt.wantStatus, status)

			var total int64
			for i, it := range items {
				if assignment.BooleanValue(it) {
					total += tt.values[i]
				}
			}
			assert.Equal(t, tt.wantValue, total)
		})
	}
}

func TestSolveInfeasible(t *testing.T) {
	m := NewModel()
	x := m.NewIntVar(0, 5, "x")
	m.Add(NewLinearExpr().Plus(x, 1), GE, 10)

	status, assignment := NewSolver().Solve(context.Background(), m, time.Second)
	assert.Equal(t, Infeasible, status)
	assert.Nil(t, assignment)
}

func TestSolveModelInvalid(t *testing.T) {
	m := NewModel()
	m.NewIntVar(5, 1, "bad-domain")

	status, assignment := NewSolver().Solve(context.Background(), m, time.Second)
	assert.Equal(t, ModelInvalid, status)
	assert.Nil(t, assignment)
}

func TestSolveBoolOrForcesLiteral(t *testing.T) {
	m := NewModel()
	a := m.NewBoolVar("a")
	b := m.NewBoolVar("b")

	m.Add(NewLinearExpr().Plus(a, 1), EQ, 0) // a = false
	m.AddBoolOr(a.Lit(), b.Lit())            // a or b, so b must be true
	m.Maximize(NewLinearExpr())

	status, assignment := NewSolver().Solve(context.Background(), m, time.Second)
	require.Equal(t, Optimal, status)
	assert.False(t, assignment.BooleanValue(a))
	assert.True(t, assignment.BooleanValue(b))
}

func TestSolveReifiedConstraintOnlyWhenEnforced(t *testing.T) {
	m := NewModel()
	enforce := m.NewBoolVar("enforce")
	x := m.NewIntVar(0, 10, "x")

	m.Add(NewLinearExpr().Plus(enforce, 1), EQ, 0) // enforce = false
	m.Add(NewLinearExpr().Plus(x, 1), EQ, 999).OnlyEnforceIf(enforce.Lit())
	m.Maximize(NewLinearExpr().Plus(x, 1))

	status, assignment := NewSolver().Solve(context.Background(), m, time.Second)
	require.Equal(t, Optimal, status)
	assert.Equal(t, int64(10), assignment.Value(x))
}

func TestSolveTimeLimitReturnsFeasibleNotUnknown(t *testing.T) {
	m := NewModel()
	vars := make([]BoolVar, 24)
	objective := NewLinearExpr()
	weight := NewLinearExpr()
	for i := range vars {
		vars[i] = m.NewBoolVar("v")
		objective = objective.Plus(vars[i], int64(i+1))
		weight = weight.Plus(vars[i], int64(i+1))
	}
	m.Add(weight, LE, 100)
	m.Maximize(objective)

	status, assignment := NewSolver().Solve(context.Background(), m, time.Millisecond)
	assert.Contains(t, []Status{Optimal, Feasible}, status)
	assert.NotNil(t, assignment)
}
