package solver

import (
	"context"
	"math/rand"
	"time"

	"github.com/lukpank/go-glpk/glpk"
	"go.uber.org/zap"

	appErrors "github.com/familyidiomas/rota-api/pkg/errors"
)

// SolveStatus is the usable outcome of a MIP solve.
type SolveStatus string

const (
	StatusOptimal  SolveStatus = "optimal"
	StatusFeasible SolveStatus = "feasible"
)

// RawSolution holds solved variable values indexed by model variable ID.
type RawSolution struct {
	Status SolveStatus
	Values []float64
}

// True reports whether a binary variable solved to 1.
func (s *RawSolution) True(varID int) bool {
	return varID < len(s.Values) && s.Values[varID] > 0.5
}

// Driver translates a compiled model into a GLPK problem and runs the MIP
// solve. Each call owns an isolated problem object; nothing is shared
// between attempts.
type Driver struct {
	logger *zap.Logger
}

// NewDriver builds a solver driver.
func NewDriver(logger *zap.Logger) *Driver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Driver{logger: logger}
}

// Solve runs simplex then branch-and-cut over the model. The seed permutes
// column order, which is the only search entropy GLPK exposes here: an
// identical seed over an identical model reproduces the exact same
// assignment. Infeasible or unusable outcomes return ErrNoSolution so the
// caller can retry under a relaxed policy.
func (d *Driver) Solve(ctx context.Context, m *Model, opts Options) (*RawSolution, error) {
	if err := ctx.Err(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNoSolution.Code, appErrors.ErrNoSolution.Status, "solve canceled before start")
	}

	lp := glpk.New()
	defer lp.Delete()
	lp.SetProbName("teacher-rotation")
	lp.SetObjDir(glpk.ObjDir(glpk.MIN))

	// Column order drives the branching order, so the permutation below is
	// what makes two runs with the same seed bit-identical.
	perm := rand.New(rand.NewSource(opts.Seed)).Perm(len(m.Vars))
	column := make([]int32, len(m.Vars)) // var ID -> 1-based column
	lp.AddCols(len(m.Vars))
	for varID, pos := range perm {
		col := pos + 1
		column[varID] = int32(col)
		v := m.Vars[varID]
		lp.SetColName(col, v.Name)
		if v.Kind == VarBool {
			lp.SetColKind(col, glpk.VarType(glpk.BV))
		} else {
			lp.SetColKind(col, glpk.VarType(glpk.IV))
			if v.Hi < v.Lo {
				lp.SetColBnds(col, glpk.BndsType(glpk.LO), v.Lo, 0)
			} else {
				lp.SetColBnds(col, glpk.BndsType(glpk.DB), v.Lo, v.Hi)
			}
		}
	}
	for _, term := range m.Objective {
		lp.SetObjCoef(int(column[term.Var]), term.Coef)
	}

	lp.AddRows(len(m.Constraints))
	for i, cons := range m.Constraints {
		row := i + 1
		lp.SetRowName(row, cons.Name)
		switch cons.Kind {
		case BoundFixed:
			lp.SetRowBnds(row, glpk.BndsType(glpk.FX), cons.Lo, cons.Lo)
		case BoundUpper:
			lp.SetRowBnds(row, glpk.BndsType(glpk.UP), 0, cons.Hi)
		case BoundLower:
			lp.SetRowBnds(row, glpk.BndsType(glpk.LO), cons.Lo, 0)
		case BoundRange:
			lp.SetRowBnds(row, glpk.BndsType(glpk.DB), cons.Lo, cons.Hi)
		}
		ind := make([]int32, len(cons.Terms))
		coef := make([]float64, len(cons.Terms))
		for j, term := range cons.Terms {
			ind[j] = column[term.Var]
			coef[j] = term.Coef
		}
		lp.SetMatRow(row, ind, coef)
	}

	// The wrapper exposes no MIP time limit; the budget is logged and the
	// context deadline is checked after the fact.
	if opts.TimeBudget > 0 {
		d.logger.Debug("solver time budget recorded; glpk wrapper cannot interrupt a running solve",
			zap.Duration("budget", opts.TimeBudget))
	}

	smcp := glpk.NewSmcp()
	smcp.SetMsgLev(glpk.MsgLev(glpk.MSG_ERR))
	iocp := glpk.NewIocp()
	iocp.SetPresolve(true)
	iocp.SetMsgLev(glpk.MsgLev(glpk.MSG_ERR))

	started := time.Now()
	if err := lp.Simplex(smcp); err != nil {
		d.logger.Warn("simplex found no relaxation", zap.Error(err))
		return nil, appErrors.Clone(appErrors.ErrNoSolution, "")
	}
	if err := lp.Intopt(iocp); err != nil {
		// The MIP presolver reports infeasibility as an error.
		d.logger.Warn("integer solve found no assignment", zap.Error(err))
		return nil, appErrors.Clone(appErrors.ErrNoSolution, "")
	}
	elapsed := time.Since(started)

	if opts.TimeBudget > 0 && elapsed > opts.TimeBudget {
		d.logger.Warn("solve exceeded its time budget",
			zap.Duration("budget", opts.TimeBudget),
			zap.Duration("elapsed", elapsed))
	}

	var status SolveStatus
	switch lp.MipStatus() {
	case glpk.OPT:
		status = StatusOptimal
	case glpk.FEAS:
		status = StatusFeasible
	default:
		return nil, appErrors.Clone(appErrors.ErrNoSolution, "")
	}

	values := make([]float64, len(m.Vars))
	for varID := range m.Vars {
		values[varID] = lp.MipColVal(int(column[varID]))
	}

	d.logger.Info("solve finished",
		zap.String("status", string(status)),
		zap.Int("variables", len(m.Vars)),
		zap.Int("constraints", len(m.Constraints)),
		zap.Duration("elapsed", elapsed))

	return &RawSolution{Status: status, Values: values}, nil
}
