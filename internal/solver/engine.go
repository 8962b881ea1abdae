package solver

import (
	"context"

	"go.uber.org/zap"

	"github.com/familyidiomas/rota-api/internal/models"
	appErrors "github.com/familyidiomas/rota-api/pkg/errors"
)

// Engine runs the synchronous batch pipeline for one policy attempt: index,
// compile, solve, extract. Policy fallback is the caller's state machine,
// not the engine's.
type Engine struct {
	driver *Driver
	logger *zap.Logger
}

// NewEngine builds a solve engine.
func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{driver: NewDriver(logger), logger: logger}
}

// SolveOnce compiles and solves one attempt under the given options. An
// infeasible model comes back as an empty Solution with no error; only
// structural failures (empty inputs) are errors.
func (e *Engine) SolveOnce(ctx context.Context, sessions []models.ClassSession, teachers []models.Teacher, opts Options) (*Solution, error) {
	idx := BuildIndex(sessions, teachers)
	model, err := Compile(idx, opts, e.logger)
	if err != nil {
		return nil, err
	}

	e.logger.Info("model compiled",
		zap.String("policy", string(opts.Policy)),
		zap.Int64("seed", opts.Seed),
		zap.Int("teachers", len(idx.TeacherNames)),
		zap.Int("groups", len(idx.Groups)),
		zap.Int("variables", len(model.Vars)),
		zap.Int("constraints", len(model.Constraints)))

	raw, err := e.driver.Solve(ctx, model, opts)
	if err != nil {
		if appErrors.Is(err, appErrors.ErrNoSolution) {
			return &Solution{Policy: opts.Policy, Seed: opts.Seed}, nil
		}
		return nil, err
	}
	return Extract(model, raw, opts.Policy, opts.Seed), nil
}
