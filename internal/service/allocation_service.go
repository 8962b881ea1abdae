package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/familyidiomas/rota-api/internal/models"
	"github.com/familyidiomas/rota-api/internal/solver"
	"github.com/familyidiomas/rota-api/pkg/config"
	appErrors "github.com/familyidiomas/rota-api/pkg/errors"
)

// solveRunStore abstracts run persistence for the allocation flow.
type solveRunStore interface {
	Create(ctx context.Context, run *models.SolveRun) error
	Update(ctx context.Context, run *models.SolveRun) error
	FindByID(ctx context.Context, id string) (*models.SolveRun, error)
	FindLatestCompleted(ctx context.Context) (*models.SolveRun, error)
	List(ctx context.Context, filter models.SolveRunFilter) ([]models.SolveRun, int, error)
	ReplaceAssignments(ctx context.Context, runID string, assignments []models.Assignment) error
	ListAssignments(ctx context.Context, runID string) ([]models.Assignment, error)
}

// assignmentEngine abstracts one solve attempt.
type assignmentEngine interface {
	SolveOnce(ctx context.Context, sessions []models.ClassSession, teachers []models.Teacher, opts solver.Options) (*solver.Solution, error)
}

// rotationCache abstracts the Redis commands used for materialized
// rotations. *redis.Client satisfies it.
type rotationCache interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// integrityChecker produces findings over the loaded dataset.
type integrityChecker interface {
	Check(sessions []models.ClassSession, teachers []models.Teacher) []string
}

// solveObserver receives solver metrics.
type solveObserver interface {
	ObserveSolve(policy, outcome string, duration time.Duration)
	RecordFallback()
	SetUnfilled(count int)
}

// AllocationService owns the solve lifecycle: it keeps the uploaded dataset,
// runs the policy fallback state machine, persists the run audit and caches
// the materialized rotation.
type AllocationService struct {
	runs      solveRunStore
	engine    assignmentEngine
	cache     rotationCache
	integrity integrityChecker
	metrics   solveObserver
	cfg       config.SolverConfig
	cacheTTL  time.Duration
	logger    *zap.Logger

	mu       sync.RWMutex
	sessions []models.ClassSession
	teachers []models.Teacher
}

// NewAllocationService constructs an AllocationService.
func NewAllocationService(runs solveRunStore, engine assignmentEngine, cache rotationCache, integrity integrityChecker, metrics solveObserver, cfg config.SolverConfig, cacheTTL time.Duration, logger *zap.Logger) *AllocationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AllocationService{
		runs:      runs,
		engine:    engine,
		cache:     cache,
		integrity: integrity,
		metrics:   metrics,
		cfg:       cfg,
		cacheTTL:  cacheTTL,
		logger:    logger,
	}
}

// LoadDataset replaces the roster and teacher table used by subsequent
// solves.
func (s *AllocationService) LoadDataset(sessions []models.ClassSession, teachers []models.Teacher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = sessions
	s.teachers = teachers
}

// Dataset returns the loaded roster and teacher table.
func (s *AllocationService) Dataset() ([]models.ClassSession, []models.Teacher) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions, s.teachers
}

// SolveParams narrows a run request: an optional policy override and an
// optional explicit seed.
type SolveParams struct {
	Policy string
	Seed   *int64
}

// CreateRun registers a pending run for the loaded dataset. The actual
// solve happens in Execute, normally via the job queue.
func (s *AllocationService) CreateRun(ctx context.Context, params SolveParams) (*models.SolveRun, error) {
	sessions, teachers := s.Dataset()
	if len(sessions) == 0 || len(teachers) == 0 {
		return nil, appErrors.Clone(appErrors.ErrEmptyInput, "no roster loaded; upload the rotation and teacher sheets first")
	}

	policy := s.cfg.Policy
	if params.Policy != "" {
		policy = params.Policy
	}
	if _, err := solver.ParsePolicy(policy); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid solve policy")
	}

	seed, explicit := s.pickSeed(params)
	run := &models.SolveRun{
		Status:       models.SolveRunPending,
		Policy:       policy,
		Seed:         seed,
		SeedExplicit: explicit,
	}
	if err := s.runs.Create(ctx, run); err != nil {
		return nil, err
	}
	if !explicit {
		// Seed was drawn, not requested; record it for audit since the run
		// is only reproducible with it.
		s.logger.Info("drew random solve seed", zap.String("run_id", run.ID), zap.Int64("seed", seed))
	}
	return run, nil
}

func (s *AllocationService) pickSeed(params SolveParams) (int64, bool) {
	if params.Seed != nil {
		return *params.Seed, true
	}
	if s.cfg.SeedExplicit {
		return s.cfg.Seed, true
	}
	return rand.Int63(), false
}

// Execute runs the solve for a pending run: Attempt 1 under the run's
// policy, and, when it produces zero rows, Attempt 2 under the fallback
// policy over a fresh model with the pins carried by the unchanged input.
func (s *AllocationService) Execute(ctx context.Context, runID string) error {
	run, err := s.runs.FindByID(ctx, runID)
	if err != nil {
		return fmt.Errorf("load run %s: %w", runID, err)
	}
	sessions, teachers := s.Dataset()

	run.Status = models.SolveRunRunning
	run.TotalSessions = len(sessions)
	run.TotalTeachers = len(teachers)
	run.TotalGroups = countGroups(sessions)
	if err := s.runs.Update(ctx, run); err != nil {
		return err
	}

	var findings []string
	if s.integrity != nil {
		findings = s.integrity.Check(sessions, teachers)
	}

	started := time.Now()
	sol, attempts, err := s.solveWithFallback(ctx, sessions, teachers, run)
	run.DurationMS = time.Since(started).Milliseconds()
	run.Attempts = attempts

	if err != nil {
		msg := err.Error()
		run.Status = models.SolveRunFailed
		run.Error = &msg
		if updateErr := s.runs.Update(ctx, run); updateErr != nil {
			s.logger.Error("persist failed run", zap.Error(updateErr))
		}
		return err
	}

	merged, unfilled := solver.MergeBack(sessions, sol.Assignments)
	run.AssignedCount = len(sol.Assignments)
	run.UnfilledCount = len(unfilled)
	run.Policy = string(sol.Policy)
	if sol.Empty() {
		run.Status = models.SolveRunNoSolution
	} else {
		run.Status = models.SolveRunCompleted
	}

	if err := s.runs.Update(ctx, run); err != nil {
		return err
	}
	if err := s.runs.ReplaceAssignments(ctx, run.ID, sol.Assignments); err != nil {
		return err
	}

	rotation := &models.Rotation{
		RunID:       run.ID,
		Status:      run.Status,
		Policy:      run.Policy,
		Attempts:    run.Attempts,
		Seed:        run.Seed,
		Assignments: sol.Assignments,
		Sessions:    merged,
		Unfilled:    unfilled,
		Findings:    findings,
		GeneratedAt: time.Now().UTC(),
	}
	s.cacheRotation(ctx, rotation)
	if s.metrics != nil {
		s.metrics.SetUnfilled(len(unfilled))
	}

	s.logger.Info("allocation run finished",
		zap.String("run_id", run.ID),
		zap.String("status", string(run.Status)),
		zap.Int("attempts", run.Attempts),
		zap.Int("assigned", run.AssignedCount),
		zap.Int("unfilled", run.UnfilledCount))
	return nil
}

// solveWithFallback is the policy state machine. Attempts are strictly
// sequential: the second depends on the first coming back empty.
func (s *AllocationService) solveWithFallback(ctx context.Context, sessions []models.ClassSession, teachers []models.Teacher, run *models.SolveRun) (*solver.Solution, int, error) {
	opts := s.solverOptions(run.Policy, run.Seed)

	attemptStart := time.Now()
	sol, err := s.engine.SolveOnce(ctx, sessions, teachers, opts)
	s.observe(run.Policy, sol, err, time.Since(attemptStart))
	if err != nil {
		return nil, 1, err
	}
	if !sol.Empty() {
		return sol, 1, nil
	}

	fallback := s.cfg.FallbackPolicy
	if fallback == "" || fallback == run.Policy {
		return sol, 1, nil
	}

	s.logger.Warn("solve produced zero rows, retrying under fallback policy",
		zap.String("run_id", run.ID),
		zap.String("policy", run.Policy),
		zap.String("fallback", fallback))
	if s.metrics != nil {
		s.metrics.RecordFallback()
	}

	opts = s.solverOptions(fallback, run.Seed)
	attemptStart = time.Now()
	sol, err = s.engine.SolveOnce(ctx, sessions, teachers, opts)
	s.observe(fallback, sol, err, time.Since(attemptStart))
	if err != nil {
		return nil, 2, err
	}
	return sol, 2, nil
}

func (s *AllocationService) observe(policy string, sol *solver.Solution, err error, elapsed time.Duration) {
	if s.metrics == nil {
		return
	}
	outcome := "no_solution"
	switch {
	case err != nil:
		outcome = "error"
	case sol != nil && !sol.Empty():
		outcome = string(sol.Status)
	}
	s.metrics.ObserveSolve(policy, outcome, elapsed)
}

func (s *AllocationService) solverOptions(policy string, seed int64) solver.Options {
	opts := solver.DefaultOptions()
	parsed, err := solver.ParsePolicy(policy)
	if err == nil {
		opts.Policy = parsed
	}
	opts.Seed = seed
	opts.TimeBudget = s.cfg.TimeBudget
	if s.cfg.MinGapMinutes > 0 {
		opts.MinGapMinutes = s.cfg.MinGapMinutes
	}
	if len(s.cfg.ImpossibleGaps) > 0 {
		opts.ImpossibleGapMinutes = s.cfg.ImpossibleGaps
	}
	if s.cfg.IntensiveThreshold > 0 {
		opts.IntensiveThreshold = s.cfg.IntensiveThreshold
	}
	if s.cfg.WorkloadDeltaLow > 0 {
		opts.WorkloadDeltaLow = s.cfg.WorkloadDeltaLow
	}
	opts.WorkloadDeltaHigh = s.cfg.WorkloadDeltaHigh
	if s.cfg.FillWeight > 0 {
		opts.FillWeight = float64(s.cfg.FillWeight)
	}
	if s.cfg.ContinuityWeight > 0 {
		opts.ContinuityWeight = float64(s.cfg.ContinuityWeight)
	}
	if s.cfg.ConditionalWeight > 0 {
		opts.ConditionalWeight = float64(s.cfg.ConditionalWeight)
	}
	if s.cfg.DeviationWeight > 0 {
		opts.DeviationWeight = float64(s.cfg.DeviationWeight)
	}
	return opts
}

// GetRun fetches a run's audit record.
func (s *AllocationService) GetRun(ctx context.Context, runID string) (*models.SolveRun, error) {
	return s.runs.FindByID(ctx, runID)
}

// ListRuns pages through run history.
func (s *AllocationService) ListRuns(ctx context.Context, filter models.SolveRunFilter) ([]models.SolveRun, int, error) {
	return s.runs.List(ctx, filter)
}

// GetRotation fetches a run's materialized rotation, preferring the cache
// and falling back to the persisted assignment rows merged over the loaded
// dataset.
func (s *AllocationService) GetRotation(ctx context.Context, runID string) (*models.Rotation, error) {
	if rotation := s.cachedRotation(ctx, runID); rotation != nil {
		return rotation, nil
	}

	run, err := s.runs.FindByID(ctx, runID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "solve run not found")
	}
	assignments, err := s.runs.ListAssignments(ctx, runID)
	if err != nil {
		return nil, err
	}

	sessions, _ := s.Dataset()
	merged, unfilled := solver.MergeBack(sessions, assignments)
	return &models.Rotation{
		RunID:       run.ID,
		Status:      run.Status,
		Policy:      run.Policy,
		Attempts:    run.Attempts,
		Seed:        run.Seed,
		Assignments: assignments,
		Sessions:    merged,
		Unfilled:    unfilled,
		GeneratedAt: run.UpdatedAt,
	}, nil
}

// LatestRotation fetches the rotation of the newest completed run.
func (s *AllocationService) LatestRotation(ctx context.Context) (*models.Rotation, error) {
	run, err := s.runs.FindLatestCompleted(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "no completed rotation yet")
	}
	return s.GetRotation(ctx, run.ID)
}

func rotationCacheKey(runID string) string {
	return "rotation:" + runID
}

func (s *AllocationService) cacheRotation(ctx context.Context, rotation *models.Rotation) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(rotation)
	if err != nil {
		s.logger.Error("marshal rotation for cache", zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, rotationCacheKey(rotation.RunID), payload, s.cacheTTL).Err(); err != nil {
		s.logger.Warn("cache rotation", zap.Error(err))
	}
}

func (s *AllocationService) cachedRotation(ctx context.Context, runID string) *models.Rotation {
	if s.cache == nil {
		return nil
	}
	payload, err := s.cache.Get(ctx, rotationCacheKey(runID)).Bytes()
	if err != nil {
		return nil
	}
	var rotation models.Rotation
	if err := json.Unmarshal(payload, &rotation); err != nil {
		s.logger.Warn("decode cached rotation", zap.Error(err))
		return nil
	}
	return &rotation
}

func countGroups(sessions []models.ClassSession) int {
	groups := make(map[string]struct{}, len(sessions))
	for _, s := range sessions {
		groups[s.Group] = struct{}{}
	}
	return len(groups)
}
