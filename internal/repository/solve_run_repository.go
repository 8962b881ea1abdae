package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/familyidiomas/rota-api/internal/models"
)

// SolveRunRepository manages persistence for solve runs and their resulting
// assignments.
type SolveRunRepository struct {
	db *sqlx.DB
}

// NewSolveRunRepository constructs a SolveRunRepository.
func NewSolveRunRepository(db *sqlx.DB) *SolveRunRepository {
	return &SolveRunRepository{db: db}
}

// Create inserts a new solve run record.
func (r *SolveRunRepository) Create(ctx context.Context, run *models.SolveRun) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if run.CreatedAt.IsZero() {
		run.CreatedAt = now
	}
	run.UpdatedAt = now
	if run.Status == "" {
		run.Status = models.SolveRunPending
	}

	const query = `INSERT INTO solve_runs (id, status, policy, attempts, seed, seed_explicit, duration_ms, total_sessions, total_groups, total_teachers, assigned_count, unfilled_count, error, created_at, updated_at)
		VALUES (:id, :status, :policy, :attempts, :seed, :seed_explicit, :duration_ms, :total_sessions, :total_groups, :total_teachers, :assigned_count, :unfilled_count, :error, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, run); err != nil {
		return fmt.Errorf("create solve run: %w", err)
	}
	return nil
}

// Update persists the run's current status and counters.
func (r *SolveRunRepository) Update(ctx context.Context, run *models.SolveRun) error {
	run.UpdatedAt = time.Now().UTC()
	const query = `UPDATE solve_runs SET status = :status, policy = :policy, attempts = :attempts, seed = :seed, seed_explicit = :seed_explicit, duration_ms = :duration_ms, total_sessions = :total_sessions, total_groups = :total_groups, total_teachers = :total_teachers, assigned_count = :assigned_count, unfilled_count = :unfilled_count, error = :error, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, run); err != nil {
		return fmt.Errorf("update solve run: %w", err)
	}
	return nil
}

// FindByID fetches a run by ID.
func (r *SolveRunRepository) FindByID(ctx context.Context, id string) (*models.SolveRun, error) {
	const query = `SELECT id, status, policy, attempts, seed, seed_explicit, duration_ms, total_sessions, total_groups, total_teachers, assigned_count, unfilled_count, error, created_at, updated_at FROM solve_runs WHERE id = $1`
	var run models.SolveRun
	if err := r.db.GetContext(ctx, &run, query, id); err != nil {
		return nil, err
	}
	return &run, nil
}

// FindLatestCompleted fetches the most recent run that produced a rotation.
func (r *SolveRunRepository) FindLatestCompleted(ctx context.Context) (*models.SolveRun, error) {
	const query = `SELECT id, status, policy, attempts, seed, seed_explicit, duration_ms, total_sessions, total_groups, total_teachers, assigned_count, unfilled_count, error, created_at, updated_at FROM solve_runs WHERE status = $1 ORDER BY created_at DESC LIMIT 1`
	var run models.SolveRun
	if err := r.db.GetContext(ctx, &run, query, models.SolveRunCompleted); err != nil {
		return nil, err
	}
	return &run, nil
}

// List returns runs matching the filter along with total count.
func (r *SolveRunRepository) List(ctx context.Context, filter models.SolveRunFilter) ([]models.SolveRun, int, error) {
	base := "FROM solve_runs WHERE 1=1"
	var args []interface{}

	if filter.Status != "" {
		base += fmt.Sprintf(" AND status = $%d", len(args)+1)
		args = append(args, filter.Status)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT id, status, policy, attempts, seed, seed_explicit, duration_ms, total_sessions, total_groups, total_teachers, assigned_count, unfilled_count, error, created_at, updated_at %s ORDER BY created_at DESC LIMIT %d OFFSET %d", base, size, offset)
	var runs []models.SolveRun
	if err := r.db.SelectContext(ctx, &runs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list solve runs: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count solve runs: %w", err)
	}

	return runs, total, nil
}

// ReplaceAssignments swaps a run's assignment rows inside one transaction.
func (r *SolveRunRepository) ReplaceAssignments(ctx context.Context, runID string, assignments []models.Assignment) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin assignments tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM solve_assignments WHERE run_id = $1`, runID); err != nil {
		return fmt.Errorf("clear assignments: %w", err)
	}

	if len(assignments) > 0 {
		values := make([]string, 0, len(assignments))
		args := make([]interface{}, 0, len(assignments)*3)
		for i, a := range assignments {
			values = append(values, fmt.Sprintf("($%d, $%d, $%d)", i*3+1, i*3+2, i*3+3))
			args = append(args, runID, a.Teacher, a.Group)
		}
		query := "INSERT INTO solve_assignments (run_id, teacher, group_name) VALUES " + strings.Join(values, ", ")
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert assignments: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit assignments: %w", err)
	}
	return nil
}

// ListAssignments fetches a run's assignment rows ordered by group.
func (r *SolveRunRepository) ListAssignments(ctx context.Context, runID string) ([]models.Assignment, error) {
	const query = `SELECT run_id, teacher, group_name FROM solve_assignments WHERE run_id = $1 ORDER BY group_name, teacher`
	var assignments []models.Assignment
	if err := r.db.SelectContext(ctx, &assignments, query, runID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return assignments, nil
}
