package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/familyidiomas/rota-api/internal/dto"
	"github.com/familyidiomas/rota-api/internal/models"
	"github.com/familyidiomas/rota-api/internal/roster"
	"github.com/familyidiomas/rota-api/internal/service"
	appErrors "github.com/familyidiomas/rota-api/pkg/errors"
	"github.com/familyidiomas/rota-api/pkg/jobs"
	"github.com/familyidiomas/rota-api/pkg/response"
)

const solveJobType = "allocation.solve"

// allocator is the allocation surface the handler depends on.
type allocator interface {
	LoadDataset(sessions []models.ClassSession, teachers []models.Teacher)
	Dataset() ([]models.ClassSession, []models.Teacher)
	CreateRun(ctx context.Context, params service.SolveParams) (*models.SolveRun, error)
	GetRun(ctx context.Context, runID string) (*models.SolveRun, error)
	ListRuns(ctx context.Context, filter models.SolveRunFilter) ([]models.SolveRun, int, error)
	GetRotation(ctx context.Context, runID string) (*models.Rotation, error)
	LatestRotation(ctx context.Context) (*models.Rotation, error)
}

// rotationRenderer renders a rotation as a downloadable file.
type rotationRenderer interface {
	Render(rotation *models.Rotation, format string, unfilledOnly bool) (*service.ExportFile, error)
}

// runQueue enqueues background solve jobs.
type runQueue interface {
	Enqueue(job jobs.Job) error
}

// datasetChecker previews integrity findings at upload time.
type datasetChecker interface {
	Check(sessions []models.ClassSession, teachers []models.Teacher) []string
}

// AllocationHandler exposes the roster upload, solve and rotation endpoints.
type AllocationHandler struct {
	allocations allocator
	exports     rotationRenderer
	queue       runQueue
	integrity   datasetChecker
	validate    *validator.Validate
	units       []string
}

// NewAllocationHandler constructs the handler.
func NewAllocationHandler(allocations allocator, exports rotationRenderer, queue runQueue, integrity datasetChecker, units []string) *AllocationHandler {
	return &AllocationHandler{
		allocations: allocations,
		exports:     exports,
		queue:       queue,
		integrity:   integrity,
		validate:    validator.New(),
		units:       units,
	}
}

// UploadRoster godoc
// @Summary Upload the rotation spreadsheet
// @Description Ingests the class-session sheet (xlsx or csv), expands recurrences and replaces the loaded roster.
// @Tags Allocations
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Rotation sheet"
// @Success 200 {object} response.Envelope
// @Router /rotations/roster [post]
func (h *AllocationHandler) UploadRoster(c *gin.Context) {
	src, filename, ok := h.openUpload(c)
	if !ok {
		return
	}
	defer src.Close()

	rows, err := roster.ReadSessions(src, filename)
	if err != nil {
		response.Error(c, err)
		return
	}
	sessions, findings := roster.Normalize(rows)
	if len(sessions) == 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrEmptyInput, "rotation sheet has no usable session rows"))
		return
	}

	_, teachers := h.allocations.Dataset()
	h.allocations.LoadDataset(sessions, teachers)
	if h.integrity != nil && len(teachers) > 0 {
		findings = append(findings, h.integrity.Check(sessions, teachers)...)
	}

	response.JSON(c, http.StatusOK, dto.UploadResponse{
		Sessions: len(sessions),
		Groups:   countGroups(sessions),
		Findings: findings,
	}, nil)
}

// UploadTeachers godoc
// @Summary Upload the teacher availability spreadsheet
// @Description Ingests the teacher table (xlsx or csv): weekday availability, time slots, units and capability columns.
// @Tags Allocations
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Teacher sheet"
// @Success 200 {object} response.Envelope
// @Router /rotations/teachers [post]
func (h *AllocationHandler) UploadTeachers(c *gin.Context) {
	src, filename, ok := h.openUpload(c)
	if !ok {
		return
	}
	defer src.Close()

	teachers, err := roster.ReadTeachers(src, filename, h.units)
	if err != nil {
		response.Error(c, err)
		return
	}
	if len(teachers) == 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrEmptyInput, "teacher sheet has no rows"))
		return
	}

	sessions, _ := h.allocations.Dataset()
	h.allocations.LoadDataset(sessions, teachers)
	var findings []string
	if h.integrity != nil && len(sessions) > 0 {
		findings = h.integrity.Check(sessions, teachers)
	}

	response.JSON(c, http.StatusOK, dto.UploadResponse{
		Teachers: len(teachers),
		Findings: findings,
	}, nil)
}

// Solve godoc
// @Summary Start an allocation run
// @Description Registers a run over the loaded dataset and solves it in the background. Poll the run endpoint for completion.
// @Tags Allocations
// @Accept json
// @Produce json
// @Param payload body dto.SolveRequest false "Solve options"
// @Success 202 {object} response.Envelope
// @Router /allocations/solve [post]
func (h *AllocationHandler) Solve(c *gin.Context) {
	var req dto.SolveRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid solve payload"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid solve options"))
		return
	}

	run, err := h.allocations.CreateRun(c.Request.Context(), service.SolveParams{
		Policy: req.Policy,
		Seed:   req.Seed,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.queue.Enqueue(jobs.Job{ID: run.ID, Type: solveJobType, Payload: run.ID}); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue solve"))
		return
	}

	response.Accepted(c, dto.SolveAcceptedResponse{
		RunID:  run.ID,
		Status: string(run.Status),
		Policy: run.Policy,
		Seed:   run.Seed,
	})
}

// GetRun godoc
// @Summary Get a solve run's audit record
// @Tags Allocations
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} response.Envelope
// @Router /allocations/runs/{id} [get]
func (h *AllocationHandler) GetRun(c *gin.Context) {
	run, err := h.allocations.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, run, nil)
}

// ListRuns godoc
// @Summary List solve runs
// @Tags Allocations
// @Produce json
// @Param status query string false "Status filter"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /allocations/runs [get]
func (h *AllocationHandler) ListRuns(c *gin.Context) {
	var query dto.RunListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid run query"))
		return
	}
	if err := h.validate.Struct(query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid run query"))
		return
	}

	filter := models.SolveRunFilter{
		Status:   models.SolveRunStatus(query.Status),
		Page:     query.Page,
		PageSize: query.PageSize,
	}
	runs, total, err := h.allocations.ListRuns(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	pagination := paginate(filter, total)
	response.JSON(c, http.StatusOK, runs, &pagination)
}

// GetRotation godoc
// @Summary Get a run's materialized rotation
// @Tags Allocations
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} response.Envelope
// @Router /allocations/runs/{id}/rotation [get]
func (h *AllocationHandler) GetRotation(c *gin.Context) {
	rotation, err := h.allocations.GetRotation(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewRotationResponse(rotation), nil, rotationMeta(rotation))
}

// LatestRotation godoc
// @Summary Get the newest completed rotation
// @Tags Allocations
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /rotations/latest [get]
func (h *AllocationHandler) LatestRotation(c *gin.Context) {
	rotation, err := h.allocations.LatestRotation(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewRotationResponse(rotation), nil, rotationMeta(rotation))
}

// rotationMeta flags empty outcomes so clients need not inspect the row set.
func rotationMeta(rotation *models.Rotation) map[string]interface{} {
	if rotation.Status != models.SolveRunNoSolution {
		return nil
	}
	return map[string]interface{}{"noSolution": true}
}

// Export godoc
// @Summary Download a run's rotation
// @Description Renders the rotation as xlsx (default), csv or pdf. unfilledOnly limits the rows to sessions still without a teacher.
// @Tags Allocations
// @Produce application/octet-stream
// @Param id path string true "Run ID"
// @Param format query string false "xlsx, csv or pdf"
// @Param unfilledOnly query bool false "Only unfilled sessions"
// @Success 200 {file} binary
// @Router /allocations/runs/{id}/export [get]
func (h *AllocationHandler) Export(c *gin.Context) {
	var query dto.ExportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid export query"))
		return
	}

	rotation, err := h.allocations.GetRotation(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	file, err := h.exports.Render(rotation, query.Format, query.UnfilledOnly)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))
	c.Data(http.StatusOK, file.ContentType, file.Data)
}

func (h *AllocationHandler) openUpload(c *gin.Context) (io.ReadCloser, string, bool) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file is required"))
		return nil, "", false
	}
	src, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open file"))
		return nil, "", false
	}
	return src, fileHeader.Filename, true
}

func countGroups(sessions []models.ClassSession) int {
	groups := make(map[string]struct{}, len(sessions))
	for _, s := range sessions {
		groups[s.Group] = struct{}{}
	}
	return len(groups)
}

func paginate(filter models.SolveRunFilter, total int) models.Pagination {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size < 1 {
		size = 20
	}
	totalPages := (total + size - 1) / size
	return models.Pagination{Page: page, PageSize: size, Total: total, TotalPages: totalPages}
}
