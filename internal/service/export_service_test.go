package service

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/familyidiomas/rota-api/internal/models"
	appErrors "github.com/familyidiomas/rota-api/pkg/errors"
)

func exportRotation() *models.Rotation {
	assigned := models.ClassSession{
		Group:       "KIDS_1",
		Weekday:     models.Segunda,
		Time:        "14:00:00",
		Mode:        models.ModeInPerson,
		Unit:        "Satélite",
		Modality:    "KIDS",
		Category:    "REGULAR",
		Stage:       "ESTAGIO_1",
		WeeklyCount: 1,
		Teacher:     "ANA",
		LastTeacher: "ANA",
	}
	open := models.ClassSession{
		Group:   "TEENS_2",
		Weekday: models.Terca,
		Time:    "16:00:00",
		Mode:    models.ModeOnline,
		Teacher: models.UnassignedSentinel,
	}
	return &models.Rotation{
		RunID:    "abc123",
		Sessions: []models.ClassSession{assigned, open},
		Unfilled: []models.ClassSession{open},
	}
}

func TestRenderCSV(t *testing.T) {
	svc := NewExportService("Rotas")
	file, err := svc.Render(exportRotation(), "csv", false)
	require.NoError(t, err)

	assert.Equal(t, "rotation_abc123.csv", file.Name)
	assert.Equal(t, "text/csv", file.ContentType)

	lines := strings.Split(strings.TrimSpace(string(file.Data)), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "nome grupo,"))
	assert.Contains(t, lines[1], "KIDS_1")
	assert.Contains(t, lines[1], "ANA")
	assert.Contains(t, lines[2], "TEENS_2")
}

func TestRenderCSVUnfilledOnly(t *testing.T) {
	svc := NewExportService("Rotas")
	file, err := svc.Render(exportRotation(), "csv", true)
	require.NoError(t, err)

	assert.Equal(t, "unfilled_abc123.csv", file.Name)
	lines := strings.Split(strings.TrimSpace(string(file.Data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "TEENS_2")
	assert.NotContains(t, string(file.Data), "KIDS_1")
}

func TestRenderXLSXIsDefaultFormat(t *testing.T) {
	svc := NewExportService("Rotas")
	file, err := svc.Render(exportRotation(), "", false)
	require.NoError(t, err)
	assert.Equal(t, "rotation_abc123.xlsx", file.Name)

	book, err := excelize.OpenReader(bytes.NewReader(file.Data))
	require.NoError(t, err)
	defer book.Close()

	rows, err := book.GetRows("Rotas")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "nome grupo", rows[0][0])
	assert.Equal(t, "KIDS_1", rows[1][0])
}

func TestRenderPDF(t *testing.T) {
	svc := NewExportService("Rotas")
	file, err := svc.Render(exportRotation(), "pdf", false)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, bytes.HasPrefix(file.Data, []byte("%PDF")))
}

func TestRenderUnsupportedFormat(t *testing.T) {
	svc := NewExportService("Rotas")
	_, err := svc.Render(exportRotation(), "docx", false)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}
