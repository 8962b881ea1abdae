package service

import (
	"fmt"
	"strconv"

	"github.com/familyidiomas/rota-api/internal/models"
	"github.com/familyidiomas/rota-api/internal/roster"
	appErrors "github.com/familyidiomas/rota-api/pkg/errors"
	"github.com/familyidiomas/rota-api/pkg/export"
)

// rotationHeaders is the column order of every rotation export. It matches
// the ingestion contract so an exported sheet can be re-uploaded for a
// subsequent pass.
var rotationHeaders = []string{
	roster.ColGroupName,
	roster.ColDays,
	roster.ColTime,
	roster.ColStatus,
	roster.ColUnit,
	roster.ColModality,
	roster.ColCategory,
	roster.ColStage,
	roster.ColWeeklyCount,
	roster.ColTeacher,
	roster.ColLastTeacher,
	roster.ColPriorTeacher,
}

// ExportService renders a materialized rotation as xlsx, csv or pdf.
type ExportService struct {
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	excel     *export.ExcelExporter
	sheetName string
}

// NewExportService constructs an ExportService.
func NewExportService(sheetName string) *ExportService {
	if sheetName == "" {
		sheetName = "Rotas"
	}
	return &ExportService{
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		excel:     export.NewExcelExporter(),
		sheetName: sheetName,
	}
}

// ExportFile is a rendered download.
type ExportFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// Render produces the rotation in the requested format. unfilledOnly limits
// the rows to sessions still without a teacher.
func (s *ExportService) Render(rotation *models.Rotation, format string, unfilledOnly bool) (*ExportFile, error) {
	dataset := s.dataset(rotation, unfilledOnly)
	base := "rotation_" + rotation.RunID
	if unfilledOnly {
		base = "unfilled_" + rotation.RunID
	}

	switch format {
	case "csv":
		data, err := s.csv.Render(dataset)
		if err != nil {
			return nil, err
		}
		return &ExportFile{Name: base + ".csv", ContentType: "text/csv", Data: data}, nil
	case "xlsx", "":
		data, err := s.excel.Render(dataset, s.sheetName)
		if err != nil {
			return nil, err
		}
		return &ExportFile{
			Name:        base + ".xlsx",
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Data:        data,
		}, nil
	case "pdf":
		data, err := s.pdf.Render(dataset, s.sheetName)
		if err != nil {
			return nil, err
		}
		return &ExportFile{Name: base + ".pdf", ContentType: "application/pdf", Data: data}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}

func (s *ExportService) dataset(rotation *models.Rotation, unfilledOnly bool) export.Dataset {
	rows := rotation.Sessions
	if unfilledOnly {
		rows = rotation.Unfilled
	}

	dataset := export.Dataset{Headers: rotationHeaders}
	for _, session := range rows {
		dataset.Rows = append(dataset.Rows, map[string]string{
			roster.ColGroupName:    session.Group,
			roster.ColDays:         string(session.Weekday),
			roster.ColTime:         session.Time,
			roster.ColStatus:       string(session.Mode),
			roster.ColUnit:         session.Unit,
			roster.ColModality:     session.Modality,
			roster.ColCategory:     session.Category,
			roster.ColStage:        session.Stage,
			roster.ColWeeklyCount:  strconv.Itoa(session.WeeklyCount),
			roster.ColTeacher:      session.Teacher,
			roster.ColLastTeacher:  session.LastTeacher,
			roster.ColPriorTeacher: session.PriorTeacher,
		})
	}
	return dataset
}
