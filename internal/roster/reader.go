package roster

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	appErrors "github.com/familyidiomas/rota-api/pkg/errors"
)

// table is a parsed tabular file with case-preserving headers.
type table struct {
	headers []string
	col     map[string]int
	rows    [][]string
}

func newTable(records [][]string) (*table, error) {
	if len(records) == 0 {
		return nil, appErrors.Clone(appErrors.ErrMalformedInput, "file has no header row")
	}
	t := &table{headers: records[0], col: make(map[string]int, len(records[0])), rows: records[1:]}
	for i, h := range t.headers {
		t.col[strings.TrimSpace(h)] = i
	}
	return t, nil
}

func (t *table) cell(row []string, column string) string {
	i, ok := t.col[column]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (t *table) has(column string) bool {
	_, ok := t.col[column]
	return ok
}

func (t *table) require(columns ...string) error {
	var missing []string
	for _, c := range columns {
		if !t.has(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return appErrors.Clone(appErrors.ErrMalformedInput,
			fmt.Sprintf("missing required columns: %s", strings.Join(missing, ", ")))
	}
	return nil
}

func readCSVTable(r io.Reader) (*table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrMalformedInput.Code, appErrors.ErrMalformedInput.Status, "unreadable csv")
	}
	return newTable(records)
}

func readXLSXTable(r io.Reader) (*table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrMalformedInput.Code, appErrors.ErrMalformedInput.Status, "unreadable xlsx")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, appErrors.Clone(appErrors.ErrMalformedInput, "workbook has no sheets")
	}
	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrMalformedInput.Code, appErrors.ErrMalformedInput.Status, "unreadable sheet")
	}
	return newTable(records)
}

func readTable(r io.Reader, filename string) (*table, error) {
	if strings.HasSuffix(strings.ToLower(filename), ".csv") {
		return readCSVTable(r)
	}
	return readXLSXTable(r)
}

// ReadSessions parses the rotation sheet (xlsx or csv by file extension)
// into raw rows ready for Normalize.
func ReadSessions(r io.Reader, filename string) ([]RawSessionRow, error) {
	t, err := readTable(r, filename)
	if err != nil {
		return nil, err
	}
	if err := t.require(ColGroupName, ColDays, ColTime); err != nil {
		return nil, err
	}

	rows := make([]RawSessionRow, 0, len(t.rows))
	for _, row := range t.rows {
		rows = append(rows, RawSessionRow{
			GroupName:    t.cell(row, ColGroupName),
			Days:         t.cell(row, ColDays),
			Time:         t.cell(row, ColTime),
			Status:       t.cell(row, ColStatus),
			Unit:         t.cell(row, ColUnit),
			Modality:     t.cell(row, ColModality),
			Category:     t.cell(row, ColCategory),
			Stage:        t.cell(row, ColStage),
			WeeklyCount:  parseIntCell(t.cell(row, ColWeeklyCount)),
			Teacher:      t.cell(row, ColTeacher),
			LastTeacher:  t.cell(row, ColLastTeacher),
			PriorTeacher: t.cell(row, ColPriorTeacher),
			Excluded:     t.cell(row, ColExcluded),
		})
	}
	return rows, nil
}

func parseIntCell(s string) int {
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := parseFloatCell(s); err == nil {
		return int(f)
	}
	return 0
}

// parseFloatCell tolerates the sheet's decimal comma.
func parseFloatCell(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", "."), 64)
}
