package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleDataset() Dataset {
	return Dataset{
		Headers: []string{"nome grupo", "dias da semana", "horario", "teacher"},
		Rows: []map[string]string{
			{"nome grupo": "KIDS_1", "dias da semana": "SEGUNDA", "horario": "14:00", "teacher": "ANA"},
			{"nome grupo": "TEENS_2", "dias da semana": "QUARTA", "horario": "16:00", "teacher": "-"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "nome grupo,dias da semana,horario,teacher", lines[0])
	assert.Equal(t, "KIDS_1,SEGUNDA,14:00,ANA", lines[1])
	assert.Equal(t, "TEENS_2,QUARTA,16:00,-", lines[2])
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset(), "Rotation")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestExcelExporterRender(t *testing.T) {
	out, err := NewExcelExporter().Render(sampleDataset(), "rotation")
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("rotation")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"nome grupo", "dias da semana", "horario", "teacher"}, rows[0])
	assert.Equal(t, "ANA", rows[1][3])
}
