package roster

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

const sessionsCSV = `nome grupo,dias da semana,horario,status,unidade,modalidade,grupo,stage,n aulas,teacher,ultimo_professor,penultimo_professor
KIDS_1,2ª ● 4ª,14:00:00,,Satélite,Inglês,KIDS,3,2,-,ANA,BRUNO
ADULT_2,EVERYDAY,19:00:00,ONLINE,,Espanhol,ADULT,ESTAGIO_5,5,CLARA,,
`

func TestReadSessionsCSV(t *testing.T) {
	rows, err := ReadSessions(strings.NewReader(sessionsCSV), "rota.csv")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "KIDS_1", rows[0].GroupName)
	assert.Equal(t, "2ª ● 4ª", rows[0].Days)
	assert.Equal(t, 2, rows[0].WeeklyCount)
	assert.Equal(t, "ANA", rows[0].LastTeacher)

	assert.Equal(t, "ONLINE", rows[1].Status)
	assert.Equal(t, "CLARA", rows[1].Teacher)
}

func TestReadSessionsMissingColumns(t *testing.T) {
	_, err := ReadSessions(strings.NewReader("nome grupo,horario\nKIDS_1,14:00:00\n"), "rota.csv")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrMalformedInput))
	assert.Contains(t, err.Error(), "dias da semana")
}

func TestReadSessionsEmptyFile(t *testing.T) {
	_, err := ReadSessions(strings.NewReader(""), "rota.csv")
	assert.True(t, appErrors.Is(err, appErrors.ErrMalformedInput))
}

const teachersCSV = `TEACHER,MEDIA,SEGUNDA,TERÇA,QUARTA,QUINTA,SEXTA,SÁBADO,08:00:00,14:00,ONLINE,PRESENCIAL,INTENSIVO,Satélite,Jardim,KIDS,Espanhol,ESTAGIO_5
ANA,6,1,"0,5",0,1,1,0,1,1,1,1,0,1,0,1,0,1
BRUNO,4,0,0,1,1,1,1,0,1,1,1,1,1,1,1,1,0
`

func TestReadTeachersClassifiesColumns(t *testing.T) {
	teachers, err := ReadTeachers(strings.NewReader(teachersCSV), "professores.csv", []string{"Satélite", "Jardim", "Vicentina"})
	require.NoError(t, err)
	require.Len(t, teachers, 2)

	ana := teachers[0]
	assert.Equal(t, "ANA", ana.Name)
	assert.Equal(t, 6, ana.TargetLoad)
	assert.Equal(t, models.Available, ana.DayAvailability(models.Segunda))
	assert.Equal(t, models.Conditional, ana.DayAvailability(models.Terca))
	assert.Equal(t, models.Unavailable, ana.DayAvailability(models.Quarta))

	// Clock headers normalize to HH:MM:SS.
	assert.True(t, ana.AllowsTime("08:00:00"))
	assert.True(t, ana.AllowsTime("14:00:00"))
	assert.False(t, ana.AllowsTime("16:00:00"))

	assert.True(t, ana.Online)
	assert.True(t, ana.InPerson)
	assert.False(t, ana.Intensive)
	assert.True(t, ana.AllowsUnit("Satélite"))
	assert.False(t, ana.AllowsUnit("Jardim"))

	allowed, known := ana.HasCapability("KIDS")
	assert.True(t, known)
	assert.True(t, allowed)
	allowed, known = ana.HasCapability("Espanhol")
	assert.True(t, known)
	assert.False(t, allowed)
	_, known = ana.HasCapability("MBA")
	assert.False(t, known)

	bruno := teachers[1]
	assert.True(t, bruno.Intensive)
	assert.Equal(t, models.Available, bruno.DayAvailability(models.Sabado))
}

func TestReadTeachersMissingColumns(t *testing.T) {
	_, err := ReadTeachers(strings.NewReader("TEACHER\nANA\n"), "professores.csv", nil)
	assert.True(t, appErrors.Is(err, appErrors.ErrMalformedInput))
}

func TestReadSessionsXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]interface{}{
		{"nome grupo", "dias da semana", "horario", "teacher"},
		{"KIDS_1", "2ª", "14:00:00", "-"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	buf := &bytes.Buffer{}
	require.NoError(t, f.Write(buf))
	require.NoError(t, f.Close())

	parsed, err := ReadSessions(bytes.NewReader(buf.Bytes()), "rota.xlsx")
	require.NoError(t, err)
	require.Len(t, parsed, 1)
	assert.Equal(t, "KIDS_1", parsed[0].GroupName)
	assert.Equal(t, "14:00:00", parsed[0].Time)
}
