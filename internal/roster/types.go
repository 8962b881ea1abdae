package roster

// Column names of the rotation sheet. They are Portuguese and are the
// cross-system contract key; they must match the academy's export exactly.
const (
	ColGroupName    = "nome grupo"
	ColDays         = "dias da semana"
	ColTime         = "horario"
	ColStatus       = "status"
	ColUnit         = "unidade"
	ColModality     = "modalidade"
	ColCategory     = "grupo"
	ColStage        = "stage"
	ColWeeklyCount  = "n aulas"
	ColTeacher      = "teacher"
	ColLastTeacher  = "ultimo_professor"
	ColPriorTeacher = "penultimo_professor"
	ColExcluded     = "professores_excluidos"
)

// Column names of the teacher capability sheet.
const (
	ColTeacherName = "TEACHER"
	ColTargetLoad  = "MEDIA"
	ColOnline      = "ONLINE"
	ColInPerson    = "PRESENCIAL"
	ColIntensive   = "INTENSIVO"
)

// RawSessionRow is one row of the rotation sheet before normalization. A row
// may stand for several atomic sessions (multi-day fields, DOUBLE/Triple
// blocks).
type RawSessionRow struct {
	GroupName    string
	Days         string
	Time         string
	Status       string
	Unit         string
	Modality     string
	Category     string
	Stage        string
	WeeklyCount  int
	Teacher      string
	LastTeacher  string
	PriorTeacher string
	Excluded     string
}
