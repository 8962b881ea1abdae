package solver

import (
	"fmt"
	"sort"

	"github.com/familyidiomas/rota-api/internal/models"
	appErrors "github.com/familyidiomas/rota-api/pkg/errors"
)

// VarKind distinguishes binary assignment variables from the auxiliary
// integers used by soft workload terms.
type VarKind int

const (
	VarBool VarKind = iota
	VarInt
)

// Variable is one solver column.
type Variable struct {
	ID   int
	Name string
	Kind VarKind
	Lo   float64
	Hi   float64 // Hi < Lo means unbounded above
}

// Term is one coefficient in a linear row or the objective.
type Term struct {
	Var  int
	Coef float64
}

// BoundKind classifies a constraint row's bounds.
type BoundKind int

const (
	BoundFixed BoundKind = iota // sum == Lo
	BoundUpper                  // sum <= Hi
	BoundLower                  // sum >= Lo
	BoundRange                  // Lo <= sum <= Hi
)

// Constraint is one linear row over the model's variables.
type Constraint struct {
	Name  string
	Terms []Term
	Kind  BoundKind
	Lo    float64
	Hi    float64
}

// AssignKey keys the boolean decision variable for a (teacher, group) pair.
// Every weekday recurrence of a group shares the one variable: a group keeps
// a single teacher across its whole week.
type AssignKey struct {
	Teacher string
	Group   string
}

// ActivationKey keys the conditional-availability indicator for a
// (teacher, weekday) pair.
type ActivationKey struct {
	Teacher string
	Weekday models.Weekday
}

// Model owns the variables, rows and objective of exactly one solve. It is
// discarded after result extraction; nothing is shared between attempts.
type Model struct {
	Vars        []Variable
	Constraints []Constraint
	Objective   []Term // minimized

	assign     map[AssignKey]int
	activation map[ActivationKey]int
	flex       map[AssignKey]int
	deviation  map[string]int

	objCoef map[int]float64
}

// NewModel materializes the full teacher x distinct-group variable grid.
// Ineligibility is enforced later by constraints forcing variables to zero,
// never by omitting the variable. Empty inputs fail fast with no partial
// model.
func NewModel(idx *Index) (*Model, error) {
	if len(idx.Sessions) == 0 || len(idx.Teachers) == 0 {
		return nil, appErrors.ErrEmptyInput
	}

	m := &Model{
		assign:     make(map[AssignKey]int, len(idx.TeacherNames)*len(idx.Groups)),
		activation: make(map[ActivationKey]int),
		flex:       make(map[AssignKey]int),
		deviation:  make(map[string]int),
		objCoef:    make(map[int]float64),
	}

	for _, teacher := range idx.TeacherNames {
		for _, group := range idx.Groups {
			id := m.addVar(Variable{
				Name: fmt.Sprintf("x[%s,%s]", teacher, group),
				Kind: VarBool,
			})
			m.assign[AssignKey{Teacher: teacher, Group: group}] = id
		}
	}
	return m, nil
}

func (m *Model) addVar(v Variable) int {
	v.ID = len(m.Vars)
	m.Vars = append(m.Vars, v)
	return v.ID
}

// AssignVar returns the decision variable for a (teacher, group) pair.
func (m *Model) AssignVar(teacher, group string) (int, bool) {
	id, ok := m.assign[AssignKey{Teacher: teacher, Group: group}]
	return id, ok
}

// ActivationVar returns the conditional-availability indicator for the pair,
// creating it on first use.
func (m *Model) ActivationVar(teacher string, day models.Weekday) int {
	key := ActivationKey{Teacher: teacher, Weekday: day}
	if id, ok := m.activation[key]; ok {
		return id
	}
	id := m.addVar(Variable{
		Name: fmt.Sprintf("act[%s,%s]", teacher, day),
		Kind: VarBool,
	})
	m.activation[key] = id
	return id
}

// FlexVar returns the continuity-flexibility indicator for a (teacher, group)
// pair, creating it on first use. It is forced on whenever the penalized
// assignment is taken.
func (m *Model) FlexVar(teacher, group string) int {
	key := AssignKey{Teacher: teacher, Group: group}
	if id, ok := m.flex[key]; ok {
		return id
	}
	id := m.addVar(Variable{
		Name: fmt.Sprintf("flex[%s,%s]", teacher, group),
		Kind: VarBool,
	})
	m.flex[key] = id
	return id
}

// DeviationVar returns the non-negative workload deviation variable for a
// teacher, creating it on first use.
func (m *Model) DeviationVar(teacher string) int {
	if id, ok := m.deviation[teacher]; ok {
		return id
	}
	id := m.addVar(Variable{
		Name: fmt.Sprintf("dev[%s]", teacher),
		Kind: VarInt,
		Lo:   0,
		Hi:   -1,
	})
	m.deviation[teacher] = id
	return id
}

// AddConstraint appends a linear row. Rows with no terms are dropped.
func (m *Model) AddConstraint(c Constraint) {
	if len(c.Terms) == 0 {
		return
	}
	m.Constraints = append(m.Constraints, c)
}

// ForceZero pins a single variable to zero.
func (m *Model) ForceZero(name string, varID int) {
	m.AddConstraint(Constraint{
		Name:  name,
		Terms: []Term{{Var: varID, Coef: 1}},
		Kind:  BoundFixed,
		Lo:    0,
	})
}

// ForceOne pins a single variable to one.
func (m *Model) ForceOne(name string, varID int) {
	m.AddConstraint(Constraint{
		Name:  name,
		Terms: []Term{{Var: varID, Coef: 1}},
		Kind:  BoundFixed,
		Lo:    1,
	})
}

// AddObjectiveTerm accumulates a coefficient onto the minimized objective.
func (m *Model) AddObjectiveTerm(varID int, coef float64) {
	m.objCoef[varID] += coef
}

// FinalizeObjective flattens the accumulated coefficients into one combined
// expression. A model carries exactly one objective; compilers accumulate
// terms and never declare competing objectives.
func (m *Model) FinalizeObjective() {
	m.Objective = m.Objective[:0]
	for id := 0; id < len(m.Vars); id++ {
		if coef, ok := m.objCoef[id]; ok && coef != 0 {
			m.Objective = append(m.Objective, Term{Var: id, Coef: coef})
		}
	}
}

// AssignmentKeys returns every (teacher, group) pair in variable order.
func (m *Model) AssignmentKeys() []AssignKey {
	keys := make([]AssignKey, 0, len(m.assign))
	for k := range m.assign {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return m.assign[keys[i]] < m.assign[keys[j]]
	})
	return keys
}
