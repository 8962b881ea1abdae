package solver

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/familyidiomas/rota-api/internal/models"
)

// Compiler translates the roster's business rules into linear rows over the
// model's variables. Each rule family is an independent method; the policy
// decides which subset runs and in which form.
type Compiler struct {
	model  *Model
	idx    *Index
	opts   Options
	logger *zap.Logger

	pinned map[AssignKey]bool
	zeroed map[AssignKey]bool
}

// Compile builds the fully constrained model for one solve attempt.
func Compile(idx *Index, opts Options, logger *zap.Logger) (*Model, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	model, err := NewModel(idx)
	if err != nil {
		return nil, err
	}

	c := &Compiler{
		model:  model,
		idx:    idx,
		opts:   opts,
		logger: logger,
		pinned: make(map[AssignKey]bool),
		zeroed: make(map[AssignKey]bool),
	}

	c.pinPreAssignments()
	c.compileEligibility()
	c.compileAvailability()
	c.compileConditionalActivation()
	c.compileSingleTeacherPerGroup()
	c.compileNoDoubleBooking()
	c.compileMinimumGap()
	c.compileCrossUnitAdjacency()
	c.compileContinuityAvoidance()
	c.compileWorkload()
	c.compileFillReward()

	model.FinalizeObjective()
	return model, nil
}

// pinPreAssignments forces variables for sessions that already name a
// teacher. Pins model manual overrides and carry-over between passes, so
// they win over eligibility zeroing.
func (c *Compiler) pinPreAssignments() {
	for _, group := range c.idx.Groups {
		row := c.idx.SessionsByGroup[group][0]
		if !row.Assigned() {
			continue
		}
		if _, ok := c.idx.TeacherByName[row.Teacher]; !ok {
			c.logger.Warn("pre-assigned teacher missing from teacher table",
				zap.String("group", group),
				zap.String("teacher", row.Teacher))
			continue
		}
		id, _ := c.model.AssignVar(row.Teacher, group)
		c.model.ForceOne(fmt.Sprintf("pin[%s]", group), id)
		c.pinned[AssignKey{Teacher: row.Teacher, Group: group}] = true
	}
}

// forceZero zeroes one (teacher, group) variable unless it is pinned or
// already zeroed by an earlier rule.
func (c *Compiler) forceZero(rule, teacher, group string) {
	key := AssignKey{Teacher: teacher, Group: group}
	if c.pinned[key] || c.zeroed[key] {
		return
	}
	id, ok := c.model.AssignVar(teacher, group)
	if !ok {
		return
	}
	c.model.ForceZero(fmt.Sprintf("%s[%s,%s]", rule, teacher, group), id)
	c.zeroed[key] = true
}

// compileEligibility zeroes variables for every capability mismatch:
// delivery mode, unit, modality, category, stage, explicit exclusions and
// intensive load. A label absent from the teacher table is zeroed
// conservatively and logged; the integrity report carries the defect.
func (c *Compiler) compileEligibility() {
	for _, name := range c.idx.TeacherNames {
		teacher := c.idx.TeacherByName[name]
		for _, group := range c.idx.Groups {
			rows := c.idx.SessionsByGroup[group]
			weight := c.idx.GroupWeight(group)

			if weight >= c.opts.IntensiveThreshold && !teacher.Intensive {
				c.forceZero("intensive", name, group)
				continue
			}

			for _, row := range rows {
				if !teacher.AllowsMode(row.Mode) {
					c.forceZero("mode", name, group)
					break
				}
				if row.Mode == models.ModeInPerson && row.Unit != "" && !teacher.AllowsUnit(row.Unit) {
					c.forceZero("unit", name, group)
					break
				}
				if c.lacksCapability(teacher, row.Modality) ||
					c.lacksCapability(teacher, row.Category) ||
					c.lacksCapability(teacher, row.Stage) {
					c.forceZero("capability", name, group)
					break
				}
				if excludes(row.Excluded, name) {
					c.forceZero("excluded", name, group)
					break
				}
			}
		}
	}
}

func (c *Compiler) lacksCapability(teacher models.Teacher, label string) bool {
	if label == "" {
		return false
	}
	allowed, known := teacher.HasCapability(label)
	if !known {
		c.logger.Warn("capability label missing from teacher table",
			zap.String("teacher", teacher.Name),
			zap.String("label", label))
		return true
	}
	return !allowed
}

func excludes(list []string, teacher string) bool {
	for _, name := range list {
		if name == teacher {
			return true
		}
	}
	return false
}

// compileAvailability zeroes a (teacher, group) variable when the teacher is
// unavailable on any weekday the group meets or lacks any of its clock
// times. Conditional days are left open here and gated by activation
// indicators instead.
func (c *Compiler) compileAvailability() {
	for _, name := range c.idx.TeacherNames {
		teacher := c.idx.TeacherByName[name]
		for _, group := range c.idx.Groups {
			for _, row := range c.idx.SessionsByGroup[group] {
				if teacher.DayAvailability(row.Weekday) == models.Unavailable {
					c.forceZero("day", name, group)
					break
				}
				if !teacher.AllowsTime(row.Time) {
					c.forceZero("time", name, group)
					break
				}
			}
		}
	}
}

// compileConditionalActivation gates conditional weekdays behind a penalized
// boolean indicator per (teacher, weekday). The indicator only switches on
// when the solution space forces it.
func (c *Compiler) compileConditionalActivation() {
	for _, name := range c.idx.TeacherNames {
		teacher := c.idx.TeacherByName[name]
		for _, day := range c.idx.Days() {
			if teacher.DayAvailability(day) != models.Conditional {
				continue
			}
			act := c.model.ActivationVar(name, day)
			c.model.AddObjectiveTerm(act, c.opts.ConditionalWeight)

			gated := make(map[string]struct{})
			for _, row := range c.idx.SessionsByDay[day] {
				if _, done := gated[row.Group]; done {
					continue
				}
				gated[row.Group] = struct{}{}
				key := AssignKey{Teacher: name, Group: row.Group}
				if c.zeroed[key] {
					continue
				}
				id, _ := c.model.AssignVar(name, row.Group)
				c.model.AddConstraint(Constraint{
					Name:  fmt.Sprintf("cond[%s,%s,%s]", name, day, row.Group),
					Terms: []Term{{Var: id, Coef: 1}, {Var: act, Coef: -1}},
					Kind:  BoundUpper,
					Hi:    0,
				})
			}
		}
	}
}

// compileSingleTeacherPerGroup caps each group at one teacher, or forces
// exactly one under the fill-all policy, which additionally guarantees every
// teacher at least one group.
func (c *Compiler) compileSingleTeacherPerGroup() {
	for _, group := range c.idx.Groups {
		terms := make([]Term, 0, len(c.idx.TeacherNames))
		for _, name := range c.idx.TeacherNames {
			id, _ := c.model.AssignVar(name, group)
			terms = append(terms, Term{Var: id, Coef: 1})
		}
		if c.opts.Policy.FillAll() {
			c.model.AddConstraint(Constraint{
				Name: fmt.Sprintf("cover[%s]", group), Terms: terms, Kind: BoundFixed, Lo: 1,
			})
		} else {
			c.model.AddConstraint(Constraint{
				Name: fmt.Sprintf("cover[%s]", group), Terms: terms, Kind: BoundUpper, Hi: 1,
			})
		}
	}

	if c.opts.Policy.FillAll() {
		for _, name := range c.idx.TeacherNames {
			terms := make([]Term, 0, len(c.idx.Groups))
			for _, group := range c.idx.Groups {
				id, _ := c.model.AssignVar(name, group)
				terms = append(terms, Term{Var: id, Coef: 1})
			}
			c.model.AddConstraint(Constraint{
				Name: fmt.Sprintf("minload[%s]", name), Terms: terms, Kind: BoundLower, Lo: 1,
			})
		}
	}
}

// compileNoDoubleBooking forbids one teacher from covering two groups that
// meet at the same (weekday, time) slot. The key is the slot, never session
// identity.
func (c *Compiler) compileNoDoubleBooking() {
	for _, day := range c.idx.Days() {
		seen := make(map[string]struct{})
		for _, row := range c.idx.SessionsByDay[day] {
			slot := row.Slot()
			if _, done := seen[slot.Time]; done {
				continue
			}
			seen[slot.Time] = struct{}{}

			groups := c.idx.GroupsBySlot[slot]
			if len(groups) < 2 {
				continue
			}
			for _, name := range c.idx.TeacherNames {
				terms := make([]Term, 0, len(groups))
				for _, group := range groups {
					id, _ := c.model.AssignVar(name, group)
					terms = append(terms, Term{Var: id, Coef: 1})
				}
				c.model.AddConstraint(Constraint{
					Name: fmt.Sprintf("slot[%s,%s,%s]", name, slot.Weekday, slot.Time),
					Terms: terms, Kind: BoundUpper, Hi: 1,
				})
			}
		}
	}
}

// groupPair is an unordered pair of distinct groups used to dedupe pairwise
// separation rules across recurrences.
type groupPair struct{ a, b string }

func orderedPair(a, b string) groupPair {
	if b < a {
		a, b = b, a
	}
	return groupPair{a: a, b: b}
}

// compileMinimumGap forbids one teacher from taking two in-person sessions
// on the same weekday whose start times differ by less than the minimum gap,
// or by exactly one of the impossible gap values.
func (c *Compiler) compileMinimumGap() {
	impossible := make(map[int]bool, len(c.opts.ImpossibleGapMinutes))
	for _, m := range c.opts.ImpossibleGapMinutes {
		impossible[m] = true
	}

	pairs := make(map[groupPair]string)
	for _, day := range c.idx.Days() {
		rows := c.idx.InPersonByDay[day]
		for i := 0; i < len(rows); i++ {
			for j := i + 1; j < len(rows); j++ {
				if rows[i].Group == rows[j].Group {
					continue
				}
				gap := minutesBetween(rows[i], rows[j])
				if gap == 0 {
					continue // same slot, covered by double-booking
				}
				if gap >= c.opts.MinGapMinutes && !impossible[gap] {
					continue
				}
				pair := orderedPair(rows[i].Group, rows[j].Group)
				if _, done := pairs[pair]; !done {
					pairs[pair] = fmt.Sprintf("gap[%s,%s|%dm]", pair.a, pair.b, gap)
				}
			}
		}
	}
	c.forbidPairs(pairs)
}

func minutesBetween(a, b models.ClassSession) int {
	diff := b.Start.Sub(a.Start)
	if diff < 0 {
		diff = -diff
	}
	return int(diff.Minutes())
}

// compileCrossUnitAdjacency forbids one teacher from covering two in-person
// sessions at different units within the same half-day of the same weekday.
// Cross-site travel inside a half-day is infeasible.
func (c *Compiler) compileCrossUnitAdjacency() {
	pairs := make(map[groupPair]string)
	for _, day := range c.idx.Days() {
		rows := c.idx.InPersonByDay[day]
		for i := 0; i < len(rows); i++ {
			for j := i + 1; j < len(rows); j++ {
				a, b := rows[i], rows[j]
				if a.Group == b.Group || a.Unit == b.Unit {
					continue
				}
				if a.Unit == "" || b.Unit == "" {
					continue
				}
				if a.BeforeNoon() != b.BeforeNoon() {
					continue
				}
				pair := orderedPair(a.Group, b.Group)
				if _, done := pairs[pair]; !done {
					pairs[pair] = fmt.Sprintf("adj[%s,%s|%s]", pair.a, pair.b, day)
				}
			}
		}
	}
	c.forbidPairs(pairs)
}

// forbidPairs emits, for every teacher, an at-most-one row over each group
// pair collected by a separation rule.
func (c *Compiler) forbidPairs(pairs map[groupPair]string) {
	ordered := make([]groupPair, 0, len(pairs))
	for pair := range pairs {
		ordered = append(ordered, pair)
	}
	sortPairs(ordered)

	for _, pair := range ordered {
		for _, name := range c.idx.TeacherNames {
			a, _ := c.model.AssignVar(name, pair.a)
			b, _ := c.model.AssignVar(name, pair.b)
			c.model.AddConstraint(Constraint{
				Name:  fmt.Sprintf("%s[%s]", pairs[pair], name),
				Terms: []Term{{Var: a, Coef: 1}, {Var: b, Coef: 1}},
				Kind:  BoundUpper,
				Hi:    1,
			})
		}
	}
}

func sortPairs(pairs []groupPair) {
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].a != pairs[j].a {
			return pairs[i].a < pairs[j].a
		}
		return pairs[i].b < pairs[j].b
	})
}

// compileContinuityAvoidance keeps a group's two most recent teachers away
// from it. Hard policies zero the variables; soft policies force a penalized
// flexibility indicator instead.
func (c *Compiler) compileContinuityAvoidance() {
	for _, group := range c.idx.Groups {
		row := c.idx.SessionsByGroup[group][0]
		if row.Assigned() {
			continue
		}
		for _, recent := range []string{row.LastTeacher, row.PriorTeacher} {
			if recent == "" || recent == models.UnassignedSentinel {
				continue
			}
			if _, ok := c.idx.TeacherByName[recent]; !ok {
				continue
			}
			if c.opts.Policy.HardContinuity() {
				c.forceZero("continuity", recent, group)
				continue
			}
			key := AssignKey{Teacher: recent, Group: group}
			if c.zeroed[key] {
				continue
			}
			id, _ := c.model.AssignVar(recent, group)
			flex := c.model.FlexVar(recent, group)
			c.model.AddConstraint(Constraint{
				Name:  fmt.Sprintf("flex[%s,%s]", recent, group),
				Terms: []Term{{Var: id, Coef: 1}, {Var: flex, Coef: -1}},
				Kind:  BoundUpper,
				Hi:    0,
			})
			c.model.AddObjectiveTerm(flex, c.opts.ContinuityWeight)
		}
	}
}

// compileWorkload enforces the policy's workload form. Hard bounds pin each
// teacher's weighted load inside [target-deltaLow, target+deltaHigh]; soft
// policies lower-bound a deviation variable by the shortfall and penalize it
// inversely to the target so small-target teachers are balanced first.
func (c *Compiler) compileWorkload() {
	if !c.opts.Policy.HardWorkload() && !c.opts.Policy.SoftWorkload() {
		return
	}
	for _, name := range c.idx.TeacherNames {
		teacher := c.idx.TeacherByName[name]
		if teacher.TargetLoad <= 0 {
			continue
		}
		terms := make([]Term, 0, len(c.idx.Groups))
		for _, group := range c.idx.Groups {
			id, _ := c.model.AssignVar(name, group)
			terms = append(terms, Term{Var: id, Coef: float64(c.idx.GroupWeight(group))})
		}

		target := float64(teacher.TargetLoad)
		if c.opts.Policy.HardWorkload() {
			lo := target - float64(c.opts.WorkloadDeltaLow)
			if lo < 0 {
				lo = 0
			}
			c.model.AddConstraint(Constraint{
				Name:  fmt.Sprintf("load[%s]", name),
				Terms: terms,
				Kind:  BoundRange,
				Lo:    lo,
				Hi:    target + float64(c.opts.WorkloadDeltaHigh),
			})
			continue
		}

		dev := c.model.DeviationVar(name)
		withDev := append(append([]Term{}, terms...), Term{Var: dev, Coef: 1})
		c.model.AddConstraint(Constraint{
			Name:  fmt.Sprintf("dev[%s]", name),
			Terms: withDev,
			Kind:  BoundLower,
			Lo:    target,
		})
		weight := c.opts.DeviationWeight * c.opts.Policy.DeviationMultiplier() / target
		c.model.AddObjectiveTerm(dev, weight)
	}
}
