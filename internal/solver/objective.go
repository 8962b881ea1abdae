package solver

// The objective is one combined minimized expression:
//
//	-fillWeight * sum(x)  +  continuityWeight * sum(flex)
//	+ conditionalWeight * sum(act)  +  (deviationWeight/target) * sum(dev)
//
// Penalty terms accumulate onto the model while their rules compile; the
// fill reward lands here. Declaring terms as separate competing objectives
// would leave only the last one governing the solve, so the model flattens
// everything into a single expression in FinalizeObjective.

// compileFillReward rewards every filled group. Under fill-all the coverage
// rows already force every group filled, so the term is skipped.
func (c *Compiler) compileFillReward() {
	if c.opts.Policy.FillAll() {
		return
	}
	for _, name := range c.idx.TeacherNames {
		for _, group := range c.idx.Groups {
			id, _ := c.model.AssignVar(name, group)
			c.model.AddObjectiveTerm(id, -c.opts.FillWeight)
		}
	}
}
