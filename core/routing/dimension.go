package routing

// Dimension accumulates a transit along each vehicle route. The cumul at a
// vehicle start is zero; the cumul after an arc is the cumul before it plus
// the transit, optionally raised by up to slack, and must stay within
// [0, capacity of the vehicle].
type Dimension struct {
	name       string
	index      int
	transit    TransitFunc
	slack      int64
	capacities []int64
	fixStart   bool
	spanCoef   int64
}

// Name returns the dimension name.
func (d *Dimension) Name() string { return d.name }

// SetGlobalSpanCostCoefficient adds coef * (max end cumul - min start cumul)
// over all vehicles to the objective.
func (d *Dimension) SetGlobalSpanCostCoefficient(coef int64) { d.spanCoef = coef }

// GlobalSpanCostCoefficient returns the span weight.
func (d *Dimension) GlobalSpanCostCoefficient() int64 { return d.spanCoef }

// Capacity returns the cumul upper bound of vehicle v.
func (d *Dimension) Capacity(v int) int64 { return d.capacities[v] }

// Slack returns the maximum slack allowed at every node.
func (d *Dimension) Slack() int64 { return d.slack }

// FixedStart reports whether start cumuls are pinned to zero.
func (d *Dimension) FixedStart() bool { return d.fixStart }

// Transit evaluates the dimension callback on one arc.
func (d *Dimension) Transit(from, to int) int64 { return d.transit(from, to) }

// Step returns the smallest admissible cumul after travelling from -> to for
// vehicle v, and false when no admissible value exists.
func (d *Dimension) Step(v int, cumul int64, from, to int) (int64, bool) {
	next := cumul + d.transit(from, to)
	if next < 0 {
		if next+d.slack < 0 {
			return next, false
		}
		next = 0
	}
	return next, next <= d.capacities[v]
}
