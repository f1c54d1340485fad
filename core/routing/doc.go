// Package routing holds the vehicle routing model the planner hands to a
// solver engine, and the builder that encodes one fixed-makespan
// pickup-and-delivery problem into it.
//
// The model is engine agnostic: it registers transit callbacks, cumulative
// dimensions and pickup/delivery pairs, and it can check any candidate set of
// routes against all of them. Engines implement Solver.
package routing
