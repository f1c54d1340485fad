// Package solver provides the built-in engines implementing routing.Solver:
// an exact depth-first branch and bound for small instances, an adaptive
// large neighbourhood search for larger ones, and an auto mode choosing
// between them by request count. Engines are created by name through a
// factory registry.
package solver
