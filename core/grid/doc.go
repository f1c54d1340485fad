// Package grid models the warehouse floor: an occupancy grid read from a text
// map and the dense all-pairs travel distance matrix between its cells.
//
// The distance matrix is precomputed off-line (or with ComputeDistances) and
// is read-only once loaded. It is addressed by linear cell index, see
// model.Dims.
package grid
