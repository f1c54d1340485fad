package model

import "fmt"

// Robot is a vehicle identified by its ordinal in the agents file.
type Robot struct {
	ID    int `json:"id"`
	Start int `json:"start"` // linear cell index
}

// Task is a pickup/delivery pair of linear cell indices. Pickup and delivery
// may address the same cell; they are still routed as two distinct stops.
type Task struct {
	ID       int `json:"id"`
	Pickup   int `json:"pickup"`
	Delivery int `json:"delivery"`
}

// Instance groups the robots and tasks of one planning problem on a grid.
type Instance struct {
	Dims   Dims
	Robots []Robot
	Tasks  []Task
}

// RobotCells returns the start cell of every robot in input order.
func (in Instance) RobotCells() []int {
	cells := make([]int, len(in.Robots))
	for i, r := range in.Robots {
		cells[i] = r.Start
	}
	return cells
}

// Validate checks that every referenced cell lies inside the grid.
func (in Instance) Validate() error {
	if err := in.Dims.Validate(); err != nil {
		return err
	}
	for _, r := range in.Robots {
		if !in.Dims.ContainsIndex(r.Start) {
			return fmt.Errorf("robot %d start %d outside %dx%d grid: %w", r.ID, r.Start, in.Dims.Rows, in.Dims.Cols, ErrMalformedInput)
		}
	}
	for _, t := range in.Tasks {
		if !in.Dims.ContainsIndex(t.Pickup) || !in.Dims.ContainsIndex(t.Delivery) {
			return fmt.Errorf("task %d (%d->%d) outside %dx%d grid: %w", t.ID, t.Pickup, t.Delivery, in.Dims.Rows, in.Dims.Cols, ErrMalformedInput)
		}
	}
	return nil
}

// Route is the ordered waypoint sequence of one robot.
type Route []Coord

// Assignment holds one Route per robot, indexed by robot ID. An empty
// Assignment means no feasible plan was found.
type Assignment []Route

// Empty reports whether the assignment carries no routes.
func (a Assignment) Empty() bool { return len(a) == 0 }
