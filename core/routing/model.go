package routing

import (
	"errors"
	"fmt"
)

// ErrInvalidModel is returned for structurally wrong model definitions.
var ErrInvalidModel = errors.New("invalid routing model")

// TransitFunc returns the transit between two nodes.
type TransitFunc func(from, to int) int64

// UnaryTransitFunc returns a transit that depends on the departure node only.
type UnaryTransitFunc func(node int) int64

// Request is a set of nodes that must be served by one vehicle. A paired
// request visits Pickup strictly before Delivery; an unpaired one (Delivery
// < 0) is a single mandatory visit of Pickup.
type Request struct {
	Pickup   int
	Delivery int
}

// Paired reports whether the request is a pickup/delivery pair.
func (r Request) Paired() bool { return r.Delivery >= 0 }

// Model describes a routing problem over nodes 0..NumNodes()-1. Every node
// that is neither a vehicle start nor a vehicle end must be visited exactly
// once.
type Model struct {
	nodes    int
	starts   []int
	ends     []int
	depot    []bool
	transits []TransitFunc
	arcCost  int
	dims     []*Dimension
	byName   map[string]*Dimension
	pairs    []Request
	pairOf   map[int]int
}

// NewModel creates a model with one vehicle per entry of starts. Starts must
// be distinct; ends may be shared.
func NewModel(nodes int, starts, ends []int) (*Model, error) {
	if len(starts) == 0 {
		return nil, fmt.Errorf("no vehicles: %w", ErrInvalidModel)
	}
	if len(starts) != len(ends) {
		return nil, fmt.Errorf("%d starts for %d ends: %w", len(starts), len(ends), ErrInvalidModel)
	}
	m := &Model{
		nodes:   nodes,
		starts:  append([]int(nil), starts...),
		ends:    append([]int(nil), ends...),
		depot:   make([]bool, nodes),
		arcCost: -1,
		byName:  make(map[string]*Dimension),
		pairOf:  make(map[int]int),
	}
	seen := make(map[int]bool, len(starts))
	for v, s := range starts {
		if s < 0 || s >= nodes || ends[v] < 0 || ends[v] >= nodes {
			return nil, fmt.Errorf("vehicle %d depots %d/%d outside %d nodes: %w", v, s, ends[v], nodes, ErrInvalidModel)
		}
		if seen[s] {
			return nil, fmt.Errorf("vehicle %d shares start node %d: %w", v, s, ErrInvalidModel)
		}
		seen[s] = true
		m.depot[s] = true
	}
	for v, e := range ends {
		if seen[e] {
			return nil, fmt.Errorf("vehicle %d ends on start node %d: %w", v, e, ErrInvalidModel)
		}
		m.depot[e] = true
	}
	return m, nil
}

// NumNodes returns the number of nodes, depots included.
func (m *Model) NumNodes() int { return m.nodes }

// NumVehicles returns the number of vehicles.
func (m *Model) NumVehicles() int { return len(m.starts) }

// Start returns the start node of vehicle v.
func (m *Model) Start(v int) int { return m.starts[v] }

// End returns the end node of vehicle v.
func (m *Model) End(v int) int { return m.ends[v] }

// IsDepot reports whether node is a start or end of some vehicle.
func (m *Model) IsDepot(node int) bool { return m.depot[node] }

// RegisterTransitCallback stores fn and returns its callback index.
func (m *Model) RegisterTransitCallback(fn TransitFunc) int {
	m.transits = append(m.transits, fn)
	return len(m.transits) - 1
}

// RegisterUnaryTransitCallback stores fn, evaluated at the departure node,
// and returns its callback index.
func (m *Model) RegisterUnaryTransitCallback(fn UnaryTransitFunc) int {
	return m.RegisterTransitCallback(func(from, _ int) int64 { return fn(from) })
}

func (m *Model) transit(idx int) (TransitFunc, error) {
	if idx < 0 || idx >= len(m.transits) {
		return nil, fmt.Errorf("unknown transit callback %d: %w", idx, ErrInvalidModel)
	}
	return m.transits[idx], nil
}

// SetArcCostEvaluatorOfAllVehicles makes callback idx the arc cost of every
// vehicle.
func (m *Model) SetArcCostEvaluatorOfAllVehicles(idx int) error {
	if _, err := m.transit(idx); err != nil {
		return err
	}
	m.arcCost = idx
	return nil
}

// ArcCost returns the cost of travelling from one node to another. Without
// an arc cost evaluator every arc is free.
func (m *Model) ArcCost(from, to int) int64 {
	if m.arcCost < 0 {
		return 0
	}
	return m.transits[m.arcCost](from, to)
}

// AddDimension adds a cumulative dimension with the same capacity for every
// vehicle.
func (m *Model) AddDimension(transit int, slack, capacity int64, fixStartCumulToZero bool, name string) error {
	caps := make([]int64, len(m.starts))
	for i := range caps {
		caps[i] = capacity
	}
	return m.AddDimensionWithVehicleCapacity(transit, slack, caps, fixStartCumulToZero, name)
}

// AddDimensionWithVehicleCapacity adds a cumulative dimension whose upper
// bound differs per vehicle. Cumul values never go below zero.
func (m *Model) AddDimensionWithVehicleCapacity(transit int, slack int64, capacities []int64, fixStartCumulToZero bool, name string) error {
	fn, err := m.transit(transit)
	if err != nil {
		return err
	}
	if _, dup := m.byName[name]; dup {
		return fmt.Errorf("dimension %q already defined: %w", name, ErrInvalidModel)
	}
	if len(capacities) != len(m.starts) {
		return fmt.Errorf("dimension %q: %d capacities for %d vehicles: %w", name, len(capacities), len(m.starts), ErrInvalidModel)
	}
	if slack < 0 {
		return fmt.Errorf("dimension %q: negative slack %d: %w", name, slack, ErrInvalidModel)
	}
	for v, c := range capacities {
		if c < 0 {
			return fmt.Errorf("dimension %q: vehicle %d capacity %d: %w", name, v, c, ErrInvalidModel)
		}
	}
	d := &Dimension{
		name:       name,
		index:      len(m.dims),
		transit:    fn,
		slack:      slack,
		capacities: append([]int64(nil), capacities...),
		fixStart:   fixStartCumulToZero,
	}
	m.dims = append(m.dims, d)
	m.byName[name] = d
	return nil
}

// Dimension returns the dimension registered under name.
func (m *Model) Dimension(name string) (*Dimension, error) {
	d, ok := m.byName[name]
	if !ok {
		return nil, fmt.Errorf("unknown dimension %q: %w", name, ErrInvalidModel)
	}
	return d, nil
}

// Dimensions returns every dimension in registration order.
func (m *Model) Dimensions() []*Dimension {
	return append([]*Dimension(nil), m.dims...)
}

// AddPickupAndDelivery requires pickup and delivery to be served by the same
// vehicle with pickup strictly first.
func (m *Model) AddPickupAndDelivery(pickup, delivery int) error {
	for _, n := range [2]int{pickup, delivery} {
		if n < 0 || n >= m.nodes {
			return fmt.Errorf("pair node %d outside %d nodes: %w", n, m.nodes, ErrInvalidModel)
		}
		if m.depot[n] {
			return fmt.Errorf("pair node %d is a vehicle depot: %w", n, ErrInvalidModel)
		}
		if _, used := m.pairOf[n]; used {
			return fmt.Errorf("node %d already in a pickup/delivery pair: %w", n, ErrInvalidModel)
		}
	}
	if pickup == delivery {
		return fmt.Errorf("pickup and delivery are both node %d: %w", pickup, ErrInvalidModel)
	}
	m.pairOf[pickup] = len(m.pairs)
	m.pairOf[delivery] = len(m.pairs)
	m.pairs = append(m.pairs, Request{Pickup: pickup, Delivery: delivery})
	return nil
}

// Pairs returns the pickup/delivery pairs in registration order.
func (m *Model) Pairs() []Request {
	return append([]Request(nil), m.pairs...)
}

// Requests returns every mandatory visit grouped as the solver must insert
// it: registered pairs first, then every remaining non-depot node alone.
func (m *Model) Requests() []Request {
	reqs := m.Pairs()
	for n := 0; n < m.nodes; n++ {
		if m.depot[n] {
			continue
		}
		if _, paired := m.pairOf[n]; !paired {
			reqs = append(reqs, Request{Pickup: n, Delivery: -1})
		}
	}
	return reqs
}
