package main

import "github.com/ecsygo/ecsy/pkg/ecs"

// movementSystem advances every entity with both position and velocity by
// velocity*delta each tick, demonstrating a mandatory two-component query
// and a mutable write through World.Mutable().
type movementSystem struct {
	position ecs.ComponentTypeID
	velocity ecs.ComponentTypeID
	mutable  *ecs.MutableAccessor
}

func newMovementSystem(position, velocity ecs.ComponentTypeID, mutable *ecs.MutableAccessor) *movementSystem {
	return &movementSystem{position: position, velocity: velocity, mutable: mutable}
}

func (s *movementSystem) Describe() ecs.SystemSpec {
	return ecs.SystemSpec{
		Queries: map[string]ecs.QueryDescriptor{
			"moving": {Components: []ecs.Term{ecs.T(s.position), ecs.T(s.velocity)}},
		},
		Mandatory: []string{"moving"},
		Priority:  0,
	}
}

func (s *movementSystem) Execute(queries map[string]*ecs.BoundQuery, delta, time float64) {
	for _, e := range queries["moving"].Entities() {
		pos, _ := s.mutable.Get(e, s.position)
		vel, ok := e.Get(s.velocity, false)
		if !ok {
			continue
		}
		x := pos.Get("x").(float64)
		y := pos.Get("y").(float64)
		dx := vel.Get("dx").(float64)
		dy := vel.Get("dy").(float64)
		pos.Set("x", x+dx*delta)
		pos.Set("y", y+dy*delta)
	}
}
