package ecs

import (
	"math"

	"github.com/sirupsen/logrus"
)

// Pool amortizes allocation of instances of one component type. ObjectPool
// is the default free-list implementation; DummyPool is used when the
// owning component type opts out of pooling.
type Pool interface {
	Acquire() *Component
	Release(c *Component)
	TotalSize() int
	TotalFree() int
	TotalUsed() int
}

// ObjectPool is a per-component-type free-list of reusable instances with
// reset-on-release. Acquiring from an empty pool grows the free list by
// ceil(0.2 * current capacity) + 1.
type ObjectPool struct {
	typeID ComponentTypeID
	schema Schema
	free   []*Component
	size   int
	used   int
	logger *logrus.Entry
}

// NewObjectPool constructs a pool for typeID pre-populated with initial
// fresh instances.
func NewObjectPool(typeID ComponentTypeID, schema Schema, initial int, logger *logrus.Entry) *ObjectPool {
	p := &ObjectPool{typeID: typeID, schema: schema, logger: logger}
	if initial > 0 {
		p.Expand(initial)
	}
	return p
}

// Expand constructs n fresh instances and adds them to the free list.
func (p *ObjectPool) Expand(n int) {
	for i := 0; i < n; i++ {
		p.free = append(p.free, newComponent(p.typeID, p.schema, p))
	}
	p.size += n
	if p.logger != nil {
		p.logger.WithFields(logrus.Fields{"typeID": p.typeID, "by": n, "size": p.size}).Debug("pool expanded")
	}
}

// Acquire returns a ready instance, growing the pool first if it is empty.
func (p *ObjectPool) Acquire() *Component {
	if len(p.free) == 0 {
		growth := int(math.Ceil(0.2*float64(p.size))) + 1
		p.Expand(growth)
	}
	last := len(p.free) - 1
	c := p.free[last]
	p.free = p.free[:last]
	p.used++
	return c
}

// Release resets c and returns it to the free list.
func (p *ObjectPool) Release(c *Component) {
	c.reset()
	p.free = append(p.free, c)
	if p.used > 0 {
		p.used--
	}
}

// TotalSize returns the number of instances ever constructed by this pool.
func (p *ObjectPool) TotalSize() int { return p.size }

// TotalFree returns the number of instances currently sitting in the free
// list.
func (p *ObjectPool) TotalFree() int { return len(p.free) }

// TotalUsed returns the number of instances currently on loan.
func (p *ObjectPool) TotalUsed() int { return p.used }

// DummyPool is the pooling-disabled variant: every Acquire constructs a new
// instance and Release is an accounting-only no-op. TotalFree is reported
// as unbounded (math.MaxInt).
type DummyPool struct {
	typeID ComponentTypeID
	schema Schema
	size   int
	used   int
}

// NewDummyPool constructs a DummyPool for typeID.
func NewDummyPool(typeID ComponentTypeID, schema Schema) *DummyPool {
	return &DummyPool{typeID: typeID, schema: schema}
}

// Acquire constructs a new instance.
func (p *DummyPool) Acquire() *Component {
	p.size++
	p.used++
	return newComponent(p.typeID, p.schema, nil)
}

// Release resets c and decrements the in-use count; the instance is not
// retained and is left for the garbage collector.
func (p *DummyPool) Release(c *Component) {
	c.reset()
	if p.used > 0 {
		p.used--
	}
}

// TotalSize returns the number of instances ever constructed.
func (p *DummyPool) TotalSize() int { return p.size }

// TotalFree reports unbounded capacity since nothing is retained.
func (p *DummyPool) TotalFree() int { return math.MaxInt }

// TotalUsed returns the number of instances currently on loan.
func (p *DummyPool) TotalUsed() int { return p.used }
