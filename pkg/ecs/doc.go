// Package ecs provides the core Entity-Component-System (ECS) runtime: the
// component store with object pooling and schema-driven reset/copy/clone,
// the query index with inclusion/exclusion predicates and reactive
// added/removed/changed sets, the deferred-removal lifecycle for components
// and entities, and the per-tick scheduler that orders systems and purges
// reactive events.
//
// The runtime assumes a single logical executor mutates world state; systems
// run to completion in priority order, then registration order, within a
// tick. Parallel system
// execution, persistence, and archetype storage across process boundaries
// are out of scope — see World for the public surface.
package ecs
