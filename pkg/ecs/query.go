package ecs

import (
	"sort"
	"strconv"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/sirupsen/logrus"
)

// Term is one clause of a query descriptor: a component type, optionally
// negated via Not.
type Term struct {
	TypeID ComponentTypeID
	Negate bool
}

// T builds an inclusion term for typeID.
func T(typeID ComponentTypeID) Term { return Term{TypeID: typeID} }

// Not builds an exclusion term for typeID, recognized by query descriptors.
func Not(typeID ComponentTypeID) Term { return Term{TypeID: typeID, Negate: true} }

// ChangedSpec narrows a reactive Changed subscription to a subset of the
// query's included types. A nil ChangedSpec (the zero value of
// ListenOptions.Changed) subscribes to no changed events; a non-nil
// ChangedSpec with empty Types means every included type triggers a changed
// event.
type ChangedSpec struct {
	Types []ComponentTypeID
}

// ListenOptions declares which reactive buffers a query subscription wants.
type ListenOptions struct {
	Added   bool
	Removed bool
	Changed *ChangedSpec
}

// QueryDescriptor is the immutable description of a query: its inclusion
// and exclusion terms, and optional reactive interest.
type QueryDescriptor struct {
	Components []Term
	Listen     ListenOptions
}

func (d QueryDescriptor) partition() (included, excluded []ComponentTypeID) {
	for _, term := range d.Components {
		if term.Negate {
			excluded = append(excluded, term.TypeID)
		} else {
			included = append(included, term.TypeID)
		}
	}
	return included, excluded
}

func canonicalKey(included, excluded []ComponentTypeID) string {
	tokens := make([]string, 0, len(included)+len(excluded))
	for _, id := range included {
		tokens = append(tokens, strconv.FormatUint(uint64(id), 10))
	}
	for _, id := range excluded {
		tokens = append(tokens, "~"+strconv.FormatUint(uint64(id), 10))
	}
	sort.Strings(tokens)
	return strings.Join(tokens, ",")
}

// reactiveListener is one system's subscription to a Query's reactive
// buffers: its own deduplicated added/removed/changed entity lists,
// independent of any other listener on the same Query.
type reactiveListener struct {
	wantAdded   bool
	wantRemoved bool
	wantChanged bool
	changedMask *roaring.Bitmap // nil means "every included type"

	added      []*Entity
	addedSeen  map[uint64]bool
	removed    []*Entity
	removedSeen map[uint64]bool
	changed     []*Entity
	changedSeen map[uint64]bool
}

func newReactiveListener(opts ListenOptions, included []ComponentTypeID) *reactiveListener {
	l := &reactiveListener{
		wantAdded:   opts.Added,
		wantRemoved: opts.Removed,
		addedSeen:   make(map[uint64]bool),
		removedSeen: make(map[uint64]bool),
		changedSeen: make(map[uint64]bool),
	}
	if opts.Changed != nil {
		l.wantChanged = true
		if len(opts.Changed.Types) > 0 {
			l.changedMask = roaring.New()
			for _, t := range opts.Changed.Types {
				l.changedMask.AddInt(int(t))
			}
		}
	}
	return l
}

func (l *reactiveListener) notifyAdded(e *Entity) {
	if !l.wantAdded || l.addedSeen[e.ID] {
		return
	}
	l.addedSeen[e.ID] = true
	l.added = append(l.added, e)
}

func (l *reactiveListener) notifyRemoved(e *Entity) {
	if !l.wantRemoved || l.removedSeen[e.ID] {
		return
	}
	l.removedSeen[e.ID] = true
	l.removed = append(l.removed, e)
}

func (l *reactiveListener) notifyChanged(e *Entity, typeID ComponentTypeID) {
	if !l.wantChanged || l.changedSeen[e.ID] {
		return
	}
	if l.changedMask != nil && !l.changedMask.ContainsInt(int(typeID)) {
		return
	}
	l.changedSeen[e.ID] = true
	l.changed = append(l.changed, e)
}

// clear empties the listener's reactive buffers. Called by the Scheduler
// once the owning system has finished its tick's execution.
func (l *reactiveListener) clear() {
	l.added = l.added[:0]
	l.removed = l.removed[:0]
	l.changed = l.changed[:0]
	for k := range l.addedSeen {
		delete(l.addedSeen, k)
	}
	for k := range l.removedSeen {
		delete(l.removedSeen, k)
	}
	for k := range l.changedSeen {
		delete(l.changedSeen, k)
	}
}

// Query is the immutable {included, excluded, key} triple plus its current
// matched entity list. Query.entities contains exactly those live entities
// whose attached-type set is a superset of included and disjoint from
// excluded.
type Query struct {
	included   *roaring.Bitmap
	excluded   *roaring.Bitmap
	includedIDs []ComponentTypeID
	excludedIDs []ComponentTypeID
	key        string

	entities []*Entity
	index    map[uint64]int

	reactive  bool
	listeners []*reactiveListener
}

func newQuery(included, excluded []ComponentTypeID, key string) *Query {
	incBitmap := roaring.New()
	for _, id := range included {
		incBitmap.AddInt(int(id))
	}
	excBitmap := roaring.New()
	for _, id := range excluded {
		excBitmap.AddInt(int(id))
	}
	return &Query{
		included:    incBitmap,
		excluded:    excBitmap,
		includedIDs: included,
		excludedIDs: excluded,
		key:         key,
		index:       make(map[uint64]int),
	}
}

// Entities returns the entities currently matching this query. The slice is
// owned by the Query; callers must not retain it past the next mutation.
func (q *Query) Entities() []*Entity { return q.entities }

// Empty reports whether Entities() is empty.
func (q *Query) Empty() bool { return len(q.entities) == 0 }

// match reports whether e's attached set is a superset of q.included and
// disjoint from q.excluded.
func (q *Query) match(e *Entity) bool {
	missing := roaring.AndNot(q.included, e.attached)
	if !missing.IsEmpty() {
		return false
	}
	if q.excluded.GetCardinality() > 0 && q.excluded.Intersects(e.attached) {
		return false
	}
	return true
}

func (q *Query) contains(e *Entity) bool {
	_, ok := q.index[e.ID]
	return ok
}

func (q *Query) add(e *Entity) {
	if q.contains(e) {
		return
	}
	q.index[e.ID] = len(q.entities)
	q.entities = append(q.entities, e)
	e.queries = append(e.queries, q)
	for _, l := range q.listeners {
		l.notifyAdded(e)
	}
}

func (q *Query) remove(e *Entity) {
	pos, ok := q.index[e.ID]
	if !ok {
		return
	}
	last := len(q.entities) - 1
	if pos != last {
		moved := q.entities[last]
		q.entities[pos] = moved
		q.index[moved.ID] = pos
	}
	q.entities = q.entities[:last]
	delete(q.index, e.ID)

	for i, qq := range e.queries {
		if qq == q {
			e.queries = append(e.queries[:i], e.queries[i+1:]...)
			break
		}
	}

	for _, l := range q.listeners {
		l.notifyRemoved(e)
	}
}

// notifyChanged forwards a changed notification to this query's listeners,
// but only if typeID is actually one of this query's included types — a
// mutable view of a component outside a query's included set must never
// feed that query's changed buffer, even if the entity happens to match
// some other query over typeID too.
func (q *Query) notifyChanged(e *Entity, typeID ComponentTypeID) {
	if !q.included.ContainsInt(int(typeID)) {
		return
	}
	for _, l := range q.listeners {
		l.notifyChanged(e, typeID)
	}
}

// BoundQuery is the concrete handle a system holds for one of its declared
// query descriptors, resolved at registration time.
type BoundQuery struct {
	query    *Query
	listener *reactiveListener
}

// Entities returns the currently matched entities.
func (b *BoundQuery) Entities() []*Entity { return b.query.Entities() }

// Empty reports whether the query currently matches no entities.
func (b *BoundQuery) Empty() bool { return b.query.Empty() }

// Added returns the entities added to the query since the last clear. Empty
// if the query was not subscribed with Listen.Added.
func (b *BoundQuery) Added() []*Entity {
	if b.listener == nil {
		return nil
	}
	return b.listener.added
}

// Removed returns the entities removed from the query since the last
// clear. Empty if the query was not subscribed with Listen.Removed.
func (b *BoundQuery) Removed() []*Entity {
	if b.listener == nil {
		return nil
	}
	return b.listener.removed
}

// Changed returns the entities whose included components were taken as a
// mutable view since the last clear. Empty if the query was not subscribed
// with Listen.Changed.
func (b *BoundQuery) Changed() []*Entity {
	if b.listener == nil {
		return nil
	}
	return b.listener.changed
}

func (b *BoundQuery) clearListener() {
	if b.listener != nil {
		b.listener.clear()
	}
}

// QueryIndex maps a canonical query key to its Query object and maintains
// memberships incrementally as components are attached and detached.
type QueryIndex struct {
	store    *EntityStore
	registry *ComponentRegistry
	queries  map[string]*Query
	logger   *logrus.Entry
}

// NewQueryIndex constructs a QueryIndex that scans store when seeding newly
// constructed queries, validating every subscribed query's type-ids against
// registry.
func NewQueryIndex(store *EntityStore, registry *ComponentRegistry, logger *logrus.Entry) *QueryIndex {
	return &QueryIndex{
		store:    store,
		registry: registry,
		queries:  make(map[string]*Query),
		logger:   logger,
	}
}

// GetOrCreate returns the existing Query for desc's canonical key, or
// constructs one by scanning the current live entity set exactly once.
// Raises UnregisteredComponentType if any included or excluded type-id was
// never registered.
func (qi *QueryIndex) GetOrCreate(desc QueryDescriptor) *Query {
	included, excluded := desc.partition()
	if len(included) == 0 {
		raise(ErrEmptyQuery, "query descriptor has zero included component types")
	}
	for _, id := range included {
		qi.registry.GetType(id)
	}
	for _, id := range excluded {
		qi.registry.GetType(id)
	}
	sort.Slice(included, func(i, j int) bool { return included[i] < included[j] })
	sort.Slice(excluded, func(i, j int) bool { return excluded[i] < excluded[j] })
	key := canonicalKey(included, excluded)

	if q, ok := qi.queries[key]; ok {
		return q
	}

	q := newQuery(included, excluded, key)
	for _, e := range qi.store.Live() {
		if q.match(e) {
			q.add(e)
		}
	}
	qi.queries[key] = q

	if qi.logger != nil {
		qi.logger.WithFields(logrus.Fields{"key": key, "matched": len(q.entities)}).Debug("query constructed")
	}
	return q
}

// Stats returns every constructed query's current matched-entity count,
// keyed by its canonical key.
func (qi *QueryIndex) Stats() map[string]int {
	out := make(map[string]int, len(qi.queries))
	for key, q := range qi.queries {
		out[key] = len(q.entities)
	}
	return out
}

// Subscribe resolves desc to a Query and, if desc.Listen requests any
// reactive buffer, attaches a fresh per-caller listener to it.
func (qi *QueryIndex) Subscribe(desc QueryDescriptor) *BoundQuery {
	q := qi.GetOrCreate(desc)
	bound := &BoundQuery{query: q}

	if desc.Listen.Added || desc.Listen.Removed || desc.Listen.Changed != nil {
		q.reactive = true
		listener := newReactiveListener(desc.Listen, q.includedIDs)
		q.listeners = append(q.listeners, listener)
		bound.listener = listener
	}
	return bound
}

// onEntityAttach updates every known Query's membership after typeID was
// attached to entity. The bitset mutation has already happened by the time
// this is called, so Query.match observes the post-attach state.
func (qi *QueryIndex) onEntityAttach(entity *Entity, typeID ComponentTypeID) {
	for _, q := range qi.queries {
		if q.excluded.ContainsInt(int(typeID)) && q.contains(entity) {
			q.remove(entity)
		} else if q.included.ContainsInt(int(typeID)) && !q.contains(entity) && q.match(entity) {
			q.add(entity)
		}
	}
}

// onEntityDetach updates every known Query's membership after typeID was
// detached from entity (bitset already mutated).
func (qi *QueryIndex) onEntityDetach(entity *Entity, typeID ComponentTypeID) {
	for _, q := range qi.queries {
		if q.excluded.ContainsInt(int(typeID)) && !q.contains(entity) && q.match(entity) {
			q.add(entity)
		} else if q.included.ContainsInt(int(typeID)) && q.contains(entity) && !q.match(entity) {
			q.remove(entity)
		}
	}
}

// onEntityRemoved removes entity from every Query it currently belongs to.
func (qi *QueryIndex) onEntityRemoved(entity *Entity) {
	for _, q := range append([]*Query(nil), entity.queries...) {
		q.remove(entity)
	}
}
