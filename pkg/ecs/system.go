package ecs

import (
	"reflect"
	"sort"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// SystemSpec is what System.Describe returns: the queries a system wants
// resolved before it runs, which of them are mandatory, and its execution
// priority.
type SystemSpec struct {
	Queries   map[string]QueryDescriptor
	Mandatory []string
	Priority  int
}

// System is the minimal capability every registered system implements.
// Additional capabilities (Initializer, Executor, Enabler) are resolved via
// type assertion at registration time.
type System interface {
	Describe() SystemSpec
}

// Initializer is an optional System capability invoked once, immediately
// after its queries are resolved, before it ever executes.
type Initializer interface {
	Init(queries map[string]*BoundQuery)
}

// Executor is an optional System capability invoked every scheduler tick.
// A System without Executor is resolved and tracked but never runs.
type Executor interface {
	Execute(queries map[string]*BoundQuery, delta, time float64)
}

// Enabler is an optional System capability letting a system be paused and
// resumed without unregistering it.
type Enabler interface {
	Play()
	Stop()
}

type registeredSystem struct {
	name     string
	system   System
	spec     SystemSpec
	queries  map[string]*BoundQuery
	enabled  bool
	executor Executor
}

func (r *registeredSystem) canExecute() bool {
	if !r.enabled || r.executor == nil {
		return false
	}
	for _, name := range r.spec.Mandatory {
		bq, ok := r.queries[name]
		if !ok || bq.Empty() {
			return false
		}
	}
	return true
}

// SystemStats reports one system's measurements from its most recent tick.
type SystemStats struct {
	Name        string
	ElapsedSecs float64
	Executed    bool
}

// Scheduler owns the registered systems, resolves their queries against a
// QueryIndex, runs them in (priority, registration order), and drives the
// EntityStore's deferred-removal barrier after every tick.
type Scheduler struct {
	store      *EntityStore
	queryIndex *QueryIndex
	logger     *logrus.Entry

	byName         map[string]*registeredSystem
	byInstance     map[System]string
	nameCollisions int
	ordered        []*registeredSystem
	lastRun        []SystemStats

	nowFn func() float64
}

// NewScheduler constructs a Scheduler over store and qi.
func NewScheduler(store *EntityStore, qi *QueryIndex, logger *logrus.Entry) *Scheduler {
	return &Scheduler{
		store:      store,
		queryIndex: qi,
		logger:     logger,
		byName:     make(map[string]*registeredSystem),
		byInstance: make(map[System]string),
		nowFn:      func() float64 { return float64(time.Now().UnixNano()) / 1e9 },
	}
}

func systemName(sys System) string {
	type named interface{ Name() string }
	if n, ok := sys.(named); ok {
		return n.Name()
	}
	t := reflect.TypeOf(sys)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.String()
}

// RegisterSystem resolves sys's declared queries against the QueryIndex,
// subscribes any requested reactive buffers, runs Init if sys implements
// Initializer, and (if sys implements Executor) inserts it into the
// execution order at its declared priority. Registering the same instance
// twice is idempotent (DuplicateRegistration); two distinct instances of
// the same Go type are distinct systems and are disambiguated by suffix.
func (sc *Scheduler) RegisterSystem(sys System) string {
	if name, ok := sc.byInstance[sys]; ok {
		if sc.logger != nil {
			sc.logger.WithField("system", name).Warn("duplicate system registration ignored")
		}
		return name
	}

	name := systemName(sys)
	for {
		if _, collide := sc.byName[name]; !collide {
			break
		}
		sc.nameCollisions++
		name = systemName(sys) + "#" + strconv.Itoa(sc.nameCollisions)
	}
	sc.byInstance[sys] = name

	spec := sys.Describe()
	queries := make(map[string]*BoundQuery, len(spec.Queries))
	for key, desc := range spec.Queries {
		queries[key] = sc.queryIndex.Subscribe(desc)
	}

	rs := &registeredSystem{
		name:    name,
		system:  sys,
		spec:    spec,
		queries: queries,
		enabled: true,
	}
	if ex, ok := sys.(Executor); ok {
		rs.executor = ex
	}

	if init, ok := sys.(Initializer); ok {
		init.Init(queries)
	}

	sc.byName[name] = rs
	if rs.executor != nil {
		sc.ordered = append(sc.ordered, rs)
		sc.resort()
	}

	if sc.logger != nil {
		sc.logger.WithFields(logrus.Fields{"system": name, "priority": spec.Priority}).Debug("system registered")
	}
	return name
}

// UnregisterSystem removes name from the scheduler. If the system
// implements Enabler, Stop is called first.
func (sc *Scheduler) UnregisterSystem(name string) {
	rs, ok := sc.byName[name]
	if !ok {
		return
	}
	if en, ok := rs.system.(Enabler); ok && rs.enabled {
		en.Stop()
	}
	delete(sc.byName, name)
	delete(sc.byInstance, rs.system)
	for i, r := range sc.ordered {
		if r == rs {
			sc.ordered = append(sc.ordered[:i], sc.ordered[i+1:]...)
			break
		}
	}
}

func (sc *Scheduler) resort() {
	sort.SliceStable(sc.ordered, func(i, j int) bool {
		return sc.ordered[i].spec.Priority < sc.ordered[j].spec.Priority
	})
}

// GetSystem returns the registered system named name, type-asserted to T.
func GetSystem[T System](sc *Scheduler, name string) (T, bool) {
	var zero T
	rs, ok := sc.byName[name]
	if !ok {
		return zero, false
	}
	t, ok := rs.system.(T)
	return t, ok
}

// GetSystems returns the names of every registered system, in execution
// order for those with an Executor, followed by the rest.
func (sc *Scheduler) GetSystems() []string {
	out := make([]string, 0, len(sc.byName))
	for _, rs := range sc.ordered {
		out = append(out, rs.name)
	}
	for name, rs := range sc.byName {
		if rs.executor == nil {
			out = append(out, name)
		}
	}
	return out
}

// Play re-enables name; if the system implements Enabler, its Play method
// is also called.
func (sc *Scheduler) Play(name string) {
	rs, ok := sc.byName[name]
	if !ok || rs.enabled {
		return
	}
	rs.enabled = true
	if en, ok := rs.system.(Enabler); ok {
		en.Play()
	}
}

// Stop disables name; if the system implements Enabler, its Stop method is
// also called. A disabled system is skipped by Execute but remains
// registered.
func (sc *Scheduler) Stop(name string) {
	rs, ok := sc.byName[name]
	if !ok || !rs.enabled {
		return
	}
	rs.enabled = false
	if en, ok := rs.system.(Enabler); ok {
		en.Stop()
	}
}

// Execute runs every enabled Executor system in (priority, registration)
// order whose mandatory queries are all non-empty, measuring each system's
// elapsed time and clearing that system's reactive buffers right after it
// runs, then flushes the EntityStore's deferred-removal queues. Systems that
// are skipped keep their buffers until their next execution.
func (sc *Scheduler) Execute(delta, time float64) []SystemStats {
	stats := make([]SystemStats, 0, len(sc.ordered))

	for _, rs := range sc.ordered {
		if !rs.canExecute() {
			stats = append(stats, SystemStats{Name: rs.name, Executed: false})
			continue
		}

		start := sc.clock()
		rs.executor.Execute(rs.queries, delta, time)
		elapsed := sc.clock() - start

		for _, bq := range rs.queries {
			bq.clearListener()
		}

		stats = append(stats, SystemStats{Name: rs.name, ElapsedSecs: elapsed, Executed: true})
	}

	sc.store.ProcessDeferredRemoval()
	sc.lastRun = stats
	return stats
}

// LastRun returns the SystemStats from the most recent Execute call.
func (sc *Scheduler) LastRun() []SystemStats { return sc.lastRun }

func (sc *Scheduler) clock() float64 {
	return sc.nowFn()
}
