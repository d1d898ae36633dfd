// Package ecsmetrics exposes a World as a Prometheus collector.
package ecsmetrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ecsygo/ecsy/pkg/ecs"
)

// Recorder is a prometheus.Collector over one World, reading a fresh
// World.Stats() snapshot on every scrape: entity/component-type gauges,
// per-system executed/elapsed gauges, per-pool used/free gauges, per-query
// matched-count gauges, and the four cumulative lifecycle-event counters
// World itself tracks.
type Recorder struct {
	world *ecs.World

	entityCountDesc       *prometheus.Desc
	componentTypesDesc    *prometheus.Desc
	systemExecutedDesc    *prometheus.Desc
	systemElapsedDesc     *prometheus.Desc
	poolUsedDesc          *prometheus.Desc
	poolFreeDesc          *prometheus.Desc
	queryMatchedDesc      *prometheus.Desc
	entitiesCreatedDesc   *prometheus.Desc
	entitiesRemovedDesc   *prometheus.Desc
	componentsAddedDesc   *prometheus.Desc
	componentsRemovedDesc *prometheus.Desc
}

// NewRecorder constructs a Recorder over world. Register it with a
// prometheus.Registerer to expose its metrics; it is not self-registering.
func NewRecorder(world *ecs.World) *Recorder {
	return &Recorder{
		world: world,
		entityCountDesc: prometheus.NewDesc(
			"ecsy_entity_count", "Current number of live entities in the world.", nil, nil),
		componentTypesDesc: prometheus.NewDesc(
			"ecsy_component_types", "Number of component types registered in the world.", nil, nil),
		systemExecutedDesc: prometheus.NewDesc(
			"ecsy_system_executed", "Whether a system ran on the most recent tick (1 executed, 0 skipped).",
			[]string{"system"}, nil),
		systemElapsedDesc: prometheus.NewDesc(
			"ecsy_system_elapsed_seconds", "Wall-clock duration of a system's most recent execution.",
			[]string{"system"}, nil),
		poolUsedDesc: prometheus.NewDesc(
			"ecsy_pool_used", "Number of component instances currently on loan from a type's pool.",
			[]string{"component"}, nil),
		poolFreeDesc: prometheus.NewDesc(
			"ecsy_pool_free", "Number of component instances currently sitting free in a type's pool.",
			[]string{"component"}, nil),
		queryMatchedDesc: prometheus.NewDesc(
			"ecsy_query_matched", "Number of entities currently matching a constructed query.",
			[]string{"query"}, nil),
		entitiesCreatedDesc: prometheus.NewDesc(
			"ecsy_entities_created_total", "Total entities created.", nil, nil),
		entitiesRemovedDesc: prometheus.NewDesc(
			"ecsy_entities_removed_total", "Total entities removed.", nil, nil),
		componentsAddedDesc: prometheus.NewDesc(
			"ecsy_components_added_total", "Total components attached.", nil, nil),
		componentsRemovedDesc: prometheus.NewDesc(
			"ecsy_components_removed_total", "Total components detached.", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (r *Recorder) Describe(ch chan<- *prometheus.Desc) {
	ch <- r.entityCountDesc
	ch <- r.componentTypesDesc
	ch <- r.systemExecutedDesc
	ch <- r.systemElapsedDesc
	ch <- r.poolUsedDesc
	ch <- r.poolFreeDesc
	ch <- r.queryMatchedDesc
	ch <- r.entitiesCreatedDesc
	ch <- r.entitiesRemovedDesc
	ch <- r.componentsAddedDesc
	ch <- r.componentsRemovedDesc
}

// Collect implements prometheus.Collector, reading one World.Stats()
// snapshot and translating every field into its corresponding metric.
func (r *Recorder) Collect(ch chan<- prometheus.Metric) {
	stats := r.world.Stats()
	ch <- prometheus.MustNewConstMetric(r.entityCountDesc, prometheus.GaugeValue, float64(stats.EntityCount))
	ch <- prometheus.MustNewConstMetric(r.componentTypesDesc, prometheus.GaugeValue, float64(stats.ComponentTypes))

	for _, s := range stats.Systems {
		executed := 0.0
		if s.Executed {
			executed = 1.0
		}
		ch <- prometheus.MustNewConstMetric(r.systemExecutedDesc, prometheus.GaugeValue, executed, s.Name)
		ch <- prometheus.MustNewConstMetric(r.systemElapsedDesc, prometheus.GaugeValue, s.ElapsedSecs, s.Name)
	}

	for name, ps := range stats.Pools {
		ch <- prometheus.MustNewConstMetric(r.poolUsedDesc, prometheus.GaugeValue, float64(ps.Used), name)
		ch <- prometheus.MustNewConstMetric(r.poolFreeDesc, prometheus.GaugeValue, float64(ps.Free), name)
	}

	for key, count := range stats.Queries {
		ch <- prometheus.MustNewConstMetric(r.queryMatchedDesc, prometheus.GaugeValue, float64(count), key)
	}

	ch <- prometheus.MustNewConstMetric(r.entitiesCreatedDesc, prometheus.CounterValue, float64(stats.Events.EntitiesCreated))
	ch <- prometheus.MustNewConstMetric(r.entitiesRemovedDesc, prometheus.CounterValue, float64(stats.Events.EntitiesRemoved))
	ch <- prometheus.MustNewConstMetric(r.componentsAddedDesc, prometheus.CounterValue, float64(stats.Events.ComponentsAdded))
	ch <- prometheus.MustNewConstMetric(r.componentsRemovedDesc, prometheus.CounterValue, float64(stats.Events.ComponentsRemoved))
}
