package main

import (
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ecsygo/ecsy/pkg/ecs"
	"github.com/ecsygo/ecsy/pkg/ecsmetrics"
)

var (
	tickCount int
	verbose   bool
)

func main() {
	root := &cobra.Command{
		Use:   "ecsdemo",
		Short: "Run a toy world through a few ticks and print its stats",
		RunE:  runDemo,
	}
	root.Flags().IntVar(&tickCount, "ticks", 5, "number of scheduler ticks to run")
	root.Flags().BoolVar(&verbose, "verbose", false, "enable debug logging")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runDemo(cmd *cobra.Command, args []string) error {
	logger := logrus.New()
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	entry := logrus.NewEntry(logger)

	world := ecs.NewWorld(ecs.Config{EntityPoolSize: 64, Logger: entry})

	positionType := world.RegisterComponentType("position", ecs.Schema{
		"x": {Type: ecs.NumberType},
		"y": {Type: ecs.NumberType},
	}, ecs.RegisterOptions{})

	velocityType := world.RegisterComponentType("velocity", ecs.Schema{
		"dx": {Type: ecs.NumberType, Default: 1.0},
		"dy": {Type: ecs.NumberType, Default: 0.0},
	}, ecs.RegisterOptions{})

	for i := 0; i < 10; i++ {
		e := world.CreateEntity(fmt.Sprintf("sprite-%d", i))
		e.AddComponent(positionType, nil)
		e.AddComponent(velocityType, nil)
	}

	world.RegisterSystem(newMovementSystem(positionType, velocityType, world.Mutable()))

	registry := prometheus.NewRegistry()
	recorder := ecsmetrics.NewRecorder(world)
	registry.MustRegister(recorder)

	for t := 0; t < tickCount; t++ {
		stats := world.Execute(1.0/60.0, float64(t)/60.0)
		for _, s := range stats {
			fmt.Printf("tick %d: %s executed=%v elapsed=%.6fs\n", t, s.Name, s.Executed, s.ElapsedSecs)
		}
	}

	final := world.Stats()
	fmt.Printf("entities=%d componentTypes=%d\n", final.EntityCount, final.ComponentTypes)

	families, err := registry.Gather()
	if err != nil {
		return err
	}
	fmt.Printf("metrics families=%d\n", len(families))
	return nil
}
