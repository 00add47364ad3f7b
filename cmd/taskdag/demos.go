package main

import (
	"fmt"

	"github.com/aristath/taskdag/events"
	"github.com/aristath/taskdag/executor"
	"github.com/aristath/taskdag/task"
	"github.com/aristath/taskdag/workflow"
)

// demoFanIn spawns sixteen leaf nodes and a final node that sums their
// results through a when-all aggregate. The expected sum is 120.
func demoFanIn(s *task.Scheduler, bus *events.EventBus) (any, error) {
	g := workflow.NewGraph()

	var leafIDs []string
	for i := 0; i < 16; i++ {
		i := i
		id := fmt.Sprintf("leaf-%02d", i)
		leafIDs = append(leafIDs, id)
		if err := g.Add(&workflow.Node{
			ID: id,
			Body: func(task.TeamMember, map[string]any) any {
				return i
			},
		}); err != nil {
			return nil, err
		}
	}

	err := g.Add(&workflow.Node{
		ID:        "sum",
		DependsOn: leafIDs,
		Priority:  task.High,
		Body: func(_ task.TeamMember, deps map[string]any) any {
			total := 0
			for _, v := range deps {
				total += v.(int)
			}
			return total
		},
	})
	if err != nil {
		return nil, err
	}

	results, err := g.Run(s, bus)
	if err != nil {
		return nil, err
	}
	return results["sum"], nil
}

// demoChain runs a three-node dependency chain: 1, then *2, then +3.
func demoChain(s *task.Scheduler, bus *events.EventBus) (any, error) {
	g := workflow.NewGraph()

	nodes := []*workflow.Node{
		{
			ID: "t0",
			Body: func(task.TeamMember, map[string]any) any {
				return 1
			},
		},
		{
			ID:        "t1",
			DependsOn: []string{"t0"},
			Body: func(_ task.TeamMember, deps map[string]any) any {
				return deps["t0"].(int) * 2
			},
		},
		{
			ID:        "t2",
			DependsOn: []string{"t1"},
			Body: func(_ task.TeamMember, deps map[string]any) any {
				return deps["t1"].(int) + 3
			},
		},
	}
	for _, n := range nodes {
		if err := g.Add(n); err != nil {
			return nil, err
		}
	}

	results, err := g.Run(s, bus)
	if err != nil {
		return nil, err
	}
	return results["t2"], nil
}

// demoRespawn spawns a task that requeues itself once before producing
// its value.
func demoRespawn(s *task.Scheduler, bus *events.EventBus) (any, error) {
	invocations := 0
	f := task.Spawn(task.TaskSingle(s, task.Regular), func(c *task.Context) int {
		invocations++
		if invocations == 1 {
			if bus != nil {
				bus.Publish(events.NodeRespawnedEvent{ID: "respawner"})
			}
			c.Respawn(task.Ref{}, task.Regular)
			return 0
		}
		return 42
	})
	if f.IsNil() {
		return nil, fmt.Errorf("spawning respawner: memory pool exhausted")
	}
	s.Wait()
	v := f.Get()
	f.Clear()
	return v, nil
}

// demoTeamReduce runs one team task whose members cooperatively sum the
// range [0, 100). Expected result 4950.
func demoTeamReduce(s *task.Scheduler, bus *events.EventBus) (any, error) {
	f := task.Spawn(task.TaskTeam(s, task.Regular), func(c *task.Context) int {
		return executor.ParallelReduce(c.Member, 0, 100, func(i int) int {
			return i
		})
	})
	if f.IsNil() {
		return nil, fmt.Errorf("spawning team reduce: memory pool exhausted")
	}
	s.Wait()
	v := f.Get()
	f.Clear()
	return v, nil
}
