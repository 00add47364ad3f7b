package workflow

import (
	"fmt"
	"time"

	"github.com/aristath/taskdag/events"
	"github.com/aristath/taskdag/task"
)

// Run validates the graph, spawns every node onto the scheduler in
// topological order, waits for the whole graph to complete, and returns
// the node results keyed by ID.
//
// bus may be nil. When present, a NodeSpawnedEvent is published per node
// at admission and a NodeCompletedEvent when the node's task completes;
// completion is observed by a low-priority observer task that depends on
// the node.
func (g *Graph) Run(s *task.Scheduler, bus *events.EventBus) (map[string]any, error) {
	order, err := g.Validate()
	if err != nil {
		return nil, err
	}

	futures := make(map[string]task.Future[any], len(order))
	var held []task.Future[task.Void] // aggregates and observers to release

	cleanup := func() {
		for id := range futures {
			f := futures[id]
			f.Clear()
		}
		for i := range held {
			held[i].Clear()
		}
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	for _, id := range order {
		n := g.nodes[id]

		var dep task.Ref
		switch len(n.DependsOn) {
		case 0:
		case 1:
			dep = futures[n.DependsOn[0]].Ref()
		default:
			refs := make([]task.Ref, len(n.DependsOn))
			for i, d := range n.DependsOn {
				refs[i] = futures[d].Ref()
			}
			agg := task.WhenAll(refs...)
			if agg.IsNil() {
				s.Wait()
				cleanup()
				return nil, fmt.Errorf("aggregating dependences of node %q: memory pool exhausted", id)
			}
			held = append(held, agg)
			dep = agg.Ref()
		}

		// Snapshot the dependence futures: the body runs on a worker
		// and must not touch the map Run keeps extending.
		depIDs := append([]string(nil), n.DependsOn...)
		depFuts := make([]task.Future[any], len(depIDs))
		for i, d := range depIDs {
			depFuts[i] = futures[d]
		}

		body := n.Body
		f := task.Spawn(task.Policy{
			Scheduler:  s,
			Dependence: dep,
			Priority:   n.Priority,
			Kind:       n.Kind,
		}, func(c *task.Context) any {
			var depResults map[string]any
			if len(depIDs) > 0 {
				depResults = make(map[string]any, len(depIDs))
				for i, d := range depIDs {
					depResults[d] = depFuts[i].Get()
				}
			}
			return body(c.Member, depResults)
		})
		if f.IsNil() {
			s.Wait()
			cleanup()
			return nil, fmt.Errorf("spawning node %q: memory pool exhausted", id)
		}
		futures[id] = f

		if bus != nil {
			bus.Publish(events.NodeSpawnedEvent{
				ID:        id,
				Deps:      n.DependsOn,
				Timestamp: time.Now(),
			})
			g.spawnObserver(s, bus, id, f, &held)
		}
	}

	s.Wait()

	results := make(map[string]any, len(futures))
	for id := range futures {
		f := futures[id]
		results[id] = f.Get()
		f.Clear()
	}
	for i := range held {
		held[i].Clear()
	}
	return results, nil
}

// spawnObserver attaches a task that fires the completion event for a
// node. Observer exhaustion is tolerated: the node still runs, only the
// notification is lost.
func (g *Graph) spawnObserver(s *task.Scheduler, bus *events.EventBus, id string, f task.Future[any], held *[]task.Future[task.Void]) {
	watched := f.Copy()
	obs := task.Spawn(task.TaskSingleDep(watched.Ref(), task.Low), func(c *task.Context) task.Void {
		bus.Publish(events.NodeCompletedEvent{
			ID:        id,
			Result:    watched.Get(),
			Timestamp: time.Now(),
		})
		watched.Clear()
		return task.Void{}
	})
	if obs.IsNil() {
		watched.Clear()
		return
	}
	*held = append(*held, obs)
}
