package executor

import (
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/aristath/taskdag/task"
)

// WorkerPool runs tasks on W symmetric workers. Workers are partitioned
// into fixed teams of TeamSize; each team's leader pops team tasks and
// broadcasts them to its members, who enter the body cooperatively with
// a shared barrier and scratch. Workers not claimed by a team task pull
// single tasks individually.
type WorkerPool struct {
	Workers  int // total workers; defaults to GOMAXPROCS(0)
	TeamSize int // workers per team; defaults to 1
}

// Execute runs ready tasks until the queue is drained: all six ready
// stacks empty and no admitted task outstanding.
func (p *WorkerPool) Execute(q *task.Queue) {
	w := p.Workers
	if w <= 0 {
		w = runtime.GOMAXPROCS(0)
	}
	t := p.TeamSize
	if t <= 1 || t > w {
		t = 1
	}

	var g errgroup.Group
	for w >= t {
		st := &teamState{barrier: newBarrier(t), scratch: make([]any, t)}
		for rank := 0; rank < t; rank++ {
			rank := rank
			g.Go(func() error {
				teamWorker(q, st, rank, t)
				return nil
			})
		}
		w -= t
	}
	// Leftover workers that do not fill a team run as teams of one.
	for ; w > 0; w-- {
		st := &teamState{barrier: newBarrier(1), scratch: make([]any, 1)}
		g.Go(func() error {
			teamWorker(q, st, 0, 1)
			return nil
		})
	}
	_ = g.Wait()
}

// IffSingleThreadRecursiveExecute drains ready tasks inline (team tasks
// as a team of one) when the pool has exactly one worker; with more workers it is a no-op,
// since spawned tasks will be picked up concurrently.
func (p *WorkerPool) IffSingleThreadRecursiveExecute(q *task.Queue) {
	if p.Workers > 1 || (p.Workers <= 0 && runtime.GOMAXPROCS(0) > 1) {
		return
	}
	Serial{}.IffSingleThreadRecursiveExecute(q)
}

// teamState is the per-team coordination block: the broadcast slot the
// leader publishes the popped task into, the shared scratch, and the
// team barrier.
type teamState struct {
	barrier *barrier
	scratch []any
	current *task.Task
	done    bool
}

// teamWorker is the per-worker drive loop. Each iteration the leader
// pops (team shape first for real teams), publishes through the
// broadcast slot, and a barrier aligns the team before and after the
// body. Non-team iterations let every member pull single tasks
// independently.
func teamWorker(q *task.Queue, st *teamState, rank, size int) {
	m := &teamMember{state: st, rank: rank, size: size}
	solo := newSoloMember()

	for {
		if rank == 0 {
			if size > 1 {
				st.current = q.PopReadyKind(task.Team)
			} else {
				st.current = q.PopReady(task.Single)
			}
			st.done = st.current == nil && q.Drained()
		}
		st.barrier.wait()
		if st.done {
			return
		}

		if t := st.current; t != nil {
			t.Execute(m)
			st.barrier.wait()
			if rank == 0 {
				q.Conclude(t)
			}
			continue
		}

		// No team task this round: pull singles individually.
		if t := q.PopReadyKind(task.Single); t != nil {
			t.Execute(solo)
			q.Conclude(t)
		} else {
			runtime.Gosched()
		}
	}
}

// teamMember is a worker's view of its team during a team task body.
type teamMember struct {
	state *teamState
	rank  int
	size  int
}

func (m *teamMember) TeamRank() int      { return m.rank }
func (m *teamMember) TeamSize() int      { return m.size }
func (m *teamMember) TeamBarrier()       { m.state.barrier.wait() }
func (m *teamMember) TeamScratch() []any { return m.state.scratch }
