// Package executor provides the execution backends that pull ready tasks
// from a scheduler queue and run their bodies: a single-thread serial
// backend and a team-capable worker pool. It also carries the team
// collective primitives (ParallelFor, ParallelReduce, ParallelScan).
package executor

import (
	"runtime"

	"github.com/aristath/taskdag/task"
)

// Serial runs every task inline on the calling goroutine. Team tasks
// execute with a team of size one. It is the backend of choice for
// deeply recursive spawning: ready tasks are drained in place during
// spawn, so a bounded pool is not exhausted by recursion depth.
type Serial struct{}

// Execute runs ready tasks on the caller until the queue is drained.
func (Serial) Execute(q *task.Queue) {
	m := newSoloMember()
	for {
		t := q.PopReady(task.Single)
		if t == nil {
			if q.Drained() {
				return
			}
			runtime.Gosched()
			continue
		}
		t.Execute(m)
		q.Conclude(t)
	}
}

// IffSingleThreadRecursiveExecute drains currently ready tasks on the
// caller. Invoked from inside spawn, it recurses naturally: bodies that
// spawn re-enter spawn, which drains again.
func (Serial) IffSingleThreadRecursiveExecute(q *task.Queue) {
	m := newSoloMember()
	for {
		t := q.PopReady(task.Single)
		if t == nil {
			return
		}
		t.Execute(m)
		q.Conclude(t)
	}
}

// soloMember is the team view handed to single tasks and to any task run
// by a lone worker: rank 0 of a team of one.
type soloMember struct {
	scratch []any
}

func newSoloMember() *soloMember { return &soloMember{scratch: make([]any, 1)} }

func (*soloMember) TeamRank() int        { return 0 }
func (*soloMember) TeamSize() int        { return 1 }
func (*soloMember) TeamBarrier()         {}
func (m *soloMember) TeamScratch() []any { return m.scratch }
