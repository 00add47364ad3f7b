package task

import (
	"runtime"
	"sync/atomic"
)

// Allocator is the bounded memory pool the scheduler draws task records
// from. The scheduler charges exact sizes: every Deallocate is passed the
// same size as the Allocate it matches. BlockSize reports the size
// actually charged for a request (implementations round up to a block).
//
// Allocation failure is non-fatal: Allocate returns false and the caller
// surfaces a nil future.
type Allocator interface {
	Allocate(n int) bool
	Deallocate(n int)
	BlockSize(n int) int
}

// Executor is the execution backend bound to a queue. Execute runs ready
// tasks until the queue is drained. IffSingleThreadRecursiveExecute is an
// opportunistic in-place drain invoked during spawn: single-thread
// backends use it to clear ready tasks before allocating, preventing pool
// exhaustion under deep recursion; multi-worker backends make it a no-op.
type Executor interface {
	Execute(q *Queue)
	IffSingleThreadRecursiveExecute(q *Queue)
}

// Queue is the scheduler core: six intrusive ready stacks indexed by
// (kind, priority), the admission and completion machinery, and the
// allocation counters.
type Queue struct {
	pool    Allocator
	backend Executor

	// ready holds LIFO stacks of runnable tasks. Aggregates are never
	// pushed here; they resolve through the wait lists alone.
	ready [2][3]atomic.Pointer[Task]

	// outstanding counts admitted tasks that have not yet completed.
	// Incremented once per task at first admission, never for respawn.
	outstanding atomic.Int32

	countAlloc atomic.Int32
	maxAlloc   atomic.Int32
	accumAlloc atomic.Int64
}

func newQueue(pool Allocator, backend Executor) *Queue {
	q := &Queue{pool: pool, backend: backend}
	for k := range q.ready {
		for p := range q.ready[k] {
			q.ready[k][p].Store(endTag())
		}
	}
	return q
}

// allocate charges size bytes against the pool and updates the counters.
func (q *Queue) allocate(size int) bool {
	if q.pool != nil && !q.pool.Allocate(size) {
		return false
	}
	n := q.countAlloc.Add(1)
	q.accumAlloc.Add(1)
	for {
		m := q.maxAlloc.Load()
		if n <= m || q.maxAlloc.CompareAndSwap(m, n) {
			break
		}
	}
	return true
}

func (q *Queue) deallocate(t *Task) {
	q.countAlloc.Add(-1)
	if q.pool != nil {
		q.pool.Deallocate(t.allocSize)
	}
}

// release drops one reference from t. The thread whose decrement observes
// zero returns the storage to the pool; no other thread may touch the
// task afterwards.
func (q *Queue) release(t *Task) {
	n := t.refCount.Add(-1)
	if n == 0 {
		q.deallocate(t)
	} else if n < 0 {
		panic("taskdag: task reference count underflow")
	}
}

// schedule admits a task. The task is either Constructing (link nil) or
// Executing with a pending respawn (link lockTag).
func (q *Queue) schedule(t *Task) {
	if t.kind == Aggregate {
		q.scheduleAggregate(t)
	} else {
		q.scheduleRunnable(t)
	}
}

// scheduleRunnable parks t on its dependence's wait list, or pushes it
// into a ready queue when the dependence is absent or already complete.
func (q *Queue) scheduleRunnable(t *Task) {
	if d := t.dep; d != nil {
		if q.attach(t, d) {
			return // Waiting (or Respawn) until d completes
		}
		// Dependence already complete: drop the reference taken by
		// addDependence. This is the once-per-dependant decrement of
		// the completion cascade when called from drain.
		t.dep = nil
		q.release(d)
	}
	q.pushReady(t)
}

// scheduleAggregate walks the aggregate's stored dependences and parks it
// on the first incomplete one. Each completion re-enters this walk; when
// no incomplete dependence remains the aggregate completes.
func (q *Queue) scheduleAggregate(t *Task) {
	for _, d := range t.deps {
		if d == nil {
			continue // nil entries count as already complete
		}
		if q.attach(t, d) {
			return
		}
	}
	q.complete(t)
}

// attach links t onto d's wait list. It returns false when d is already
// complete (wait list closed). A lockTag head means the completer is
// claiming the list this instant; the attacher yields and retries, and
// will observe the closed list on a subsequent iteration.
func (q *Queue) attach(t, d *Task) bool {
	for {
		w := d.wait.Load()
		switch w {
		case endTag():
			return false
		case lockTag():
			runtime.Gosched()
		default:
			t.link.Store(w)
			if d.wait.CompareAndSwap(w, t) {
				return true
			}
		}
	}
}

// pushReady makes t Scheduled: its link is swung to the current stack
// head (endTag when the stack is empty) and the head to t.
func (q *Queue) pushReady(t *Task) {
	head := &q.ready[t.kind][t.priority]
	for {
		h := head.Load()
		t.link.Store(h)
		if head.CompareAndSwap(h, t) {
			return
		}
	}
}

func popStack(head *atomic.Pointer[Task]) *Task {
	for {
		t := head.Load()
		if t == endTag() {
			return nil
		}
		next := t.link.Load()
		if head.CompareAndSwap(t, next) {
			t.link.Store(lockTag()) // Executing
			return t
		}
	}
}

// PopReady pops the next runnable task, scanning priorities High to Low
// and preferring the given execution shape within each priority.
func (q *Queue) PopReady(pref Kind) *Task {
	other := Team
	if pref == Team {
		other = Single
	}
	for pri := High; pri <= Low; pri++ {
		for _, k := range [2]Kind{pref, other} {
			if t := popStack(&q.ready[k][pri]); t != nil {
				return t
			}
		}
	}
	return nil
}

// PopReadyKind pops the next runnable task of exactly the given shape.
func (q *Queue) PopReadyKind(k Kind) *Task {
	for pri := High; pri <= Low; pri++ {
		if t := popStack(&q.ready[k][pri]); t != nil {
			return t
		}
	}
	return nil
}

// Conclude finishes an executed task. A pending respawn re-admits the
// task, preserving its storage and reference count; otherwise the task
// completes and its wait list drains. Called exactly once per execution,
// by the worker (team leader for team tasks) after the body returns.
func (q *Queue) Conclude(t *Task) {
	if t.respawn {
		t.respawn = false
		q.schedule(t)
		return
	}
	q.complete(t)
}

// complete transitions t to Complete and cascades: trailer references are
// released for aggregates, the wait list is claimed and permanently
// closed, every blocked dependant is re-admitted, and finally the
// scheduler's own completion reference is dropped.
func (q *Queue) complete(t *Task) {
	if t.kind == Aggregate {
		for i, d := range t.deps {
			if d != nil {
				t.deps[i] = nil
				q.release(d)
			}
		}
	}

	claimed := t.wait.Swap(lockTag())
	t.link.Store(endTag())
	t.wait.Store(endTag())

	for w := claimed; w != nil && w != endTag(); {
		next := w.link.Load()
		// Re-admission observes the closed wait list: runnable
		// dependants drop their dependence reference and go ready,
		// aggregates re-walk their trailers.
		q.schedule(w)
		w = next
	}

	q.outstanding.Add(-1)
	q.release(t)
}

// Drained reports whether every admitted task has completed. Together
// with six empty ready stacks this is the executor termination condition.
func (q *Queue) Drained() bool { return q.outstanding.Load() == 0 }

func (q *Queue) blockSize(n int) int {
	if q.pool != nil {
		return q.pool.BlockSize(n)
	}
	return n
}
