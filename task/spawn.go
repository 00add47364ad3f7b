package task

// Policy names everything admission needs: the governing scheduler or a
// dependence future to resolve it from, the execution shape, and the
// priority. The zero Kind is Single and the zero Priority is High.
type Policy struct {
	Scheduler  *Scheduler
	Dependence Ref
	Priority   Priority
	Kind       Kind
}

// TaskSingle builds a scheduler-anchored policy for a single-worker task.
func TaskSingle(s *Scheduler, pri Priority) Policy {
	return Policy{Scheduler: s, Priority: pri, Kind: Single}
}

// TaskSingleDep builds a dependence-anchored policy for a single-worker
// task; the scheduler is resolved from the dependence.
func TaskSingleDep(dep Ref, pri Priority) Policy {
	return Policy{Dependence: dep, Priority: pri, Kind: Single}
}

// TaskTeam builds a scheduler-anchored policy for a team task.
func TaskTeam(s *Scheduler, pri Priority) Policy {
	return Policy{Scheduler: s, Priority: pri, Kind: Team}
}

// TaskTeamDep builds a dependence-anchored policy for a team task.
func TaskTeamDep(dep Ref, pri Priority) Policy {
	return Policy{Dependence: dep, Priority: pri, Kind: Team}
}

func (p Policy) resolveQueue() *Queue {
	if p.Scheduler != nil {
		return p.Scheduler.queue
	}
	if p.Dependence.task != nil {
		return p.Dependence.task.queue
	}
	panic("taskdag: spawn without a scheduler or dependence future")
}

// Context is handed to every task body. Member is the body's view of the
// team executing it; single tasks see a solo member of size one.
type Context struct {
	task   *Task
	Member TeamMember
}

// Respawn requeues the executing task with a new dependence and priority
// instead of completing it. It may only be called from inside the task's
// own body; for team tasks, only from team rank 0. The transition happens
// after the body returns: the executor observes the pending re-dependence
// and re-admits the task, preserving its storage and identity. A nil
// dependence schedules the task for re-execution as soon as a worker
// pops it.
func (c *Context) Respawn(dep Ref, pri Priority) {
	t := c.task
	if t.link.Load() != lockTag() {
		panic("taskdag: Respawn outside an executing task")
	}
	t.priority = pri
	t.addDependence(dep.task)
	t.respawn = true
}

// Spawn packages body as a task and admits it under the given policy.
//
// The returned future is the only handle to the task; after Spawn returns
// the task may already be executing or complete. A nil future means the
// memory pool could not satisfy the allocation — callers may retry or
// treat it as backpressure. A policy naming neither a scheduler nor a
// dependence is a programmer error and panics.
//
// For team tasks every member enters body; the value returned by team
// rank 0 is stored as the result.
func Spawn[V any](p Policy, body func(*Context) V) Future[V] {
	if p.Kind == Aggregate {
		panic("taskdag: cannot spawn an aggregate task")
	}
	q := p.resolveQueue()

	// Give single-thread backends an opportunity to clear ready tasks
	// before allocating.
	q.backend.IffSingleThreadRecursiveExecute(q)

	size := q.blockSize(taskRecordSize)
	if !q.allocate(size) {
		return Future[V]{}
	}

	t := &Task{
		queue:     q,
		allocSize: size,
		kind:      p.Kind,
		priority:  p.Priority,
	}
	// +1 for the future, +1 released by the scheduler at completion.
	t.refCount.Store(2)
	t.apply = func(t *Task, m TeamMember) {
		v := body(&Context{task: t, Member: m})
		if m.TeamRank() == 0 {
			t.result = v
		}
	}
	t.addDependence(p.Dependence.task)

	q.outstanding.Add(1)
	q.schedule(t)
	// The task may be updated or executed at any moment from here on.

	return Future[V]{task: t}
}

// WhenAll returns a future that completes exactly when every task named
// by deps is complete. Nil entries are treated as already complete. When
// deps is empty, or every entry is nil, WhenAll returns a nil future and
// allocates nothing. A nil future is also returned on pool exhaustion.
func WhenAll(deps ...Ref) Future[Void] {
	var q *Queue
	for _, d := range deps {
		if d.task != nil {
			q = d.task.queue
			break
		}
	}
	if q == nil {
		return Future[Void]{}
	}

	size := q.blockSize(taskRecordSize + len(deps)*depPointerSize)
	if !q.allocate(size) {
		return Future[Void]{}
	}

	t := &Task{
		queue:     q,
		allocSize: size,
		kind:      Aggregate,
		priority:  Regular,
		deps:      make([]*Task, len(deps)),
	}
	t.refCount.Store(2)

	// Store the dependences and take a reference on each: the futures
	// the caller passed in may be cleared as soon as this call returns.
	for i, d := range deps {
		t.deps[i] = d.task
		if d.task != nil {
			d.task.refCount.Add(1)
		}
	}

	q.outstanding.Add(1)
	q.schedule(t)

	return Future[Void]{task: t}
}
