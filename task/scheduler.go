package task

// Scheduler owns a queue and the execution backend bound to it. It is a
// lightweight handle: copies share the same queue.
type Scheduler struct {
	queue *Queue
}

// NewScheduler builds a scheduler over the given memory pool and
// execution backend. A nil pool means unbounded allocation (counters are
// still maintained).
func NewScheduler(pool Allocator, backend Executor) *Scheduler {
	return &Scheduler{queue: newQueue(pool, backend)}
}

// Queue exposes the scheduler core to execution backends.
func (s *Scheduler) Queue() *Queue { return s.queue }

// Wait blocks until all reachable tasks are complete: the backend runs
// ready tasks until the six ready stacks are empty and no admitted task
// remains outstanding. Waiting on an empty scheduler returns immediately.
// Recursive calls are safe only on single-thread backends.
func (s *Scheduler) Wait() {
	s.queue.backend.Execute(s.queue)
}

// SpawnAllocationSize reports the pool bytes charged for one spawned
// task record.
func (s *Scheduler) SpawnAllocationSize() int {
	return s.queue.blockSize(taskRecordSize)
}

// WhenAllAllocationSize reports the pool bytes charged for an aggregate
// over n dependences.
func (s *Scheduler) WhenAllAllocationSize(n int) int {
	return s.queue.blockSize(taskRecordSize + n*depPointerSize)
}

// AllocatedTaskCount is the number of task records currently outstanding
// in the pool.
func (s *Scheduler) AllocatedTaskCount() int {
	return int(s.queue.countAlloc.Load())
}

// AllocatedTaskCountMax is the high-water mark of AllocatedTaskCount.
func (s *Scheduler) AllocatedTaskCountMax() int {
	return int(s.queue.maxAlloc.Load())
}

// AllocatedTaskCountAccum is the lifetime total of task allocations.
func (s *Scheduler) AllocatedTaskCountAccum() int64 {
	return s.queue.accumAlloc.Load()
}
