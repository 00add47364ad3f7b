package task

import (
	"sync"
	"testing"
)

// recordingAllocator charges exact sizes and records every call so tests
// can check allocate/deallocate pairing.
type recordingAllocator struct {
	mu     sync.Mutex
	allocs []int
	frees  []int
	used   int
	limit  int // 0 = unbounded
}

func (a *recordingAllocator) Allocate(n int) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.limit > 0 && a.used+n > a.limit {
		return false
	}
	a.used += n
	a.allocs = append(a.allocs, n)
	return true
}

func (a *recordingAllocator) Deallocate(n int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.used -= n
	a.frees = append(a.frees, n)
}

func (a *recordingAllocator) BlockSize(n int) int { return n }

// inlineBackend drains the queue on the calling goroutine. Its spawn
// hook is a no-op so tests control exactly when tasks run.
type inlineBackend struct{}

func (inlineBackend) Execute(q *Queue) {
	m := &inlineMember{scratch: make([]any, 1)}
	for {
		t := q.PopReady(Single)
		if t == nil {
			if q.Drained() {
				return
			}
			continue
		}
		t.Execute(m)
		q.Conclude(t)
	}
}

func (inlineBackend) IffSingleThreadRecursiveExecute(*Queue) {}

type inlineMember struct{ scratch []any }

func (*inlineMember) TeamRank() int        { return 0 }
func (*inlineMember) TeamSize() int        { return 1 }
func (*inlineMember) TeamBarrier()         {}
func (m *inlineMember) TeamScratch() []any { return m.scratch }

// TestAllocationSizesMatch verifies every deallocation passes exactly
// the size of the allocation it balances, for plain tasks and for
// aggregates with their dependence trailers.
func TestAllocationSizesMatch(t *testing.T) {
	alloc := &recordingAllocator{}
	s := NewScheduler(alloc, inlineBackend{})

	a := Spawn(TaskSingle(s, Regular), func(*Context) int { return 1 })
	b := Spawn(TaskSingle(s, Regular), func(*Context) int { return 2 })
	all := WhenAll(a.Ref(), b.Ref())
	if all.IsNil() {
		t.Fatal("WhenAll nil")
	}
	s.Wait()
	a.Clear()
	b.Clear()
	all.Clear()

	alloc.mu.Lock()
	defer alloc.mu.Unlock()
	if len(alloc.allocs) != 3 || len(alloc.frees) != 3 {
		t.Fatalf("allocs %d, frees %d, want 3 each", len(alloc.allocs), len(alloc.frees))
	}
	sizes := make(map[int]int)
	for _, n := range alloc.allocs {
		sizes[n]++
	}
	for _, n := range alloc.frees {
		sizes[n]--
	}
	for n, count := range sizes {
		if count != 0 {
			t.Fatalf("size %d allocated and freed unevenly (%+d)", n, count)
		}
	}
	if alloc.used != 0 {
		t.Fatalf("allocator used = %d, want 0", alloc.used)
	}

	// Aggregates charge the dependence trailer on top of the record.
	want := taskRecordSize + 2*depPointerSize
	found := false
	for _, n := range alloc.allocs {
		if n == want {
			found = true
		}
	}
	if !found {
		t.Fatalf("no allocation of aggregate size %d in %v", want, alloc.allocs)
	}
}

// TestEncodedStates walks a task through its lifecycle and checks the
// link-pointer encoding at each observable point.
func TestEncodedStates(t *testing.T) {
	s := NewScheduler(&recordingAllocator{}, inlineBackend{})
	q := s.Queue()

	var inBody *Task
	f := Spawn(TaskSingle(s, Regular), func(c *Context) int {
		inBody = c.task
		if got := c.task.link.Load(); got != lockTag() {
			t.Errorf("link during execution = %p, want lockTag", got)
		}
		return 0
	})

	// Admitted with no dependence: Scheduled, link in the ready stack
	// chain terminated by endTag.
	if head := q.ready[Single][Regular].Load(); head == endTag() {
		t.Fatal("task not in ready stack after admission")
	}

	s.Wait()

	if inBody == nil {
		t.Fatal("body never ran")
	}
	if got := inBody.link.Load(); got != endTag() {
		t.Errorf("link after completion = %p, want endTag", got)
	}
	if got := inBody.wait.Load(); got != endTag() {
		t.Errorf("wait after completion = %p, want endTag (closed)", got)
	}
	f.Clear()
}

// TestWaitingTaskLinksOnDependence verifies a dependant parks on its
// dependence's wait list until completion.
func TestWaitingTaskLinksOnDependence(t *testing.T) {
	s := NewScheduler(&recordingAllocator{}, inlineBackend{})

	a := Spawn(TaskSingle(s, Regular), func(*Context) int { return 0 })
	b := Spawn(TaskSingleDep(a.Ref(), Regular), func(*Context) int { return 0 })

	// Before execution, b waits on a: a's wait list heads b, and b's
	// link points back into the list (here: the empty-list terminator).
	if got := a.task.wait.Load(); got != b.task {
		t.Fatalf("a.wait = %p, want b", got)
	}
	if got := b.task.link.Load(); got != nil {
		t.Fatalf("b.link = %p, want nil terminator", got)
	}
	if got := a.task.refCount.Load(); got != 3 {
		t.Fatalf("a.refCount = %d, want 3 (future, scheduler, dependant)", got)
	}

	s.Wait()

	if got := a.task.refCount.Load(); got != 1 {
		t.Fatalf("a.refCount after drain = %d, want 1", got)
	}
	a.Clear()
	b.Clear()
}

// TestPriorityAndLIFOOrder verifies pop order: priorities High before
// Regular before Low, and recency within one bucket.
func TestPriorityAndLIFOOrder(t *testing.T) {
	s := NewScheduler(&recordingAllocator{}, inlineBackend{})

	var order []string
	spawnNamed := func(name string, pri Priority) Future[int] {
		return Spawn(TaskSingle(s, pri), func(*Context) int {
			order = append(order, name)
			return 0
		})
	}

	// Admission order deliberately scrambled.
	futures := []Future[int]{
		spawnNamed("low-1", Low),
		spawnNamed("reg-1", Regular),
		spawnNamed("high-1", High),
		spawnNamed("reg-2", Regular),
		spawnNamed("high-2", High),
	}

	s.Wait()

	want := []string{"high-2", "high-1", "reg-2", "reg-1", "low-1"}
	if len(order) != len(want) {
		t.Fatalf("ran %d tasks, want %d", len(order), len(want))
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
	for i := range futures {
		futures[i].Clear()
	}
}

// TestRespawnOutsideExecutionPanics verifies the protocol violation
// aborts.
func TestRespawnOutsideExecutionPanics(t *testing.T) {
	s := NewScheduler(&recordingAllocator{}, inlineBackend{})

	f := Spawn(TaskSingle(s, Regular), func(*Context) int { return 0 })
	s.Wait()

	defer func() {
		if recover() == nil {
			t.Fatal("Respawn outside execution did not panic")
		}
		f.Clear()
	}()
	c := &Context{task: f.task}
	c.Respawn(Ref{}, Regular)
}

// TestPoolExhaustionIsNotFatal verifies a failed allocation surfaces as
// a nil future and charges nothing.
func TestPoolExhaustionIsNotFatal(t *testing.T) {
	alloc := &recordingAllocator{limit: 1} // nothing fits
	s := NewScheduler(alloc, inlineBackend{})

	f := Spawn(TaskSingle(s, Regular), func(*Context) int { return 0 })
	if !f.IsNil() {
		t.Fatal("spawn should have returned a nil future")
	}
	if got := s.AllocatedTaskCount(); got != 0 {
		t.Fatalf("AllocatedTaskCount = %d, want 0", got)
	}
	s.Wait()
}
