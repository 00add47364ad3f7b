package executor_test

import (
	"sort"
	"sync"
	"testing"

	"github.com/aristath/taskdag/executor"
	"github.com/aristath/taskdag/pool"
	"github.com/aristath/taskdag/task"
)

// TestTeamReduce runs the team-reduce scenario: a team of 4 sums
// [0, 100) cooperatively.
func TestTeamReduce(t *testing.T) {
	s := task.NewScheduler(pool.New(0, 64), &executor.WorkerPool{Workers: 4, TeamSize: 4})

	f := task.Spawn(task.TaskTeam(s, task.Regular), func(c *task.Context) int {
		return executor.ParallelReduce(c.Member, 0, 100, func(i int) int { return i })
	})
	if f.IsNil() {
		t.Fatal("spawn returned nil future")
	}
	s.Wait()

	if got := f.Get(); got != 4950 {
		t.Fatalf("reduce = %d, want 4950", got)
	}
	f.Clear()
}

// TestTeamMembership verifies every rank of the team enters the body
// exactly once with consistent rank/size views.
func TestTeamMembership(t *testing.T) {
	const teamSize = 4
	s := task.NewScheduler(pool.New(0, 64), &executor.WorkerPool{Workers: teamSize, TeamSize: teamSize})

	var mu sync.Mutex
	var ranks []int
	f := task.Spawn(task.TaskTeam(s, task.Regular), func(c *task.Context) task.Void {
		if c.Member.TeamSize() != teamSize {
			t.Errorf("TeamSize = %d, want %d", c.Member.TeamSize(), teamSize)
		}
		mu.Lock()
		ranks = append(ranks, c.Member.TeamRank())
		mu.Unlock()
		c.Member.TeamBarrier()
		return task.Void{}
	})
	if f.IsNil() {
		t.Fatal("spawn returned nil future")
	}
	s.Wait()
	f.Clear()

	sort.Ints(ranks)
	if len(ranks) != teamSize {
		t.Fatalf("body entered %d times, want %d", len(ranks), teamSize)
	}
	for i, r := range ranks {
		if r != i {
			t.Fatalf("ranks = %v, want 0..%d", ranks, teamSize-1)
		}
	}
}

// TestTeamOnSerialBackend verifies team tasks degrade to a team of one
// on the serial backend.
func TestTeamOnSerialBackend(t *testing.T) {
	s := task.NewScheduler(pool.New(0, 64), executor.Serial{})

	f := task.Spawn(task.TaskTeam(s, task.Regular), func(c *task.Context) int {
		if c.Member.TeamSize() != 1 {
			t.Errorf("TeamSize = %d, want 1", c.Member.TeamSize())
		}
		return executor.ParallelReduce(c.Member, 0, 10, func(i int) int { return i })
	})
	if f.IsNil() {
		t.Fatal("spawn returned nil future")
	}
	s.Wait()

	if got := f.Get(); got != 45 {
		t.Fatalf("reduce = %d, want 45", got)
	}
	f.Clear()
}

// TestMixedSingleAndTeam interleaves single and team tasks through one
// pool of teamed workers.
func TestMixedSingleAndTeam(t *testing.T) {
	s := task.NewScheduler(pool.New(0, 64), &executor.WorkerPool{Workers: 8, TeamSize: 4})

	var singles []task.Future[int]
	for i := 0; i < 20; i++ {
		i := i
		f := task.Spawn(task.TaskSingle(s, task.Priority(i%3)), func(*task.Context) int {
			return i
		})
		if f.IsNil() {
			t.Fatalf("single %d nil", i)
		}
		singles = append(singles, f)
	}

	team := task.Spawn(task.TaskTeam(s, task.High), func(c *task.Context) int {
		return executor.ParallelReduce(c.Member, 0, 50, func(i int) int { return i })
	})
	if team.IsNil() {
		t.Fatal("team spawn nil")
	}

	s.Wait()

	if got := team.Get(); got != 1225 {
		t.Fatalf("team reduce = %d, want 1225", got)
	}
	for i := range singles {
		if got := singles[i].Get(); got != i {
			t.Fatalf("single %d = %d", i, got)
		}
		singles[i].Clear()
	}
	team.Clear()
	if got := s.AllocatedTaskCount(); got != 0 {
		t.Fatalf("AllocatedTaskCount = %d, want 0", got)
	}
}

// TestParallelForCoversRange verifies the for collective partitions the
// whole range without overlap.
func TestParallelForCoversRange(t *testing.T) {
	const teamSize = 3
	s := task.NewScheduler(pool.New(0, 64), &executor.WorkerPool{Workers: teamSize, TeamSize: teamSize})

	var mu sync.Mutex
	seen := make(map[int]int)
	f := task.Spawn(task.TaskTeam(s, task.Regular), func(c *task.Context) task.Void {
		executor.ParallelFor(c.Member, 0, 31, func(i int) {
			mu.Lock()
			seen[i]++
			mu.Unlock()
		})
		return task.Void{}
	})
	if f.IsNil() {
		t.Fatal("spawn nil")
	}
	s.Wait()
	f.Clear()

	if len(seen) != 31 {
		t.Fatalf("covered %d indices, want 31", len(seen))
	}
	for i, count := range seen {
		if count != 1 {
			t.Fatalf("index %d visited %d times", i, count)
		}
	}
}

// TestParallelReduceJoin folds with a non-additive join across the team.
func TestParallelReduceJoin(t *testing.T) {
	s := task.NewScheduler(pool.New(0, 64), &executor.WorkerPool{Workers: 4, TeamSize: 4})

	f := task.Spawn(task.TaskTeam(s, task.Regular), func(c *task.Context) int {
		return executor.ParallelReduceJoin(c.Member, 0, 64, 0,
			func(i int, acc int) int {
				v := (i * 37) % 61
				if v > acc {
					return v
				}
				return acc
			},
			func(a, b int) int {
				if a > b {
					return a
				}
				return b
			})
	})
	if f.IsNil() {
		t.Fatal("spawn nil")
	}
	s.Wait()

	if got := f.Get(); got != 60 {
		t.Fatalf("join reduce = %d, want 60", got)
	}
	f.Clear()
}

// TestParallelScan verifies the exclusive prefix sums across team sizes.
func TestParallelScan(t *testing.T) {
	for _, teamSize := range []int{1, 2, 4} {
		teamSize := teamSize
		s := task.NewScheduler(pool.New(0, 64), &executor.WorkerPool{Workers: teamSize, TeamSize: teamSize})

		var mu sync.Mutex
		prefixes := make(map[int]int)
		f := task.Spawn(task.TaskTeam(s, task.Regular), func(c *task.Context) task.Void {
			executor.ParallelScan(c.Member, 0, 20,
				func(i int) int { return i },
				func(i, prefix int) {
					mu.Lock()
					prefixes[i] = prefix
					mu.Unlock()
				})
			return task.Void{}
		})
		if f.IsNil() {
			t.Fatal("spawn nil")
		}
		s.Wait()
		f.Clear()

		if len(prefixes) != 20 {
			t.Fatalf("teamSize %d: applied %d indices, want 20", teamSize, len(prefixes))
		}
		for i := 0; i < 20; i++ {
			want := i * (i - 1) / 2
			if prefixes[i] != want {
				t.Fatalf("teamSize %d: prefix[%d] = %d, want %d", teamSize, i, prefixes[i], want)
			}
		}
	}
}

// TestWorkerPoolSingleWorkerDrainsInline verifies the one-worker pool
// drains ready tasks during spawn like a single-thread backend.
func TestWorkerPoolSingleWorkerDrainsInline(t *testing.T) {
	wp := &executor.WorkerPool{Workers: 1}
	s := task.NewScheduler(pool.New(0, 64), wp)

	a := task.Spawn(task.TaskSingle(s, task.Regular), func(*task.Context) int { return 1 })
	if a.IsNil() {
		t.Fatal("spawn nil")
	}
	// The next spawn's pre-allocation drain should run the first task.
	b := task.Spawn(task.TaskSingle(s, task.Regular), func(*task.Context) int { return 2 })
	if b.IsNil() {
		t.Fatal("spawn nil")
	}
	if got := a.Get(); got != 1 {
		t.Fatalf("a = %d, want 1", got)
	}

	s.Wait()
	a.Clear()
	b.Clear()
}

// TestRespawningTeamTask respawns a team task once from rank 0.
func TestRespawningTeamTask(t *testing.T) {
	s := task.NewScheduler(pool.New(0, 64), &executor.WorkerPool{Workers: 4, TeamSize: 4})

	var entries int32
	f := task.Spawn(task.TaskTeam(s, task.Regular), func(c *task.Context) int {
		sum := executor.ParallelReduce(c.Member, 0, 10, func(i int) int { return i })
		if c.Member.TeamRank() == 0 {
			entries++
			if entries == 1 {
				c.Respawn(task.Ref{}, task.Regular)
			}
		}
		c.Member.TeamBarrier()
		return sum
	})
	if f.IsNil() {
		t.Fatal("spawn nil")
	}
	s.Wait()

	if entries != 2 {
		t.Fatalf("team entered %d times, want 2", entries)
	}
	if got := f.Get(); got != 45 {
		t.Fatalf("reduce = %d, want 45", got)
	}
	f.Clear()
}
