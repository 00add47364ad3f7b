package executor

import (
	"golang.org/x/exp/constraints"

	"github.com/aristath/taskdag/task"
)

// ParallelFor and the reductions partition an index range across team
// members with rank-strided iteration; ParallelScan splits it into
// contiguous per-member chunks. Per-member results are combined through
// the team-shared scratch. Barriers bracket both the reduction and the
// broadcast so every member returns the identical value.

// ParallelFor applies f to every index of [begin, end), partitioned
// across the calling member's team.
func ParallelFor(m task.TeamMember, begin, end int, f func(i int)) {
	for i := begin + m.TeamRank(); i < end; i += m.TeamSize() {
		f(i)
	}
}

// ParallelReduce sums f(i) over [begin, end) across the team and returns
// the total to every member.
func ParallelReduce[V constraints.Integer | constraints.Float](m task.TeamMember, begin, end int, f func(i int) V) V {
	var partial V
	for i := begin + m.TeamRank(); i < end; i += m.TeamSize() {
		partial += f(i)
	}
	return broadcastJoin(m, partial, func(a, b V) V { return a + b })
}

// ParallelReduceJoin folds f over [begin, end) across the team with a
// user-supplied join, starting each member's accumulator at init. Every
// member returns the identical joined value.
func ParallelReduceJoin[V any](m task.TeamMember, begin, end int, init V, f func(i int, acc V) V, join func(a, b V) V) V {
	acc := init
	for i := begin + m.TeamRank(); i < end; i += m.TeamSize() {
		acc = f(i, acc)
	}
	return broadcastJoin(m, acc, join)
}

// ParallelScan runs an exclusive prefix sum of contrib over [begin, end)
// across the team: apply receives each index together with the sum of
// all contributions at lower indices. The range is partitioned into
// contiguous per-member chunks; member totals are exchanged through the
// team scratch so each member can offset its local prefix.
func ParallelScan[V constraints.Integer | constraints.Float](m task.TeamMember, begin, end int, contrib func(i int) V, apply func(i int, prefix V)) {
	rank, size := m.TeamRank(), m.TeamSize()

	n := end - begin
	if n <= 0 {
		return
	}
	chunk := (n + size - 1) / size
	lo := begin + rank*chunk
	hi := lo + chunk
	if hi > end {
		hi = end
	}
	if lo > end {
		lo = end
	}

	var local V
	for i := lo; i < hi; i++ {
		local += contrib(i)
	}

	var base V
	if size > 1 {
		scratch := m.TeamScratch()
		m.TeamBarrier()
		scratch[rank] = local
		m.TeamBarrier()
		for r := 0; r < rank; r++ {
			base += scratch[r].(V)
		}
		m.TeamBarrier()
	}

	prefix := base
	for i := lo; i < hi; i++ {
		apply(i, prefix)
		prefix += contrib(i)
	}
}

// broadcastJoin stores each member's partial in the team scratch, joins
// on rank 0, and broadcasts the result back to every member.
func broadcastJoin[V any](m task.TeamMember, partial V, join func(a, b V) V) V {
	if m.TeamSize() == 1 {
		return partial
	}
	scratch := m.TeamScratch()
	rank := m.TeamRank()

	m.TeamBarrier()
	scratch[rank] = partial
	m.TeamBarrier()

	if rank == 0 {
		acc := scratch[0].(V)
		for i := 1; i < m.TeamSize(); i++ {
			acc = join(acc, scratch[i].(V))
		}
		scratch[0] = acc
	}
	m.TeamBarrier()

	result := scratch[0].(V)
	m.TeamBarrier()
	return result
}
