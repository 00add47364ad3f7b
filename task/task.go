// Package task implements the core of a task-DAG scheduler: tasks form a
// dynamically constructed directed acyclic graph through futures and
// dependence relationships, and are executed by a pluggable backend when
// their dependencies complete.
//
// The control structures are intrusive and lock-free: a task's lifecycle
// state is encoded in its link pointer using two sentinel values, and all
// contended transitions are single-pointer compare-and-swap operations.
package task

import (
	"sync/atomic"
	"unsafe"
)

// Kind selects how a task body is executed.
type Kind int

const (
	Single    Kind = iota // run by exactly one worker
	Team                  // run cooperatively by a team of workers
	Aggregate             // no body; completes when its dependences complete
)

// Priority orders ready tasks. Lower values pop first.
type Priority int

const (
	High Priority = iota
	Regular
	Low
)

// Sentinel tasks. Their addresses mark list ends (endTag) and transient
// lock states (lockTag) in the intrusive link fields. Neither is ever
// scheduled or dereferenced.
var (
	endTagTask  Task
	lockTagTask Task
)

func endTag() *Task { return &endTagTask }

func lockTag() *Task { return &lockTagTask }

// Task is the per-task control block. Its storage is charged against the
// scheduler's memory pool and reclaimed when the last reference drops.
//
// The link field is the intrusive next pointer of whichever list holds
// the task, so it encodes the lifecycle state together with that list:
//
//	nil              Constructing (pre-admission), or Waiting as the last
//	                 entry of a dependence's wait list
//	another task     Scheduled, Waiting or Respawn: the next entry in the
//	                 same ready stack or wait list
//	endTag           Scheduled at the bottom of a ready stack, or Complete
//	lockTag          Executing, or mid-transition
//
// The wait field heads the intrusive list of tasks blocked on this one:
// nil when empty, lockTag while the completer claims the list, endTag once
// the task is complete and the list is permanently closed.
//
// Only link and wait are mutated under contention. Every other field is
// written at construction or while the task holds the lockTag state.
type Task struct {
	queue     *Queue
	refCount  atomic.Int32
	allocSize int
	link      atomic.Pointer[Task]
	wait      atomic.Pointer[Task]
	dep       *Task
	apply     func(*Task, TeamMember)
	kind      Kind
	priority  Priority
	deps      []*Task
	respawn   bool
	result    any
}

var taskRecordSize = int(unsafe.Sizeof(Task{}))

const depPointerSize = int(unsafe.Sizeof((*Task)(nil)))

// addDependence stores d as t's pending dependence and takes a reference
// on it. The reference is released when t is admitted to a ready queue
// after d completes.
func (t *Task) addDependence(d *Task) {
	if d != nil {
		d.refCount.Add(1)
	}
	t.dep = d
}

// Kind reports the task's execution shape.
func (t *Task) Kind() Kind { return t.kind }

// Execute runs the task body on behalf of the given team member. For team
// tasks every member of the team enters Execute with its own member view.
// Aggregates have no body and are never executed.
func (t *Task) Execute(m TeamMember) {
	t.apply(t, m)
}

// TeamMember is the per-worker view of a team execution context. Single
// tasks receive a solo member with rank 0 and size 1.
type TeamMember interface {
	// TeamRank is the calling worker's index within the team.
	TeamRank() int
	// TeamSize is the number of workers cooperating on this task.
	TeamSize() int
	// TeamBarrier blocks until every team member has entered the call.
	TeamBarrier()
	// TeamScratch returns the team-shared scratch slots, one per member.
	TeamScratch() []any
}

// Void is the value type of futures that carry no result, such as the
// future returned by WhenAll.
type Void = struct{}
