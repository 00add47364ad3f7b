package task

// Future is a reference-counted handle to a task and the user-facing
// synchronization point. The zero Future is nil: it holds no task, which
// is how spawn surfaces pool exhaustion.
//
// Go has no destructors, so references are managed explicitly: Copy takes
// a reference, Clear drops one. A Future assigned with = aliases the same
// reference; exactly one of the aliases may Clear it.
type Future[V any] struct {
	task *Task
}

// IsNil reports whether the future holds no task.
func (f Future[V]) IsNil() bool { return f.task == nil }

// Copy returns a new handle to the same task, taking a reference.
func (f Future[V]) Copy() Future[V] {
	if f.task != nil {
		f.task.refCount.Add(1)
	}
	return Future[V]{task: f.task}
}

// Clear drops this handle's reference and nils the future. Dropping the
// last reference returns the task's storage to the pool. Clearing a nil
// future is a no-op.
func (f *Future[V]) Clear() {
	if f.task != nil {
		f.task.queue.release(f.task)
		f.task = nil
	}
}

// Get reads the task's result. It must only be called once the producing
// task is complete: after Wait on the owning scheduler, or from a task
// body that depends on this future. Get on a nil future is a programmer
// error and panics.
func (f Future[V]) Get() V {
	if f.task == nil {
		panic("taskdag: Get on nil future")
	}
	v, _ := f.task.result.(V)
	return v
}

// ReferenceCount reports the task's current reference count, or zero for
// a nil future.
func (f Future[V]) ReferenceCount() int {
	if f.task == nil {
		return 0
	}
	return int(f.task.refCount.Load())
}

// Ref returns the untyped dependence view of the future. A Ref borrows
// the future's reference: it is valid as a Policy dependence or WhenAll
// argument while the source future is held, and takes no reference of
// its own.
func (f Future[V]) Ref() Ref { return Ref{task: f.task} }

// Ref is an untyped, borrowed reference to a task, used to express
// dependence edges without naming the value type.
type Ref struct {
	task *Task
}

// IsNil reports whether the reference holds no task.
func (r Ref) IsNil() bool { return r.task == nil }
