package executor

import (
	"github.com/hujiexuan/kafka-rest/constants"
	"sync"
	"sync/atomic"
)

// Task is a unit of work scheduled on the executor. Cancel before the task
// starts prevents execution; cancelling a running task has no effect because
// the blocking broker primitives are not interruptible.
type Task struct {
	fn       func()
	abort    func()
	canceled int32
	done     chan struct{}
}

// Cancel marks the task so it will not run. Returns false once the worker
// has already picked it up.
func (this *Task) Cancel() bool {
	return atomic.CompareAndSwapInt32(&this.canceled, 0, 1)
}

// Done is closed after the task has either run or been skipped.
func (this *Task) Done() <-chan struct{} {
	return this.done
}

// TaskExecutor is a fixed pool of workers draining a task queue. Reads and
// closes both run here so they never block registry mutation.
type TaskExecutor struct {
	tasks chan *Task
	wg    sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

func NewTaskExecutor(workers int) *TaskExecutor {
	if workers <= 0 {
		workers = 1
	}
	this := &TaskExecutor{
		tasks: make(chan *Task, constants.DefaultTaskBacklog),
	}
	this.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go this.worker()
	}
	return this
}

func (this *TaskExecutor) worker() {
	defer this.wg.Done()
	for task := range this.tasks {
		if atomic.CompareAndSwapInt32(&task.canceled, 0, -1) {
			// Claimed for execution; Cancel is a no-op from here on.
			task.fn()
		} else if task.abort != nil {
			task.abort()
		}
		close(task.done)
	}
}

func (this *TaskExecutor) Submit(fn func()) *Task {
	return this.SubmitWithAbort(fn, nil)
}

// SubmitWithAbort schedules fn; if the task is cancelled before running, the
// worker invokes abort instead so the submitter can undo bookkeeping done at
// schedule time.
func (this *TaskExecutor) SubmitWithAbort(fn, abort func()) *Task {
	task := &Task{
		fn:    fn,
		abort: abort,
		done:  make(chan struct{}),
	}
	this.mu.Lock()
	if this.closed {
		this.mu.Unlock()
		// Late submissions during shutdown run inline so no work is lost.
		fn()
		close(task.done)
		return task
	}
	this.tasks <- task
	this.mu.Unlock()
	return task
}

// Stop drains the queue and waits for all workers to exit.
func (this *TaskExecutor) Stop() {
	this.mu.Lock()
	if this.closed {
		this.mu.Unlock()
		return
	}
	this.closed = true
	close(this.tasks)
	this.mu.Unlock()
	this.wg.Wait()
}
