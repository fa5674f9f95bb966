// Package shutdown runs close tasks when the process (or a reused process
// session) goes away.
package shutdown

import (
	"fmt"
	"sync"

	"github.com/quarkiverse/code-server-devservice/pkg/logging"
)

const subsystem = "Shutdown"

// Registry collects close tasks. The zero value is ready to use.
type Registry struct {
	mu    sync.Mutex
	tasks []func()
	last  []func()
}

func NewRegistry() *Registry {
	return &Registry{}
}

// AddCloseTask registers task. Tasks with last set run after every other task.
func (r *Registry) AddCloseTask(task func(), last bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if last {
		r.last = append(r.last, task)
		return
	}
	r.tasks = append(r.tasks, task)
}

// Close runs the regular tasks in reverse registration order, then the last
// tasks in the same manner. A panicking task is logged and does not stop the
// others. The registry is empty afterwards and can be reused.
func (r *Registry) Close() {
	r.mu.Lock()
	tasks, last := r.tasks, r.last
	r.tasks, r.last = nil, nil
	r.mu.Unlock()

	for i := len(tasks) - 1; i >= 0; i-- {
		runTask(tasks[i])
	}
	for i := len(last) - 1; i >= 0; i-- {
		runTask(last[i])
	}
}

// Len returns the number of pending tasks.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tasks) + len(r.last)
}

func runTask(task func()) {
	defer func() {
		if rec := recover(); rec != nil {
			logging.Error(subsystem, fmt.Errorf("%v", rec), "close task panicked")
		}
	}()
	task()
}
