// Package async runs a named set of independent tasks across a small worker
// pool and collects their results. The refresher uses it to build and
// persist the snapshot tables in parallel.
package async

import (
	"context"
	"sync"
)

// Task is one unit of work identified by name.
type Task struct {
	Name    string
	Execute func() (any, error)
}

// Result pairs a task's name with its outcome.
type Result struct {
	Name string
	Data any
	Err  error
}

// Pool fans tasks out over a fixed number of workers. A Pool is reusable;
// each Execute call gets its own channels.
type Pool struct {
	workerCount int
}

// NewPool sizes a pool. Counts below one are raised to one.
func NewPool(workerCount int) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}
	return &Pool{workerCount: workerCount}
}

// Execute runs all tasks and returns their results keyed by task name. On
// context cancellation it returns whatever completed; unstarted tasks are
// simply absent from the map.
func (p *Pool) Execute(ctx context.Context, tasks []Task) map[string]Result {
	results := make(map[string]Result, len(tasks))
	if len(tasks) == 0 {
		return results
	}

	workers := p.workerCount
	if workers > len(tasks) {
		workers = len(tasks)
	}

	taskCh := make(chan Task)
	resultCh := make(chan Result, len(tasks))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case task, ok := <-taskCh:
					if !ok {
						return
					}
					data, err := task.Execute()
					resultCh <- Result{Name: task.Name, Data: data, Err: err}
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(taskCh)
		for _, task := range tasks {
			select {
			case taskCh <- task:
			case <-ctx.Done():
				return
			}
		}
	}()

	for i := 0; i < len(tasks); i++ {
		select {
		case r := <-resultCh:
			results[r.Name] = r
		case <-ctx.Done():
			return results
		}
	}
	wg.Wait()
	return results
}
