package async

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Unbounded lets every task run at once.
const Unbounded = 0

// Task is a named unit of work.
type Task struct {
	Name string
	Func func(context.Context) error
}

// RunParallel executes the tasks concurrently, at most limit at a time
// (Unbounded for no limit), and waits for all of them. A failing task does
// not stop the others. Every error is returned, joined and prefixed with
// the task name.
//
// Example:
//
//	tasks := []Task{
//	    {Name: "worker-0", Func: createWorker(0)},
//	    {Name: "worker-1", Func: createWorker(1)},
//	}
//	if err := RunParallel(ctx, tasks, 4); err != nil {
//	    return err
//	}
func RunParallel(ctx context.Context, tasks []Task, limit int) error {
	if len(tasks) == 0 {
		return nil
	}

	var sem chan struct{}
	if limit > 0 {
		sem = make(chan struct{}, limit)
	}

	errs := make([]error, len(tasks))
	var wg sync.WaitGroup
	for i, task := range tasks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if sem != nil {
				sem <- struct{}{}
				defer func() { <-sem }()
			}
			if err := task.Func(ctx); err != nil {
				errs[i] = fmt.Errorf("%s: %w", task.Name, err)
			}
		}()
	}
	wg.Wait()

	return errors.Join(errs...)
}
