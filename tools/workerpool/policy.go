package workerpool

import (
	"errors"
	"time"
)

// RejectPolicy decides the fate of a task that found the queue full. retry
// makes one more normal attempt to queue it.
type RejectPolicy func(p *Pool, task func(), retry func() error) error

// AbortPolicy reports ErrQueueFull to the submitter.
func AbortPolicy() RejectPolicy {
	return func(*Pool, func(), func() error) error {
		return ErrQueueFull
	}
}

// CallerRunsPolicy runs the task on the submitting goroutine, which slows
// submitters down to the pool's pace.
func CallerRunsPolicy() RejectPolicy {
	return func(p *Pool, task func(), _ func() error) error {
		p.run(task)
		return nil
	}
}

// RetryPolicy retries up to n times, sleeping wait before each attempt, and
// hands the task to fallback when the queue stays full. A nil fallback
// reports ErrQueueFull.
func RetryPolicy(n int, wait time.Duration, fallback RejectPolicy) RejectPolicy {
	return func(p *Pool, task func(), retry func() error) error {
		err := ErrQueueFull
		for i := 0; i < n; i++ {
			time.Sleep(wait)
			if err = retry(); !errors.Is(err, ErrQueueFull) {
				return err
			}
		}

		if fallback != nil {
			return fallback(p, task, retry)
		}
		return err
	}
}
