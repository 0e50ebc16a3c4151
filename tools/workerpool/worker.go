package workerpool

import (
	"runtime"
	"time"
)

func (p *Pool) work() {
	idle := time.NewTimer(p.idleTimeout)
	defer idle.Stop()

	for state(p.state.Load()) != stopped {
		select {
		case task, ok := <-p.tasks:
			if !ok {
				return
			}
			p.run(task)
		case <-idle.C:
			if int(p.workers.Load()) > p.minWorkers {
				return
			}
		}
		idle.Reset(p.idleTimeout)
	}
}

func (p *Pool) run(task func()) {
	defer func() {
		if r := recover(); r != nil {
			p.crashed(r)
		}
	}()

	task()
	p.completed.Add(1)
}

func (p *Pool) crashed(r any) {
	p.panicked.Add(1)

	stack := make([]byte, 64<<10)
	stack = stack[:runtime.Stack(stack, false)]

	if p.onPanic != nil {
		p.onPanic(r, stack)
		return
	}
	p.log.WithField("panic", r).Errorf("workerpool: task panicked\n%s", stack)
}
