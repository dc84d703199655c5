package scheduler

import (
	"runtime"
	"sync"
)

// Pool is a fixed set of workers draining a task channel.
type Pool struct {
	taskCh chan func()
	wg     sync.WaitGroup
	once   sync.Once
}

// NewPool starts size workers; a non-positive size means one per CPU.
func NewPool(size int) *Pool {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	p := &Pool{taskCh: make(chan func(), size)}
	for i := 0; i < size; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for task := range p.taskCh {
				task()
			}
		}()
	}
	return p
}

func (p *Pool) Submit(task func()) {
	p.taskCh <- task
}

// Close stops accepting tasks and waits for running ones to return.
func (p *Pool) Close() {
	p.once.Do(func() {
		close(p.taskCh)
	})
	p.wg.Wait()
}
