package xconn

import "golang.org/x/sync/errgroup"

// workerPool runs submitted jobs on a bounded set of goroutines, so a
// router that floods a session with INVOCATIONs/EVENTs cannot spawn
// unbounded goroutines. Jobs queue once all workers are busy. Worker
// goroutines are coordinated with an errgroup.Group to fan out and join
// the bounded goroutine set.
type workerPool struct {
	jobs chan func()
	g    *errgroup.Group
}

// newWorkerPool starts n workers, each pulling from a shared job queue
// until it is closed.
func newWorkerPool(n int) *workerPool {
	if n <= 0 {
		n = 1
	}
	p := &workerPool{jobs: make(chan func(), 256)}
	g := &errgroup.Group{}
	for i := 0; i < n; i++ {
		g.Go(func() error {
			p.run()
			return nil
		})
	}
	p.g = g
	return p
}

func (p *workerPool) run() {
	for job := range p.jobs {
		job()
	}
}

// Submit enqueues job for execution on a worker goroutine. Submit must not
// be called after Close.
func (p *workerPool) Submit(job func()) {
	p.jobs <- job
}

// Close stops accepting new jobs and blocks until every already-queued job
// has run to completion.
func (p *workerPool) Close() {
	close(p.jobs)
	_ = p.g.Wait()
}
