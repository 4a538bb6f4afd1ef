package workers

// Workers aggregates background workers and starts them together.
type Workers struct {
	workers []Worker
}

// NewWorkers builds an aggregate over the given workers. Nil entries are
// skipped so callers can pass conditionally constructed workers directly.
func NewWorkers(workers ...Worker) *Workers {
	all := make([]Worker, 0, len(workers))
	for _, worker := range workers {
		if worker != nil {
			all = append(all, worker)
		}
	}

	return &Workers{workers: all}
}

func (w *Workers) Run() {
	for _, worker := range w.workers {
		worker.Run()
	}
}
