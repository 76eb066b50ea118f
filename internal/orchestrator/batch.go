package orchestrator

import (
	"context"
	"sync"

	"github.com/sbomlab/sbomdiff/pkg/models"
)

// Sink receives completed project reports. The aggregator implements it;
// implementations must be safe for concurrent calls.
type Sink interface {
	Add(report *models.ProjectReport)
}

// ProgressFunc is called after each project finishes or is skipped.
type ProgressFunc func(project string, completed, total int)

// Batch runs many independent project comparisons through a bounded worker
// pool. Project work is pure computation, so the concurrency limit exists
// to cap memory from holding many package sets at once, not to throttle
// I/O.
type Batch struct {
	orch        *Orchestrator
	concurrency int
	progress    ProgressFunc
}

// NewBatch creates a batch runner. Concurrency below 1 is clamped to 1.
func NewBatch(concurrency int, progress ProgressFunc) *Batch {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Batch{
		orch:        New(),
		concurrency: concurrency,
		progress:    progress,
	}
}

// Run processes every request, feeding completed reports to the sink as
// they finish, and returns them in input order. Cancelling the context
// stops new projects from starting; in-flight comparisons run to
// completion and their reports are still delivered.
func (b *Batch) Run(ctx context.Context, requests []Request, sink Sink) []*models.ProjectReport {
	if len(requests) == 0 {
		return nil
	}

	type indexed struct {
		index int
		req   Request
	}

	workChan := make(chan indexed, len(requests))
	for i, req := range requests {
		workChan <- indexed{index: i, req: req}
	}
	close(workChan)

	reports := make([]*models.ProjectReport, len(requests))

	var wg sync.WaitGroup
	var mu sync.Mutex
	completed := 0

	for i := 0; i < b.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for work := range workChan {
				// Stop picking up new projects once cancelled; whatever is
				// already running finishes normally.
				select {
				case <-ctx.Done():
					b.notify(work.req.Project, &mu, &completed, len(requests))
					continue
				default:
				}

				report := b.orch.Run(work.req)
				reports[work.index] = report
				if sink != nil {
					sink.Add(report)
				}
				b.notify(work.req.Project, &mu, &completed, len(requests))
			}
		}()
	}

	wg.Wait()

	// Compact away slots skipped due to cancellation.
	out := reports[:0]
	for _, report := range reports {
		if report != nil {
			out = append(out, report)
		}
	}
	return out
}

func (b *Batch) notify(project string, mu *sync.Mutex, completed *int, total int) {
	if b.progress == nil {
		return
	}
	mu.Lock()
	*completed++
	done := *completed
	mu.Unlock()
	b.progress(project, done, total)
}
