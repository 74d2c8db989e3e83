package analytics

import (
	"context"
	"sync"
	"time"

	"github.com/raflytch/mockprep-server/internal/domain"
)

// Dispatcher sends reports on background goroutines so callers never wait
// on the analytics backend. The request context is detached from
// cancellation but keeps its values, including the bearer token.
type Dispatcher struct {
	reporter domain.AnalyticsReporter
	timeout  time.Duration
	wg       sync.WaitGroup
}

func NewDispatcher(reporter domain.AnalyticsReporter, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Dispatcher{reporter: reporter, timeout: timeout}
}

func (d *Dispatcher) ReportQuestion(ctx context.Context, report domain.QuestionResultReport) {
	d.dispatch(ctx, func(ctx context.Context) {
		d.reporter.ReportQuestion(ctx, report)
	})
}

func (d *Dispatcher) ReportTestSummary(ctx context.Context, report domain.TestResultReport) {
	d.dispatch(ctx, func(ctx context.Context) {
		d.reporter.ReportTestSummary(ctx, report)
	})
}

func (d *Dispatcher) dispatch(ctx context.Context, fn func(context.Context)) {
	detached := context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(detached, d.timeout)
		defer cancel()
		fn(ctx)
	}()
}

// Wait blocks until all dispatched reports finish or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
