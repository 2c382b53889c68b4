package volley

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// Scheduler drives the pipeline: it pulls RequestSpecs from the source, fans
// them out through the gate and joins them in fixed-size batches. The gate is
// acquired inside each fetch, so launching never blocks the scheduler; the
// batch barrier is what bounds outstanding launches.
type Scheduler struct {
	*Config
}

func (s *Scheduler) init() error {
	if s.Source == nil {
		return fmt.Errorf("volley: no request source configured")
	}
	if s.Connections < 1 {
		return fmt.Errorf("volley: connections must be at least 1, got %d", s.Connections)
	}
	if s.Timeout <= 0 {
		return fmt.Errorf("volley: timeout must be positive, got %s", s.Timeout)
	}
	if s.Client == nil {
		s.Client = NewClient(ClientOptions{Connections: s.Connections})
	}
	if s.Out == nil {
		s.Out = os.Stdout
	}
	if s.Logger == nil {
		s.Logger = logrus.New()
	}
	return nil
}

// Run executes the whole pipeline and blocks until the source is exhausted
// and every launched request has reached a terminal record. It returns only
// setup and source errors; per-request failures are folded into the batch
// statistics. An empty source yields zero batches and no report.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.init(); err != nil {
		return err
	}

	gate := NewGate(int64(s.Connections))
	threshold := s.batchSize()
	run := &RunStats{}
	var pending []chan *ResponseRecord

	started := time.Now()
	warmedUp := false

	for {
		spec, err := s.Source.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Join in-flight work before aborting so no record is lost.
			s.joinBatch(pending, run)
			return err
		}

		result := make(chan *ResponseRecord, 1)
		go func(spec *RequestSpec) {
			result <- s.boundedFetch(ctx, gate, spec)
		}(spec)
		pending = append(pending, result)

		if len(pending) == threshold {
			if !warmedUp {
				warmedUp = true
				if s.Report {
					fmt.Fprintf(s.Out, "Warmup time: %.4f\n\n", time.Since(started).Seconds())
				}
			}
			s.joinBatch(pending, run)
			pending = nil
		}
	}

	s.joinBatch(pending, run)

	if s.Report && run.Records > 0 {
		run.WriteSummary(s.Out, time.Since(started))
	}
	return nil
}

// joinBatch is the batch barrier: it waits for every launched request in the
// batch to reach a terminal record, in launch order, then hands the completed
// batch downstream.
func (s *Scheduler) joinBatch(pending []chan *ResponseRecord, run *RunStats) {
	if len(pending) == 0 {
		return
	}

	started := time.Now()
	records := make([]*ResponseRecord, 0, len(pending))
	for _, result := range pending {
		records = append(records, <-result)
	}
	elapsed := time.Since(started)

	stats := Summarize(records, elapsed)
	run.Add(stats)
	s.Logger.Debugf("batch of %d joined in %.4fs", len(records), elapsed.Seconds())

	if s.OnBatch != nil {
		s.OnBatch(records, stats)
	}
	if s.Report {
		stats.WriteReport(s.Out)
	}
}
