package volley

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"
)

// failedKey groups records that never produced a response. It sorts before
// every real status code.
const failedKey = 0

// StatusGroup is the aggregate for one status code within a batch.
type StatusGroup struct {
	Status int // failedKey for requests that never completed
	Count  int
	Avg    time.Duration
	Min    time.Duration
	Max    time.Duration

	// First* retain the first record of a non-success group for diagnosis.
	FirstURL  string
	FirstBody []byte
	FirstErr  error

	sum time.Duration
}

// Success reports whether the group's status lies in the 2xx or 3xx range.
func (g *StatusGroup) Success() bool {
	return g.Status >= 200 && g.Status < 400
}

func (g *StatusGroup) label() string {
	if g.Status == failedKey {
		return "failed"
	}
	return strconv.Itoa(g.Status)
}

// BatchStats is the aggregate over one completed batch. It is a pure
// function of the records: recomputing it from the same batch yields an
// identical value.
type BatchStats struct {
	Groups  []StatusGroup
	Total   int
	Elapsed time.Duration
	Avg     time.Duration
	Min     time.Duration
	Max     time.Duration

	// LastIndex and LastURL identify the final record of the batch, useful
	// for resuming a file-backed run.
	LastIndex int
	LastURL   string

	sum time.Duration
}

// Summarize groups a completed batch by status code and computes count and
// avg/min/max response duration per group, plus batch-wide figures. Groups
// are ordered with the failed group first, then ascending status.
func Summarize(records []*ResponseRecord, elapsed time.Duration) *BatchStats {
	stats := &BatchStats{Total: len(records), Elapsed: elapsed}
	if len(records) == 0 {
		return stats
	}

	last := records[len(records)-1]
	stats.LastIndex = last.Index
	stats.LastURL = last.URL
	stats.Min = records[0].ResponseDuration
	stats.Max = records[0].ResponseDuration

	groups := make(map[int]*StatusGroup)
	for _, record := range records {
		group, ok := groups[record.Status]
		if !ok {
			group = &StatusGroup{
				Status:    record.Status,
				Min:       record.ResponseDuration,
				Max:       record.ResponseDuration,
				FirstURL:  record.URL,
				FirstBody: record.Body,
				FirstErr:  record.Err,
			}
			groups[record.Status] = group
		}
		group.Count++
		group.sum += record.ResponseDuration
		if record.ResponseDuration < group.Min {
			group.Min = record.ResponseDuration
		}
		if record.ResponseDuration > group.Max {
			group.Max = record.ResponseDuration
		}

		stats.sum += record.ResponseDuration
		if record.ResponseDuration < stats.Min {
			stats.Min = record.ResponseDuration
		}
		if record.ResponseDuration > stats.Max {
			stats.Max = record.ResponseDuration
		}
	}
	stats.Avg = stats.sum / time.Duration(stats.Total)

	statuses := make([]int, 0, len(groups))
	for status := range groups {
		statuses = append(statuses, status)
	}
	sort.Ints(statuses)
	for _, status := range statuses {
		group := groups[status]
		group.Avg = group.sum / time.Duration(group.Count)
		stats.Groups = append(stats.Groups, *group)
	}
	return stats
}

// Throughput is records per second over the batch join.
func (b *BatchStats) Throughput() float64 {
	if b.Elapsed <= 0 {
		return 0
	}
	return float64(b.Total) / b.Elapsed.Seconds()
}

// WriteReport prints the batch in the standard report format. Durations are
// printed in seconds with four decimal places.
func (b *BatchStats) WriteReport(w io.Writer) {
	if b.Total == 0 {
		return
	}
	fmt.Fprintf(w, "Last id and url: %d %s\n", b.LastIndex, b.LastURL)
	for i := range b.Groups {
		group := &b.Groups[i]
		fmt.Fprintf(w, "Status %s: %d responses, times avg/min/max: %.4f/%.4f/%.4f\n",
			group.label(), group.Count,
			group.Avg.Seconds(), group.Min.Seconds(), group.Max.Seconds())
		if !group.Success() {
			fmt.Fprintf(w, "  first url: %s\n", group.FirstURL)
			if group.Status == failedKey {
				fmt.Fprintf(w, "  first error: %v\n", group.FirstErr)
			} else {
				fmt.Fprintf(w, "  first body: %s\n", group.FirstBody)
			}
		}
	}
	fmt.Fprintf(w, "Total time: %.4f, req/s: %.4f, times avg/min/max: %.4f/%.4f/%.4f\n\n",
		b.Elapsed.Seconds(), b.Throughput(),
		b.Avg.Seconds(), b.Min.Seconds(), b.Max.Seconds())
}

// RunStats accumulates whole-run totals across batches. It is threaded
// explicitly through the scheduler; there is no package-level state.
type RunStats struct {
	Records int
	Batches int
	Min     time.Duration
	Max     time.Duration

	sum time.Duration
}

// Add folds one completed batch into the run totals.
func (r *RunStats) Add(stats *BatchStats) {
	if stats.Total == 0 {
		return
	}
	if r.Records == 0 || stats.Min < r.Min {
		r.Min = stats.Min
	}
	if stats.Max > r.Max {
		r.Max = stats.Max
	}
	r.Records += stats.Total
	r.Batches++
	r.sum += stats.sum
}

// Avg is the mean response duration over the whole run.
func (r *RunStats) Avg() time.Duration {
	if r.Records == 0 {
		return 0
	}
	return r.sum / time.Duration(r.Records)
}

// WriteSummary prints the whole-run aggregate after the last batch.
func (r *RunStats) WriteSummary(w io.Writer, elapsed time.Duration) {
	if r.Records == 0 {
		return
	}
	throughput := 0.0
	if elapsed > 0 {
		throughput = float64(r.Records) / elapsed.Seconds()
	}
	fmt.Fprintf(w, "Overall: %d responses in %d batches, total time: %.4f, req/s: %.4f, times avg/min/max: %.4f/%.4f/%.4f\n",
		r.Records, r.Batches, elapsed.Seconds(), throughput,
		r.Avg().Seconds(), r.Min.Seconds(), r.Max.Seconds())
}
