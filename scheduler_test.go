package volley

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func testLogger(t *testing.T) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(testWriter{t})
	logger.SetLevel(logrus.DebugLevel)
	return logger
}

type testWriter struct {
	t *testing.T
}

func (tw testWriter) Write(p []byte) (n int, err error) {
	tw.t.Log(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

func TestSchedulerEmitsEveryRecordOnce(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	var batches [][]*ResponseRecord
	scheduler := &Scheduler{Config: &Config{
		Source:      NewSyntheticSource("GET", server.URL, nil, 0, 25),
		Connections: 5,
		Timeout:     5 * time.Second,
		BatchSize:   10,
		Logger:      testLogger(t),
		OnBatch: func(records []*ResponseRecord, stats *BatchStats) {
			batches = append(batches, records)
		},
	}}
	if err := scheduler.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	expectedSizes := []int{10, 10, 5}
	if len(batches) != len(expectedSizes) {
		t.Fatalf("Expected %d batches, got %d", len(expectedSizes), len(batches))
	}

	seen := make(map[int]bool)
	next := 0
	for b, batch := range batches {
		if len(batch) != expectedSizes[b] {
			t.Fatalf("Expected batch %d to hold %d records, got %d", b, expectedSizes[b], len(batch))
		}
		for _, record := range batch {
			if seen[record.Index] {
				t.Fatalf("Record %d was emitted twice", record.Index)
			}
			seen[record.Index] = true
			if record.Index != next {
				t.Fatalf("Expected launch-order reporting, wanted index %d, got %d", next, record.Index)
			}
			next++
			if record.Status != 200 {
				t.Fatalf("Record %d has status %d", record.Index, record.Status)
			}
		}
	}
	if len(seen) != 25 {
		t.Fatalf("Expected 25 records in total, got %d", len(seen))
	}
}

func TestSchedulerEmptySourceYieldsNothing(t *testing.T) {
	var out bytes.Buffer
	called := false
	scheduler := &Scheduler{Config: &Config{
		Source:      NewSyntheticSource("GET", "http://target.example/", nil, 0, 0),
		Connections: 2,
		Timeout:     time.Second,
		Report:      true,
		Out:         &out,
		Logger:      testLogger(t),
		OnBatch: func([]*ResponseRecord, *BatchStats) {
			called = true
		},
	}}
	if err := scheduler.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if called {
		t.Fatal("Expected no batches from an empty source")
	}
	if out.Len() != 0 {
		t.Fatalf("Expected no report output, got %q", out.String())
	}
}

func TestSchedulerHonorsConcurrencyCeiling(t *testing.T) {
	const limit = 4
	var current, peak int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		held := atomic.AddInt32(&current, 1)
		for {
			old := atomic.LoadInt32(&peak)
			if held <= old || atomic.CompareAndSwapInt32(&peak, old, held) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&current, -1)
	}))
	defer server.Close()

	scheduler := &Scheduler{Config: &Config{
		Source:      NewSyntheticSource("GET", server.URL, nil, 0, 40),
		Connections: limit,
		Timeout:     5 * time.Second,
		BatchSize:   20,
		Logger:      testLogger(t),
	}}
	if err := scheduler.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	if peak > limit {
		t.Fatalf("Expected at most %d requests in flight, observed %d", limit, peak)
	}
}

func TestSchedulerReportOutput(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	var out bytes.Buffer
	scheduler := &Scheduler{Config: &Config{
		Source:      NewSyntheticSource("GET", server.URL, nil, 0, 5),
		Connections: 2,
		Timeout:     5 * time.Second,
		BatchSize:   5,
		Report:      true,
		Out:         &out,
		Logger:      testLogger(t),
	}}
	if err := scheduler.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	report := out.String()
	for _, want := range []string{
		"Warmup time: ",
		"Last id and url: 4 " + server.URL,
		"Status 200: 5 responses, times avg/min/max: ",
		"Total time: ",
		"Overall: 5 responses in 1 batches",
	} {
		if !strings.Contains(report, want) {
			t.Fatalf("Report is missing %q:\n%s", want, report)
		}
	}
}

type failingSource struct {
	specs int
	next  int
	url   string
}

func (f *failingSource) Next() (*RequestSpec, error) {
	if f.next >= f.specs {
		return nil, &SourceReadError{Path: "broken.csv", Err: io.ErrUnexpectedEOF}
	}
	spec := &RequestSpec{Index: f.next, URL: f.url, Method: "GET", Created: time.Now()}
	f.next++
	return spec, nil
}

func (f *failingSource) Close() error {
	return nil
}

func TestSchedulerJoinsInFlightWorkOnSourceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	var joined int
	scheduler := &Scheduler{Config: &Config{
		Source:      &failingSource{specs: 3, url: server.URL},
		Connections: 2,
		Timeout:     5 * time.Second,
		BatchSize:   10,
		Logger:      testLogger(t),
		OnBatch: func(records []*ResponseRecord, stats *BatchStats) {
			joined += len(records)
		},
	}}

	err := scheduler.Run(context.Background())
	var sourceErr *SourceReadError
	if !errors.As(err, &sourceErr) {
		t.Fatalf("Expected the source error to surface, got %v", err)
	}
	if joined != 3 {
		t.Fatalf("Expected the 3 launched requests to be joined before aborting, got %d", joined)
	}
}

func TestSchedulerFailuresAreCountedNotFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	var records []*ResponseRecord
	scheduler := &Scheduler{Config: &Config{
		Source:      NewSyntheticSource("GET", server.URL, nil, 0, 3),
		Connections: 3,
		Timeout:     20 * time.Millisecond,
		Logger:      testLogger(t),
		OnBatch: func(batch []*ResponseRecord, stats *BatchStats) {
			records = append(records, batch...)
		},
	}}
	if err := scheduler.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	if len(records) != 3 {
		t.Fatalf("Expected every timed-out request to produce a record, got %d", len(records))
	}
	for _, record := range records {
		if !record.Failed() || record.Err == nil {
			t.Fatalf("Expected a terminal failure record, got %+v", *record)
		}
	}
}
