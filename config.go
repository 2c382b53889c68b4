package volley

import (
	"io"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultBatchSize is the number of requests joined per batch when reporting
// is disabled. With reporting enabled the batch size shrinks to
// 100 * Connections so statistics appear at a useful cadence.
const DefaultBatchSize = 1000

// Config holds all load generator configuration.
type Config struct {
	// Source produces the requests to issue.
	Source RequestSource

	// Client is shared by every in-flight request for the whole run.
	Client *Client

	// Connections caps the number of requests in flight at any instant.
	Connections int

	// Timeout bounds each individual request, from dispatch to the last
	// body byte.
	Timeout time.Duration

	// BatchSize overrides the batch threshold when positive.
	BatchSize int

	// Report enables printing per-batch statistics to Out.
	Report bool

	// Out receives the printed reports. The report is the program's output,
	// not logging; diagnostics go through Logger.
	Out io.Writer

	// OnBatch, when set, receives every completed batch and its statistics.
	OnBatch func(records []*ResponseRecord, stats *BatchStats)

	Logger *logrus.Logger
}

func (c *Config) batchSize() int {
	if c.BatchSize > 0 {
		return c.BatchSize
	}
	if c.Report {
		return 100 * c.Connections
	}
	return DefaultBatchSize
}
