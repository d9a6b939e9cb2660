package loader

import (
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"ecommerce-loader/internal/database"
	"ecommerce-loader/internal/importer"
)

// Rejection describes one CSV record that was not loaded.
type Rejection struct {
	Line   int    `json:"line"`
	Column string `json:"column,omitempty"`
	Value  string `json:"value,omitempty"`
	Reason string `json:"reason"`
}

func rejection(e *importer.RowError) Rejection {
	return Rejection{Line: e.Line, Column: e.Column, Value: e.Value, Reason: e.Err.Error()}
}

// SourceResult is the outcome of loading one CSV source.
type SourceResult struct {
	Source     string        `json:"source"`
	File       string        `json:"file"`
	Table      string        `json:"table"`
	RowsRead   int64         `json:"rows_read"`
	RowsLoaded int64         `json:"rows_loaded"`
	Rejected   []Rejection   `json:"rejected,omitempty"`
	Skipped    bool          `json:"skipped,omitempty"`
	Duration   time.Duration `json:"duration"`
}

// TableCount is a row count read back after commit.
type TableCount struct {
	Table    string `json:"table"`
	Rows     int64  `json:"rows"`
	Expected int64  `json:"expected"`
}

type LatencyStats struct {
	Batches int64         `json:"batches"`
	Mean    time.Duration `json:"mean"`
	P95     time.Duration `json:"p95"`
	P99     time.Duration `json:"p99"`
}

func latencyStats(h *hdrhistogram.Histogram) LatencyStats {
	if h.TotalCount() == 0 {
		return LatencyStats{}
	}
	return LatencyStats{
		Batches: h.TotalCount(),
		Mean:    time.Duration(h.Mean()) * time.Microsecond,
		P95:     time.Duration(h.ValueAtQuantile(95)) * time.Microsecond,
		P99:     time.Duration(h.ValueAtQuantile(99)) * time.Microsecond,
	}
}

// Summary reports a whole run. ProvisionError and ConnectError are set when
// the run stopped before a transaction was started.
type Summary struct {
	RunID          string                   `json:"run_id"`
	Backend        string                   `json:"backend"`
	Provision      database.ProvisionResult `json:"provision"`
	ProvisionError string                   `json:"provision_error,omitempty"`
	ConnectError   string                   `json:"connect_error,omitempty"`
	Sources        []SourceResult           `json:"sources"`
	Committed      bool                     `json:"committed"`
	Verified       []TableCount             `json:"verified,omitempty"`
	BatchLatency   LatencyStats             `json:"batch_latency"`
	TotalTime      time.Duration            `json:"total_time"`
}

// RowsLoaded sums the rows written across sources.
func (s *Summary) RowsLoaded() int64 {
	var n int64
	for _, r := range s.Sources {
		n += r.RowsLoaded
	}
	return n
}

// Rejected counts the rejected records across sources.
func (s *Summary) Rejected() int {
	n := 0
	for _, r := range s.Sources {
		n += len(r.Rejected)
	}
	return n
}

// Source returns the result for the named source.
func (s *Summary) Source(name string) (SourceResult, bool) {
	for _, r := range s.Sources {
		if r.Source == name {
			return r, true
		}
	}
	return SourceResult{}, false
}
