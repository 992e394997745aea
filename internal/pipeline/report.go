package pipeline

import (
	"fmt"
	"time"

	"github.com/ajitpratap0/formatbench/pkg/errors"
	"github.com/ajitpratap0/formatbench/pkg/formats"
)

// TableOutcome is the result of converting one table
type TableOutcome struct {
	Table     string                              `json:"table"`
	Rows      int64                               `json:"rows"`
	Chunks    int                                 `json:"chunks"`
	Duration  time.Duration                       `json:"duration"`
	Artifacts []string                            `json:"artifacts,omitempty"`
	Stats     map[formats.Format]formats.SinkStats `json:"stats,omitempty"`
	Err       error                               `json:"-"`
	Error     string                              `json:"error,omitempty"`
}

// OK reports whether the table converted successfully
func (o TableOutcome) OK() bool {
	return o.Error == ""
}

// Report summarizes a conversion run. Outcomes are in catalog order
// regardless of the order tables finished in.
type Report struct {
	Outcomes []TableOutcome `json:"outcomes"`
	Duration time.Duration  `json:"duration"`
	// PeakRSS is the highest resident set size sampled during the run,
	// 0 when sampling was disabled or unavailable
	PeakRSS uint64 `json:"peak_rss_bytes"`
}

// Failed returns the number of failed tables
func (r *Report) Failed() int {
	n := 0
	for _, o := range r.Outcomes {
		if !o.OK() {
			n++
		}
	}
	return n
}

// Rows returns the total rows converted by successful tables
func (r *Report) Rows() int64 {
	var n int64
	for _, o := range r.Outcomes {
		if o.OK() {
			n += o.Rows
		}
	}
	return n
}

// Err returns nil when every table succeeded, otherwise an error naming
// the failed tables
func (r *Report) Err() error {
	failed := r.Failed()
	if failed == 0 {
		return nil
	}
	var names []string
	for _, o := range r.Outcomes {
		if !o.OK() {
			names = append(names, o.Table)
		}
	}
	return errors.New(errors.ErrorTypeInternal, fmt.Sprintf("%d of %d tables failed", failed, len(r.Outcomes))).
		WithDetail("tables", names)
}
