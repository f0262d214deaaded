package daemon

import (
	"sync"
	"time"

	"git.home.luguber.info/inful/docsnap/internal/generator"
)

// Status is the JSON body of GET /status.
type Status struct {
	Runs        int        `json:"runs"`
	Failures    int        `json:"failures"`
	LastBuildID string     `json:"last_build_id,omitempty"`
	LastRunAt   *time.Time `json:"last_run_at,omitempty"`
	Fingerprint string     `json:"fingerprint,omitempty"`
	Entries     int        `json:"entries"`
	LastError   string     `json:"last_error,omitempty"`
}

type status struct {
	mu sync.RWMutex
	s  Status
}

func (st *status) record(report *generator.Report, err error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.Runs++
	if report != nil {
		st.s.LastBuildID = report.BuildID
		at := report.StartedAt
		st.s.LastRunAt = &at
	}
	if err != nil {
		st.s.Failures++
		st.s.LastError = err.Error()
		return
	}
	st.s.LastError = ""
	if report != nil {
		st.s.Fingerprint = report.Fingerprint
		st.s.Entries = report.Entries
	}
}

func (st *status) snapshot() Status {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.s
}

// Status returns the current run counters.
func (d *Daemon) Status() Status { return d.status.snapshot() }
