package metrics

import "time"

// ResultLabel enumerates stage result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultFailed   ResultLabel = "failed"
	ResultCanceled ResultLabel = "canceled"
)

// Recorder defines observability hooks for generation runs and their stages.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	ObserveGenerateDuration(d time.Duration)
	IncGenerateOutcome(result ResultLabel)
	SetSnapshotEntries(n int)
	SetSnapshotFingerprint(fp string)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) IncStageResult(string, ResultLabel)         {}
func (NoopRecorder) ObserveGenerateDuration(time.Duration)      {}
func (NoopRecorder) IncGenerateOutcome(ResultLabel)             {}
func (NoopRecorder) SetSnapshotEntries(int)                     {}
func (NoopRecorder) SetSnapshotFingerprint(string)              {}
