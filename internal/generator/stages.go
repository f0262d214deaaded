package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/docsnap/internal/logfields"
	"git.home.luguber.info/inful/docsnap/internal/metrics"
)

// StageName is a strongly-typed identifier for a generation stage.
type StageName string

// Canonical stage names, in execution order.
const (
	StageBefore        StageName = "before"
	StagePrepareOutput StageName = "prepare_output"
	StageDistRemoved   StageName = "dist_removed"
	StageRenderContext StageName = "render_context"
	StageRuntimeConfig StageName = "runtime_config"
	StageDone          StageName = "done"
)

// Stage is a discrete unit of work in a generation run.
type Stage func(ctx context.Context, run *runState) error

// StageDef pairs a stage name with its executing function.
type StageDef struct {
	Name StageName
	Fn   Stage
}

// StageError records which stage failed.
type StageError struct {
	Stage    StageName
	Canceled bool
	Err      error
}

func (e *StageError) Error() string { return fmt.Sprintf("stage %s: %v", e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

// runStages executes stages in order, recording timing and stopping on the first error.
func runStages(ctx context.Context, run *runState, stages []StageDef, rec metrics.Recorder, logger *slog.Logger) error {
	for _, st := range stages {
		if err := ctx.Err(); err != nil {
			rec.IncStageResult(string(st.Name), metrics.ResultCanceled)
			return &StageError{Stage: st.Name, Canceled: true, Err: err}
		}

		t0 := time.Now()
		err := st.Fn(ctx, run)
		dur := time.Since(t0)
		rec.ObserveStageDuration(string(st.Name), dur)

		if err != nil {
			canceled := errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
			result := metrics.ResultFailed
			if canceled {
				result = metrics.ResultCanceled
			}
			rec.IncStageResult(string(st.Name), result)
			return &StageError{Stage: st.Name, Canceled: canceled, Err: err}
		}

		rec.IncStageResult(string(st.Name), metrics.ResultSuccess)
		logger.Debug("Stage completed",
			slog.String("stage", string(st.Name)),
			logfields.DurationMS(float64(dur.Microseconds())/1000))
	}
	return nil
}
