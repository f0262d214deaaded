package eventstore

import (
	"cmp"
	"context"
	"encoding/json"
	"slices"
	"time"
)

const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// RunSummary is the read model of one generation run.
type RunSummary struct {
	BuildID     string        `json:"build_id"`
	Status      string        `json:"status"`
	Trigger     string        `json:"trigger,omitempty"`
	StartedAt   time.Time     `json:"started_at"`
	Duration    time.Duration `json:"duration,omitempty"`
	Fingerprint string        `json:"fingerprint,omitempty"`
	Entries     int           `json:"entries"`
	ErrorStage  string        `json:"error_stage,omitempty"`
	Error       string        `json:"error,omitempty"`
}

// History replays every event in store and returns run summaries, newest first,
// limited to limit entries when limit > 0.
func History(ctx context.Context, store Store, limit int) ([]*RunSummary, error) {
	events, err := store.GetRange(ctx, time.Time{}, time.Now().Add(time.Hour))
	if err != nil {
		return nil, err
	}

	runs := map[string]*RunSummary{}
	for _, event := range events {
		apply(runs, event)
	}

	history := make([]*RunSummary, 0, len(runs))
	for _, run := range runs {
		history = append(history, run)
	}
	slices.SortFunc(history, func(a, b *RunSummary) int {
		if c := b.StartedAt.Compare(a.StartedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.BuildID, b.BuildID)
	})
	if limit > 0 && len(history) > limit {
		history = history[:limit]
	}
	return history, nil
}

func apply(runs map[string]*RunSummary, event Event) {
	buildID := event.BuildID()
	if buildID == "" {
		return
	}
	run, ok := runs[buildID]
	if !ok {
		run = &RunSummary{BuildID: buildID, Status: StatusRunning, StartedAt: event.Timestamp()}
		runs[buildID] = run
	}

	// Payloads come from this package; decode errors leave the summary partial.
	switch event.Type() {
	case TypeGenerateStarted:
		var data GenerateStartedData
		_ = json.Unmarshal(event.Payload(), &data)
		run.Trigger = data.Trigger
		run.StartedAt = event.Timestamp()
	case TypeGenerateCompleted:
		var data GenerateCompletedData
		_ = json.Unmarshal(event.Payload(), &data)
		run.Status = StatusCompleted
		run.Fingerprint = data.Fingerprint
		run.Entries = data.Entries
		run.Duration = time.Duration(data.DurationMS) * time.Millisecond
	case TypeGenerateFailed:
		var data GenerateFailedData
		_ = json.Unmarshal(event.Payload(), &data)
		run.Status = StatusFailed
		run.ErrorStage = data.Stage
		run.Error = data.Error
		run.Duration = time.Duration(data.DurationMS) * time.Millisecond
	}
}
