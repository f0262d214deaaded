package eventstore

import (
	"encoding/json"
	"time"

	ferrors "git.home.luguber.info/inful/docsnap/internal/foundation/errors"
)

// Event types written by the generator.
const (
	TypeGenerateStarted   = "GenerateStarted"
	TypeGenerateCompleted = "GenerateCompleted"
	TypeGenerateFailed    = "GenerateFailed"
)

// GenerateStartedData is the payload of TypeGenerateStarted.
type GenerateStartedData struct {
	Trigger  string `json:"trigger"`
	BuildDir string `json:"build_dir"`
}

// GenerateCompletedData is the payload of TypeGenerateCompleted.
type GenerateCompletedData struct {
	Fingerprint string `json:"fingerprint,omitempty"`
	Entries     int    `json:"entries"`
	DurationMS  int64  `json:"duration_ms"`
}

// GenerateFailedData is the payload of TypeGenerateFailed.
type GenerateFailedData struct {
	Stage      string `json:"stage"`
	Error      string `json:"error"`
	DurationMS int64  `json:"duration_ms"`
}

// NewGenerateStarted creates a TypeGenerateStarted event.
func NewGenerateStarted(buildID, trigger, buildDir string) (*BaseEvent, error) {
	return newEvent(buildID, TypeGenerateStarted, GenerateStartedData{Trigger: trigger, BuildDir: buildDir})
}

// NewGenerateCompleted creates a TypeGenerateCompleted event.
func NewGenerateCompleted(buildID, fingerprint string, entries int, d time.Duration) (*BaseEvent, error) {
	return newEvent(buildID, TypeGenerateCompleted, GenerateCompletedData{
		Fingerprint: fingerprint,
		Entries:     entries,
		DurationMS:  d.Milliseconds(),
	})
}

// NewGenerateFailed creates a TypeGenerateFailed event.
func NewGenerateFailed(buildID, stage string, cause error, d time.Duration) (*BaseEvent, error) {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return newEvent(buildID, TypeGenerateFailed, GenerateFailedData{Stage: stage, Error: msg, DurationMS: d.Milliseconds()})
}

func newEvent(buildID, eventType string, data any) (*BaseEvent, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, ferrors.StoreError("marshal event payload").WithCause(err).
			WithContext("build_id", buildID).
			WithContext("type", eventType).
			Build()
	}
	return &BaseEvent{
		EventBuildID:   buildID,
		EventType:      eventType,
		EventTimestamp: time.Now(),
		EventPayload:   payload,
	}, nil
}
