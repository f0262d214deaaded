package errors

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuilder_WrapsCauseAndContext(t *testing.T) {
	cause := stderrors.New("disk full")
	err := WrapError(cause, CategoryFileSystem, "write snapshot entry").
		WithContext("key", "guide/intro").
		Build()

	require.Equal(t, CategoryFileSystem, err.Category())
	require.Equal(t, SeverityError, err.Severity())
	require.ErrorIs(t, err, cause)
	key, ok := err.Context().GetString("key")
	require.True(t, ok)
	require.Equal(t, "guide/intro", key)
	require.Equal(t, "[filesystem] write snapshot entry: disk full", err.Error())
}

func TestConvenienceConstructors(t *testing.T) {
	cfg := ConfigError("bad config").Build()
	require.True(t, cfg.IsFatal())
	require.False(t, cfg.CanRetry())

	netErr := NetworkError("nats down").Build()
	require.True(t, netErr.CanRetry())
	require.False(t, netErr.IsFatal())
}

func TestAsClassified_SeesThroughFmtWrapping(t *testing.T) {
	inner := NotFoundError("content entry not found").WithContext("key", "x").Build()
	wrapped := fmt.Errorf("fetch: %w", inner)

	got, ok := AsClassified(wrapped)
	require.True(t, ok)
	require.Same(t, inner, got)
	require.True(t, IsNotFound(wrapped))
	require.Equal(t, CategoryNotFound, GetCategory(wrapped))
	require.Equal(t, CategoryInternal, GetCategory(stderrors.New("plain")))
}

func TestHasCategory_NestedClassified(t *testing.T) {
	inner := StoreError("query failed").Build()
	outer := WrapError(inner, CategoryContent, "load entry").Build()

	require.True(t, HasCategory(outer, CategoryContent))
	require.True(t, HasCategory(outer, CategoryStore))
	require.False(t, HasCategory(outer, CategoryGit))
}

func TestIs_MatchesCategoryAndMessage(t *testing.T) {
	a := HookError("hook failed").WithContext("hook", "x").Build()
	b := HookError("hook failed").Build()
	c := HookError("other").Build()

	require.True(t, stderrors.Is(a, b))
	require.False(t, stderrors.Is(a, c))
}

func TestCLIErrorAdapter_ExitCodes(t *testing.T) {
	a := NewCLIErrorAdapter(false, nil)

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"plain", stderrors.New("x"), 1},
		{"validation", ValidationError("x").Build(), 2},
		{"config", ConfigError("x").Build(), 7},
		{"network", NetworkError("x").Build(), 8},
		{"snapshot", SnapshotError("x").Build(), 11},
		{"filesystem", FileSystemError("x").Build(), 11},
		{"internal", InternalError("x").Build(), 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, a.ExitCodeFor(tt.err))
		})
	}
}

func TestCLIErrorAdapter_LogIncludesCategory(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	a := NewCLIErrorAdapter(true, logger)

	code := a.Log(ContentError("render failed").WithContext("key", "intro").Build())

	require.Equal(t, 11, code)
	require.Contains(t, buf.String(), "category=content")
	require.Contains(t, buf.String(), "key=intro")
}

func TestCLIErrorAdapter_LogLocatesErrorWhenQuiet(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	a := NewCLIErrorAdapter(false, logger)

	a.Log(FileSystemError("write failed").
		WithContext("path", "/tmp/out/a.json").
		WithContext("mode", "0644").
		Build())

	require.Contains(t, buf.String(), "path=/tmp/out/a.json")
	require.NotContains(t, buf.String(), "mode=")
}
