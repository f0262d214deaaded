package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/docsnap/internal/foundation/errors"
	"git.home.luguber.info/inful/docsnap/internal/generator"
)

type fakeGenerator struct {
	mu       sync.Mutex
	triggers []generator.Trigger
	err      error
}

func (f *fakeGenerator) Generate(_ context.Context, trigger generator.Trigger) (*generator.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.triggers = append(f.triggers, trigger)
	report := &generator.Report{BuildID: "b", Trigger: trigger, StartedAt: time.Now(), Fingerprint: "abcd1234", Entries: 2}
	return report, f.err
}

func (f *fakeGenerator) count(trigger generator.Trigger) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, t := range f.triggers {
		if t == trigger {
			n++
		}
	}
	return n
}

func startDaemon(t *testing.T, d *Daemon) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("daemon did not stop")
		}
	})
	select {
	case <-d.Ready():
	case err := <-done:
		t.Fatalf("daemon exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("daemon not ready")
	}
}

func TestRun_RegeneratesOnContentChange(t *testing.T) {
	dir := t.TempDir()
	gen := &fakeGenerator{}
	d := New(gen, Options{WatchDir: dir, Debounce: 20 * time.Millisecond}, nil)
	startDaemon(t, d)

	require.Equal(t, 1, gen.count(generator.TriggerWatch), "initial run")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "page.md"), []byte("# hi"), 0o600))
	require.Eventually(t, func() bool { return gen.count(generator.TriggerWatch) >= 2 }, 3*time.Second, 10*time.Millisecond)

	sub := filepath.Join(dir, "guide")
	require.NoError(t, os.Mkdir(sub, 0o755))
	time.Sleep(100 * time.Millisecond)
	before := gen.count(generator.TriggerWatch)
	require.NoError(t, os.WriteFile(filepath.Join(sub, "nested.md"), []byte("# nested"), 0o600))
	require.Eventually(t, func() bool { return gen.count(generator.TriggerWatch) > before }, 3*time.Second, 10*time.Millisecond)
}

func TestRun_IgnoresHiddenFiles(t *testing.T) {
	dir := t.TempDir()
	gen := &fakeGenerator{}
	d := New(gen, Options{WatchDir: dir, Debounce: 10 * time.Millisecond}, nil)
	startDaemon(t, d)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".page.md.swp"), []byte("x"), 0o600))
	time.Sleep(150 * time.Millisecond)
	require.Equal(t, 1, gen.count(generator.TriggerWatch))
}

func TestRun_ScheduledRegeneration(t *testing.T) {
	gen := &fakeGenerator{}
	d := New(gen, Options{Interval: 50 * time.Millisecond}, nil)
	startDaemon(t, d)

	require.Eventually(t, func() bool { return gen.count(generator.TriggerSchedule) >= 2 }, 3*time.Second, 10*time.Millisecond)
}

func TestRun_MissingWatchDir(t *testing.T) {
	d := New(&fakeGenerator{}, Options{WatchDir: filepath.Join(t.TempDir(), "missing")}, nil)
	require.Error(t, runWithTimeout(t, d))
}

func runWithTimeout(t *testing.T, d *Daemon) error {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- d.Run(context.Background()) }()
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after a setup failure")
		return nil
	}
}

func TestRun_ListenFailureReturns(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = busy.Close() })

	gen := &fakeGenerator{}
	d := New(gen, Options{Listen: busy.Addr().String(), Interval: time.Hour}, nil)
	err = runWithTimeout(t, d)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryDaemon))
	require.Equal(t, 1, gen.count(generator.TriggerWatch))
}

func TestRun_ServesPreview(t *testing.T) {
	client := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(client, "runtime-config.json"), []byte(`{"dbHash":"abcd1234"}`), 0o600))

	var afterRuns int
	var mu sync.Mutex
	d := New(&fakeGenerator{}, Options{
		Listen:    "127.0.0.1:0",
		ClientDir: client,
		AfterRun: func(*generator.Report, error) {
			mu.Lock()
			afterRuns++
			mu.Unlock()
		},
	}, nil)
	startDaemon(t, d)

	resp, err := http.Get("http://" + d.Addr().String() + "/runtime-config.json")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	mu.Lock()
	require.Equal(t, 1, afterRuns)
	mu.Unlock()
}

func TestRouter_StatusAndMetrics(t *testing.T) {
	gen := &fakeGenerator{}
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("m 1\n")) })
	d := New(gen, Options{Metrics: metrics}, nil)
	d.runOnce(context.Background(), generator.TriggerCLI)
	router := d.Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var st Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	require.Equal(t, 1, st.Runs)
	require.Equal(t, "abcd1234", st.Fingerprint)
	require.Equal(t, 2, st.Entries)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, "m 1\n", rec.Body.String())

	gen.err = errors.New("boom")
	d.runOnce(context.Background(), generator.TriggerCLI)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	require.Equal(t, 1, st.Failures)
	require.Equal(t, "abcd1234", st.Fingerprint, "last good fingerprint is kept")
}

func TestRequest_CoalescesWhileBusy(t *testing.T) {
	d := New(&fakeGenerator{}, Options{}, nil)
	for range 5 {
		d.Request(generator.TriggerWatch)
	}
	require.Len(t, d.requests, 1)
}

func TestShouldIgnoreEvent(t *testing.T) {
	for path, want := range map[string]bool{
		"/c/page.md":      false,
		"/c/.hidden":      true,
		"/c/page.md~":     true,
		"/c/.page.md.swp": true,
		"/c/#page.md#":    true,
		"/c/Thumbs.db":    true,
	} {
		require.Equal(t, want, shouldIgnoreEvent(path), path)
	}
}
