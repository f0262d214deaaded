// Package metrics provides the observability hooks for generation runs.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics never need nil checks:
//
//	g := generator.New(cfg, store, generator.WithRecorder(metrics.NoopRecorder{}))
//
// PrometheusRecorder registers its collectors on a caller-supplied registry. That
// registry is served over HTTP by watch mode (HTTPHandler) and can be dumped to a
// node_exporter textfile after one-shot runs (WriteTextfile).
package metrics
