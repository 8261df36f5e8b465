// Package metrics provides observability hooks for watch sessions and rebuilds.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics stay optional:
//
//	p := pipeline.New(latex.Name, steps, watched, pipeline.WithRecorder(recorder))
//
// PrometheusRecorder keeps its metrics in a private registry. docwatch has no
// HTTP surface, so the registry is exported with WriteTextfile in the
// node-exporter textfile collector format when a metrics file is configured.
package metrics
