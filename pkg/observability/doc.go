/*
Package observability provides Prometheus instrumentation for the notebook
runtime.

It exposes counters and histograms for cell executions, kernel restarts, and
snapshot sweeps, plus a gauge for the number of open documents.
*/
package observability
