// Package observability provides structured logging and metrics for the
// onboarding backend.
//
// This package implements:
//   - Structured logging with contextual fields (zap-based)
//   - Prometheus-compatible metrics backed by an OpenTelemetry meter
//   - Request-scoped loggers carried on the context
package observability
