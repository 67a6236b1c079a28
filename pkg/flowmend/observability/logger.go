// Package observability provides structured logging, metrics, and tracing
// helpers for the mutation and traversal engines.
//
// Logging uses slog (Go stdlib); metrics and tracing use OpenTelemetry.
// Everything is opt-in and nil-safe: passing a nil logger or the noop
// recorders disables the feature without branching at call sites.
package observability

import (
	"log/slog"
	"time"
)

// EnrichMutationLogger returns a logger carrying mutation call context.
func EnrichMutationLogger(logger *slog.Logger, attemptID, targetID string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("attempt_id", attemptID),
		slog.String("target_id", targetID),
	)
}

// LogMutationStart logs the start of a mutation call.
func LogMutationStart(logger *slog.Logger, op, targetID string) {
	if logger == nil {
		return
	}
	logger.Debug("mutation starting",
		slog.String("op", op),
		slog.String("target_id", targetID),
	)
}

// LogMutationResolved logs the terminal outcome of a mutation call.
func LogMutationResolved(logger *slog.Logger, targetID, status string, actions int, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Info("mutation resolved",
		slog.String("target_id", targetID),
		slog.String("status", status),
		slog.Int("remediation_actions", actions),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogConflict logs a classified conflict.
func LogConflict(logger *slog.Logger, targetID, category string, round int) {
	if logger == nil {
		return
	}
	logger.Warn("mutation conflict",
		slog.String("target_id", targetID),
		slog.String("category", category),
		slog.Int("round", round),
	)
}

// LogRemediationAction logs one remediation action and its outcome.
func LogRemediationAction(logger *slog.Logger, action, targetID, outcome string) {
	if logger == nil {
		return
	}
	logger.Info("remediation action",
		slog.String("action", action),
		slog.String("target_id", targetID),
		slog.String("outcome", outcome),
	)
}

// LogTraversalStart logs the start of a traversal call.
func LogTraversalStart(logger *slog.Logger, rootID string, resumed bool) {
	if logger == nil {
		return
	}
	logger.Debug("traversal starting",
		slog.String("root_group_id", rootID),
		slog.Bool("resumed", resumed),
	)
}

// LogTraversalSuspended logs a traversal frozen into a continuation token.
func LogTraversalSuspended(logger *slog.Logger, visited int, timedOut bool) {
	if logger == nil {
		return
	}
	logger.Info("traversal suspended",
		slog.Int("groups_visited", visited),
		slog.Bool("timed_out", timedOut),
	)
}

// LogTraversalComplete logs natural traversal completion.
func LogTraversalComplete(logger *slog.Logger, visited int, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Info("traversal completed",
		slog.Int("groups_visited", visited),
		slog.Float64("duration_ms", durationMs),
	)
}

// TimedOperation measures the duration of an operation.
// The returned function reports the elapsed time in milliseconds.
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Milliseconds())
	}
}
