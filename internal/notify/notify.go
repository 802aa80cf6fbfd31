// Package notify implements the fire-and-forget notification dispatch for
// batch collection milestones. Delivery is best-effort: failures are logged
// and never roll back the state transition that triggered them.
package notify

import (
	"context"
	"log/slog"

	"eventledger/internal/service"
)

// LogNotifier emits notifications as structured log records. It stands in for
// a real delivery integration (email, push) wired at the same seam.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier constructs a LogNotifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// TargetMet records that a collection crossed its funding target.
func (n *LogNotifier) TargetMet(ctx context.Context, notice service.CollectionNotice) {
	n.logger.InfoContext(ctx, "batch collection target met",
		"event_id", notice.EventID,
		"cohort_id", notice.CohortID,
		"collected", notice.CollectedAmount.String(),
		"target", notice.TargetAmount.String(),
	)
}

// CollectionApproved records that a collection was approved and its cohort
// bulk-registered.
func (n *LogNotifier) CollectionApproved(ctx context.Context, notice service.CollectionNotice) {
	n.logger.InfoContext(ctx, "batch collection approved",
		"event_id", notice.EventID,
		"cohort_id", notice.CohortID,
		"collected", notice.CollectedAmount.String(),
		"target", notice.TargetAmount.String(),
	)
}
