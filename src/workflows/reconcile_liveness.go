package workflows

import (
	"time"

	"curationsapi/src/domain"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

const (
	TaskQueue = "CURATIONS_LIVENESS_TASK_QUEUE"

	// ReconcileWorkflowID é fixo: o Temporal garante uma única execução do cron por id.
	ReconcileWorkflowID = "curations-liveness-reconciler"

	DefaultCronSchedule = "*/30 * * * *"

	reconcileActivityTimeout = 11 * time.Minute
)

// ReconcileLiveness runs one liveness batch per cron tick. A run that overlaps the previous one is
// skipped by the schedule itself; the activity also holds the advisory lock used by the CLI.
func ReconcileLiveness(ctx workflow.Context) (domain.ReconcileResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("liveness reconciliation started")

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: reconcileActivityTimeout,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:        30 * time.Second,
			BackoffCoefficient:     2.0,
			MaximumAttempts:        2,
			NonRetryableErrorTypes: []string{ErrTypeReconcileInProgress},
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	var result domain.ReconcileResult
	if err := workflow.ExecuteActivity(ctx, "RunReconcile").Get(ctx, &result); err != nil {
		logger.Error("liveness reconciliation failed", "error", err)
		return domain.ReconcileResult{}, err
	}

	logger.Info("liveness reconciliation finished",
		"checked", result.Checked,
		"live", result.Live,
		"pending", result.Pending,
		"failed", result.Failed)

	return result, nil
}
