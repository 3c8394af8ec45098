package workflows

import (
	"context"
	"errors"

	"curationsapi/src/domain"
	"curationsapi/src/repositories"

	"go.temporal.io/sdk/temporal"
)

const ErrTypeReconcileInProgress = "ReconcileInProgress"

// ReconcileRunner is satisfied by *liveness.Reconciler.
type ReconcileRunner interface {
	Run(ctx context.Context) (domain.ReconcileResult, error)
}

type Activities struct {
	Reconciler ReconcileRunner
}

func (a *Activities) RunReconcile(ctx context.Context) (domain.ReconcileResult, error) {
	result, err := a.Reconciler.Run(ctx)
	if errors.Is(err, repositories.ErrReconcileInProgress) {
		return result, temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeReconcileInProgress, err)
	}
	return result, err
}
