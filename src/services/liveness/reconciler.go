package liveness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"curationsapi/src/domain"
	"curationsapi/src/domain/entities"
	"curationsapi/src/infra/catalog"
)

const (
	DefaultPerRecordTimeout = 10 * time.Second
	DefaultBatchTimeout     = 10 * time.Minute

	commitTimeout = 30 * time.Second
)

// CandidateStore is the part of the curation store the reconciler needs.
type CandidateStore interface {
	AcquireReconcileLock(ctx context.Context) (func(), error)
	ListLiveCandidates(ctx context.Context) ([]entities.Curation, error)
	MarkLive(ctx context.Context, ids []int64, liveDate time.Time) ([]int64, error)
}

// CacheInvalidator drops cached catalog reads of entities whose curations just went live.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, entity string, ids []string) error
}

type Config struct {
	PerRecordTimeout time.Duration
	BatchTimeout     time.Duration
}

// Reconciler checks approved curations against the catalog and flags the ones already live.
type Reconciler struct {
	logger   *slog.Logger
	store    CandidateStore
	resolver    Resolver
	invalidator CacheInvalidator
	cfg         Config
	now         func() time.Time
}

func NewReconciler(logger *slog.Logger, store CandidateStore, resolver Resolver, cfg Config) *Reconciler {
	if cfg.PerRecordTimeout <= 0 {
		cfg.PerRecordTimeout = DefaultPerRecordTimeout
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = DefaultBatchTimeout
	}

	return &Reconciler{
		logger:   logger,
		store:    store,
		resolver: resolver,
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (r *Reconciler) WithCacheInvalidator(invalidator CacheInvalidator) *Reconciler {
	r.invalidator = invalidator
	return r
}

// Run evaluates every candidate independently and commits all matches in one write.
// Per-record failures leave the record pending for the next run; a failed commit fails the batch.
func (r *Reconciler) Run(ctx context.Context) (domain.ReconcileResult, error) {
	var result domain.ReconcileResult

	ctx, cancel := context.WithTimeout(ctx, r.cfg.BatchTimeout)
	defer cancel()

	release, err := r.store.AcquireReconcileLock(ctx)
	if err != nil {
		return result, fmt.Errorf("Reconciler.Run - failed to acquire reconcile lock: %w", err)
	}
	defer release()

	candidates, err := r.store.ListLiveCandidates(ctx)
	if err != nil {
		return result, fmt.Errorf("Reconciler.Run - failed to list candidates: %w", err)
	}

	if len(candidates) == 0 {
		r.logger.Info("No approved curations waiting to go live")
		return result, nil
	}

	r.logger.Info("Checking approved curations", "count", len(candidates))

	liveIDs := make([]int64, 0)
	matched := make(map[int64]entities.Curation)
	for _, curation := range candidates {
		if ctx.Err() != nil {
			r.logger.Warn("Batch timeout reached, leaving remaining curations for the next run",
				"remaining", len(candidates)-result.Checked)
			break
		}
		result.Checked++

		live, current, err := r.evaluate(ctx, curation)
		if err != nil {
			result.Failed++
			r.logger.Error("Failed to check curation",
				"curation_id", curation.ID,
				"entity", curation.Entity,
				"entity_id", curation.EntityID,
				"error", err)
			continue
		}

		if !live {
			result.Pending++
			r.logger.Debug("Curation still waiting",
				"curation_id", curation.ID,
				"entity_id", curation.EntityID,
				"current", Stringify(current),
				"expected", curation.Value())
			continue
		}

		liveIDs = append(liveIDs, curation.ID)
		matched[curation.ID] = curation
		r.logger.Info("Curation is now live", "curation_id", curation.ID, "entity_id", curation.EntityID)
	}

	if len(liveIDs) == 0 {
		r.logger.Info("No curations were updated", "checked", result.Checked, "failed", result.Failed)
		return result, nil
	}

	// O commit usa um contexto próprio para não perder o trabalho do lote quando o timeout geral expira.
	commitCtx, cancelCommit := context.WithTimeout(context.WithoutCancel(ctx), commitTimeout)
	defer cancelCommit()

	marked, err := r.store.MarkLive(commitCtx, liveIDs, r.now())
	if err != nil {
		return result, fmt.Errorf("Reconciler.Run - failed to persist %d live curations: %w", len(liveIDs), err)
	}

	// Linhas desaprovadas durante o lote ficam de fora do UPDATE.
	if skipped := len(liveIDs) - len(marked); skipped > 0 {
		r.logger.Warn("Some matched curations changed status before the commit and were not marked live",
			"matched", len(liveIDs),
			"skipped", skipped)
	}

	result.Live = len(marked)
	result.LiveIDs = marked
	r.logger.Info("Updated curations to live status",
		"live", result.Live,
		"pending", result.Pending,
		"failed", result.Failed)

	r.invalidateCache(commitCtx, marked, matched)

	return result, nil
}

// invalidateCache is best-effort: a stale cached read only delays the listing, never the batch.
func (r *Reconciler) invalidateCache(ctx context.Context, marked []int64, matched map[int64]entities.Curation) {
	if r.invalidator == nil || len(marked) == 0 {
		return
	}

	byEntity := make(map[string][]string)
	for _, id := range marked {
		curation := matched[id]
		byEntity[curation.Entity] = append(byEntity[curation.Entity], curation.EntityID)
	}

	for entity, entityIDs := range byEntity {
		if err := r.invalidator.Invalidate(ctx, entity, entityIDs); err != nil {
			r.logger.Warn("Failed to invalidate cached catalog records", "entity", entity, "count", len(entityIDs), "error", err)
		}
	}
}

// evaluate resolves and compares one curation under its own timeout.
func (r *Reconciler) evaluate(ctx context.Context, curation entities.Curation) (live bool, current any, err error) {
	recordCtx, cancel := context.WithTimeout(ctx, r.cfg.PerRecordTimeout)
	defer cancel()

	defer func() {
		if recovered := recover(); recovered != nil {
			live = false
			err = fmt.Errorf("unexpected catalog payload: %v", recovered)
		}
	}()

	observed, err := r.resolver.Resolve(recordCtx, curation)
	if catalog.IsNotFound(err) {
		return false, nil, nil
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return false, nil, fmt.Errorf("catalog lookup timed out after %s: %w", r.cfg.PerRecordTimeout, err)
		}
		return false, nil, err
	}

	if observed != nil {
		if curation.CreateNew {
			current = observed
		} else {
			current = observed[curation.PropertyName()]
		}
	}

	return IsLive(curation, observed), current, nil
}
