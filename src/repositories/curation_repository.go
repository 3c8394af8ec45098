package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"curationsapi/src/domain"
	"curationsapi/src/domain/entities"
	"curationsapi/src/infra/postgres"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const selectColumns = `id, status, entity, entity_id, property, property_value, create_new,
	submitter_email, moderator_email, submitted_date, moderated_date, live_date, is_live`

// reconcileLockKey identifies the advisory lock held while a liveness batch runs.
const reconcileLockKey int64 = 0x63757261

var ErrReconcileInProgress = errors.New("another liveness reconciliation is running")

type CurationRepository struct {
	readPool  *pgxpool.Pool
	writePool *pgxpool.Pool
}

func NewCurationRepository(readPool *pgxpool.Pool, writePool *pgxpool.Pool) *CurationRepository {
	return &CurationRepository{readPool: readPool, writePool: writePool}
}

func scanCuration(row pgx.Row) (entities.Curation, error) {
	var curation entities.Curation
	var status string

	err := row.Scan(
		&curation.ID,
		&status,
		&curation.Entity,
		&curation.EntityID,
		&curation.Property,
		&curation.PropertyValue,
		&curation.CreateNew,
		&curation.SubmitterEmail,
		&curation.ModeratorEmail,
		&curation.SubmittedDate,
		&curation.ModeratedDate,
		&curation.LiveDate,
		&curation.IsLive,
	)
	curation.Status = entities.CurationStatus(status)

	return curation, err
}

func collectCurations(rows pgx.Rows) ([]entities.Curation, error) {
	defer rows.Close()

	var curations []entities.Curation
	for rows.Next() {
		curation, err := scanCuration(rows)
		if err != nil {
			return nil, err
		}
		curations = append(curations, curation)
	}

	return curations, rows.Err()
}

// Insert persists a new curation and returns its id.
func (r *CurationRepository) Insert(ctx context.Context, curation entities.Curation) (int64, error) {
	query := `
		INSERT INTO curations (
			status, entity, entity_id, property, property_value, create_new,
			submitter_email, moderator_email, submitted_date, moderated_date, is_live
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, FALSE)
		RETURNING id`

	var id int64
	err := r.writePool.QueryRow(ctx, query,
		string(curation.Status),
		curation.Entity,
		curation.EntityID,
		postgres.NewNullString(curation.Property),
		postgres.NewNullString(curation.PropertyValue),
		curation.CreateNew,
		postgres.NewNullString(curation.SubmitterEmail),
		postgres.NewNullString(curation.ModeratorEmail),
		curation.SubmittedDate,
		postgres.NewNullTime(curation.ModeratedDate),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("CurationRepository.Insert - failed to insert curation: %w: %w", domain.ErrPersistence, err)
	}

	return id, nil
}

func (r *CurationRepository) GetByID(ctx context.Context, id int64) (entities.Curation, error) {
	query := fmt.Sprintf(`SELECT %s FROM curations WHERE id = $1`, selectColumns)

	curation, err := scanCuration(r.readPool.QueryRow(ctx, query, id))
	if err != nil {
		if postgres.IsNoRows(err) {
			return entities.Curation{}, &domain.NotFoundError{ID: id}
		}
		return entities.Curation{}, fmt.Errorf("CurationRepository.GetByID - query failed: %w", err)
	}

	return curation, nil
}

// UpdateStatus applies a moderation decision. The previous status is read with FOR UPDATE inside
// the same transaction so concurrent decisions on one id serialize and only one sees needs-moderation.
func (r *CurationRepository) UpdateStatus(
	ctx context.Context,
	id int64,
	status entities.CurationStatus,
	moderatorEmail *string,
	moderatedAt time.Time,
) (domain.StatusTransition, error) {
	tx, err := r.writePool.Begin(ctx)
	if err != nil {
		return domain.StatusTransition{}, fmt.Errorf("CurationRepository.UpdateStatus - failed to begin transaction: %w: %w", domain.ErrPersistence, err)
	}
	defer tx.Rollback(ctx)

	var previous string
	var isLive bool
	err = tx.QueryRow(ctx, `SELECT status, is_live FROM curations WHERE id = $1 FOR UPDATE`, id).Scan(&previous, &isLive)
	if err != nil {
		if postgres.IsNoRows(err) {
			return domain.StatusTransition{}, &domain.NotFoundError{ID: id}
		}
		return domain.StatusTransition{}, fmt.Errorf("CurationRepository.UpdateStatus - failed to lock curation %d: %w: %w", id, domain.ErrPersistence, err)
	}

	// Uma curation já publicada só pode continuar aprovada.
	if isLive && status != entities.StatusApproved {
		return domain.StatusTransition{}, domain.NewValidationError("status", "curation is already live and can only stay approved")
	}

	var moderatedDate *time.Time
	if status.IsDecided() {
		moderatedDate = &moderatedAt
	}

	// Na cláusula SET, status e moderated_date ainda são os valores da linha travada.
	// Repetir a mesma decisão mantém a data original, então ela nunca passa de live_date.
	// Sem moderator_email no pedido, o moderador gravado é mantido, exceto na volta para a fila.
	query := fmt.Sprintf(`
		UPDATE curations SET
			status = $2,
			moderator_email = CASE
				WHEN $2::text = 'needs-moderation' THEN $3::text
				ELSE COALESCE($3::text, moderator_email)
			END,
			moderated_date = CASE
				WHEN $2::text = 'needs-moderation' THEN NULL
				WHEN status = $2::text AND moderated_date IS NOT NULL THEN moderated_date
				ELSE $4::timestamptz
			END
		WHERE id = $1
		RETURNING %s`, selectColumns)

	curation, err := scanCuration(tx.QueryRow(ctx, query,
		id,
		string(status),
		postgres.NewNullString(moderatorEmail),
		postgres.NewNullTime(moderatedDate),
	))
	if err != nil {
		return domain.StatusTransition{}, fmt.Errorf("CurationRepository.UpdateStatus - failed to update curation %d: %w: %w", id, domain.ErrPersistence, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.StatusTransition{}, fmt.Errorf("CurationRepository.UpdateStatus - failed to commit: %w: %w", domain.ErrPersistence, err)
	}

	return domain.StatusTransition{
		Curation:       curation,
		PreviousStatus: entities.CurationStatus(previous),
	}, nil
}

// ListLiveCandidates returns approved curations not yet observed in the catalog.
func (r *CurationRepository) ListLiveCandidates(ctx context.Context) ([]entities.Curation, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM curations
		WHERE status = 'approved' AND is_live = FALSE
		ORDER BY id`, selectColumns)

	rows, err := r.writePool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("CurationRepository.ListLiveCandidates - query failed: %w", err)
	}

	curations, err := collectCurations(rows)
	if err != nil {
		return nil, fmt.Errorf("CurationRepository.ListLiveCandidates - failed to scan curations: %w", err)
	}

	return curations, nil
}

// MarkLive flags every id as live in one transaction. Either all rows are written or none.
// Rows that were un-approved meanwhile are skipped by the WHERE guard; only the ids
// actually written are returned.
func (r *CurationRepository) MarkLive(ctx context.Context, ids []int64, liveDate time.Time) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	tx, err := r.writePool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("CurationRepository.MarkLive - failed to begin transaction: %w: %w", domain.ErrPersistence, err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `
		UPDATE curations SET
			is_live = TRUE,
			live_date = $2
		WHERE id = ANY($1) AND status = 'approved' AND is_live = FALSE
		RETURNING id`,
		ids, liveDate,
	)
	if err != nil {
		return nil, fmt.Errorf("CurationRepository.MarkLive - update failed: %w: %w", domain.ErrPersistence, err)
	}

	marked, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("CurationRepository.MarkLive - update failed: %w: %w", domain.ErrPersistence, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("CurationRepository.MarkLive - failed to commit: %w: %w", domain.ErrPersistence, err)
	}

	return marked, nil
}

// AcquireReconcileLock takes a session advisory lock so two batches never overlap.
// The returned release func must be called once the batch is done.
func (r *CurationRepository) AcquireReconcileLock(ctx context.Context) (func(), error) {
	conn, err := r.writePool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("CurationRepository.AcquireReconcileLock - failed to acquire connection: %w", err)
	}

	var locked bool
	if err := conn.QueryRow(ctx, `SELECT pg_try_advisory_lock($1)`, reconcileLockKey).Scan(&locked); err != nil {
		conn.Release()
		return nil, fmt.Errorf("CurationRepository.AcquireReconcileLock - lock query failed: %w", err)
	}

	if !locked {
		conn.Release()
		return nil, ErrReconcileInProgress
	}

	release := func() {
		if _, err := conn.Exec(context.Background(), `SELECT pg_advisory_unlock($1)`, reconcileLockKey); err != nil {
			// A conexão é descartada para que o lock de sessão não fique preso no pool.
			conn.Conn().Close(context.Background())
		}
		conn.Release()
	}

	return release, nil
}

// List returns one page of curations plus the total number of matches.
func (r *CurationRepository) List(ctx context.Context, criteria ListCriteria) ([]entities.Curation, int, error) {
	pageQuery, countQuery, pageArgs, err := BuildListQuery(criteria)
	if err != nil {
		return nil, 0, err
	}

	filterArgs := pageArgs[:len(pageArgs)-2]

	var total int
	if err := r.readPool.QueryRow(ctx, countQuery, filterArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("CurationRepository.List - count query failed: %w", err)
	}

	rows, err := r.readPool.Query(ctx, pageQuery, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("CurationRepository.List - page query failed: %w", err)
	}

	curations, err := collectCurations(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("CurationRepository.List - failed to scan curations: %w", err)
	}

	return curations, total, nil
}

// PendingSummary returns distinct "entity_id|property" keys of curations not yet live.
func (r *CurationRepository) PendingSummary(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT entity_id || '|' || COALESCE(property, '') AS pending_key
		FROM curations
		WHERE is_live = FALSE AND status IN ('approved', 'needs-moderation')
		ORDER BY pending_key`

	rows, err := r.readPool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("CurationRepository.PendingSummary - query failed: %w", err)
	}
	defer rows.Close()

	keys := make([]string, 0)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("CurationRepository.PendingSummary - failed to scan key: %w", err)
		}
		keys = append(keys, key)
	}

	return keys, rows.Err()
}
