package test_seeder

import (
	"context"

	"curationsapi/src/domain/entities"

	"github.com/jackc/pgx/v5"
)

const curationColumns = `id, status, entity, entity_id, property, property_value, create_new,
	submitter_email, moderator_email, submitted_date, moderated_date, live_date, is_live`

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

func (ts TestSeeder) SelectCurationByID(ctx context.Context, id int64) (entities.Curation, error) {
	return scanCuration(ts.pool.QueryRow(ctx, `SELECT `+curationColumns+` FROM curations WHERE id = $1`, id))
}

// SelectCurations returns every row ordered by id.
func (ts TestSeeder) SelectCurations(ctx context.Context) ([]entities.Curation, error) {
	rows, err := ts.pool.Query(ctx, `SELECT `+curationColumns+` FROM curations ORDER BY id`)
	if err != nil {
		return nil, err
	}
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
