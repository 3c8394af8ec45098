package test_seeder

import (
	"context"
	"fmt"

	"curationsapi/src/domain/entities"
)

// InsertCuration inserts a curation exactly as given, bypassing the service rules, and sets its ID.
func (ts TestSeeder) InsertCuration(ctx context.Context, curation *entities.Curation) {
	query := `
		INSERT INTO curations (
			status, entity, entity_id, property, property_value, create_new,
			submitter_email, moderator_email, submitted_date, moderated_date, live_date, is_live
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12) RETURNING id`

	err := ts.pool.QueryRow(ctx, query,
		string(curation.Status),
		curation.Entity,
		curation.EntityID,
		curation.Property,
		curation.PropertyValue,
		curation.CreateNew,
		curation.SubmitterEmail,
		curation.ModeratorEmail,
		curation.SubmittedDate,
		curation.ModeratedDate,
		curation.LiveDate,
		curation.IsLive,
	).Scan(&curation.ID)

	if err != nil {
		panic(fmt.Sprintf("Seeder.InsertCuration failed: %v", err))
	}
}

// InsertCurations inserts every curation in order.
func (ts TestSeeder) InsertCurations(ctx context.Context, curations ...*entities.Curation) {
	for _, curation := range curations {
		ts.InsertCuration(ctx, curation)
	}
}
