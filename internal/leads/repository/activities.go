package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const activityColumns = `id, lead_id, activity_type, description, actor_user_id, metadata, created_at`

func scanActivity(row pgx.Row) (LeadActivity, error) {
	var a LeadActivity
	err := row.Scan(
		&a.ID, &a.LeadID, &a.ActivityType, &a.Description,
		&a.ActorUserID, &a.Metadata, &a.CreatedAt,
	)
	return a, err
}

// CreateActivity appends a timeline entry. Entries are never updated or
// deleted afterwards.
func (r *Repo) CreateActivity(ctx context.Context, params CreateActivityParams) (LeadActivity, error) {
	var metadata []byte
	if params.Metadata != nil {
		encoded, err := json.Marshal(params.Metadata)
		if err != nil {
			return LeadActivity{}, fmt.Errorf("encode activity metadata: %w", err)
		}
		metadata = encoded
	}

	query := fmt.Sprintf(`
		INSERT INTO lead_activities (lead_id, activity_type, description, actor_user_id, metadata)
		VALUES ($1, $2, $3, $4, COALESCE($5, '{}'::jsonb))
		RETURNING %s`, activityColumns)

	activity, err := scanActivity(r.db.QueryRow(ctx, query,
		params.LeadID, params.ActivityType, params.Description, params.ActorUserID, metadata,
	))
	if err != nil {
		return LeadActivity{}, fmt.Errorf("create lead activity: %w", err)
	}
	return activity, nil
}

// ListActivities returns a lead's timeline, newest first.
func (r *Repo) ListActivities(ctx context.Context, leadID uuid.UUID) ([]LeadActivity, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM lead_activities
		WHERE lead_id = $1
		ORDER BY created_at DESC`, activityColumns)

	rows, err := r.db.Query(ctx, query, leadID)
	if err != nil {
		return nil, fmt.Errorf("list lead activities: %w", err)
	}
	defer rows.Close()

	items := make([]LeadActivity, 0)
	for rows.Next() {
		var a LeadActivity
		if err := rows.Scan(
			&a.ID, &a.LeadID, &a.ActivityType, &a.Description,
			&a.ActorUserID, &a.Metadata, &a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan lead activity: %w", err)
		}
		items = append(items, a)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("list lead activities: %w", rows.Err())
	}

	return items, nil
}
