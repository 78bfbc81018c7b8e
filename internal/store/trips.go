package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/halcyard/windrose/internal/orchestrator"
)

// TripRecord is the listing view of a stored plan.
type TripRecord struct {
	ID          string `json:"id"`
	Destination string `json:"destination"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Headline    string `json:"headline"`
}

// SaveTrip upserts a finished plan.
func (s *Store) SaveTrip(ctx context.Context, p *orchestrator.PlanResult) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal trip %s: %w", p.ID, err)
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO trip_plans (id, destination, start_date, end_date, headline, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			headline = EXCLUDED.headline,
			payload = EXCLUDED.payload`,
		p.ID, p.Request.Destination, p.Request.StartDate, p.Request.EndDate,
		p.Headline(), payload, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save trip %s: %w", p.ID, err)
	}
	return nil
}

// GetTrip retrieves one plan by ID.
func (s *Store) GetTrip(ctx context.Context, id string) (*orchestrator.PlanResult, error) {
	var payload []byte
	err := s.db.QueryRow(ctx,
		`SELECT payload FROM trip_plans WHERE id = $1`, id).Scan(&payload)
	if err != nil {
		return nil, fmt.Errorf("get trip %s: %w", id, err)
	}
	var p orchestrator.PlanResult
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("decode trip %s: %w", id, err)
	}
	return &p, nil
}

// ListTrips returns stored plan summaries, newest first.
func (s *Store) ListTrips(ctx context.Context, limit int) ([]TripRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(ctx, `
		SELECT id, destination, start_date, end_date, headline
		FROM trip_plans
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list trips: %w", err)
	}
	defer rows.Close()

	var records []TripRecord
	for rows.Next() {
		var r TripRecord
		if err := rows.Scan(&r.ID, &r.Destination, &r.StartDate, &r.EndDate, &r.Headline); err != nil {
			return nil, fmt.Errorf("scan trip: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// DeleteTrip removes one stored plan.
func (s *Store) DeleteTrip(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM trip_plans WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete trip %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("trip %s not found", id)
	}
	return nil
}
