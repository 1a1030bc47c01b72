package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/radieske/race-bet-platform/internal/race-service/model"
	"github.com/radieske/race-bet-platform/internal/race-status/dto"
	"github.com/radieske/race-bet-platform/pkg/contracts/events"
)

var ErrNotFound = errors.New("not found")

type ReadRepo struct {
	DB *sql.DB
}

func (r *ReadRepo) GetRace(ctx context.Context, raceID string) (dto.Race, error) {
	const q = `
		SELECT id, name, starts_at, closing_at, status, settled, finalized_at
		FROM races
		WHERE id = $1;
	`
	var race model.Race
	var status string
	err := r.DB.QueryRowContext(ctx, q, raceID).Scan(
		&race.ID, &race.Name, &race.StartsAt, &race.ClosingAt, &status, &race.Settled, &race.FinalizedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return dto.Race{}, ErrNotFound
	}
	if err != nil {
		return dto.Race{}, err
	}
	race.Status = model.RaceStatus(status)

	return dto.Race{
		RaceID:      race.ID,
		Name:        race.Name,
		StartsAt:    race.StartsAt,
		ClosingAt:   race.ClosingAt,
		Status:      status,
		Phase:       string(race.Phase()),
		FinalizedAt: race.FinalizedAt,
	}, nil
}

func (r *ReadRepo) PayoutResults(ctx context.Context, raceID string) ([]events.PayoutSummary, error) {
	const q = `
		SELECT bet_type, combinations
		FROM payout_results
		WHERE race_id = $1
		ORDER BY bet_type;
	`
	rows, err := r.DB.QueryContext(ctx, q, raceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []events.PayoutSummary{}
	for rows.Next() {
		var s events.PayoutSummary
		var raw []byte
		if err := rows.Scan(&s.BetType, &raw); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &s.Combinations); err != nil {
			return nil, fmt.Errorf("decode combinations of %s: %w", s.BetType, err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
