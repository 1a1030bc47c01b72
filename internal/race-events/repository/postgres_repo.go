package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/radieske/race-bet-platform/pkg/contracts/events"
)

// PostgresRepo lê os rateios gravados pela apuração
type PostgresRepo struct {
	DB *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{DB: db}
}

// PayoutResults devolve os rateios da corrida ordenados por tipo de aposta
func (r *PostgresRepo) PayoutResults(ctx context.Context, raceID string) ([]events.PayoutSummary, error) {
	const q = `
		SELECT bet_type, combinations
		FROM payout_results
		WHERE race_id = $1
		ORDER BY bet_type
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
