package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/radieske/race-bet-platform/internal/race-service/engine"
	"github.com/radieske/race-bet-platform/internal/race-service/model"
)

// Postgres implementa engine.Store em banco
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

var _ engine.Store = (*Postgres)(nil)

// InTx executa fn em uma transação; qualquer erro faz rollback
func (p *Postgres) InTx(ctx context.Context, fn func(tx engine.Tx) error) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit()
}

func (p *Postgres) Wallet(ctx context.Context, walletID string) (model.Wallet, error) {
	var w model.Wallet
	err := p.db.QueryRowContext(ctx,
		`SELECT id, user_id, balance FROM wallets WHERE id=$1`, walletID).
		Scan(&w.ID, &w.UserID, &w.Balance)
	if err != nil {
		return model.Wallet{}, notFound(err)
	}
	return w, nil
}

func (p *Postgres) PayoutResults(ctx context.Context, raceID string) ([]model.PayoutResult, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT bet_type, combinations FROM payout_results WHERE race_id=$1 ORDER BY bet_type`, raceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPayoutResults(rows, raceID)
}

// RaceStatus lê a corrida sem travar; usado pelas consultas HTTP
func (p *Postgres) RaceStatus(ctx context.Context, raceID string) (model.Race, error) {
	return scanRace(p.db.QueryRowContext(ctx, selectRace+` WHERE id=$1`, raceID))
}

type pgTx struct{ tx *sql.Tx }

const selectRace = `SELECT id, name, starts_at, closing_at, status, settled, finalized_at FROM races`

type rowScanner interface{ Scan(dest ...any) error }

func scanRace(row rowScanner) (model.Race, error) {
	var r model.Race
	var status string
	if err := row.Scan(&r.ID, &r.Name, &r.StartsAt, &r.ClosingAt, &status, &r.Settled, &r.FinalizedAt); err != nil {
		return model.Race{}, notFound(err)
	}
	r.Status = model.RaceStatus(status)
	return r, nil
}

func (t *pgTx) LockRace(ctx context.Context, raceID string, exclusive bool) (model.Race, error) {
	lock := " FOR SHARE"
	if exclusive {
		lock = " FOR UPDATE"
	}
	return scanRace(t.tx.QueryRowContext(ctx, selectRace+` WHERE id=$1`+lock, raceID))
}

func (t *pgTx) UpdateRace(ctx context.Context, r model.Race) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE races SET status=$1, settled=$2, finalized_at=$3 WHERE id=$4`,
		string(r.Status), r.Settled, r.FinalizedAt, r.ID)
	if err != nil {
		return err
	}
	return affected(res)
}

func (t *pgTx) SetFinishPosition(ctx context.Context, raceID, entrantID string, position int) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE race_entries SET finish_position=$1 WHERE id=$2 AND race_id=$3`,
		position, entrantID, raceID)
	if err != nil {
		return err
	}
	return affected(res)
}

func (t *pgTx) ClearFinishPositions(ctx context.Context, raceID string) error {
	_, err := t.tx.ExecContext(ctx, `UPDATE race_entries SET finish_position=NULL WHERE race_id=$1`, raceID)
	return err
}

func (t *pgTx) Entrants(ctx context.Context, raceID string) ([]model.Entrant, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT id, race_id, horse_number, bracket_number, finish_position
		FROM race_entries
		WHERE race_id=$1
		ORDER BY finish_position ASC NULLS LAST, horse_number`, raceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Entrant
	for rows.Next() {
		var en model.Entrant
		if err := rows.Scan(&en.ID, &en.RaceID, &en.Number, &en.Bracket, &en.FinishPosition); err != nil {
			return nil, err
		}
		out = append(out, en)
	}
	return out, rows.Err()
}

func (t *pgTx) Wagers(ctx context.Context, raceID string) ([]model.Wager, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT id, race_id, wallet_id, user_id, bet_type, selections, amount, status, payout, rate, created_at
		FROM wagers
		WHERE race_id=$1
		ORDER BY created_at, id`, raceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Wager
	for rows.Next() {
		var w model.Wager
		var sel pq.Int64Array
		var status string
		if err := rows.Scan(&w.ID, &w.RaceID, &w.WalletID, &w.UserID, &w.BetType, &sel,
			&w.Amount, &status, &w.Payout, &w.Rate, &w.CreatedAt); err != nil {
			return nil, err
		}
		w.Selections = fromInt64s(sel)
		w.Status = model.WagerStatus(status)
		out = append(out, w)
	}
	return out, rows.Err()
}

func (t *pgTx) InsertWager(ctx context.Context, w model.Wager) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO wagers(id, race_id, wallet_id, user_id, bet_type, selections, amount, status, payout, rate, created_at)
		VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		w.ID, w.RaceID, w.WalletID, w.UserID, w.BetType, pq.Int64Array(toInt64s(w.Selections)),
		w.Amount, string(w.Status), w.Payout, w.Rate, w.CreatedAt)
	return err
}

func (t *pgTx) UpdateWagerResult(ctx context.Context, w model.Wager) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE wagers SET status=$1, payout=$2, rate=$3 WHERE id=$4`,
		string(w.Status), w.Payout, w.Rate, w.ID)
	if err != nil {
		return err
	}
	return affected(res)
}

func (t *pgTx) ResetWagers(ctx context.Context, raceID string) error {
	_, err := t.tx.ExecContext(ctx,
		`UPDATE wagers SET status='PENDING', payout=0, rate=0 WHERE race_id=$1`, raceID)
	return err
}

func (t *pgTx) ReplacePayoutResults(ctx context.Context, raceID string, results []model.PayoutResult) error {
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM payout_results WHERE race_id=$1`, raceID); err != nil {
		return err
	}
	for _, r := range results {
		body, err := json.Marshal(r.Combinations)
		if err != nil {
			return fmt.Errorf("marshal combinations: %w", err)
		}
		if _, err := t.tx.ExecContext(ctx,
			`INSERT INTO payout_results(race_id, bet_type, combinations) VALUES($1,$2,$3)`,
			raceID, r.BetType, body); err != nil {
			return err
		}
	}
	return nil
}

func (t *pgTx) LockWallet(ctx context.Context, walletID string) (model.Wallet, error) {
	var w model.Wallet
	err := t.tx.QueryRowContext(ctx,
		`SELECT id, user_id, balance FROM wallets WHERE id=$1 FOR UPDATE`, walletID).
		Scan(&w.ID, &w.UserID, &w.Balance)
	if err != nil {
		return model.Wallet{}, notFound(err)
	}
	return w, nil
}

func (t *pgTx) SetWalletBalance(ctx context.Context, walletID string, balance int64) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE wallets SET balance=$1, version = version + 1 WHERE id=$2`, balance, walletID)
	if err != nil {
		return err
	}
	return affected(res)
}

func (t *pgTx) InsertTransaction(ctx context.Context, tr model.Transaction) error {
	var ref any
	if tr.ReferenceID != "" {
		ref = tr.ReferenceID
	}
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO transactions(id, wallet_id, type, amount, reference_id, created_at)
		VALUES($1,$2,$3,$4,$5,$6)`,
		tr.ID, tr.WalletID, string(tr.Type), tr.Amount, ref, tr.CreatedAt)
	return err
}

func scanPayoutResults(rows *sql.Rows, raceID string) ([]model.PayoutResult, error) {
	out := []model.PayoutResult{}
	for rows.Next() {
		var r model.PayoutResult
		var body []byte
		if err := rows.Scan(&r.BetType, &body); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(body, &r.Combinations); err != nil {
			return nil, fmt.Errorf("decode combinations of %s: %w", r.BetType, err)
		}
		r.RaceID = raceID
		out = append(out, r)
	}
	return out, rows.Err()
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return engine.ErrNotFound
	}
	return err
}

// affected traduz UPDATE sem linhas em ErrNotFound
func affected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return engine.ErrNotFound
	}
	return nil
}

func toInt64s(in []int) []int64 {
	out := make([]int64, len(in))
	for i, v := range in {
		out[i] = int64(v)
	}
	return out
}

func fromInt64s(in []int64) []int {
	out := make([]int, len(in))
	for i, v := range in {
		out[i] = int(v)
	}
	return out
}
