package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/radieske/race-bet-platform/internal/race-service/model"
	"github.com/radieske/race-bet-platform/pkg/contracts/events"
)

// Disbursement resume o que foi creditado
type Disbursement struct {
	RaceID   string
	Credited int64
	Payouts  int
}

// Disburse credita os prêmios e devoluções nas carteiras e finaliza a corrida.
// A guarda de status é lida com a corrida travada, na mesma transação da escrita final.
func (e *Engine) Disburse(ctx context.Context, raceID string) (*Disbursement, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}

	out := &Disbursement{RaceID: raceID}
	err := e.store.InTx(ctx, func(tx Tx) error {
		race, err := tx.LockRace(ctx, raceID, true)
		if err != nil {
			return err
		}
		if race.Status == model.RaceFinalized {
			return ErrAlreadyFinalized
		}
		if !race.CanDisburse() {
			return ErrNotSettled
		}

		wagers, err := tx.Wagers(ctx, raceID)
		if err != nil {
			return fmt.Errorf("load wagers: %w", err)
		}

		payable := make([]model.Wager, 0, len(wagers))
		for _, w := range wagers {
			if (w.Status == model.WagerHit || w.Status == model.WagerRefunded) && w.Payout > 0 {
				payable = append(payable, w)
			}
		}
		// trava carteiras sempre na mesma ordem para não haver deadlock entre transações
		sort.SliceStable(payable, func(i, j int) bool { return payable[i].WalletID < payable[j].WalletID })

		for _, w := range payable {
			wallet, err := tx.LockWallet(ctx, w.WalletID)
			if err != nil {
				if errors.Is(err, ErrNotFound) {
					e.log.Error("wallet missing on disbursement",
						zap.String("race_id", raceID),
						zap.String("wager_id", w.ID),
						zap.String("wallet_id", w.WalletID),
					)
					return ErrWalletMissing
				}
				return fmt.Errorf("lock wallet: %w", err)
			}
			if err := tx.SetWalletBalance(ctx, wallet.ID, wallet.Balance+w.Payout); err != nil {
				return fmt.Errorf("credit wallet: %w", err)
			}
			if err := tx.InsertTransaction(ctx, model.Transaction{
				ID:          e.newID(),
				WalletID:    wallet.ID,
				Type:        model.TxPayout,
				Amount:      w.Payout,
				ReferenceID: w.ID,
				CreatedAt:   e.now(),
			}); err != nil {
				return fmt.Errorf("insert payout transaction: %w", err)
			}
			out.Credited += w.Payout
			out.Payouts++
		}

		now := e.now()
		race.Status = model.RaceFinalized
		race.FinalizedAt = &now
		if err := tx.UpdateRace(ctx, race); err != nil {
			return fmt.Errorf("finalize race: %w", err)
		}
		return nil
	})
	if err != nil {
		e.fail("disburse")
		return nil, err
	}

	e.log.Info("race finalized",
		zap.String("race_id", raceID),
		zap.Int("payouts", out.Payouts),
		zap.Int64("credited", out.Credited),
	)
	if e.OnDisbursed != nil {
		e.OnDisbursed(out.Credited)
	}
	e.publish(ctx, events.RaceBroadcast, raceID)
	return out, nil
}
